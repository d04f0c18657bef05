package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mycally/internal/apierr"
	"mycally/internal/auth"
	"mycally/internal/logger"
)

const (
	maxEmailLen    = 64
	minPasswordLen = 6
)

// Store is the persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumeRefreshToken(ctx context.Context, token string) (User, error)
}

// Service registers users and issues sessions.
type Service struct {
	store  Store
	signer *auth.Signer
	log    *logger.Logger
	cost   int
}

func NewService(store Store, signer *auth.Signer, log *logger.Logger) *Service {
	return &Service{store: store, signer: signer, log: log.With("service", "AccountService"), cost: bcrypt.DefaultCost}
}

// Credentials is the register/login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) normalized() Credentials {
	return Credentials{Email: strings.ToLower(strings.TrimSpace(c.Email)), Password: c.Password}
}

// Session is returned on register, login and refresh.
type Session struct {
	User   User           `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Register creates an account and opens a session for it.
func (s *Service) Register(ctx context.Context, in Credentials) (Session, error) {
	in = in.normalized()
	if err := validate(in); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, in.Email, string(hash))
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, apierr.New(http.StatusConflict, "email_taken", err)
		}
		return Session{}, err
	}
	s.log.Info("user registered", "user_id", u.ID)
	return s.open(ctx, u)
}

// Login verifies credentials.
func (s *Service) Login(ctx context.Context, in Credentials) (Session, error) {
	in = in.normalized()
	invalid := apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))
	if in.Email == "" || in.Password == "" {
		return Session{}, invalid
	}
	u, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, invalid
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return Session{}, invalid
	}
	return s.open(ctx, u)
}

// Refresh rotates a refresh token. The old token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if _, err := s.signer.Parse(refreshToken, auth.TypeRefresh); err != nil {
		return Session{}, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}
	u, err := s.store.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenUnknown) {
			return Session{}, apierr.New(http.StatusUnauthorized, "invalid_token", err)
		}
		return Session{}, err
	}
	return s.open(ctx, u)
}

func (s *Service) open(ctx context.Context, u User) (Session, error) {
	pair, err := s.signer.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.store.SaveRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExp); err != nil {
		return Session{}, fmt.Errorf("save refresh token: %w", err)
	}
	return Session{User: u, Tokens: pair}, nil
}

func validate(in Credentials) error {
	if in.Email == "" || len(in.Email) > maxEmailLen {
		return apierr.New(http.StatusBadRequest, "invalid_email", fmt.Errorf("email must be 1-%d characters", maxEmailLen))
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apierr.New(http.StatusBadRequest, "invalid_email", errors.New("email is not valid"))
	}
	if len(in.Password) < minPasswordLen {
		return apierr.New(http.StatusBadRequest, "invalid_password", fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}
