package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mycally/internal/apierr"
	"mycally/internal/gemini"
	"mycally/internal/logger"
)

// Store is the persistence the service needs.
type Store interface {
	Save(ctx context.Context, c Chat) error
	Get(ctx context.Context, id string) (Chat, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]Chat, error)
}

// Request is the POST /api/chat body.
type Request struct {
	ID        string          `json:"id"`
	Messages  []Message       `json:"messages"`
	ExtraInfo json.RawMessage `json:"extraInfo"`
}

// Reply is a finished assistant answer and the id the chat was saved under.
type Reply struct {
	ChatID string
	Text   string
}

type Service struct {
	store Store
	model gemini.Model
	log   *logger.Logger
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, model gemini.Model, log *logger.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, model: model, log: log.With("service", "ChatService"), loc: loc, now: time.Now}
}

// Respond streams the assistant reply to onDelta and saves the chat once the
// reply is complete. Ids that are not UUIDs are replaced by a new one, which
// the Reply reports. Saving failures are logged only.
func (s *Service) Respond(ctx context.Context, userID string, req Request, onDelta func(string) error) (Reply, error) {
	contents := toContents(req.Messages)
	if len(contents) == 0 {
		return Reply{}, apierr.New(http.StatusBadRequest, "invalid_request", errors.New("messages are required"))
	}
	if s.model == nil || !s.model.Available() {
		return Reply{}, apierr.New(http.StatusServiceUnavailable, "model_unavailable", gemini.ErrUnavailable)
	}

	reply, err := s.model.Stream(ctx, gemini.Request{
		System:   s.systemPrompt(req.ExtraInfo),
		Contents: contents,
	}, onDelta)
	if err != nil {
		return Reply{Text: reply}, fmt.Errorf("chat completion: %w", err)
	}

	id := req.ID
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	history := append(append([]Message(nil), req.Messages...), Message{ID: uuid.NewString(), Role: "assistant", Content: reply})
	if err := s.store.Save(context.WithoutCancel(ctx), Chat{ID: id, UserID: userID, Messages: history}); err != nil {
		s.log.Error("failed to save chat", "chat_id", id, "user_id", userID, "error", err)
	}
	return Reply{ChatID: id, Text: reply}, nil
}

// Delete removes a chat owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return apierr.New(http.StatusNotFound, "not_found", errors.New("chat id is required"))
	}
	if _, err := uuid.Parse(id); err != nil {
		return apierr.New(http.StatusNotFound, "not_found", ErrNotFound)
	}
	c, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apierr.New(http.StatusNotFound, "not_found", err)
		}
		return err
	}
	if c.UserID != userID {
		return apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("chat belongs to another user"))
	}
	return s.store.Delete(ctx, id)
}

// History lists the user's chats, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Chat, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) systemPrompt(extra json.RawMessage) string {
	today := s.now().In(s.loc).Format("1/2/2006")
	return "- you help users stay up to date with their Canvas assignments!\n" +
		"- today's date is " + today + ".\n" +
		"- the user's events (assignments) are " + extraInfoText(extra)
}

// extraInfoText renders a JSON string as-is and anything else as JSON.
func extraInfoText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "not available"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Empty turns are dropped; assistant turns map to the model role.
func toContents(msgs []Message) []gemini.Content {
	out := make([]gemini.Content, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case "assistant", "model":
			out = append(out, gemini.ModelTurn(m.Content))
		case "user":
			out = append(out, gemini.User(gemini.Text(m.Content)))
		}
	}
	return out
}
