// Package chat streams assistant replies and keeps the user's chat history.
package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("chat not found")

// Message is one turn as the client sends it.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository persists chats in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts the chat or replaces its messages. A chat id owned by another
// user is left untouched.
func (r *Repository) Save(ctx context.Context, c Chat) error {
	raw, err := json.Marshal(c.Messages)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, messages)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			messages = EXCLUDED.messages,
			updated_at = NOW()
		WHERE chats.user_id = EXCLUDED.user_id
	`, c.ID, c.UserID, string(raw))
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (Chat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, messages, created_at FROM chats WHERE id = $1`, id)
	c, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Chat{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, id)
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, messages, created_at FROM chats
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func scanChat(row interface{ Scan(...any) error }) (Chat, error) {
	var c Chat
	var raw []byte
	if err := row.Scan(&c.ID, &c.UserID, &raw, &c.CreatedAt); err != nil {
		return Chat{}, err
	}
	if err := json.Unmarshal(raw, &c.Messages); err != nil {
		return Chat{}, err
	}
	return c, nil
}
