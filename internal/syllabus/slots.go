package syllabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSlotEmpty means the user has no stored syllabus.
var ErrSlotEmpty = errors.New("syllabus: no stored syllabus")

// Metadata describes the stored file.
type Metadata struct {
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
	HasEvents  bool      `json:"hasEvents"`
}

// Slot is one user's stored syllabus. Content is bare base64.
type Slot struct {
	Content  string
	Metadata Metadata
}

// SlotStore keeps at most one syllabus per user; Put replaces it wholesale.
type SlotStore interface {
	Put(ctx context.Context, userID string, slot Slot) error
	Get(ctx context.Context, userID string) (Slot, error)
	Delete(ctx context.Context, userID string) error
}

// MemorySlots is a process-local SlotStore.
type MemorySlots struct {
	mu    sync.RWMutex
	slots map[string]Slot
}

// NewMemorySlots creates an empty store.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string]Slot)}
}

func (m *MemorySlots) Put(ctx context.Context, userID string, slot Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[userID] = slot
	return nil
}

func (m *MemorySlots) Get(ctx context.Context, userID string) (Slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.slots[userID]
	if !ok {
		return Slot{}, ErrSlotEmpty
	}
	return slot, nil
}

func (m *MemorySlots) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, userID)
	return nil
}

const (
	fieldMetadata = "metadata"
	fieldContent  = "content"
)

// RedisSlots stores each slot as a hash with metadata and content fields.
type RedisSlots struct {
	client *redis.Client
	prefix string
}

// NewRedisSlots builds a store under keys "<prefix><userID>".
func NewRedisSlots(client *redis.Client, prefix string) *RedisSlots {
	if prefix == "" {
		prefix = "mycally:syllabus:"
	}
	return &RedisSlots{client: client, prefix: prefix}
}

func (r *RedisSlots) Put(ctx context.Context, userID string, slot Slot) error {
	meta, err := json.Marshal(slot.Metadata)
	if err != nil {
		return err
	}
	key := r.prefix + userID
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, fieldMetadata, string(meta), fieldContent, slot.Content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store syllabus: %w", err)
	}
	return nil
}

func (r *RedisSlots) Get(ctx context.Context, userID string) (Slot, error) {
	vals, err := r.client.HGetAll(ctx, r.prefix+userID).Result()
	if err != nil {
		return Slot{}, fmt.Errorf("load syllabus: %w", err)
	}
	content, ok := vals[fieldContent]
	if !ok {
		return Slot{}, ErrSlotEmpty
	}
	slot := Slot{Content: content}
	if raw := vals[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &slot.Metadata); err != nil {
			return Slot{}, fmt.Errorf("decode syllabus metadata: %w", err)
		}
	}
	return slot, nil
}

func (r *RedisSlots) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.prefix+userID).Err()
}
