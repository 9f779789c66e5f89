package hmschat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists chat messages and reads back recent history.
type Store interface {
	// Append persists a message.
	Append(ctx context.Context, message ChatMessage) error
	// ListChronological returns the latest limit messages, oldest first.
	// A limit <= 0 means DefaultHistoryLimit.
	ListChronological(ctx context.Context, limit int) ([]ChatMessage, error)
}

// Prepare fills in the storage assigned fields of a message. A timestamp
// that is missing or cannot be ordered is replaced with now.
func Prepare(message ChatMessage, now time.Time) ChatMessage {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() || !timestampInRange(message.Timestamp) {
		message.Timestamp = now
	}
	message.Timestamp = message.Timestamp.UTC()
	return message
}

func Limit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

// Reverse flips newest-first results into chronological order in place.
func Reverse(messages []ChatMessage) []ChatMessage {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

var _ Searcher = (*MemoryStore)(nil)

// MemoryStore keeps messages in process. It backs local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []ChatMessage
	capacity int
}

// NewMemoryStore keeps at most capacity messages; capacity <= 0 keeps all.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) Append(_ context.Context, message ChatMessage) error {
	message = Prepare(message, time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, message)
	if m.capacity > 0 && len(m.messages) > m.capacity {
		m.messages = append([]ChatMessage(nil), m.messages[len(m.messages)-m.capacity:]...)
	}
	return nil
}

func (m *MemoryStore) ListChronological(_ context.Context, limit int) ([]ChatMessage, error) {
	limit = Limit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	start := len(m.messages) - limit
	if start < 0 {
		start = 0
	}
	out := make([]ChatMessage, len(m.messages)-start)
	copy(out, m.messages[start:])
	return out, nil
}

func (m *MemoryStore) Search(_ context.Context, query string, limit int) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SearchMessages(m.messages, query, limit), nil
}

func (m *MemoryStore) Stats(_ context.Context) (Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Summarize(m.messages), nil
}
