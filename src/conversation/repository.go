package conversation

import (
	"context"
	"sync"
	"time"
	"weather_nlu/pkg"
)

// Repository stores each conversation's messages in arrival order.
// Append must be safe to call concurrently for the same conversation.
type Repository interface {
	Append(ctx context.Context, conversationID string, message pkg.ConversationMessage) error
	Load(ctx context.Context, conversationID string) ([]pkg.ConversationMessage, error)
	Delete(ctx context.Context, conversationID string) error
}

type memoryEntry struct {
	messages  []pkg.ConversationMessage
	expiresAt time.Time
}

// MemoryRepository keeps conversations in process memory with a sliding TTL
type MemoryRepository struct {
	mu            sync.Mutex
	conversations map[string]*memoryEntry
	ttl           time.Duration
	now           func() time.Time
}

// NewMemoryRepository creates an in-memory repository. A zero ttl disables expiry.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		conversations: make(map[string]*memoryEntry),
		ttl:           ttl,
		now:           time.Now,
	}
}

func (m *MemoryRepository) Append(ctx context.Context, conversationID string, message pkg.ConversationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(conversationID)
	if entry == nil {
		entry = &memoryEntry{}
		m.conversations[conversationID] = entry
	}
	entry.messages = append(entry.messages, message)
	m.touch(entry)
	return nil
}

func (m *MemoryRepository) Load(ctx context.Context, conversationID string) ([]pkg.ConversationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(conversationID)
	if entry == nil {
		return []pkg.ConversationMessage{}, nil
	}
	m.touch(entry)

	messages := make([]pkg.ConversationMessage, len(entry.messages))
	copy(messages, entry.messages)
	return messages, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, conversationID)
	return nil
}

// live returns the entry if present and unexpired; caller holds mu
func (m *MemoryRepository) live(conversationID string) *memoryEntry {
	entry, ok := m.conversations[conversationID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.conversations, conversationID)
		return nil
	}
	return entry
}

func (m *MemoryRepository) touch(entry *memoryEntry) {
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
}
