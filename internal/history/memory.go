// Package history provides the persistent-history collaborators of the chat
// pipeline: an in-memory store for single-process use and tests, and a
// Mongo-backed store for durable transcripts.
package history

import (
	"context"
	"sync"

	"github.com/hmawbi/uniguide/internal/models"
)

// MemoryStore keeps per-session message history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.Message)}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg models.Message) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// Messages returns the stored history for a session in insertion order.
func (s *MemoryStore) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.sessions[sessionID]
	out := make([]models.Message, len(stored))
	copy(out, stored)
	return out, nil
}
