package repo

import (
	"context"
	"sync"

	"github.com/crm-chatbot-api/server/internal/agent/model"
)

// MemorySessionRepository keeps sessions in process memory. It is used when
// no Redis URL is configured and in tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.History
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]model.History)}
}

func (r *MemorySessionRepository) Load(_ context.Context, sessionID string) (model.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID].Clone(), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, sessionID string, history model.History) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(history) == 0 {
		delete(r.sessions, sessionID)
		return nil
	}
	r.sessions[sessionID] = history.Clone()
	return nil
}

func (r *MemorySessionRepository) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemorySessionRepository) Count(_ context.Context, sessionID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[sessionID]), nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
