package model

import (
	"context"
)

type SessionRepository interface {
	// Load returns the turns of a session; an unknown session yields an empty history
	Load(ctx context.Context, sessionID string) (History, error)

	// Save replaces the stored turns of a session
	Save(ctx context.Context, sessionID string, history History) error

	// Clear removes a session
	Clear(ctx context.Context, sessionID string) error

	// Count returns the number of stored turns
	Count(ctx context.Context, sessionID string) (int, error)
}
