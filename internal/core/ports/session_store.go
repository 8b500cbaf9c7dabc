package ports

import (
	"context"
	"time"
)

// SessionStore tracks issued bearer sessions so tokens can be revoked before
// they expire. Implementations are external collaborators; the core only
// issues opaque session ids.
type SessionStore interface {
	// Save records a session for the user, expiring after ttl.
	Save(ctx context.Context, sessionID, username string, ttl time.Duration) error
	// Exists reports whether the session is still live.
	Exists(ctx context.Context, sessionID string) (bool, error)
	// Delete revokes the session. Deleting an unknown session is a no-op.
	Delete(ctx context.Context, sessionID string) error
}
