package ports

import (
	"context"

	"github.com/aretw0/alf/pkg/domain"
)

// KnowledgeStore defines the interface for persisting learning sessions.
// This allows a session to be stopped and resumed, possibly on another replica.
type KnowledgeStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
