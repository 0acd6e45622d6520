// Package sessions keeps per-conversation dialog state between turns.
//
// A Session lives only as long as the platform conversation it belongs to.
// Two stores are provided: an in-process map with idle eviction and a Redis
// store for running several server replicas. Manager serialises turns of the
// same conversation.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ermil/internal/server/services"
)

// Session is the state a conversation carries between turns. State is the
// dialog state name, empty for a conversation that has not started yet.
// Identity is the token issued at login, empty when not logged in.
type Session struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	Identity  string            `json:"identity,omitempty"`
	Pending   *services.Pending `json:"pending,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store persists sessions. Load reports a missing or expired session as
// common.ErrNotFound.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
