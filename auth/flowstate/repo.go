package flowstate

import (
	"context"
	"time"
)

// State is the transient state -> codeVerifier association written at login
// initiation and consumed exactly once at callback.
type State struct {
	CodeVerifier string    `json:"codeVerifier"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Repo stores pending authorization-request state. Consume must be atomic:
// two callbacks presenting the same state must never both obtain the
// verifier.
type Repo interface {
	// Upsert stores a pending state association
	Upsert(ctx context.Context, state string, pending *State) error

	// Consume retrieves and removes the association in one step, returning
	// (nil, nil) when the state is unknown, already consumed, or expired
	Consume(ctx context.Context, state string) (*State, error)
}
