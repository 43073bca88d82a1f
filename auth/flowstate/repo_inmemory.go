package flowstate

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]*State
	nowTime func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states:  make(map[string]*State),
		nowTime: time.Now,
	}
}

// Upsert stores a pending state association
func (r *InMemoryRepo) Upsert(_ context.Context, state string, pending *State) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if pending == nil {
		return errors.New("pending state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	r.states[state] = &State{
		CodeVerifier: pending.CodeVerifier,
		CreatedAt:    pending.CreatedAt,
		ExpiresAt:    pending.ExpiresAt,
	}
	return nil
}

// Consume removes and returns the association under a single lock hold, so a
// replayed callback observes the state as already gone.
func (r *InMemoryRepo) Consume(_ context.Context, state string) (*State, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, exists := r.states[state]
	if !exists {
		return nil, nil
	}
	delete(r.states, state)

	if r.nowTime().After(pending.ExpiresAt) {
		return nil, nil
	}
	return pending, nil
}
