package sessions

import (
	"context"
	"time"

	apperrors "github.com/hcplatform/portal-bff/internal/errors"
)

// Repo defines the session storage contract. Operations on the same session
// ID are linearizable; operations on distinct IDs are independent. The store
// does not evict on read; expiry is the caller's concern (see Validate).
type Repo interface {
	// Upsert creates or replaces a session
	Upsert(ctx context.Context, sessionID string, session Session) error

	// Get retrieves a session by ID, returning ErrSessionNotFound when absent
	Get(ctx context.Context, sessionID string) (Session, error)

	// Delete removes a session; deleting a non-existent ID is not an error
	Delete(ctx context.Context, sessionID string) error
}

// Validate looks up a session and lazily evicts it when expired. Returns the
// session and true only when it exists and is still live. An absent or
// expired session is not an error condition.
func Validate(ctx context.Context, repo Repo, sessionID string, now time.Time) (Session, bool) {
	session, err := repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, false
	}
	if session.IsExpired(now) {
		_ = repo.Delete(ctx, sessionID)
		return Session{}, false
	}
	return session, true
}

// NotFound reports whether err is the absent-session sentinel.
func NotFound(err error) bool {
	return apperrors.Is(err, apperrors.ErrSessionNotFound)
}
