package sessions

import (
	"time"

	"github.com/hcplatform/portal-bff/identity"
)

// Session is the server-side record behind a session cookie. Created on a
// successful OIDC callback, read on every authenticated request, deleted on
// logout or expiry. ExpiresAt is fixed at creation time; a refreshed session
// is a new record.
type Session struct {
	ID        string                    `json:"id"`
	Identity  identity.EnrichedIdentity `json:"identity"`
	IssuedAt  time.Time                 `json:"issuedAt"`
	ExpiresAt time.Time                 `json:"expiresAt"`
}

// IsExpired reports whether the session has passed its expiry.
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
