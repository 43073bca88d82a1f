package server

import (
	"net/http"
	"time"

	"github.com/hcplatform/portal-bff/identity"
	"github.com/hcplatform/portal-bff/sessions"
)

// PrincipalHandler is a handler that receives the resolved principal as an
// explicit parameter rather than through ambient request context.
type PrincipalHandler func(w http.ResponseWriter, r *http.Request, principal *identity.EnrichedIdentity)

// personaDeniedResponse surfaces required vs actual persona for diagnostics.
// It never carries other users' data.
type personaDeniedResponse struct {
	Error            string             `json:"error"`
	RequiredPersonas []identity.Persona `json:"requiredPersonas"`
	ActualPersona    string             `json:"actualPersona,omitempty"`
}

// RequirePersona resolves the caller's principal from the session cookie and
// evaluates the persona gate before the wrapped handler runs. Denied requests
// produce no side effects from the handler body: 401 when there is no
// authenticated principal, 403 when the persona is not acceptable.
func (s *Server) RequirePersona(allowed []identity.Persona, next PrincipalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := s.resolvePrincipal(r)

		decision := identity.CheckPersona(principal, allowed)
		if !decision.Allowed {
			metricPersonaDenials.Inc()
			status := http.StatusForbidden
			if decision.ActualPersona == identity.PersonaNone {
				status = http.StatusUnauthorized
			}
			writeJSON(w, status, personaDeniedResponse{
				Error:            "persona not permitted",
				RequiredPersonas: decision.RequiredPersonas,
				ActualPersona:    string(decision.ActualPersona),
			})
			return
		}

		next(w, r, principal)
	}
}

// resolvePrincipal returns the enriched identity behind the request's session
// cookie, or nil when there is no live session.
func (s *Server) resolvePrincipal(r *http.Request) *identity.EnrichedIdentity {
	sessionID := cookieValue(r, sessionCookieName)
	if sessionID == "" {
		return nil
	}
	session, ok := sessions.Validate(r.Context(), s.sessions, sessionID, time.Now())
	if !ok {
		return nil
	}
	return &session.Identity
}

// personaEchoResponse mirrors the persona back to the caller.
type personaEchoResponse struct {
	Endpoint    string `json:"endpoint"`
	UserPersona string `json:"userPersona"`
	Message     string `json:"message"`
}

// PersonaEchoHandler answers a persona-gated endpoint with the caller's
// persona and a static message.
func (s *Server) PersonaEchoHandler(endpoint, message string) PrincipalHandler {
	return func(w http.ResponseWriter, _ *http.Request, principal *identity.EnrichedIdentity) {
		writeJSON(w, http.StatusOK, personaEchoResponse{
			Endpoint:    endpoint,
			UserPersona: string(principal.Persona),
			Message:     message,
		})
	}
}
