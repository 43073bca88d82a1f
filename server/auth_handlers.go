package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/hcplatform/portal-bff/internal/errors"
	"github.com/hcplatform/portal-bff/sessions"
)

// LoginHandler initiates the authorization-code-with-PKCE flow: it persists
// the pending state, sets the correlation cookie, and redirects the
// user-agent to the provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := s.flow.InitiateLogin(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("login initiation failed")
			http.Error(w, "Failed to initiate login", http.StatusInternalServerError)
			return
		}

		metricLoginsInitiated.Inc()
		s.SetStateCookie(w, r, redirect.State)
		http.Redirect(w, r, redirect.AuthorizationURL, http.StatusFound)
	}
}

// CallbackHandler completes the flow: state validation, code exchange,
// session materialization. The state cookie is cleared on every exit so a
// failed flow never leaves correlation state dangling. Redirect targets
// carry no error detail.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		errorParam := r.URL.Query().Get("error")

		if errorParam != "" {
			s.ClearStateCookie(w)
			metricCallbacks.WithLabelValues("provider_error").Inc()
			http.Error(w, fmt.Sprintf("Authorization failed: %s", errorParam), http.StatusBadRequest)
			return
		}

		if code == "" || state == "" {
			s.ClearStateCookie(w)
			metricCallbacks.WithLabelValues("bad_request").Inc()
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		presentedState := cookieValue(r, stateCookieName)

		tokens, err := s.flow.HandleCallback(r.Context(), code, state, presentedState)
		if err != nil {
			s.ClearStateCookie(w)
			switch {
			case apperrors.Is(err, apperrors.ErrStateMismatch), apperrors.Is(err, apperrors.ErrInvalidState):
				metricCallbacks.WithLabelValues("invalid_state").Inc()
				http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			default:
				// Token exchange failure: the code is single-use, retrying
				// the same code cannot succeed
				log.Error().Err(err).Msg("token exchange failed")
				metricCallbacks.WithLabelValues("exchange_failed").Inc()
				http.Error(w, "Token exchange failed", http.StatusInternalServerError)
			}
			return
		}

		session, err := s.flow.CreateSession(r.Context(), tokens)
		if err != nil {
			s.ClearStateCookie(w)
			log.Error().Err(err).Msg("session creation failed")
			metricCallbacks.WithLabelValues("session_failed").Inc()
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		metricCallbacks.WithLabelValues("success").Inc()
		maxAge := int(time.Until(session.ExpiresAt).Seconds())
		s.SetSessionCookie(w, r, session.ID, maxAge)
		s.ClearStateCookie(w)
		http.Redirect(w, r, s.config.GetFrontendURL(), http.StatusFound)
	}
}

// sessionResponse is the shape returned by GET /api/auth/session.
type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          any        `json:"user"`
	Persona       string     `json:"persona,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// SessionInfoHandler reports whether the caller holds a live session. An
// absent or expired session is authenticated=false, never an error, and
// expired records are lazily evicted.
func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := cookieValue(r, sessionCookieName)
		if sessionID == "" {
			writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false, User: nil})
			return
		}

		session, ok := sessions.Validate(r.Context(), s.sessions, sessionID, time.Now())
		if !ok {
			writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false, User: nil})
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{
			Authenticated: true,
			User:          session.Identity.Identity,
			Persona:       string(session.Identity.Persona),
			ExpiresAt:     &session.ExpiresAt,
		})
	}
}

// LogoutHandler destroys the session and clears the cookie. Idempotent:
// logging out an unknown or already-removed session still succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := cookieValue(r, sessionCookieName)
		if sessionID != "" {
			if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
				log.Warn().Err(err).Msg("session delete failed during logout")
			}
		}
		s.ClearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
	}
}
