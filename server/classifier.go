package server

import (
	"net/http"
	"net/url"
	"strings"
)

// oidcCallbackPrefix identifies requests already on the designated callback
// path; the final segment names the provider registration.
const oidcCallbackPrefix = "/login/oauth2/code/"

// backendPathPrefixes are namespaces served by this process. Everything else
// belongs to the frontend.
var backendPathPrefixes = []string{
	"/api/",
	"/actuator/",
	"/login/oauth2/",
	"/oauth2/",
}

// ClassifierMiddleware triages every inbound request before any handler:
//
//	Request with ?code=...&state=...  ->  302 to the OIDC callback path
//	Request already on callback path  ->  pass through
//	Request to a backend namespace    ->  pass through
//	Everything else                   ->  302 to the frontend entry URL
//
// A request carrying only one of code/state is an ordinary request. The
// classification is a pure function of path and query parameters.
func (s *Server) ClassifierMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		query := r.URL.Query()

		code := query.Get("code")
		state := query.Get("state")

		if code != "" && state != "" {
			if !strings.HasPrefix(path, oidcCallbackPrefix) {
				s.redirectToCallback(w, r, code, state)
				return
			}
			next(w, r)
			return
		}

		if isBackendPath(path) {
			next(w, r)
			return
		}

		http.Redirect(w, r, s.config.GetFrontendURL(), http.StatusFound)
	}
}

func isBackendPath(path string) bool {
	// Bare namespace roots count the same as prefix matches
	if path == "/api" || path == "/actuator" {
		return true
	}
	for _, prefix := range backendPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// redirectToCallback forwards a stray provider callback to the designated
// callback route with code and state carried over unchanged.
func (s *Server) redirectToCallback(w http.ResponseWriter, r *http.Request, code, state string) {
	params := url.Values{}
	params.Set("code", code)
	params.Set("state", state)
	target := s.config.GetCallbackPath() + "?" + params.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}
