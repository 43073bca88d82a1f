package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hcplatform/portal-bff/auth/flowstate"
	"github.com/hcplatform/portal-bff/identity"
	"github.com/hcplatform/portal-bff/internal/config"
	"github.com/hcplatform/portal-bff/server"
	"github.com/hcplatform/portal-bff/sessions"
)

const testFrontendURL = "http://localhost:4200"

func newTestServer(t *testing.T, tokenURL string, enricher identity.Enricher) (*server.Server, server.Dependencies) {
	t.Helper()
	t.Setenv("FRONTEND_URL", testFrontendURL)

	if enricher == nil {
		enricher = identity.StaticEnricher{}
	}

	deps := server.Dependencies{
		Sessions:   sessions.NewInMemoryRepo(),
		FlowStates: flowstate.NewInMemoryRepo(),
		Enricher:   enricher,
	}

	s, err := server.New(config.New(), deps, server.WithOAuthConfig(&oauth2.Config{
		ClientID:    "portal-bff",
		RedirectURL: "http://localhost:8080/login/oauth2/code/hsid",
		Scopes:      []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://idp.test/oauth2/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}))
	require.NoError(t, err)
	return s, deps
}

func doRequest(s *server.Server, req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	s.ServeHTTP(recorder, req)
	return recorder
}

func TestClassifier(t *testing.T) {
	s, _ := newTestServer(t, "https://idp.test/oauth2/token", nil)

	t.Run("stray callback is forwarded to the callback path", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/?code=X&state=Y", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, "/login/oauth2/code/hsid?code=X&state=Y", resp.Header().Get("Location"))
	})

	t.Run("callback params on a frontend route are forwarded too", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/dashboard?code=X&state=Y", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, "/login/oauth2/code/hsid?code=X&state=Y", resp.Header().Get("Location"))
	})

	t.Run("request already on the callback path passes through", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/login/oauth2/code/hsid?code=X&state=Y", nil))
		// Handled by the callback handler (the state was never issued), not redirected
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("api namespace passes through", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("bare namespace roots count as backend paths", func(t *testing.T) {
		for _, path := range []string{"/api", "/actuator"} {
			resp := doRequest(s, httptest.NewRequest(http.MethodGet, path, nil))
			require.NotEqual(t, http.StatusFound, resp.Code, "path %s must not redirect", path)
		}
	})

	t.Run("actuator health passes through", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/actuator/health", nil))
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("root without query redirects to frontend", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, testFrontendURL, resp.Header().Get("Location"))
	})

	t.Run("code without state is an ordinary request", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/?code=X", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, testFrontendURL, resp.Header().Get("Location"))
	})

	t.Run("state without code is an ordinary request", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/?state=Y", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, testFrontendURL, resp.Header().Get("Location"))
	})

	t.Run("frontend route redirects to frontend", func(t *testing.T) {
		resp := doRequest(s, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		require.Equal(t, http.StatusFound, resp.Code)
		require.Equal(t, testFrontendURL, resp.Header().Get("Location"))
	})
}
