package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hcplatform/portal-bff/auth"
	"github.com/hcplatform/portal-bff/auth/flowstate"
	"github.com/hcplatform/portal-bff/identity"
	"github.com/hcplatform/portal-bff/sessions"
)

const (
	testClientID    = "portal-bff"
	testRedirectURL = "http://localhost:8080/login/oauth2/code/hsid"
	testSubject     = "hsid-uuid-42"
	testEmail       = "jane.doe@example.com"
	testName        = "Jane Doe"
)

// makeIDToken builds a structurally valid but unsigned JWT for the
// unverified decode path.
func makeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

// tokenEndpointStub stands in for the provider's token endpoint.
type tokenEndpointStub struct {
	status   int
	idToken  string
	lastForm url.Values
}

func (s *tokenEndpointStub) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		s.lastForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-token-1",
			"refresh_token": "refresh-token-1",
			"id_token":      s.idToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// testFixture holds all flow dependencies
type testFixture struct {
	states   *flowstate.InMemoryRepo
	sessions *sessions.InMemoryRepo
	service  *auth.FlowService
	now      time.Time
}

func setupFlowFixture(t *testing.T, tokenURL string, enricher identity.Enricher) *testFixture {
	t.Helper()

	states := flowstate.NewInMemoryRepo()
	sessionRepo := sessions.NewInMemoryRepo()
	now := time.Now().Truncate(time.Second)

	if enricher == nil {
		enricher = identity.StaticEnricher{}
	}

	service, err := auth.NewFlowService(
		auth.Settings{
			OAuth: &oauth2.Config{
				ClientID:    testClientID,
				RedirectURL: testRedirectURL,
				Scopes:      []string{"openid", "profile", "email"},
				Endpoint: oauth2.Endpoint{
					AuthURL:   "https://idp.test/oauth2/authorize",
					TokenURL:  tokenURL,
					AuthStyle: oauth2.AuthStyleInParams,
				},
			},
			StateTTL:        5 * time.Minute,
			SessionDuration: 30 * time.Minute,
		},
		states,
		sessionRepo,
		enricher,
		auth.WithNowTime(func() time.Time { return now }),
	)
	require.NoError(t, err)

	return &testFixture{states: states, sessions: sessionRepo, service: service, now: now}
}

func TestFlowService_InitiateLogin(t *testing.T) {
	f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

	redirect, err := f.service.InitiateLogin(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, redirect.State)

	parsed, err := url.Parse(redirect.AuthorizationURL)
	require.NoError(t, err)
	require.Equal(t, "idp.test", parsed.Host)

	query := parsed.Query()
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, testClientID, query.Get("client_id"))
	require.Equal(t, testRedirectURL, query.Get("redirect_uri"))
	require.Contains(t, query.Get("scope"), "openid")
	require.Equal(t, redirect.State, query.Get("state"))
	require.NotEmpty(t, query.Get("code_challenge"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))

	// The pending association is stored and consumable
	pending, err := f.states.Consume(context.Background(), redirect.State)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.NotEmpty(t, pending.CodeVerifier)
}

func TestFlowService_HandleCallback(t *testing.T) {
	t.Run("success exchanges code with verifier", func(t *testing.T) {
		stub := &tokenEndpointStub{status: http.StatusOK, idToken: makeIDToken(t, map[string]any{"sub": testSubject})}
		server := stub.start(t)
		f := setupFlowFixture(t, server.URL, nil)

		redirect, err := f.service.InitiateLogin(context.Background())
		require.NoError(t, err)

		tokens, err := f.service.HandleCallback(context.Background(), "auth-code-1", redirect.State, redirect.State)
		require.NoError(t, err)
		require.Equal(t, "access-token-1", tokens.AccessToken)
		require.Equal(t, "refresh-token-1", tokens.RefreshToken)
		require.Equal(t, "Bearer", tokens.TokenType)
		require.NotEmpty(t, tokens.IDToken)
		require.EqualValues(t, 3600, tokens.ExpiresIn)

		require.Equal(t, "authorization_code", stub.lastForm.Get("grant_type"))
		require.Equal(t, "auth-code-1", stub.lastForm.Get("code"))
		require.Len(t, stub.lastForm.Get("code_verifier"), 43)
	})

	t.Run("absent presented state", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

		redirect, err := f.service.InitiateLogin(context.Background())
		require.NoError(t, err)

		_, err = f.service.HandleCallback(context.Background(), "code", redirect.State, "")
		require.ErrorIs(t, err, auth.ErrStateMismatch)
	})

	t.Run("mismatched presented state", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

		redirect, err := f.service.InitiateLogin(context.Background())
		require.NoError(t, err)

		_, err = f.service.HandleCallback(context.Background(), "code", redirect.State, "different-state")
		require.ErrorIs(t, err, auth.ErrStateMismatch)
	})

	t.Run("unknown state", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

		_, err := f.service.HandleCallback(context.Background(), "code", "never-issued", "never-issued")
		require.ErrorIs(t, err, auth.ErrInvalidState)
	})

	t.Run("replayed state fails the second time", func(t *testing.T) {
		stub := &tokenEndpointStub{status: http.StatusOK, idToken: makeIDToken(t, map[string]any{"sub": testSubject})}
		server := stub.start(t)
		f := setupFlowFixture(t, server.URL, nil)

		redirect, err := f.service.InitiateLogin(context.Background())
		require.NoError(t, err)

		_, err = f.service.HandleCallback(context.Background(), "code-1", redirect.State, redirect.State)
		require.NoError(t, err)

		_, err = f.service.HandleCallback(context.Background(), "code-1", redirect.State, redirect.State)
		require.ErrorIs(t, err, auth.ErrInvalidState)
	})

	t.Run("provider rejection surfaces as token exchange error", func(t *testing.T) {
		stub := &tokenEndpointStub{status: http.StatusBadRequest}
		server := stub.start(t)
		f := setupFlowFixture(t, server.URL, nil)

		redirect, err := f.service.InitiateLogin(context.Background())
		require.NoError(t, err)

		_, err = f.service.HandleCallback(context.Background(), "bad-code", redirect.State, redirect.State)
		require.ErrorIs(t, err, auth.ErrTokenExchange)
	})
}

type captureEnricher struct {
	got     identity.Identity
	persona identity.Persona
}

func (c *captureEnricher) Enrich(_ context.Context, id identity.Identity) identity.EnrichedIdentity {
	c.got = id
	enriched := identity.Degraded(id)
	if c.persona != "" {
		enriched.Persona = c.persona
	}
	return enriched
}

func TestFlowService_CreateSession(t *testing.T) {
	t.Run("decodes claims and stores session", func(t *testing.T) {
		enricher := &captureEnricher{persona: identity.PersonaRepresentative}
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", enricher)

		tokens := &auth.TokenSet{
			AccessToken: "access",
			IDToken:     makeIDToken(t, map[string]any{"sub": testSubject, "email": testEmail, "name": testName}),
			ExpiresIn:   3600,
		}

		session, err := f.service.CreateSession(context.Background(), tokens)
		require.NoError(t, err)
		require.NotEmpty(t, session.ID)
		require.Equal(t, testSubject, enricher.got.SubjectID)
		require.Equal(t, testEmail, session.Identity.Email)
		require.Equal(t, testName, session.Identity.DisplayName)
		require.Equal(t, identity.PersonaRepresentative, session.Identity.Persona)
		require.Equal(t, f.now.Add(time.Hour), session.ExpiresAt)

		stored, err := f.sessions.Get(context.Background(), session.ID)
		require.NoError(t, err)
		require.Equal(t, session.ID, stored.ID)
	})

	t.Run("undecodable token yields sentinel identity, not an error", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

		for _, raw := range []string{"", "not-a-jwt", "only.two", "!!.!!.!!"} {
			session, err := f.service.CreateSession(context.Background(), &auth.TokenSet{IDToken: raw, ExpiresIn: 60})
			require.NoError(t, err, "raw=%q", raw)
			require.Equal(t, "unknown", session.Identity.SubjectID)
			require.Equal(t, "unknown@example.com", session.Identity.Email)
			require.Equal(t, "Unknown User", session.Identity.DisplayName)
		}
	})

	t.Run("missing expires_in falls back to session duration", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)

		session, err := f.service.CreateSession(context.Background(), &auth.TokenSet{
			IDToken: makeIDToken(t, map[string]any{"sub": testSubject}),
		})
		require.NoError(t, err)
		require.Equal(t, f.now.Add(30*time.Minute), session.ExpiresAt)
	})

	t.Run("distinct sessions get distinct ids", func(t *testing.T) {
		f := setupFlowFixture(t, "https://idp.test/oauth2/token", nil)
		tokens := &auth.TokenSet{IDToken: makeIDToken(t, map[string]any{"sub": testSubject}), ExpiresIn: 60}

		seen := map[string]struct{}{}
		for i := 0; i < 10; i++ {
			session, err := f.service.CreateSession(context.Background(), tokens)
			require.NoError(t, err)
			_, dup := seen[session.ID]
			require.False(t, dup, fmt.Sprintf("duplicate session id at iteration %d", i))
			seen[session.ID] = struct{}{}
		}
	})
}
