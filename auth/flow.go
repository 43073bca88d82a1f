package auth

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/hcplatform/portal-bff/auth/flowstate"
	"github.com/hcplatform/portal-bff/identity"
	"github.com/hcplatform/portal-bff/sessions"
)

// TokenSet is the provider's raw issuance from the token endpoint. Owned
// transiently by the flow; never persisted beyond session creation.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int64
}

// LoginRedirect is the outcome of login initiation: the URL the caller must
// redirect the user-agent to, and the state value the caller persists
// client-side for later correlation.
type LoginRedirect struct {
	AuthorizationURL string
	State            string
}

// Settings carries the provider wiring and lifetime policy for the flow.
type Settings struct {
	OAuth *oauth2.Config

	// StateTTL bounds the window between login initiation and callback.
	StateTTL time.Duration

	// SessionDuration is the fallback session lifetime when the token
	// response carries no expires_in.
	SessionDuration time.Duration
}

// FlowService orchestrates the authorization-code-with-PKCE login flow:
// initiation, callback validation, code exchange, and session
// materialization.
type FlowService struct {
	settings Settings
	states   flowstate.Repo
	sessions sessions.Repo
	enricher identity.Enricher
	verifier *oidc.IDTokenVerifier
	nowTime  func() time.Time
}

// FlowServiceOption defines a function type to modify the FlowService instance.
type FlowServiceOption func(*FlowService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) FlowServiceOption {
	return func(fs *FlowService) {
		fs.nowTime = nowFunc
	}
}

// WithIDTokenVerifier enables signature verification of ID tokens. Without a
// verifier the flow falls back to an unverified structural decode, which is
// acceptable because the token arrives over the provider's TLS-protected
// token endpoint, not from the user-agent.
func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) FlowServiceOption {
	return func(fs *FlowService) {
		fs.verifier = verifier
	}
}

// NewFlowService initializes a FlowService with required dependencies.
func NewFlowService(
	settings Settings,
	states flowstate.Repo,
	sessionRepo sessions.Repo,
	enricher identity.Enricher,
	options ...FlowServiceOption,
) (*FlowService, error) {
	if settings.OAuth == nil {
		return nil, errors.New("[NewFlowService] OAuth config is required")
	}
	if states == nil {
		return nil, errors.New("[NewFlowService] flow state repo is required")
	}
	if sessionRepo == nil {
		return nil, errors.New("[NewFlowService] session repo is required")
	}
	if enricher == nil {
		return nil, errors.New("[NewFlowService] enricher is required")
	}
	if settings.StateTTL <= 0 {
		settings.StateTTL = 5 * time.Minute
	}
	if settings.SessionDuration <= 0 {
		settings.SessionDuration = 30 * time.Minute
	}

	fs := &FlowService{
		settings: settings,
		states:   states,
		sessions: sessionRepo,
		enricher: enricher,
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(fs)
	}

	return fs, nil
}

// InitiateLogin generates a PKCE challenge, persists the state -> verifier
// association, and builds the provider authorization URL.
func (fs *FlowService) InitiateLogin(ctx context.Context) (*LoginRedirect, error) {
	challenge := GeneratePkceChallenge()

	now := fs.nowTime()
	pending := &flowstate.State{
		CodeVerifier: challenge.CodeVerifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(fs.settings.StateTTL),
	}
	if err := fs.states.Upsert(ctx, challenge.State, pending); err != nil {
		return nil, errors.Wrap(err, "[FlowService.InitiateLogin] failed to store flow state")
	}

	authURL := fs.settings.OAuth.AuthCodeURL(
		challenge.State,
		oauth2.SetAuthURLParam("code_challenge", challenge.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	return &LoginRedirect{
		AuthorizationURL: authURL,
		State:            challenge.State,
	}, nil
}

// HandleCallback validates the callback parameters against the state the
// client presented, consumes the pending verifier exactly once, and exchanges
// the authorization code for tokens.
func (fs *FlowService) HandleCallback(ctx context.Context, code, state, presentedState string) (*TokenSet, error) {
	if presentedState == "" || presentedState != state {
		return nil, ErrStateMismatch
	}

	pending, err := fs.states.Consume(ctx, state)
	if err != nil {
		return nil, errors.Wrap(err, "[FlowService.HandleCallback] flow state lookup")
	}
	if pending == nil {
		// Covers replay, expiry, and states this server never issued
		return nil, ErrInvalidState
	}

	token, err := fs.settings.OAuth.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", pending.CodeVerifier),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrTokenExchange, "provider error: %v", err)
	}

	tokenSet := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
	}
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		tokenSet.IDToken = rawIDToken
	}
	if tokenSet.ExpiresIn == 0 && !token.Expiry.IsZero() {
		tokenSet.ExpiresIn = int64(token.Expiry.Sub(fs.nowTime()).Seconds())
	}

	return tokenSet, nil
}

// CreateSession decodes the ID token into an Identity, runs enrichment, and
// commits a new session record. Either the full record is written or nothing
// is; enrichment failure degrades the identity but never fails the login.
func (fs *FlowService) CreateSession(ctx context.Context, tokens *TokenSet) (*sessions.Session, error) {
	id := fs.decodeIdentity(ctx, tokens.IDToken)
	enriched := fs.enricher.Enrich(ctx, id)

	now := fs.nowTime()
	lifetime := fs.settings.SessionDuration
	if tokens.ExpiresIn > 0 {
		lifetime = time.Duration(tokens.ExpiresIn) * time.Second
	}

	session := sessions.Session{
		ID:        uuid.New().String(),
		Identity:  enriched,
		IssuedAt:  now,
		ExpiresAt: now.Add(lifetime),
	}

	if err := fs.sessions.Upsert(ctx, session.ID, session); err != nil {
		return nil, errors.Wrap(err, "[FlowService.CreateSession] failed to store session")
	}
	return &session, nil
}

// idTokenClaims are the subset of standard OIDC claims the BFF exposes.
type idTokenClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// decodeIdentity extracts identity claims from the raw ID token. A verifier,
// when configured, validates the signature; otherwise the payload is decoded
// structurally. Decode failure of any kind yields the sentinel unknown
// identity rather than an error.
func (fs *FlowService) decodeIdentity(ctx context.Context, rawIDToken string) identity.Identity {
	if rawIDToken == "" {
		return identity.Unknown()
	}

	var claims idTokenClaims

	if fs.verifier != nil {
		idToken, err := fs.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return identity.Unknown()
		}
		if err := idToken.Claims(&claims); err != nil {
			return identity.Unknown()
		}
	} else {
		mapClaims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, mapClaims); err != nil {
			return identity.Unknown()
		}
		claims.Sub, _ = mapClaims["sub"].(string)
		claims.Email, _ = mapClaims["email"].(string)
		claims.Name, _ = mapClaims["name"].(string)
	}

	id := identity.Unknown()
	if claims.Sub != "" {
		id.SubjectID = claims.Sub
	}
	if claims.Email != "" {
		id.Email = claims.Email
	}
	if claims.Name != "" {
		id.DisplayName = claims.Name
	}
	return id
}
