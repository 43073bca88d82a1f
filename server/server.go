package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/hcplatform/portal-bff/auth"
	"github.com/hcplatform/portal-bff/auth/flowstate"
	"github.com/hcplatform/portal-bff/identity"
	"github.com/hcplatform/portal-bff/internal/config"
	"github.com/hcplatform/portal-bff/sessions"
)

// Dependencies holds the storage and enrichment collaborators for the Server.
type Dependencies struct {
	Sessions   sessions.Repo  // Repository for session records
	FlowStates flowstate.Repo // Repository for pending PKCE state
	Enricher   identity.Enricher
}

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	flow     *auth.FlowService
	sessions sessions.Repo
}

// Option defines a function type to modify the Server instance.
type Option func(*serverSetup)

type serverSetup struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// WithOAuthConfig overrides the provider endpoints built from config
// (primarily for testing against a stub token endpoint).
func WithOAuthConfig(cfg *oauth2.Config) Option {
	return func(s *serverSetup) {
		s.oauthConfig = cfg
	}
}

// WithIDTokenVerifier enables ID token signature verification.
func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) Option {
	return func(s *serverSetup) {
		s.verifier = verifier
	}
}

// NewDependencies builds production dependencies from config: memory or
// Redis stores per SESSION_BACKEND, and the service-backed enricher.
func NewDependencies(cfg config.Config) (Dependencies, error) {
	deps := Dependencies{
		Enricher: identity.NewServiceEnricher(
			cfg.GetUserServiceBaseURL(),
			cfg.GetDelegateServiceBaseURL(),
			identity.WithTimeout(cfg.GetServiceTimeout()),
		),
	}

	switch cfg.GetSessionBackend() {
	case "redis":
		sessionRepo, err := sessions.NewRedisRepo(cfg.GetRedisURL())
		if err != nil {
			return Dependencies{}, errors.Wrap(err, "[NewDependencies] redis session repo")
		}
		stateRepo, err := flowstate.NewRedisRepo(cfg.GetRedisURL())
		if err != nil {
			return Dependencies{}, errors.Wrap(err, "[NewDependencies] redis flow state repo")
		}
		deps.Sessions = sessionRepo
		deps.FlowStates = stateRepo
	default:
		deps.Sessions = sessions.NewInMemoryRepo()
		deps.FlowStates = flowstate.NewInMemoryRepo()
	}

	return deps, nil
}

func New(cfg config.Config, deps Dependencies, options ...Option) (*Server, error) {
	setup := &serverSetup{}
	for _, opt := range options {
		opt(setup)
	}

	if setup.oauthConfig == nil {
		oauthConfig, verifier := buildOAuthConfig(cfg)
		setup.oauthConfig = oauthConfig
		if setup.verifier == nil {
			setup.verifier = verifier
		}
	}

	flowOptions := []auth.FlowServiceOption{}
	if setup.verifier != nil {
		flowOptions = append(flowOptions, auth.WithIDTokenVerifier(setup.verifier))
	}

	flowService, err := auth.NewFlowService(
		auth.Settings{
			OAuth:           setup.oauthConfig,
			StateTTL:        cfg.GetStateTTL(),
			SessionDuration: cfg.GetSessionDuration(),
		},
		deps.FlowStates,
		deps.Sessions,
		deps.Enricher,
		flowOptions...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create flow service")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		flow:     flowService,
		sessions: deps.Sessions,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// ServeHTTP classifies every request before the mux sees it: stray OIDC
// callbacks are forwarded to the callback route, non-backend paths are sent
// to the frontend.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.ClassifierMiddleware(s.mux.ServeHTTP)(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// buildOAuthConfig assembles the provider configuration. When an issuer URL
// is configured the endpoints are discovered and ID tokens get verified;
// discovery failure falls back to the static endpoint configuration so the
// gateway still boots when the provider is briefly unreachable.
func buildOAuthConfig(cfg config.Config) (*oauth2.Config, *oidc.IDTokenVerifier) {
	scopes := make([]string, 0, len(cfg.GetScopes()))
	for _, scope := range cfg.GetScopes() {
		if scope = strings.TrimSpace(scope); scope != "" {
			scopes = append(scopes, scope)
		}
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		RedirectURL:  cfg.GetRedirectURL(),
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.GetAuthorizationURL(),
			TokenURL: cfg.GetTokenURL(),
		},
	}

	issuer := cfg.GetIssuerURL()
	if issuer == "" {
		return oauthConfig, nil
	}

	provider, err := oidc.NewProvider(context.Background(), issuer)
	if err != nil {
		log.Warn().Err(err).Str("issuer", issuer).Msg("OIDC discovery failed, using static endpoints")
		return oauthConfig, nil
	}

	oauthConfig.Endpoint = provider.Endpoint()
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.GetClientID()})
	return oauthConfig, verifier
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("registered route")
		} else {
			log.Debug().Str("path", parts[0]).Msg("registered route")
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
