package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthCallback = "/api/auth/callback"
	RouteAuthSession  = "/api/auth/session"
	RouteAuthLogout   = "/api/auth/logout"

	// RouteOidcCallback is the designated provider callback path. The
	// classifier forwards stray callbacks (code+state landing on any other
	// path) here.
	RouteOidcCallback = "/login/oauth2/code/hsid"

	// Persona-gated demo routes
	RoutePersonaSelfOnly           = "/api/persona-test/self-only"
	RoutePersonaRepresentativeOnly = "/api/persona-test/representative-only"
	RoutePersonaAny                = "/api/persona-test/any-persona"

	// Operational Routes
	RouteActuatorHealth     = "/actuator/health"
	RouteActuatorPrometheus = "/actuator/prometheus"
)
