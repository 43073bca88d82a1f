package server

import (
	"github.com/hcplatform/portal-bff/identity"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("GET "+RouteAuthCallback, s.CallbackHandler())
	s.RegisterRouteFunc("GET "+RouteOidcCallback, s.CallbackHandler())
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionInfoHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Persona-gated endpoints
	s.RegisterRouteHandler("GET "+RoutePersonaSelfOnly, ChainMiddleware(
		s.RequirePersona([]identity.Persona{identity.PersonaSelf}, s.PersonaEchoHandler(RoutePersonaSelfOnly, "Access granted for self persona")),
		s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePersonaRepresentativeOnly, ChainMiddleware(
		s.RequirePersona([]identity.Persona{identity.PersonaRepresentative}, s.PersonaEchoHandler(RoutePersonaRepresentativeOnly, "Access granted for representative persona")),
		s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePersonaAny, ChainMiddleware(
		s.RequirePersona([]identity.Persona{identity.PersonaSelf, identity.PersonaRepresentative}, s.PersonaEchoHandler(RoutePersonaAny, "Access granted for any persona")),
		s.APIMiddleware()...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteActuatorHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteActuatorPrometheus, s.PrometheusHandler())
}
