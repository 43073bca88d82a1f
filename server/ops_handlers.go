package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	}
}

// PrometheusHandler exposes metrics in Prometheus exposition format.
func (s *Server) PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
