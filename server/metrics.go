package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLoginsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bff_logins_initiated_total",
		Help: "Number of login flows initiated",
	})

	metricCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bff_login_callbacks_total",
		Help: "Number of OIDC callbacks handled, by outcome",
	}, []string{"outcome"})

	metricPersonaDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bff_persona_denials_total",
		Help: "Number of requests denied by the persona gate",
	})
)
