package upstream

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	requestsTotal *prometheus.CounterVec
	refreshTotal  *prometheus.CounterVec
)

// registerMetrics inicializa las métricas del cliente upstream.
// Idempotente para que New() pueda llamarse más de una vez (tests).
func registerMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Requests emitidos contra la API de plataforma",
		}, []string{"op", "status"})

		refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_token_refresh_total",
			Help: "Intentos de refresh de access token, por resultado",
		}, []string{"outcome"})

		prometheus.MustRegister(requestsTotal, refreshTotal)
	})
}
