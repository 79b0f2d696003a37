package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
)

// Healthz: liveness del proceso.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz: readiness = el upstream es alcanzable.
func (a *API) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := a.Client.Healthz(r.Context()); err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "upstream_unreachable",
			"la API de plataforma no responde", 1503)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
