// Package handlers expone la API browser-facing del gateway.
//
// Cada handler es un consumidor fino del cliente upstream: lee la sesión
// de las cookies, delega, y si el par de tokens rotó durante la llamada
// reescribe las cookies antes de responder.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantdesk/internal/audit"
	"github.com/dropDatabas3/tenantdesk/internal/cache"
	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
	"github.com/dropDatabas3/tenantdesk/internal/session"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

// API agrupa las dependencias de los handlers del gateway.
type API struct {
	Client   *upstream.Client
	Cookies  session.Config
	Audit    audit.Recorder
	Cache    cache.Cache
	StatsTTL time.Duration
}

// sessionFromRequest lee el par de tokens de las cookies del request.
func (a *API) sessionFromRequest(r *http.Request) *session.Session {
	return session.FromRequest(r, a.Cookies)
}

// writeUpstreamError traduce un error del cliente upstream a la respuesta
// del gateway. Política (ver taxonomía de errores):
//   - sesión vencida / sin autenticar → limpiar Session Store + 401.
//     Nunca se deja al usuario con un par de tokens muerto retenido.
//   - not found → 404 passthrough.
//   - error tipado del upstream → mismo status y código.
//   - resto (red) → 502.
func (a *API) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upstream.ErrSessionExpired), errors.Is(err, upstream.ErrUnauthenticated):
		session.Clear(w, a.Cookies)
		httpx.WriteError(w, http.StatusUnauthorized, "session_expired",
			"la sesión ya no es válida, iniciá sesión de nuevo", 1401)
	case errors.Is(err, upstream.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "el recurso no existe", 1404)
	default:
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) {
			httpx.WriteError(w, apiErr.Status, apiErr.Code, apiErr.Description, apiErr.ErrCode)
			return
		}
		logger.From(r.Context()).Error("upstream call failed", logger.Err(err))
		httpx.WriteError(w, http.StatusBadGateway, "upstream_unreachable",
			"no se pudo contactar la API de plataforma", 1502)
	}
}
