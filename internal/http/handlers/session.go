package handlers

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
	"github.com/dropDatabas3/tenantdesk/internal/session"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

type sessionResponse struct {
	User upstream.User `json:"user"`

	// Expiración advisory del access token, decodificada sin verificar.
	// Solo informativa: la autorización real siempre la decide el upstream.
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
}

// Session maneja GET /api/session: el bootstrap del Session Context.
// Con cookie presente trae el perfil vía fetch autenticado; el User vive
// solo en esta respuesta, nunca se persiste en el gateway.
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	sess := a.sessionFromRequest(r)
	if sess.Empty() {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "no hay sesión activa", 1100)
		return
	}

	user, err := a.Client.Profile(r.Context(), sess)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	resp := sessionResponse{User: user}
	if claims, err := session.Peek(sess.AccessToken()); err == nil && !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		resp.AccessExpiresAt = &exp
	}

	// Si el profile disparó un refresh, bajar el par nuevo al browser.
	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
