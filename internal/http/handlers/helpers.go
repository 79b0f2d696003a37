package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tenantdesk/internal/session"
)

// actorFrom identifica al admin del request para auditoría, decodificando
// el access token sin verificar. Best-effort: "" si no se puede.
func actorFrom(r *http.Request, accessCookie string) string {
	c, err := r.Cookie(accessCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	claims, err := session.Peek(c.Value)
	if err != nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.Subject
}
