package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
)

// parseSameSite convierte el string de config a http.SameSite.
// Acepta: "", "lax", "strict", "none" (case-insensitive). Default: Lax.
func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		// Nota: para navegadores modernos, SameSite=None requiere Secure=true.
		// No forzamos Secure acá para no romper ambientes http://localhost.
		return http.SameSiteNoneMode
	default:
		logger.L().Warn("cookie: SameSite desconocido, usando Lax", logger.String("samesite", s))
		return http.SameSiteLaxMode
	}
}

// BuildSessionCookie construye una cookie de sesión con flags de seguridad.
// Path siempre "/" para que ambos tokens viajen en toda navegación.
func BuildSessionCookie(name, value, domain, sameSite string, secure bool, ttl time.Duration) *http.Cookie {
	ss := parseSameSite(sameSite)
	if ss == http.SameSiteNoneMode && !secure {
		logger.L().Warn("cookie: SameSite=None sin Secure; algunos navegadores pueden rechazar la cookie",
			logger.String("cookie", name))
	}
	exp := time.Now().UTC().Add(ttl)

	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: ss,
	}
	if domain != "" {
		c.Domain = domain
	}
	return c
}

// BuildDeletionCookie devuelve una cookie que "borra" el token del browser.
// Usa mismo nombre/domain/samesite/secure para que el user-agent la sobreescriba.
func BuildDeletionCookie(name, domain, sameSite string, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   secure,
		HttpOnly: true,
		SameSite: parseSameSite(sameSite),
	}
	if domain != "" {
		c.Domain = domain
	}
	return c
}
