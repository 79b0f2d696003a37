// Package session es el dueño único del par de tokens de la sesión.
//
// Los tokens viven en la cookie jar del navegador (access_token /
// refresh_token); acá solo se leen por request y se reescriben cuando un
// refresh los rota. La ausencia de cookies es un estado válido.
package session

import (
	"net/http"
	"sync"
	"time"
)

// Config describe los nombres y atributos de las cookies de sesión.
type Config struct {
	AccessCookie  string
	RefreshCookie string
	Domain        string
	SameSite      string // "", "lax", "strict", "none"
	Secure        bool
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Session es el par de tokens de un request en curso.
// Es seguro para uso concurrente: el cliente upstream puede rotarlo desde
// el camino de refresh mientras el handler lo consulta.
type Session struct {
	mu      sync.Mutex
	access  string
	refresh string
	rotated bool
}

// New crea una sesión a partir de un par ya conocido (login, tests).
func New(access, refresh string) *Session {
	return &Session{access: access, refresh: refresh}
}

// FromRequest lee las cookies del request. Cookies ausentes producen una
// sesión vacía, no un error.
func FromRequest(r *http.Request, cfg Config) *Session {
	s := &Session{}
	if c, err := r.Cookie(cfg.AccessCookie); err == nil {
		s.access = c.Value
	}
	if c, err := r.Cookie(cfg.RefreshCookie); err == nil {
		s.refresh = c.Value
	}
	return s
}

// AccessToken retorna el access token actual ("" si no hay).
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken retorna el refresh token actual ("" si no hay).
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// SetTokens reemplaza el par completo. Invariante: nunca se rota un token
// solo; access y refresh se reemplazan juntos.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.rotated = true
}

// Rotated indica si el par fue reemplazado durante el request (y por lo
// tanto las cookies deben reescribirse antes de responder).
func (s *Session) Rotated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotated
}

// Empty indica que no hay ningún token presente.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access == "" && s.refresh == ""
}

// Write escribe ambas cookies con los TTLs advisory configurados.
// Debe llamarse antes del primer WriteHeader del handler.
func (s *Session) Write(w http.ResponseWriter, cfg Config) {
	s.mu.Lock()
	access, refresh := s.access, s.refresh
	s.mu.Unlock()

	http.SetCookie(w, BuildSessionCookie(cfg.AccessCookie, access, cfg.Domain, cfg.SameSite, cfg.Secure, cfg.AccessTTL))
	http.SetCookie(w, BuildSessionCookie(cfg.RefreshCookie, refresh, cfg.Domain, cfg.SameSite, cfg.Secure, cfg.RefreshTTL))
}

// WriteIfRotated reescribe las cookies solo si el par fue rotado.
func (s *Session) WriteIfRotated(w http.ResponseWriter, cfg Config) {
	if s.Rotated() {
		s.Write(w, cfg)
	}
}

// Clear borra ambas cookies del navegador.
func Clear(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, BuildDeletionCookie(cfg.AccessCookie, cfg.Domain, cfg.SameSite, cfg.Secure))
	http.SetCookie(w, BuildDeletionCookie(cfg.RefreshCookie, cfg.Domain, cfg.SameSite, cfg.Secure))
}
