package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantdesk/internal/audit"
	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
	"github.com/dropDatabas3/tenantdesk/internal/session"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	RequiresTwoFactor bool `json:"requires_two_factor"`
}

// Login maneja POST /api/auth/login.
// Éxito: par de tokens a cookies + requires_two_factor al caller.
// Credenciales inválidas: 401 tipado, sin tocar cookies.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("Login"))

	var req loginRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing_fields", "email y password son obligatorios", 1002)
		return
	}

	res, err := a.Client.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, upstream.ErrInvalidCredentials) {
			log.Warn("login rejected", logger.Email(req.Email))
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "credenciales inválidas", 1101)
			return
		}
		a.writeUpstreamError(w, r, err)
		return
	}

	sess := session.New(res.AccessToken, res.RefreshToken)
	sess.Write(w, a.Cookies)

	a.Audit.Record(ctx, audit.Event{Actor: req.Email, Action: "login"})
	log.Info("login ok", logger.Email(req.Email), logger.Bool("requires_2fa", res.RequiresTwoFactor))

	httpx.WriteJSON(w, http.StatusOK, loginResponse{RequiresTwoFactor: res.RequiresTwoFactor})
}

// Logout maneja POST /api/auth/logout.
// Invalidación local solamente: borra cookies, no llama al upstream.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := ""
	if c, err := r.Cookie(a.Cookies.AccessCookie); err == nil {
		if claims, err := session.Peek(c.Value); err == nil {
			actor = claims.Email
			if actor == "" {
				actor = claims.Subject
			}
		}
	}

	session.Clear(w, a.Cookies)
	a.Audit.Record(ctx, audit.Event{Actor: actor, Action: "logout"})

	w.WriteHeader(http.StatusNoContent)
}
