package handlers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
	"github.com/dropDatabas3/tenantdesk/internal/session"
)

// TwoFactorSetup maneja POST /api/auth/2fa/setup.
// Proxy directo: el secreto y la URL otpauth los genera el upstream.
func (a *API) TwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	sess := a.sessionFromRequest(r)

	setup, err := a.Client.TwoFactorSetup(r.Context(), sess)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, setup)
}

type twoFactorVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFactorVerify maneja POST /api/auth/2fa/verify.
// En el flujo de login el upstream emite el par definitivo: va a cookies.
func (a *API) TwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	var req twoFactorVerifyRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing_fields", "code es obligatorio", 1002)
		return
	}

	sess := a.sessionFromRequest(r)
	res, err := a.Client.TwoFactorVerify(r.Context(), sess, req.Code)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	if res.AccessToken != "" && res.RefreshToken != "" {
		fresh := session.New(res.AccessToken, res.RefreshToken)
		fresh.Write(w, a.Cookies)
	} else {
		sess.WriteIfRotated(w, a.Cookies)
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
