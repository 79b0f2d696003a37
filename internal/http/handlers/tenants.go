package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tenantdesk/internal/audit"
	"github.com/dropDatabas3/tenantdesk/internal/directory"
	"github.com/dropDatabas3/tenantdesk/internal/http/httpx"
	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

type tenantListResponse struct {
	Tenants []upstream.Tenant `json:"tenants"`

	// Total del conjunto remoto completo (lo reporta el upstream).
	Total int `json:"total"`

	// Filtered es el resultado de aplicar los filtros sobre la página
	// traída. Los filtros solo ven esa página, no el conjunto remoto.
	Filtered int `json:"filtered"`
}

// TenantList maneja GET /api/tenants.
// Query params: offset, limit (página remota) + q, status, plan (filtro
// local sobre la página) + page, per_page (recorte local sobre el
// resultado filtrado, como en la vista del directorio).
func (a *API) TenantList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	sess := a.sessionFromRequest(r)
	remote, err := a.Client.Tenants(r.Context(), sess, offset, limit)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	filtered := directory.Filter(remote.Tenants, q.Get("q"), q.Get("status"), q.Get("plan"))

	tenants := filtered
	nFiltered := len(filtered)
	if pageNum, _ := strconv.Atoi(q.Get("page")); pageNum > 0 {
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		tenants, nFiltered = directory.Page(filtered, pageNum, perPage)
	}

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, tenantListResponse{
		Tenants:  tenants,
		Total:    remote.Total,
		Filtered: nFiltered,
	})
}

// TenantStats maneja GET /api/tenants/stats, con cache corto.
// Los stats son globales del master admin: una sola entrada alcanza.
func (a *API) TenantStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const cacheKey = "tenants:stats"

	// La sesión se exige ANTES de mirar el cache: la entrada es global,
	// y un hit no puede saltearse la autenticación del endpoint.
	sess := a.sessionFromRequest(r)
	if sess.Empty() {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "no hay sesión activa", 1100)
		return
	}

	if b, ok := a.Cache.Get(ctx, cacheKey); ok {
		var stats upstream.Stats
		if json.Unmarshal(b, &stats) == nil {
			httpx.WriteJSON(w, http.StatusOK, stats)
			return
		}
	}

	stats, err := a.Client.TenantStats(ctx, sess)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	if b, err := json.Marshal(stats); err == nil {
		a.Cache.Set(ctx, cacheKey, b, a.StatsTTL)
	}

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, stats)
}

// TenantCreate maneja POST /api/tenants.
// La igualdad password/confirm se valida ACÁ: un mismatch nunca llega a
// la red.
func (a *API) TenantCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("TenantCreate"))

	var req upstream.NewTenant
	if !httpx.ReadJSON(w, r, &req) {
		return
	}

	if req.Password != req.ConfirmPassword {
		httpx.WriteError(w, http.StatusBadRequest, "password_mismatch",
			"password y confirm_password no coinciden", 1003)
		return
	}
	if req.CompanyName == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing_fields", "company_name es obligatorio", 1002)
		return
	}
	if req.SubscriptionPlan != "" && !upstream.ValidPlan(req.SubscriptionPlan) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_plan",
			fmt.Sprintf("plan desconocido: %q", req.SubscriptionPlan), 1004)
		return
	}
	if req.BillingCycle != "" && !upstream.ValidBillingCycle(req.BillingCycle) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_billing_cycle",
			fmt.Sprintf("ciclo desconocido: %q", req.BillingCycle), 1005)
		return
	}

	sess := a.sessionFromRequest(r)
	created, err := a.Client.CreateTenant(ctx, sess, req)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	a.Audit.Record(ctx, audit.Event{
		Actor:  actorFrom(r, a.Cookies.AccessCookie),
		Action: "tenant_create",
		Target: fmt.Sprintf("tenant:%d", created.TenantID),
		Detail: map[string]any{"company_name": created.CompanyName},
	})
	log.Info("tenant created", logger.TenantID(created.TenantID))

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusCreated, created)
}

// TenantDetail maneja GET /api/tenants/{id}.
func (a *API) TenantDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := tenantID(w, r)
	if !ok {
		return
	}

	sess := a.sessionFromRequest(r)
	tenant, err := a.Client.Tenant(r.Context(), sess, id)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, tenant)
}

// TenantUpdate maneja PATCH /api/tenants/{id} (partial update).
func (a *API) TenantUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := tenantID(w, r)
	if !ok {
		return
	}

	var patch upstream.TenantPatch
	if !httpx.ReadJSON(w, r, &patch) {
		return
	}
	if patch.SubscriptionPlan != nil && !upstream.ValidPlan(*patch.SubscriptionPlan) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_plan",
			fmt.Sprintf("plan desconocido: %q", *patch.SubscriptionPlan), 1004)
		return
	}
	if patch.Status != nil && !upstream.ValidStatus(*patch.Status) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_status",
			fmt.Sprintf("estado desconocido: %q", *patch.Status), 1006)
		return
	}

	sess := a.sessionFromRequest(r)
	updated, err := a.Client.UpdateTenant(ctx, sess, id, patch)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	a.Audit.Record(ctx, audit.Event{
		Actor:  actorFrom(r, a.Cookies.AccessCookie),
		Action: "tenant_update",
		Target: fmt.Sprintf("tenant:%d", id),
	})

	sess.WriteIfRotated(w, a.Cookies)
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func tenantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_id", "id de tenant inválido", 1001)
		return 0, false
	}
	return id, true
}
