package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/tenantdesk/internal/audit"
	"github.com/dropDatabas3/tenantdesk/internal/cache"
	"github.com/dropDatabas3/tenantdesk/internal/session"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

// memoryAudit captures events for assertions.
type memoryAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memoryAudit) Record(_ context.Context, ev audit.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}
func (m *memoryAudit) Close() {}

func (m *memoryAudit) last(t *testing.T) audit.Event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		t.Fatal("no audit events recorded")
	}
	return m.events[len(m.events)-1]
}

func testCookies() session.Config {
	return session.Config{
		AccessCookie:  "access_token",
		RefreshCookie: "refresh_token",
		SameSite:      "lax",
		AccessTTL:     24 * time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestAPI(t *testing.T, upstreamHandler http.Handler) (*API, *memoryAudit) {
	t.Helper()
	srv := httptest.NewServer(upstreamHandler)
	t.Cleanup(srv.Close)

	store, err := cache.New(cache.Config{Kind: "memory"})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	rec := &memoryAudit{}
	return &API{
		Client:   upstream.New(srv.URL, 5*time.Second),
		Cookies:  testCookies(),
		Audit:    rec,
		Cache:    store,
		StatsTTL: time.Minute,
	}, rec
}

func jsonRequest(method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func withSession(r *http.Request, access, refresh string) *http.Request {
	if access != "" {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: access})
	}
	if refresh != "" {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})
	}
	return r
}

func cookieMap(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

// ─────────────── login / logout ───────────────

func loginUpstream() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"access_token": "at-1", "refresh_token": "rt-1", "requires_two_factor": false},
		})
	})
	return mux
}

func TestLogin_SuccessSetsSessionCookies(t *testing.T) {
	api, rec := newTestAPI(t, loginUpstream())
	w := httptest.NewRecorder()
	api.Login(w, jsonRequest("POST", "/api/auth/login", `{"email":"admin@x.test","password":"s3cret"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	cookies := cookieMap(w)
	if c := cookies["access_token"]; c == nil || c.Value != "at-1" || !c.HttpOnly {
		t.Fatalf("access cookie: %+v", c)
	}
	if c := cookies["refresh_token"]; c == nil || c.Value != "rt-1" {
		t.Fatalf("refresh cookie: %+v", c)
	}

	var resp struct {
		RequiresTwoFactor bool `json:"requires_two_factor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev := rec.last(t); ev.Action != "login" || ev.Actor != "admin@x.test" {
		t.Fatalf("audit: %+v", ev)
	}
}

func TestLogin_InvalidCredentialsLeavesCookiesAlone(t *testing.T) {
	api, _ := newTestAPI(t, loginUpstream())
	w := httptest.NewRecorder()
	api.Login(w, jsonRequest("POST", "/api/auth/login", `{"email":"admin@x.test","password":"wrong"}`))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if n := len(w.Result().Cookies()); n != 0 {
		t.Fatalf("cookies set on failed login: %d", n)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "invalid_credentials" {
		t.Fatalf("error code: %q", resp.Error)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	api, _ := newTestAPI(t, loginUpstream())
	w := httptest.NewRecorder()
	api.Login(w, jsonRequest("POST", "/api/auth/login", `{"email":"  "}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogout_ClearsCookiesAndAuditsActor(t *testing.T) {
	api, rec := newTestAPI(t, http.NotFoundHandler())

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "admin@x.test"})
	signed, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	api.Logout(w, withSession(httptest.NewRequest("POST", "/api/auth/logout", nil), signed, "rt-1"))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := cookieMap(w)
	for _, name := range []string{"access_token", "refresh_token"} {
		c := cookies[name]
		if c == nil || c.Value != "" || c.MaxAge != -1 {
			t.Fatalf("%s not cleared: %+v", name, c)
		}
	}
	if ev := rec.last(t); ev.Action != "logout" || ev.Actor != "admin@x.test" {
		t.Fatalf("audit: %+v", ev)
	}
}

// ─────────────── session bootstrap ───────────────

func TestSession_NoCookiesIs401(t *testing.T) {
	api, _ := newTestAPI(t, http.NotFoundHandler())
	w := httptest.NewRecorder()
	api.Session(w, httptest.NewRequest("GET", "/api/session", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSession_RefreshRotationReachesBrowser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/access-token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"access_token": "at-new", "refresh_token": "rt-new"},
		})
	})
	mux.HandleFunc("GET /user/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": 1, "email": "admin@x.test"},
		})
	})
	api, _ := newTestAPI(t, mux)

	w := httptest.NewRecorder()
	api.Session(w, withSession(httptest.NewRequest("GET", "/api/session", nil), "at-stale", "rt-ok"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	cookies := cookieMap(w)
	if c := cookies["access_token"]; c == nil || c.Value != "at-new" {
		t.Fatalf("rotated access cookie not written: %+v", c)
	}
	if c := cookies["refresh_token"]; c == nil || c.Value != "rt-new" {
		t.Fatalf("rotated refresh cookie not written: %+v", c)
	}
}

func TestSession_DeadSessionClearsCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/access-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /user/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	api, _ := newTestAPI(t, mux)

	w := httptest.NewRecorder()
	api.Session(w, withSession(httptest.NewRequest("GET", "/api/session", nil), "at-dead", "rt-dead"))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "session_expired" {
		t.Fatalf("error code: %q", resp.Error)
	}
	cookies := cookieMap(w)
	for _, name := range []string{"access_token", "refresh_token"} {
		if c := cookies[name]; c == nil || c.MaxAge != -1 {
			t.Fatalf("%s not cleared after dead session: %+v", name, c)
		}
	}
}

// ─────────────── tenants ───────────────

func TestTenantCreate_PasswordMismatchNeverReachesUpstream(t *testing.T) {
	var upstreamHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&upstreamHits, 1)
		w.WriteHeader(http.StatusOK)
	})
	api, _ := newTestAPI(t, mux)

	body := `{"company_name":"Acme","password":"a","confirm_password":"b"}`
	w := httptest.NewRecorder()
	api.TenantCreate(w, withSession(jsonRequest("POST", "/api/tenants", body), "at-ok", "rt-ok"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "password_mismatch" {
		t.Fatalf("error code: %q", resp.Error)
	}
	if n := atomic.LoadInt64(&upstreamHits); n != 0 {
		t.Fatalf("upstream was called %d times on local validation failure", n)
	}
}

func TestTenantCreate_InvalidPlanRejectedLocally(t *testing.T) {
	api, _ := newTestAPI(t, http.NotFoundHandler())
	body := `{"company_name":"Acme","password":"a","confirm_password":"a","subscription_plan":"platinum"}`
	w := httptest.NewRecorder()
	api.TenantCreate(w, withSession(jsonRequest("POST", "/api/tenants", body), "at-ok", "rt-ok"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTenantCreate_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /master-admin/tenants/create", func(w http.ResponseWriter, r *http.Request) {
		var nt upstream.NewTenant
		_ = json.NewDecoder(r.Body).Decode(&nt)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"tenant_id": 9, "company_name": nt.CompanyName},
		})
	})
	api, rec := newTestAPI(t, mux)

	body := `{"company_name":"Acme","password":"a","confirm_password":"a","subscription_plan":"standard","billing_cycle":"monthly"}`
	w := httptest.NewRecorder()
	api.TenantCreate(w, withSession(jsonRequest("POST", "/api/tenants", body), "at-ok", "rt-ok"))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ev := rec.last(t); ev.Action != "tenant_create" || ev.Target != "tenant:9" {
		t.Fatalf("audit: %+v", ev)
	}
}

func TestTenantList_FiltersApplyToFetchedPageOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-admin/tenants/all", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"tenants": []map[string]any{
					{"tenant_id": 1, "company_name": "Acme", "status": "active"},
					{"tenant_id": 2, "company_name": "Globex", "status": "suspended"},
					{"tenant_id": 3, "company_name": "Acme Labs", "status": "active"},
				},
				// The remote set is bigger than the fetched page; the
				// filter still only sees the page above.
				"total": 50,
			},
		})
	})
	api, _ := newTestAPI(t, mux)

	w := httptest.NewRecorder()
	r := withSession(httptest.NewRequest("GET", "/api/tenants?q=acme&status=active", nil), "at-ok", "rt-ok")
	api.TenantList(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tenants  []upstream.Tenant `json:"tenants"`
		Total    int               `json:"total"`
		Filtered int               `json:"filtered"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Filtered != 2 || len(resp.Tenants) != 2 {
		t.Fatalf("filtered = %d, tenants = %d", resp.Filtered, len(resp.Tenants))
	}
	if resp.Total != 50 {
		t.Fatalf("total = %d, want the remote total", resp.Total)
	}
}

func TestTenantList_PageParamSlicesFilteredResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-admin/tenants/all", func(w http.ResponseWriter, r *http.Request) {
		tenants := make([]map[string]any, 7)
		for i := range tenants {
			tenants[i] = map[string]any{"tenant_id": i + 1, "company_name": "Acme", "status": "active"}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"tenants": tenants, "total": 7},
		})
	})
	api, _ := newTestAPI(t, mux)

	w := httptest.NewRecorder()
	r := withSession(httptest.NewRequest("GET", "/api/tenants?q=acme&page=2&per_page=3", nil), "at-ok", "rt-ok")
	api.TenantList(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Tenants  []upstream.Tenant `json:"tenants"`
		Total    int               `json:"total"`
		Filtered int               `json:"filtered"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Page 2 of 7 matches at 3 per page: ids 4..6. Filtered reports the
	// whole filtered set, not the slice.
	if len(resp.Tenants) != 3 || resp.Tenants[0].TenantID != 4 {
		t.Fatalf("page 2: %+v", resp.Tenants)
	}
	if resp.Filtered != 7 || resp.Total != 7 {
		t.Fatalf("filtered = %d, total = %d", resp.Filtered, resp.Total)
	}

	// Without a page param the full filtered set comes back.
	w = httptest.NewRecorder()
	r = withSession(httptest.NewRequest("GET", "/api/tenants?q=acme", nil), "at-ok", "rt-ok")
	api.TenantList(w, r)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tenants) != 7 {
		t.Fatalf("unpaged: %d tenants", len(resp.Tenants))
	}
}

func TestTenantStats_SecondRequestServedFromCache(t *testing.T) {
	var hits int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-admin/tenants/stats", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"total_tenants": 42, "active_tenants": 40},
		})
	})
	api, _ := newTestAPI(t, mux)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		api.TenantStats(w, withSession(httptest.NewRequest("GET", "/api/tenants/stats", nil), "at-ok", "rt-ok"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
		var stats upstream.Stats
		_ = json.Unmarshal(w.Body.Bytes(), &stats)
		if stats.TotalTenants != 42 {
			t.Fatalf("request %d: total_tenants = %d", i, stats.TotalTenants)
		}
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("upstream stats hits = %d, want 1", n)
	}
}

func TestTenantStats_WarmCacheStillRequiresSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-admin/tenants/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"total_tenants": 42},
		})
	})
	api, _ := newTestAPI(t, mux)

	// Warm the cache with an authenticated request.
	w := httptest.NewRecorder()
	api.TenantStats(w, withSession(httptest.NewRequest("GET", "/api/tenants/stats", nil), "at-ok", "rt-ok"))
	if w.Code != http.StatusOK {
		t.Fatalf("warmup status = %d", w.Code)
	}

	// A cookie-less request must get 401, never the cached payload.
	w = httptest.NewRecorder()
	api.TenantStats(w, httptest.NewRequest("GET", "/api/tenants/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if strings.Contains(w.Body.String(), "total_tenants") {
		t.Fatalf("cached stats leaked without a session: %s", w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != "unauthenticated" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestTenantDetail_InvalidAndUnknownIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /master-admin/tenants/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"tenant_id": 7, "company_name": "Acme"},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "tenant_not_found"})
	})
	api, _ := newTestAPI(t, mux)

	router := chi.NewRouter()
	router.Get("/api/tenants/{id}", api.TenantDetail)

	cases := []struct {
		path string
		want int
	}{
		{"/api/tenants/7", http.StatusOK},
		{"/api/tenants/999", http.StatusNotFound},
		{"/api/tenants/abc", http.StatusBadRequest},
		{"/api/tenants/-1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withSession(httptest.NewRequest("GET", tc.path, nil), "at-ok", "rt-ok"))
		if w.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.path, w.Code, tc.want)
		}
	}
}

func TestTenantUpdate_InvalidStatusRejectedLocally(t *testing.T) {
	api, _ := newTestAPI(t, http.NotFoundHandler())
	router := chi.NewRouter()
	router.Patch("/api/tenants/{id}", api.TenantUpdate)

	w := httptest.NewRecorder()
	r := withSession(jsonRequest("PATCH", "/api/tenants/7", `{"status":"vaporized"}`), "at-ok", "rt-ok")
	router.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
