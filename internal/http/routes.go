package http

import (
	stdhttp "net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/tenantdesk/internal/http/handlers"
	mw "github.com/dropDatabas3/tenantdesk/internal/http/middlewares"
	"github.com/dropDatabas3/tenantdesk/internal/rate"
)

// RouterConfig agrupa todo lo necesario para armar el router del gateway.
type RouterConfig struct {
	API                *handlers.API
	Guard              mw.GuardConfig
	LoginLimiter       rate.Limiter // nil => sin rate limit en login
	CORSAllowedOrigins []string
	StaticDir          string
}

// NewRouter arma el router completo: plumbing (request id, logging,
// métricas, security headers, CORS), la API del gateway bajo /api, y las
// páginas estáticas detrás del route guard.
func NewRouter(cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(WithMetrics(routePattern))
	r.Use(WithSecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return WithCORS(next, cfg.CORSAllowedOrigins)
		})
	}

	api := cfg.API

	r.Get("/healthz", handlers.Healthz)
	r.Get("/readyz", api.Readyz)
	r.Method(stdhttp.MethodGet, "/metrics", RegisterMetrics())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.With(mw.WithRateLimit(cfg.LoginLimiter)).Post("/login", api.Login)
			} else {
				r.Post("/login", api.Login)
			}
			r.Post("/logout", api.Logout)
			r.Post("/2fa/setup", api.TwoFactorSetup)
			r.Post("/2fa/verify", api.TwoFactorVerify)
		})

		r.Get("/session", api.Session)

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", api.TenantList)
			r.Get("/stats", api.TenantStats)
			r.Post("/", api.TenantCreate)
			r.Get("/{id}", api.TenantDetail)
			r.Patch("/{id}", api.TenantUpdate)
		})
	})

	// Todo lo que no es API son páginas: el guard corre antes de servir
	// cualquier asset de navegación.
	pages := mw.Chain(pageHandler(cfg.StaticDir), mw.Guard(cfg.Guard))
	r.NotFound(pages.ServeHTTP)

	return r
}

// routePattern saca el patrón de la ruta chi para etiquetar métricas con
// cardinalidad acotada (/api/tenants/{id} y no /api/tenants/42).
func routePattern(r *stdhttp.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "page"
}

// pageHandler sirve los assets del dashboard con fallback SPA a
// index.html. Sin static_dir configurado, el gateway es API-only.
func pageHandler(dir string) stdhttp.Handler {
	if dir == "" {
		return stdhttp.NotFoundHandler()
	}
	fs := stdhttp.FileServer(stdhttp.Dir(dir))
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		p := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		stdhttp.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
