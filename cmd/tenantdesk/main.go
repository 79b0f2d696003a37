package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/tenantdesk/internal/audit"
	"github.com/dropDatabas3/tenantdesk/internal/cache"
	"github.com/dropDatabas3/tenantdesk/internal/config"
	httpg "github.com/dropDatabas3/tenantdesk/internal/http"
	"github.com/dropDatabas3/tenantdesk/internal/http/handlers"
	mw "github.com/dropDatabas3/tenantdesk/internal/http/middlewares"
	"github.com/dropDatabas3/tenantdesk/internal/observability/logger"
	"github.com/dropDatabas3/tenantdesk/internal/rate"
	"github.com/dropDatabas3/tenantdesk/internal/session"
	"github.com/dropDatabas3/tenantdesk/internal/telemetry"
	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

func main() {
	// .env si existe; si no, variables del sistema.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("TENANTDESK_CONFIG"), "ruta al config YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logger todavía no inicializado
		stdlog.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "tenantdesk",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	shutdownTelemetry := telemetry.Setup("tenantdesk")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	// Cliente contra la API de plataforma
	client := upstream.New(cfg.Upstream.BaseURL, config.MustDuration(cfg.Upstream.Timeout))

	// Cache de respuestas (stats)
	store, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.MustDuration(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = store.Close() }()

	// Audit trail: Postgres si hay DSN, log si no
	var recorder audit.Recorder
	if cfg.Audit.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := audit.NewPG(ctx, cfg.Audit.DSN)
		cancel()
		if err != nil {
			log.Fatal("audit init failed", logger.Err(err))
		}
		recorder = pg
	} else {
		recorder = audit.NewLog()
	}
	defer recorder.Close()

	sessionCfg := session.Config{
		AccessCookie:  cfg.Session.AccessCookie,
		RefreshCookie: cfg.Session.RefreshCookie,
		Domain:        cfg.Session.Domain,
		SameSite:      cfg.Session.SameSite,
		Secure:        cfg.Session.Secure,
		AccessTTL:     config.MustDuration(cfg.Session.AccessTTL),
		RefreshTTL:    config.MustDuration(cfg.Session.RefreshTTL),
	}

	api := &handlers.API{
		Client:   client,
		Cookies:  sessionCfg,
		Audit:    recorder,
		Cache:    store,
		StatsTTL: config.MustDuration(cfg.Cache.StatsTTL),
	}

	var loginLimiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.MustDuration(cfg.Rate.Login.Window)
		if cfg.Cache.Kind == "redis" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			loginLimiter = rate.NewRedisLimiter(rdb, "tenantdesk:rl:", cfg.Rate.Login.Limit, window)
		} else {
			loginLimiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, window)
		}
	}

	handler := httpg.NewRouter(httpg.RouterConfig{
		API: api,
		Guard: mw.GuardConfig{
			AccessCookie: cfg.Session.AccessCookie,
			Protected:    cfg.Guard.Protected,
			AuthOnly:     cfg.Guard.AuthOnly,
			LoginPath:    cfg.Guard.LoginPath,
			HomePath:     cfg.Guard.HomePath,
		},
		LoginLimiter:       loginLimiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		StaticDir:          cfg.Server.StaticDir,
	})

	srv := httpg.NewServer(cfg.Server.Addr, handler)

	go func() {
		log.Info("tenantdesk listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("upstream", cfg.Upstream.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	if err := httpg.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("graceful shutdown failed", logger.Err(err))
	}
}
