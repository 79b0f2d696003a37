package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// StaticDir es el directorio con los assets del dashboard.
		// Vacío => no se sirven páginas, solo /api.
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`

	// Upstream es la API de plataforma contra la que el gateway reenvía
	// todas las operaciones de negocio.
	Upstream struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`

	Session struct {
		AccessCookie  string `yaml:"access_cookie"`
		RefreshCookie string `yaml:"refresh_cookie"`
		// TTLs advisory del lado cliente; el servidor upstream es quien
		// decide la expiración real de cada token.
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
		Domain     string `yaml:"domain"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Guard struct {
		Protected []string `yaml:"protected"`
		AuthOnly  []string `yaml:"auth_only"`
		LoginPath string   `yaml:"login_path"`
		HomePath  string   `yaml:"home_path"`
	} `yaml:"guard"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
		// StatsTTL controla cuánto se cachea master-admin/tenants/stats.
		StatsTTL string `yaml:"stats_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	Audit struct {
		// DSN Postgres para el audit trail. Vacío => solo logs.
		DSN string `yaml:"dsn"`
	} `yaml:"audit"`
}

// Load lee el YAML (si path no es vacío), aplica defaults y overrides de
// entorno, y valida las duraciones expresadas como string.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// Overrides por entorno (secretos y deployment)
	if v := os.Getenv("TENANTDESK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TENANTDESK_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("TENANTDESK_AUDIT_DSN"); v != "" {
		c.Audit.DSN = v
	}
	if v := os.Getenv("TENANTDESK_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("TENANTDESK_REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = "15s"
	}
	if c.Session.AccessCookie == "" {
		c.Session.AccessCookie = "access_token"
	}
	if c.Session.RefreshCookie == "" {
		c.Session.RefreshCookie = "refresh_token"
	}
	if c.Session.AccessTTL == "" {
		c.Session.AccessTTL = "24h" // 1 día
	}
	if c.Session.RefreshTTL == "" {
		c.Session.RefreshTTL = "168h" // 7 días
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if len(c.Guard.Protected) == 0 {
		c.Guard.Protected = []string{"/dashboard", "/users", "/tenants", "/settings"}
	}
	if len(c.Guard.AuthOnly) == 0 {
		c.Guard.AuthOnly = []string{"/login", "/signup", "/verify-2fa", "/setup-2fa"}
	}
	if c.Guard.LoginPath == "" {
		c.Guard.LoginPath = "/login"
	}
	if c.Guard.HomePath == "" {
		c.Guard.HomePath = "/dashboard"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.StatsTTL == "" {
		c.Cache.StatsTTL = "30s"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}

	if c.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("config: upstream.base_url es obligatorio (o env TENANTDESK_UPSTREAM_URL)")
	}
	if !strings.HasSuffix(c.Upstream.BaseURL, "/") {
		c.Upstream.BaseURL += "/"
	}

	// validate string durations
	for _, d := range []string{
		c.Upstream.Timeout,
		c.Session.AccessTTL,
		c.Session.RefreshTTL,
		c.Cache.Memory.DefaultTTL,
		c.Cache.StatsTTL,
		c.Rate.Login.Window,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: duración inválida %q: %w", d, err)
		}
	}

	return &c, nil
}

// MustDuration parsea una duración ya validada por Load.
func MustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
