// Package cache provee un cache chico multi-backend para respuestas del
// upstream (hoy: stats de tenants).
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
package cache

import (
	"context"
	"time"
)

// Cache define las operaciones que usa el gateway.
type Cache interface {
	// Get obtiene un valor. ok=false si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set guarda un valor con TTL. Si ttl es 0, usa el default del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete elimina una key.
	Delete(ctx context.Context, key string)

	// Close cierra la conexión (no-op en memory).
	Close() error
}

// Config configuración para crear un cache.
type Config struct {
	Kind       string // "memory" | "redis"
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// New crea un cache según la configuración.
func New(cfg Config) (Cache, error) {
	switch cfg.Kind {
	case "redis":
		return newRedis(cfg)
	case "memory", "":
		return newMemory(cfg.DefaultTTL), nil
	default:
		return newMemory(cfg.DefaultTTL), nil
	}
}
