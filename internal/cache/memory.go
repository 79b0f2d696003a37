package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memory struct {
	c *gocache.Cache
}

func newMemory(defaultTTL time.Duration) *memory {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	return &memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	return b, true
}

func (m *memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *memory) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}

func (m *memory) Close() error { return nil }
