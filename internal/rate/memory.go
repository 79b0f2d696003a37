package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: misma semántica fixed-window que RedisLimiter pero
// in-process. Para dev o despliegues de una sola réplica.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string]*window
	Max    int64
	Window time.Duration
}

type window struct {
	start time.Time
	count int64
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string]*window),
		Max:    int64(max),
		Window: win,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.hits[key]
	if !ok || w.start.Before(winStart) {
		w = &window{start: winStart}
		l.hits[key] = w
	}
	w.count++

	allowed := w.count <= l.Max
	remaining := l.Max - w.count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{Allowed: allowed, Remaining: remaining, CurrentHits: w.count}
	if !allowed {
		res.RetryAfter = w.start.Add(l.Window).Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}

	// Limpieza oportunista de ventanas viejas
	if len(l.hits) > 4096 {
		for k, v := range l.hits {
			if v.start.Before(winStart) {
				delete(l.hits, k)
			}
		}
	}
	return res, nil
}
