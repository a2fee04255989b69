package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es la misma ventana fija que RedisLimiter pero local al
// proceso. Las claves vencen solas con la ventana.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add falla si la clave ya existe; en ese caso se incrementa.
	hits := int64(1)
	if err := l.c.Add(k, hits, l.Window); err != nil {
		n, err := l.c.IncrementInt64(k, 1)
		if err != nil {
			return Result{}, err
		}
		hits = n
	}
	ttl := winStart.Add(l.Window).Sub(now)
	return result(hits, l.Max, ttl, l.Window), nil
}
