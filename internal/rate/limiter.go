// Package rate limita requests por clave con una ventana fija sobre el
// cache (memoria o Redis).
package rate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindow: contador por clave y ventana (INCR + TTL).
type FixedWindow struct {
	store  cache.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewFixedWindow(store cache.Client, prefix string, max int, window time.Duration) (*FixedWindow, error) {
	if store == nil {
		return nil, errors.New("rate: nil store")
	}
	if max <= 0 || window <= 0 {
		return nil, errors.New("rate: max and window must be positive")
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &FixedWindow{
		store:  store,
		prefix: prefix,
		max:    int64(max),
		window: window,
		now:    time.Now,
	}, nil
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	ttl := winStart.Add(l.window).Sub(now)

	k := l.prefix + ":" + strings.ReplaceAll(key, " ", "_") + ":" + strconv.FormatInt(winStart.Unix(), 10)
	hits, err := l.store.Incr(ctx, k, ttl)
	if err != nil {
		return Result{}, err
	}

	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		// resto de la ventana, mínimo 1s
		res.RetryAfter = ttl.Round(time.Second)
		if res.RetryAfter < time.Second {
			res.RetryAfter = time.Second
		}
	}
	return res, nil
}
