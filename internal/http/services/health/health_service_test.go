package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheck(t *testing.T) {
	svc := NewService(Deps{Components: map[string]Pinger{
		"cache": pingFunc(func(context.Context) error { return nil }),
	}})
	resp := svc.Check(context.Background())
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Components["cache"])

	svc = NewService(Deps{Components: map[string]Pinger{
		"cache": pingFunc(func(context.Context) error { return errors.New("down") }),
	}})
	resp = svc.Check(context.Background())
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.Components["cache"])
	assert.Nil(t, resp.Cache)
}

type statsFunc func(context.Context) (cache.Stats, error)

func (f statsFunc) Stats(ctx context.Context) (cache.Stats, error) { return f(ctx) }

func TestCheck_CacheStats(t *testing.T) {
	svc := NewService(Deps{Cache: statsFunc(func(context.Context) (cache.Stats, error) {
		return cache.Stats{Driver: "redis", Keys: 3}, nil
	})})
	resp := svc.Check(context.Background())
	assert.Equal(t, "ready", resp.Status)
	if assert.NotNil(t, resp.Cache) {
		assert.Equal(t, "redis", resp.Cache.Driver)
		assert.EqualValues(t, 3, resp.Cache.Keys)
	}

	// un fallo de stats no degrada el estado
	svc = NewService(Deps{Cache: statsFunc(func(context.Context) (cache.Stats, error) {
		return cache.Stats{}, errors.New("INFO failed")
	})})
	resp = svc.Check(context.Background())
	assert.Equal(t, "ready", resp.Status)
	assert.Nil(t, resp.Cache)
}
