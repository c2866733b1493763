package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo, tests y despliegues de una sola instancia.
type memoryClient struct {
	prefix string
	c      *gocache.Cache
	mu     sync.Mutex // serializa Take e Incr
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria. Las entradas expiradas se
// purgan cada minuto.
func NewMemory(prefix string) *memoryClient {
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (m *memoryClient) key(k string) string { return prefixed(m.prefix, k) }

func (m *memoryClient) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		m.misses.Add(1)
		return nil, ErrNotFound
	}
	m.hits.Add(1)
	b, _ := v.([]byte)
	return b, nil
}

func (m *memoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	// copia: el llamador puede reutilizar el slice
	m.c.Set(m.key(key), append([]byte(nil), value...), ttl)
	return nil
}

func (m *memoryClient) Take(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	m.c.Delete(m.key(key))
	return b, nil
}

func (m *memoryClient) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(key)
	// Add falla si ya existe un contador vigente
	_ = m.c.Add(k, int64(0), ttl)
	return m.c.IncrementInt64(k, 1)
}

func (m *memoryClient) Ping(context.Context) error { return nil }

func (m *memoryClient) Close() error {
	m.c.Flush()
	return nil
}

func (m *memoryClient) Stats(context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(m.c.ItemCount()),
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}, nil
}
