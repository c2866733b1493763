// Package cache provee el almacenamiento clave/valor con TTL donde viven los
// datos de sesión.
//
// Soporta:
//   - Memory (in-process, go-cache)
//   - Redis (compartido entre réplicas)
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor. Si ttl es 0, no expira.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Take obtiene y elimina un valor en un solo paso.
	Take(ctx context.Context, key string) ([]byte, error)

	// Incr suma 1 al contador key y retorna el nuevo valor. El primer
	// incremento fija el TTL; los siguientes no lo extienden.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error

	// Stats retorna estadísticas del cache.
	Stats(ctx context.Context) (Stats, error)
}

// Stats contiene estadísticas del cache.
type Stats struct {
	Driver string `json:"driver"`
	Keys   int64  `json:"keys"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string // host:port, solo redis
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return NewMemory(cfg.Prefix), nil
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
