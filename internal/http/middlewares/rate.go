package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPPathRateKey agrupa por IP del cliente y path.
func IPPathRateKey(r *http.Request) string {
	return clientIP(r) + "|" + r.URL.Path
}

// RateLimitConfig configura WithRateLimit.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	// Render muestra el 429; nil = JSON.
	Render ErrorRenderer
}

// WithRateLimit corta con 429 cuando la clave superó el límite de la ventana.
// Si el limiter falla el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPPathRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limit check failed", logger.Component("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				if cfg.Render != nil {
					cfg.Render(w, r, errors.ErrRateLimited)
				} else {
					errors.WriteError(w, errors.ErrRateLimited)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
