// Package health contiene el service para health checks.
package health

import (
	"context"
	"os"
	"time"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

// Pinger es cualquier dependencia que puede verificar su conexión.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource expone las estadísticas del cache de sesiones.
type StatsSource interface {
	Stats(ctx context.Context) (cache.Stats, error)
}

// Service define las operaciones de health check.
type Service interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Components map[string]Pinger
	// Cache opcional; sus stats se agregan a la respuesta.
	Cache   StatsSource
	Timeout time.Duration
}

type service struct {
	deps Deps
}

// NewService crea un nuevo service de health check.
func NewService(deps Deps) Service {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &service{deps: deps}
}

func (s *service) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]string, len(s.deps.Components)),
		Version:    os.Getenv("SERVICE_VERSION"),
	}

	for name, p := range s.deps.Components {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		err := p.Ping(cctx)
		cancel()
		if err != nil {
			log.Warn("component unhealthy", logger.String("component_name", name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Components[name] = "ok"
	}

	if s.deps.Cache != nil {
		cctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
		st, err := s.deps.Cache.Stats(cctx)
		cancel()
		if err != nil {
			// las stats son informativas, no degradan el estado
			log.Warn("cache stats failed", logger.Err(err))
		} else {
			resp.Cache = &st
		}
	}
	return resp
}
