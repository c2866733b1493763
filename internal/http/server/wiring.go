// Package server arma las dependencias de la aplicación y corre el servidor HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/config"
	healthctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/health"
	pagectrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/page"
	scriptctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/script"
	uploadctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/upload"
	mw "github.com/Poutchouli/SharedMailbox-editor/internal/http/middlewares"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/router"
	healthsvc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/health"
	permsvc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/permissions"
	uploadsvc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/upload"
	"github.com/Poutchouli/SharedMailbox-editor/internal/metrics"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/rate"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
	tokens "github.com/Poutchouli/SharedMailbox-editor/internal/security/token"
	"github.com/Poutchouli/SharedMailbox-editor/internal/session"
	"github.com/Poutchouli/SharedMailbox-editor/internal/web"
)

// BuildHandler instancia cache, sesiones, services y controllers y devuelve
// el handler raíz más una función de cleanup.
func BuildHandler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	log := logger.From(ctx).With(logger.Component("wiring"))

	// 1. Cache (sesiones)
	store, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	cleanup := store.Close

	// 2. Sesiones
	secret := cfg.Session.Secret
	if secret == "" {
		secret, err = tokens.GenerateOpaqueToken(32)
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("session secret: %w", err)
		}
		log.Warn("SESSION_SECRET not set, using an ephemeral secret (sessions reset on restart)")
	}
	sessions, err := session.NewManager(store, session.Config{
		Secret:     []byte(secret),
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.SessionTTL(),
		SameSite:   cfg.Session.SameSite,
		Secure:     cfg.Session.Secure || cfg.TLSEnabled(),
	})
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	// 3. Métricas
	if err := metrics.Register(nil); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	metricsHandler, err := mw.RegisterMetrics(nil)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}

	// 4. Services
	compiler := script.NewCompiler(script.Config{LogPrefix: cfg.Script.LogPrefix})
	uploads := uploadsvc.NewService(uploadsvc.Deps{MaxBytes: cfg.Server.UploadMaxBytes})
	perms := permsvc.NewService(permsvc.Deps{
		Compiler:      compiler,
		DefaultDomain: cfg.Script.DefaultDomain,
		RequireAuth:   cfg.Script.RequireAuth,
	})
	health := healthsvc.NewService(healthsvc.Deps{
		Components: map[string]healthsvc.Pinger{"cache": store},
		Cache:      store,
	})

	// 5. Controllers
	renderer, err := web.NewRenderer()
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("templates: %w", err)
	}
	pages := pagectrl.NewController(renderer, pagectrl.Config{
		DefaultDomain: cfg.Script.DefaultDomain,
		RequireAuth:   cfg.Script.RequireAuth,
	})

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		fw, err := rate.NewFixedWindow(store, "rl", cfg.Rate.MaxRequests, cfg.RateWindow())
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("rate: %w", err)
		}
		limiter = fw
	}

	handler := router.New(router.Deps{
		Page:    pages,
		Upload:  uploadctrl.NewController(uploads, cfg.Server.UploadMaxBytes, pages.RenderError),
		Script:  scriptctrl.NewController(perms),
		Health:  healthctrl.NewController(health),
		Session: sessions.Middleware(),
		Metrics: metricsHandler,

		RateLimiter: limiter,
	})

	log.Info("handler ready",
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("require_auth", cfg.Script.RequireAuth),
		logger.String("default_domain", cfg.Script.DefaultDomain),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
	)
	return handler, cleanup, nil
}
