package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Poutchouli/SharedMailbox-editor/internal/config"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

const shutdownTimeout = 10 * time.Second

// Run sirve handler hasta que ctx se cancela y luego hace un shutdown
// ordenado. Usa TLS si la config trae cert y key.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	log := logger.From(ctx).With(logger.Component("server"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.TLSEnabled() {
			log.Info("listening (https)", logger.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			log.Info("listening (http)", logger.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// Start arma el handler desde cfg y sirve hasta que ctx se cancela.
func Start(ctx context.Context, cfg *config.Config) error {
	handler, cleanup, err := BuildHandler(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.From(ctx).Warn("cleanup failed", logger.Err(err))
		}
	}()
	return Run(ctx, cfg, handler)
}
