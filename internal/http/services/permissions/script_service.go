// Package permissions contiene el service que arma el script de permisos a
// partir de la solicitud de la página.
package permissions

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	"github.com/Poutchouli/SharedMailbox-editor/internal/metrics"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
	"github.com/Poutchouli/SharedMailbox-editor/internal/util"
)

var ErrNoOperations = errors.New("permissions: no operations to generate")

// Service genera scripts.
type Service interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (*script.Script, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Compiler      *script.Compiler
	DefaultDomain string
	// RequireAuth ignora auth_enabled=false del cliente.
	RequireAuth bool
}

type service struct {
	deps Deps
}

// NewService crea el service.
func NewService(deps Deps) Service {
	if deps.Compiler == nil {
		deps.Compiler = script.NewCompiler(script.Config{})
	}
	return &service{deps: deps}
}

func (s *service) Generate(ctx context.Context, req dto.GenerateRequest) (*script.Script, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("permissions.Generate"))

	if len(req.Operations) == 0 {
		return nil, ErrNoOperations
	}

	var creds *script.Credentials
	if req.AuthEnabled || s.deps.RequireAuth {
		domain := s.deps.DefaultDomain
		if req.Domain != nil {
			// un dominio enviado vacío cuenta como faltante
			domain = strings.TrimSpace(*req.Domain)
		}
		creds = &script.Credentials{
			Username: strings.TrimSpace(req.Username),
			Password: req.Password,
			Domain:   domain,
		}
	}

	sc, err := s.deps.Compiler.Compile(req.Operations, creds)
	if err != nil {
		return nil, err
	}

	authLabel := "session"
	if creds != nil {
		authLabel = "credentials"
	}
	metrics.ScriptsGenerated.WithLabelValues(authLabel).Inc()
	for _, r := range sc.Results {
		metrics.OperationsCompiled.WithLabelValues(string(r.Status)).Inc()
		if r.Status != script.StatusApplied {
			log.Debug("operation skipped",
				logger.Int("index", r.Index),
				logger.Mailbox(r.Mailbox),
				logger.String("status", string(r.Status)),
			)
		}
	}

	fields := []zap.Field{
		logger.Count(len(req.Operations)),
		logger.Int("applied", sc.Count(script.StatusApplied)),
		logger.Int("skipped_malformed", sc.Count(script.StatusMalformed)),
		logger.Int("skipped_reserved", sc.Count(script.StatusReserved)),
		logger.Int("skipped_unknown_rights", sc.Count(script.StatusNoKnownRights)),
		logger.Bool("auth", creds != nil),
		logger.String("log_file", sc.LogFile),
	}
	if creds != nil {
		fields = append(fields, logger.String("auth_upn", util.MaskIdentity(creds.UPN())))
	}
	log.Info("script generated", fields...)
	return sc, nil
}
