// Package script contiene el handler que genera el script PowerShell.
package script

import (
	"errors"
	"net/http"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/helpers"
	svc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/permissions"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	domain "github.com/Poutchouli/SharedMailbox-editor/internal/script"
)

// Controller maneja POST /generate_permission_script.
type Controller struct {
	service svc.Service
}

// NewController crea el controller.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Generate compila las operaciones recibidas y devuelve el script como JSON.
// El script nunca se ejecuta en el servidor.
func (c *Controller) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ScriptController.Generate"))

	var req dto.GenerateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		c.fail(w, r, httperrors.FromError(err))
		return
	}

	sc, err := c.service.Generate(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrNoOperations):
			c.fail(w, r, httperrors.ErrNoOperations)
		default:
			c.fail(w, r, httperrors.FromDomain(err))
		}
		return
	}

	summary := map[string]int{
		string(domain.StatusApplied):       sc.Count(domain.StatusApplied),
		string(domain.StatusMalformed):     sc.Count(domain.StatusMalformed),
		string(domain.StatusReserved):      sc.Count(domain.StatusReserved),
		string(domain.StatusNoKnownRights): sc.Count(domain.StatusNoKnownRights),
	}

	log.Debug("script sent", logger.Int("script_bytes", len(sc.Content)))
	helpers.WriteJSON(w, http.StatusOK, dto.GenerateResponse{
		ScriptContent: sc.Content,
		LogFile:       sc.LogFile,
		Results:       sc.Results,
		Summary:       summary,
	})
}

func (c *Controller) fail(w http.ResponseWriter, r *http.Request, appErr *httperrors.AppError) {
	httperrors.Log(logger.From(r.Context()), appErr)
	httperrors.WriteError(w, appErr)
}
