// Package health contiene el controller para health checks.
package health

import (
	"net/http"
	"sort"
	"strings"

	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/helpers"
	svc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/health"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

// Controller maneja las rutas de health check.
type Controller struct {
	service svc.Service
}

// NewController crea un nuevo controller de health check.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Readyz maneja GET /readyz. Un componente caído responde 503.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := c.service.Check(ctx)

	status := http.StatusOK
	if resp.Status != "ready" {
		appErr := httperrors.ErrServiceUnavailable.WithDetail(downComponents(resp.Components))
		httperrors.Log(logger.From(ctx), appErr)
		status = appErr.HTTPStatus
		resp.Code = appErr.Code
		resp.Error = appErr.Message
	}
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	logger.From(ctx).Debug("health check completed", logger.String("status", resp.Status))
	helpers.WriteJSON(w, status, resp)
}

// downComponents lista, ordenados, los componentes que no respondieron.
func downComponents(components map[string]string) string {
	var down []string
	for name, st := range components {
		if st != "ok" {
			down = append(down, name)
		}
	}
	sort.Strings(down)
	return "down: " + strings.Join(down, ", ")
}
