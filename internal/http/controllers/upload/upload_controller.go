// Package upload contiene los handlers del flujo de carga de CSV.
package upload

import (
	"errors"
	"net/http"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/http/helpers"
	svc "github.com/Poutchouli/SharedMailbox-editor/internal/http/services/upload"
	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/session"
)

// multipartOverhead cubre boundaries y headers del form además del archivo.
const multipartOverhead = 64 << 10

// ErrorRenderer muestra un error en la página principal.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, err *httperrors.AppError)

// Controller maneja POST /upload y GET /get_initial_data.
type Controller struct {
	service  svc.Service
	maxBytes int64
	render   ErrorRenderer
}

// NewController crea el controller.
func NewController(service svc.Service, maxBytes int64, render ErrorRenderer) *Controller {
	return &Controller{service: service, maxBytes: maxBytes, render: render}
}

// Upload recibe el CSV, lo deja en la sesión y redirige a la página.
// Los errores se muestran en la página con status 4xx.
func (c *Controller) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UploadController.Upload"))

	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.render(w, r, httperrors.ErrFileTooLarge.WithCause(err))
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			c.render(w, r, httperrors.ErrNoFileSelected.WithCause(err))
		default:
			c.render(w, r, httperrors.ErrNoFileSelected.WithCause(err).WithDetail(err.Error()))
		}
		return
	}
	defer file.Close()

	res, err := c.service.Ingest(ctx, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrNoFile):
			c.render(w, r, httperrors.ErrNoFileSelected)
		case errors.Is(err, svc.ErrNotCSV):
			c.render(w, r, httperrors.ErrNotCSV)
		case errors.Is(err, svc.ErrTooLarge):
			c.render(w, r, httperrors.ErrFileTooLarge)
		default:
			c.render(w, r, httperrors.FromDomain(err))
		}
		return
	}

	sess := session.FromContext(ctx)
	if sess == nil {
		c.render(w, r, httperrors.ErrInternal.WithDetail("session middleware missing"))
		return
	}
	if err := sess.PutUpload(ctx, session.Upload{
		Filename: header.Filename,
		Records:  res.Records,
		Encoding: res.Encoding,
	}); err != nil {
		c.render(w, r, httperrors.ErrInternal.WithCause(err))
		return
	}

	log.Debug("upload stored in session", logger.Count(len(res.Records)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// InitialData maneja GET /get_initial_data. Igual que la página, consume
// el upload pendiente.
func (c *Controller) InitialData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := dto.InitialDataResponse{InitialData: []ingest.Record{}, Filename: dto.NoFileLoaded}
	if sess := session.FromContext(ctx); sess != nil {
		up, ok, err := sess.PopUpload(ctx)
		if err != nil {
			httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
			return
		}
		if ok {
			resp.Filename = up.Filename
			if up.Records != nil {
				resp.InitialData = up.Records
			}
		}
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}
