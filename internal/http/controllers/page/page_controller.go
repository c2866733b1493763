// Package page contiene los handlers que devuelven HTML o archivos.
package page

import (
	"net/http"
	"strconv"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/dto"
	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/session"
	"github.com/Poutchouli/SharedMailbox-editor/internal/web"
)

// Config valores que la página necesita para pre-llenar el formulario.
type Config struct {
	DefaultDomain string
	RequireAuth   bool
}

// Controller maneja /, /favicon.ico, /sample y el 404.
type Controller struct {
	renderer *web.Renderer
	config   Config
}

// NewController crea el controller de páginas.
func NewController(renderer *web.Renderer, config Config) *Controller {
	return &Controller{renderer: renderer, config: config}
}

// Index maneja GET /. Consume el upload pendiente de la sesión.
func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PageController.Index"))

	data := c.base()
	data.Filename = dto.NoFileLoaded

	if sess := session.FromContext(ctx); sess != nil {
		up, ok, err := sess.PopUpload(ctx)
		if err != nil {
			// se muestra la página vacía, el upload se pierde
			log.Error("session pop failed", logger.Err(err))
		}
		if ok {
			data.Filename = up.Filename
			data.InitialData = up.Records
		}
	}

	c.render(w, r, http.StatusOK, data)
}

// Favicon maneja GET /favicon.ico sin ensuciar los logs con 404.
func (c *Controller) Favicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Sample maneja GET /sample: descarga el CSV de ejemplo.
func (c *Controller) Sample(w http.ResponseWriter, _ *http.Request) {
	body := web.SampleCSV()
	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", `attachment; filename="`+web.SampleFilename+`"`)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// NotFound devuelve la página principal con el mensaje de 404. Para
// /favicon.ico responde un 404 sin cuerpo.
func (c *Controller) NotFound(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/favicon.ico" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	logger.From(r.Context()).Warn("404 not found")
	c.RenderError(w, r, httperrors.ErrNotFound)
}

// MethodNotAllowed responde 405 con la página.
func (c *Controller) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	c.RenderError(w, r, httperrors.ErrMethodNotAllowed)
}

// RenderError muestra appErr en la página principal con su status.
func (c *Controller) RenderError(w http.ResponseWriter, r *http.Request, appErr *httperrors.AppError) {
	httperrors.Log(logger.From(r.Context()), appErr)

	data := c.base()
	data.Filename = dto.NoFileLoaded
	data.Error = appErr.Message
	c.render(w, r, appErr.HTTPStatus, data)
}

func (c *Controller) base() web.PageData {
	return web.PageData{
		DefaultDomain: c.config.DefaultDomain,
		RequireAuth:   c.config.RequireAuth,
	}
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, status int, data web.PageData) {
	if err := c.renderer.Render(w, status, data); err != nil {
		logger.From(r.Context()).Error("template render failed", logger.Err(err))
		http.Error(w, httperrors.ErrInternal.Message, http.StatusInternalServerError)
	}
}
