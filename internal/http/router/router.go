// Package router arma las rutas de la aplicación sobre chi.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/health"
	pagectrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/page"
	scriptctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/script"
	uploadctrl "github.com/Poutchouli/SharedMailbox-editor/internal/http/controllers/upload"
	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	mw "github.com/Poutchouli/SharedMailbox-editor/internal/http/middlewares"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"github.com/Poutchouli/SharedMailbox-editor/internal/rate"
	"github.com/Poutchouli/SharedMailbox-editor/internal/web"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Page   *pagectrl.Controller
	Upload *uploadctrl.Controller
	Script *scriptctrl.Controller
	Health *healthctrl.Controller

	// Session adjunta la sesión al request (session.Manager.Middleware).
	Session mw.Middleware
	// Metrics es el handler de /metrics. nil = no se expone.
	Metrics http.Handler
	// RateLimiter limita los POST. nil = sin límite.
	RateLimiter rate.Limiter
}

// apiPaths responden errores en JSON; el resto con la página.
var apiPaths = []string{"/generate_permission_script", "/get_initial_data", "/readyz"}

func isAPI(r *http.Request) bool {
	for _, p := range apiPaths {
		if strings.HasPrefix(r.URL.Path, p) {
			return true
		}
	}
	return false
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	renderError := func(w http.ResponseWriter, r *http.Request, err *httperrors.AppError) {
		if isAPI(r) {
			httperrors.Log(logger.From(r.Context()), err)
			httperrors.WriteError(w, err)
			return
		}
		deps.Page.RenderError(w, r, err)
	}

	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithRecover(renderError),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(deps.Page.NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		renderError(w, req, httperrors.ErrMethodNotAllowed)
	})

	// Infra: sin sesión
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	r.Get("/favicon.ico", deps.Page.Favicon)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	r.Get("/sample", deps.Page.Sample)

	limit := mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: deps.RateLimiter,
		KeyFunc: mw.IPPathRateKey,
		Render:  renderError,
	})

	// Flujo con sesión
	r.Group(func(r chi.Router) {
		if deps.Session != nil {
			r.Use(deps.Session)
		}
		r.Get("/", deps.Page.Index)
		r.With(limit).Post("/upload", deps.Upload.Upload)

		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())
			r.Get("/get_initial_data", deps.Upload.InitialData)
			r.With(limit).Post("/generate_permission_script", deps.Script.Generate)
		})
	})

	return r
}
