package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

// ErrorRenderer escribe un error al cliente (JSON o página HTML).
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, err *errors.AppError)

// WithRecover captura panics y devuelve un INTERNAL_ERROR en lugar de
// crashear. El panic completo (valor, tipo, stack) queda en el log.
// Si render es nil se responde JSON.
func WithRecover(render ErrorRenderer) Middleware {
	if render == nil {
		render = func(w http.ResponseWriter, _ *http.Request, err *errors.AppError) {
			errors.WriteError(w, err)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log := logger.From(r.Context())
				log.Error("panic recovered",
					logger.Op("recover"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.String("error_type", fmt.Sprintf("%T", rec)),
					logger.Any("panic", rec),
					logger.Any("traceback", strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")),
				)

				render(w, r, errors.ErrInternal.WithCause(fmt.Errorf("panic: %v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
