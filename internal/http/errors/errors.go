package errors

import (
	"encoding/json"
	"net/http"

	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
	"go.uber.org/zap"
)

// errorResponse es lo que recibe el cliente. "error" es el campo que lee
// la página.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError escribe una respuesta HTTP JSON basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Error:     appErr.Message,
		Code:      appErr.Code,
		RequestID: w.Header().Get("X-Request-ID"),
	}
	// el detalle de un error inesperado puede contener internals
	if appErr.Kind != KindUnexpected {
		resp.Detail = appErr.Detail
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// Log registra el error con el nivel que corresponde a su Kind. Los
// inesperados van a ERROR con stacktrace.
func Log(log *zap.Logger, appErr *AppError) {
	// method y path ya vienen en el logger del request
	fields := []zap.Field{zap.String("code", appErr.Code)}
	if appErr.Detail != "" {
		fields = append(fields, zap.String("detail", appErr.Detail))
	}
	if appErr.Err != nil {
		fields = append(fields, logger.Err(appErr.Err), zap.String("error_type", errorType(appErr.Err)))
	}

	switch appErr.Kind {
	case KindUnexpected:
		log.Error("unexpected error", append(fields, zap.Stack("stacktrace"))...)
	default:
		log.Info("request rejected", fields...)
	}
}
