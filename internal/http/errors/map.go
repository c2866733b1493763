package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
)

// FromDomain traduce los errores sentinela de los paquetes de dominio. Lo
// que no reconoce queda como ErrInternal.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, ingest.ErrEncoding):
		return ErrEncoding.WithCause(err)
	case stderrors.Is(err, ingest.ErrNoRows):
		return ErrEmptyCSV.WithCause(err)
	case stderrors.Is(err, script.ErrMissingAuthField):
		return ErrMissingAuthFields.WithCause(err).WithDetail(err.Error())
	}
	return ErrInternal.WithCause(err)
}

func errorType(err error) string {
	// el tipo concreto más externo, útil para agrupar en el log
	return fmt.Sprintf("%T", err)
}
