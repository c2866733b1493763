package errors

import (
	"fmt"
	"net/http"
)

// Kind agrupa los errores según quién tiene que corregirlos.
type Kind string

const (
	// KindInput: el archivo o los datos enviados no sirven.
	KindInput Kind = "input"
	// KindRequest: la solicitud está mal armada (JSON, campos de auth).
	KindRequest Kind = "request"
	// KindUnexpected: falla interna. El detalle va al log, nunca al cliente.
	KindUnexpected Kind = "unexpected"
)

// AppError define la estructura estándar para errores de la aplicación
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	Kind       Kind   `json:"-"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Error original (causa), útil para logs
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando el error original.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// WithDetail agrega detalles adicionales al error.
// Devuelve una COPIA del error para no mutar las variables globales base
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa)
// Devuelve una COPIA del error
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// Los mensajes son los que ve el usuario final (en francés).
// =================================================================================

// ---------------------------------------------------------------------------------
// Input: archivo / datos
// ---------------------------------------------------------------------------------

var (
	ErrNoFileSelected = &AppError{
		Code:       "INVALID_INPUT",
		Message:    "Aucun fichier sélectionné.",
		Kind:       KindInput,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotCSV = &AppError{
		Code:       "INVALID_INPUT",
		Message:    "Veuillez sélectionner un fichier CSV (.csv).",
		Kind:       KindInput,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrEncoding = &AppError{
		Code:       "ENCODING_ERROR",
		Message:    "Erreur d'encodage du fichier. Veuillez sauvegarder le fichier en UTF-8.",
		Kind:       KindInput,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrEmptyCSV = &AppError{
		Code:       "EMPTY_CSV",
		Message:    "Le fichier CSV ne contient aucune donnée valide. Vérifiez que le fichier contient des colonnes 'Identity', 'User', et 'AccessRights' séparées par des points-virgules.",
		Kind:       KindInput,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrFileTooLarge = &AppError{
		Code:       "FILE_TOO_LARGE",
		Message:    "Le fichier dépasse la taille maximale autorisée.",
		Kind:       KindInput,
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrNoOperations = &AppError{
		Code:       "NO_OPERATIONS",
		Message:    "Aucune opération à générer.",
		Kind:       KindInput,
		HTTPStatus: http.StatusBadRequest,
	}
)

// ---------------------------------------------------------------------------------
// Request: solicitud mal armada
// ---------------------------------------------------------------------------------

var (
	ErrMissingAuthFields = &AppError{
		Code:       "MISSING_AUTH_FIELDS",
		Message:    "Si l'authentification est activée, le nom d'utilisateur, le mot de passe et le domaine sont requis.",
		Kind:       KindRequest,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "Le corps de la requête n'est pas un JSON valide.",
		Kind:       KindRequest,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Page non trouvée. Retour à l'accueil.",
		Kind:       KindRequest,
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Méthode non autorisée.",
		Kind:       KindRequest,
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Trop de requêtes. Réessayez dans quelques instants.",
		Kind:       KindRequest,
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// ---------------------------------------------------------------------------------
// Unexpected
// ---------------------------------------------------------------------------------

var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Une erreur inattendue s'est produite. Veuillez vérifier les logs pour plus de détails.",
		Kind:       KindUnexpected,
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Service temporairement indisponible.",
		Kind:       KindUnexpected,
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
