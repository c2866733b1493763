package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/Poutchouli/SharedMailbox-editor/internal/http/errors"
)

// MaxJSONBody limita el body de los endpoints JSON.
const MaxJSONBody = 1 << 20

// ReadJSON decodifica JSON de forma tolerante (no falla por campos desconocidos).
// Valida Content-Type y limita el body a MaxJSONBody.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		return httperrors.ErrInvalidJSON.WithDetail("Content-Type doit être application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return httperrors.ErrFileTooLarge.WithCause(err)
		case errors.Is(err, io.EOF):
			return httperrors.ErrInvalidJSON.WithDetail("corps vide")
		default:
			return httperrors.ErrInvalidJSON.WithCause(err).WithDetail(err.Error())
		}
	}
	return nil
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
