// Package session mantiene el estado por navegador entre requests: el último
// CSV subido espera aquí hasta que la página lo consume.
//
// El cookie solo transporta un id firmado (JWT HS256). El contenido vive en
// un cache.Client bajo la key "sess:<sha256(sid)>".
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	tokens "github.com/Poutchouli/SharedMailbox-editor/internal/security/token"
)

// Upload es lo que queda en sesión después de un POST /upload exitoso.
type Upload struct {
	Filename string          `json:"filename"`
	Records  []ingest.Record `json:"records"`
	Encoding ingest.Encoding `json:"encoding,omitempty"`
}

// Context es la sesión del request actual. Se crea en el middleware y se
// descarta al terminar el request.
type Context struct {
	id    string
	store cache.Client
	ttl   time.Duration
	fresh bool
}

// ID devuelve el identificador opaco de la sesión.
func (s *Context) ID() string { return s.id }

// IsNew indica si la sesión se creó en este request.
func (s *Context) IsNew() bool { return s.fresh }

func (s *Context) key(name string) string {
	return "sess:" + tokens.SHA256Base64URL(s.id) + ":" + name
}

// PutUpload reemplaza el upload pendiente de esta sesión.
func (s *Context) PutUpload(ctx context.Context, u Upload) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: encode upload: %w", err)
	}
	return s.store.Set(ctx, s.key("upload"), b, s.ttl)
}

// PopUpload devuelve el upload pendiente y lo borra. ok=false si no había.
func (s *Context) PopUpload(ctx context.Context) (Upload, bool, error) {
	b, err := s.store.Take(ctx, s.key("upload"))
	if cache.IsNotFound(err) {
		return Upload{}, false, nil
	}
	if err != nil {
		return Upload{}, false, err
	}
	var u Upload
	if err := json.Unmarshal(b, &u); err != nil {
		return Upload{}, false, fmt.Errorf("session: decode upload: %w", err)
	}
	return u, true, nil
}

type ctxKey struct{}

// ToContext adjunta la sesión al contexto.
func ToContext(ctx context.Context, s *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext obtiene la sesión. Retorna nil si el middleware no se aplicó.
func FromContext(ctx context.Context) *Context {
	s, _ := ctx.Value(ctxKey{}).(*Context)
	return s
}
