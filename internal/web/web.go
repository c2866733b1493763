// Package web contiene la página única de la aplicación y sus assets,
// embebidos en el binario.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed sample_southpark_permissions.csv
var sampleCSV []byte

// SampleFilename es el nombre con el que se descarga el CSV de ejemplo.
const SampleFilename = "sample_southpark_permissions.csv"

// SampleCSV devuelve el CSV de ejemplo.
func SampleCSV() []byte { return sampleCSV }

// Static devuelve el sistema de archivos con /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // el directorio está embebido, no puede faltar
	}
	return sub
}

// PageData alimenta templates/index.html.
type PageData struct {
	Error         string
	Filename      string
	InitialData   []ingest.Record
	DefaultDomain string
	RequireAuth   bool
}

// Renderer dibuja la página principal.
type Renderer struct {
	index *template.Template
}

// NewRenderer parsea los templates embebidos.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{index: t}, nil
}

// Render escribe la página con el status indicado. El template se ejecuta
// en un buffer para no mandar una página a medias si falla.
func (r *Renderer) Render(w http.ResponseWriter, status int, data PageData) error {
	if data.InitialData == nil {
		data.InitialData = []ingest.Record{}
	}
	var buf bytes.Buffer
	if err := r.index.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
