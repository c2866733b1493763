// Package ingest lee el CSV de permisos subido por el usuario y lo normaliza
// a registros (Identity, User, AccessRights).
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Nombres de columna esperados en el header del CSV.
const (
	ColumnIdentity     = "Identity"
	ColumnUser         = "User"
	ColumnAccessRights = "AccessRights"
)

// DefaultSeparator es el separador que exporta Exchange en configuraciones
// regionales FR.
const DefaultSeparator = ';'

// ErrNoRows se devuelve cuando, después de descartar filas inválidas, no
// queda ningún registro.
var ErrNoRows = errors.New("ingest: csv contains no valid rows")

// Record es una fila normalizada del CSV.
type Record struct {
	Identity     string `json:"Identity"`
	User         string `json:"User"`
	AccessRights string `json:"AccessRights"`
}

// Options controla el parseo. El zero value usa ';' y las columnas por defecto.
type Options struct {
	Separator rune
	// Columns son los nombres de header que alimentan Identity, User y
	// AccessRights, en ese orden.
	Columns [3]string
}

// Result es la tabla normalizada junto con datos de diagnóstico.
type Result struct {
	Records  []Record
	Encoding Encoding
	// Skipped cuenta las líneas descartadas por no encajar en el header.
	Skipped int
	// Missing lista las columnas requeridas ausentes en el header, que se
	// completaron con cadena vacía.
	Missing []string
}

// DefaultOptions retorna las opciones del formato de exportación estándar.
func DefaultOptions() Options {
	return Options{
		Separator: DefaultSeparator,
		Columns:   [3]string{ColumnIdentity, ColumnUser, ColumnAccessRights},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Separator == 0 {
		o.Separator = d.Separator
	}
	for i := range o.Columns {
		if strings.TrimSpace(o.Columns[i]) == "" {
			o.Columns[i] = d.Columns[i]
		}
	}
	return o
}

// Parse decodifica raw y lo convierte en registros.
//
// Las filas con más campos que el header se descartan (Skipped); las que
// traen menos se completan con vacío. Las columnas requeridas que no
// existen en el header salen vacías en todos los registros.
func Parse(raw []byte, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	text, enc, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = opts.Separator
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	res := &Result{Encoding: enc}

	header, err := readHeader(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}

	idx := [3]int{-1, -1, -1}
	for i, want := range opts.Columns {
		if pos, ok := header[want]; ok {
			idx[i] = pos
		} else {
			res.Missing = append(res.Missing, want)
		}
	}
	width := len(header)

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("ingest: read row: %w", err)
		}
		if len(row) > width {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, Record{
			Identity:     cell(row, idx[0]),
			User:         cell(row, idx[1]),
			AccessRights: cell(row, idx[2]),
		})
	}

	if len(res.Records) == 0 {
		return nil, ErrNoRows
	}
	return res, nil
}

// readHeader lee la primera línea no vacía y arma nombre -> posición.
// Ante nombres duplicados gana la primera aparición.
func readHeader(r *csv.Reader) (map[string]int, error) {
	for {
		row, err := r.Read()
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, err
		}
		cols := make(map[string]int, len(row))
		for i, name := range row {
			name = strings.TrimSpace(name)
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
		return cols, nil
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
