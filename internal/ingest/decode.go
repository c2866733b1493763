package ingest

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding identifica con qué codificación se pudo leer el archivo.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF8BOM Encoding = "utf-8-sig"
	EncodingLatin1  Encoding = "latin-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEncoding se devuelve cuando ninguna de las codificaciones soportadas
// puede decodificar el contenido.
var ErrEncoding = errors.New("ingest: file is not valid utf-8, utf-8-sig or latin-1")

type decoder struct {
	enc    Encoding
	decode func(raw []byte) (string, bool)
}

// El orden importa: el primero que acepta el contenido gana.
var decoders = []decoder{
	{EncodingUTF8, decodeUTF8},
	{EncodingUTF8BOM, decodeUTF8BOM},
	{EncodingLatin1, decodeLatin1},
}

// Decode convierte raw a texto probando UTF-8, UTF-8 con BOM y Latin-1,
// en ese orden.
func Decode(raw []byte) (string, Encoding, error) {
	for _, d := range decoders {
		if s, ok := d.decode(raw); ok {
			return s, d.enc, nil
		}
	}
	return "", "", ErrEncoding
}

// decodeUTF8 es estricto: rechaza bytes inválidos y también el BOM, para
// que la marca no termine pegada al nombre de la primera columna.
func decodeUTF8(raw []byte) (string, bool) {
	if bytes.HasPrefix(raw, utf8BOM) || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

func decodeUTF8BOM(raw []byte) (string, bool) {
	if !bytes.HasPrefix(raw, utf8BOM) || !utf8.Valid(raw) {
		return "", false
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeLatin1(raw []byte) (string, bool) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}
