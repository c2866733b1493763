package logger

import (
	"go.uber.org/zap"
)

// ---- HTTP ----

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// ---- Sistema ----

// Component identifica el módulo que loguea (ingest, script, session...).
func Component(v string) zap.Field { return zap.String("component", v) }

// Layer identifica la capa (controller, service, middleware).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Op identifica la operación en curso.
func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// ---- Dominio ----

// Filename del CSV subido.
func Filename(v string) zap.Field { return zap.String("filename", v) }

// Encoding con el que se decodificó el CSV.
func Encoding(v string) zap.Field { return zap.String("encoding", v) }

// Mailbox sobre la que actúa una operación.
func Mailbox(v string) zap.Field { return zap.String("mailbox", v) }

// SessionID abreviado; nunca loguear el id completo.
func SessionID(v string) zap.Field {
	if len(v) > 8 {
		v = v[:8] + "…"
	}
	return zap.String("session_id", v)
}

func Count(v int) zap.Field             { return zap.Int("count", v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
