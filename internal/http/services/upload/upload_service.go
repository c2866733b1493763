// Package upload contiene el service que valida y normaliza los CSV subidos.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/metrics"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

var (
	ErrNoFile   = errors.New("upload: no file selected")
	ErrNotCSV   = errors.New("upload: file is not a .csv")
	ErrTooLarge = errors.New("upload: file too large")
)

// Service valida el archivo y devuelve los registros normalizados.
type Service interface {
	Ingest(ctx context.Context, filename string, body io.Reader) (*ingest.Result, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	MaxBytes int64
	Options  ingest.Options
}

type service struct {
	maxBytes int64
	opts     ingest.Options
}

// NewService crea el service. MaxBytes <= 0 usa 5 MiB.
func NewService(deps Deps) Service {
	if deps.MaxBytes <= 0 {
		deps.MaxBytes = 5 << 20
	}
	return &service{maxBytes: deps.MaxBytes, opts: deps.Options}
}

func (s *service) Ingest(ctx context.Context, filename string, body io.Reader) (*ingest.Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("upload.Ingest"), logger.Filename(filename))

	if strings.TrimSpace(filename) == "" || body == nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrNotCSV
	}

	// leer un byte de más para detectar el exceso
	raw, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload: read: %w", err)
	}
	if int64(len(raw)) > s.maxBytes {
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		return nil, ErrTooLarge
	}

	res, err := ingest.Parse(raw, s.opts)
	switch {
	case errors.Is(err, ingest.ErrEncoding):
		metrics.UploadsTotal.WithLabelValues("encoding").Inc()
		return nil, err
	case errors.Is(err, ingest.ErrNoRows):
		metrics.UploadsTotal.WithLabelValues("empty").Inc()
		log.Info("csv without valid rows", logger.Int("bytes", len(raw)), logger.Bool("has_bom", bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF})))
		return nil, err
	case err != nil:
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	metrics.UploadRecords.Observe(float64(len(res.Records)))
	metrics.UploadSkippedRows.Add(float64(res.Skipped))
	metrics.UploadEncodings.WithLabelValues(string(res.Encoding)).Inc()

	log.Info("csv ingested",
		logger.Encoding(string(res.Encoding)),
		logger.Count(len(res.Records)),
		logger.Int("skipped", res.Skipped),
		logger.Any("missing_columns", res.Missing),
	)
	return res, nil
}
