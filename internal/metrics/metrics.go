package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de dominio. Viven en un paquete aparte para que services y CLI
// puedan registrar eventos sin depender del paquete HTTP.

var (
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mbxperm_uploads_total",
		Help: "CSV recibidos por resultado",
	}, []string{"result"}) // result: ok|invalid|encoding|empty|too_large

	UploadRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbxperm_upload_records",
		Help:    "Registros válidos por CSV",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	UploadSkippedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbxperm_upload_skipped_rows_total",
		Help: "Filas descartadas por cantidad de campos incorrecta",
	})

	UploadEncodings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mbxperm_upload_encoding_total",
		Help: "Codificación con la que se pudo leer cada CSV",
	}, []string{"encoding"})

	ScriptsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mbxperm_scripts_generated_total",
		Help: "Scripts generados, por modo de autenticación",
	}, []string{"auth"}) // auth: credentials|session

	OperationsCompiled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mbxperm_operations_compiled_total",
		Help: "Operaciones compiladas por estado",
	}, []string{"status"})
)

// Register registra las métricas de dominio en reg (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		UploadsTotal,
		UploadRecords,
		UploadSkippedRows,
		UploadEncodings,
		ScriptsGenerated,
		OperationsCompiled,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
