// Package dto define los cuerpos JSON de la API.
package dto

import (
	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
)

// NoFileLoaded es el nombre que se muestra cuando no hay upload pendiente.
const NoFileLoaded = "Aucun fichier chargé"

// InitialDataResponse es la respuesta de GET /get_initial_data.
type InitialDataResponse struct {
	InitialData []ingest.Record `json:"initial_data"`
	Filename    string          `json:"filename"`
}

// GenerateRequest es el cuerpo de POST /generate_permission_script.
type GenerateRequest struct {
	Operations  script.Operations `json:"operations"`
	Username    string            `json:"username"`
	Password    string            `json:"password"`
	Domain      *string           `json:"domain"` // nil = dominio por defecto
	AuthEnabled bool              `json:"auth_enabled"`
}

// GenerateResponse es la respuesta de POST /generate_permission_script.
type GenerateResponse struct {
	ScriptContent string            `json:"script_content"`
	LogFile       string            `json:"log_file"`
	Results       []script.OpResult `json:"results"`
	Summary       map[string]int    `json:"summary"`
}

// HealthResponse es la respuesta de GET /readyz. Code y Error solo se
// completan cuando el servicio no está listo.
type HealthResponse struct {
	Status     string            `json:"status"` // ready | degraded
	Components map[string]string `json:"components"`
	Cache      *cache.Stats      `json:"cache,omitempty"`
	Version    string            `json:"version,omitempty"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
}
