package models

import "time"

// StageDefinition describes one column of the FilaX board. The key is the
// stable identifier stored in queue items and history; label, description
// and position are display only and must never drive business logic.
type StageDefinition struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Description string    `json:"descricao"`
	SLAMinutes  int       `json:"sla_minutos"` // 0 means no SLA enforced
	Position    int       `json:"ordem"`
	Terminal    bool      `json:"terminal"`
	BuiltIn     bool      `json:"built_in"`
	CompanyID   string    `json:"empresa_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Built-in stage keys. "apresentar" is a legacy key still present in old
// history rows; it is normalized to StageAwaitingDock on every input path.
const (
	StageTriage       = "triagem"
	StageAwaitingDock = "aguardando_doca"
	StageInProcess    = "em_processo"
	StageFinalized    = "finalizado"
	StageRefused      = "recusado"
	StageLegacyNotify = "apresentar"
)

// DefaultCustomSLAMinutes is assigned to stages discovered in data or
// created implicitly by a move to an unregistered key.
const DefaultCustomSLAMinutes = 30

// CreateStageRequest represents the request body for registering a custom stage
type CreateStageRequest struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"descricao"`
	SLAMinutes  int    `json:"sla_minutos"`
	Position    int    `json:"ordem"`
}

// UpdateStageRequest represents the request body for updating a stage
type UpdateStageRequest struct {
	Label       string `json:"label"`
	Description string `json:"descricao"`
	SLAMinutes  *int   `json:"sla_minutos"`
	Position    *int   `json:"ordem"`
}
