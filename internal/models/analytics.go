package models

import "time"

// StageSLA is one consolidated entry of the per-item SLA view: every visit
// to the same stage summed into a single row.
type StageSLA struct {
	Stage          string     `json:"estagio"`
	Start          time.Time  `json:"inicio"`
	End            *time.Time `json:"fim"` // nil while the stage is ongoing
	TotalMinutes   int        `json:"tempo_minutos"`
	SLAMinutes     int        `json:"sla_minutos"`
	WithinSLA      bool       `json:"dentro_do_sla"`
	OverrunMinutes int        `json:"atraso_minutos"`
	Active         bool       `json:"ativo"`
}

// ResponsibilityPeriod is one non-consolidated stage occupancy attributed
// to the actor whose event moved the item into the stage.
type ResponsibilityPeriod struct {
	Stage          string     `json:"estagio"`
	ActorID        string     `json:"usuario_id"`
	ActorName      string     `json:"usuario_responsavel"`
	Start          time.Time  `json:"inicio"`
	End            *time.Time `json:"fim"`
	Minutes        int        `json:"tempo_minutos"`
	SLAMinutes     int        `json:"sla_minutos"`
	WithinSLA      bool       `json:"dentro_do_sla"`
	OverrunMinutes int        `json:"atraso_minutos"`
	Ongoing        bool       `json:"em_andamento"`
}

// SLAReport is the full read-side view for one item.
type SLAReport struct {
	ItemID           string                  `json:"fila_x_id"`
	Stages           []*StageSLA             `json:"etapas"`
	Responsibilities []*ResponsibilityPeriod `json:"responsabilidades"`
	TotalMinutes     int                     `json:"tempo_total_minutos"`
	Closed           bool                    `json:"finalizado"`
}

// StageStats is the per-stage breakdown inside UserStats.
type StageStats struct {
	Total          int `json:"total"`
	WithinSLA      int `json:"no_prazo"`
	OverSLA        int `json:"atrasadas"`
	TotalMinutes   int `json:"tempo_total"`
	OverrunMinutes int `json:"atraso_total"`
}

// UserStats aggregates SLA responsibility for one actor over a window.
type UserStats struct {
	ActorID        string                 `json:"usuario_id"`
	ActorName      string                 `json:"usuario_nome"`
	TotalPeriods   int                    `json:"total_etapas"`
	WithinSLA      int                    `json:"etapas_no_prazo"`
	OverSLA        int                    `json:"etapas_atrasadas"`
	TotalMinutes   int                    `json:"tempo_total_minutos"`
	AverageMinutes int                    `json:"tempo_medio_minutos"`
	OverrunMinutes int                    `json:"atraso_total_minutos"`
	PercentWithin  int                    `json:"percentual_sla"`
	ByStage        map[string]*StageStats `json:"etapas_por_tipo"`
}
