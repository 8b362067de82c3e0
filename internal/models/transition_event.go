package models

import "time"

// Event action constants (wire values shared with the existing front end)
const (
	ActionCreated       = "cartao_criado"
	ActionMoved         = "movido"
	ActionOrderLinked   = "ordem_vinculada"
	ActionOrderUnlinked = "ordem_desvinculada"
	ActionEdited        = "editado"
	ActionArchived      = "arquivado"
)

// TransitionEvent is one append-only history row for a queue item. Events
// are immutable once written; all time and responsibility reporting is
// replayed from them.
type TransitionEvent struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"fila_x_id"`
	Action     string    `json:"acao"`
	FromStage  string    `json:"estagio_anterior,omitempty"`
	ToStage    string    `json:"estagio_novo,omitempty"`
	OrderID    string    `json:"ordem_id,omitempty"`
	Notes      string    `json:"observacoes,omitempty"`
	ActorID    string    `json:"usuario_id"`
	ActorName  string    `json:"usuario_nome"`
	CompanyID  string    `json:"empresa_id"`
	OccurredAt time.Time `json:"data_acao"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsStageDefining reports whether the event starts a stage occupancy
// interval during replay.
func (e *TransitionEvent) IsStageDefining() bool {
	return e.Action == ActionCreated || e.Action == ActionMoved
}
