package models

import "time"

// Order type constants
const (
	OrderTypeLoadOrder = "ordem_carga"
	OrderTypeCargo     = "carregamento"
)

// OrderSummary is the read-only view of an externally owned order exposed
// by the order provider. The queue never mutates orders.
type OrderSummary struct {
	ID        string    `json:"id"`
	Number    string    `json:"numero_referencia"`
	Type      string    `json:"tipo_referencia"`
	Sender    string    `json:"remetente,omitempty"`
	Recipient string    `json:"destinatario,omitempty"`
	Status    string    `json:"status"`
	CompanyID string    `json:"empresa_id"`
	CreatedAt time.Time `json:"created_at"`
}
