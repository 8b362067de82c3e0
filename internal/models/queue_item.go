package models

import "time"

// Operation type constants
const (
	OperationReceiving = "recebimento"
	OperationLoading   = "carregamento"
	OperationTransfer  = "transferencia"
	OperationInbound   = "entrada"
	OperationOutbound  = "saida"
)

// Priority constants
const (
	PriorityLow    = "baixa"
	PriorityNormal = "normal"
	PriorityHigh   = "alta"
	PriorityUrgent = "urgente"
)

// QueueItem is the current-state projection of one card on the FilaX board.
// It is derived from the event log and mutated only through the transition
// engine and the archive manager.
type QueueItem struct {
	ID            string         `json:"id"`
	Title         string         `json:"titulo_cartao"`
	OperationType string         `json:"tipo_operacao"`
	Stage         string         `json:"estagio"`
	Priority      string         `json:"prioridade"`
	EnteredAt     time.Time      `json:"data_entrada"`
	UpdatedAt     time.Time      `json:"data_atualizacao"`
	DriverName    string         `json:"motorista_nome,omitempty"`
	DriverPhone   string         `json:"motorista_telefone,omitempty"`
	VehiclePlate  string         `json:"veiculo_placa,omitempty"`
	VehicleType   string         `json:"veiculo_tipo,omitempty"`
	Dock          string         `json:"doca_designada,omitempty"`
	Notes         string         `json:"observacoes,omitempty"`
	Archived      bool           `json:"arquivado"`
	ArchivedAt    *time.Time     `json:"data_arquivamento,omitempty"`
	CompanyID     string         `json:"empresa_id"`
	LinkedOrders  []*LinkedOrder `json:"ordens_vinculadas,omitempty"`
}

// LinkedOrder associates a queue item with an externally owned order. The
// embedded summary is a display cache and may go stale; the order id is the
// only authoritative field.
type LinkedOrder struct {
	ID        string        `json:"id"`
	ItemID    string        `json:"fila_x_id"`
	OrderID   string        `json:"ordem_id"`
	OrderType string        `json:"tipo_ordem"` // ordem_carga or carregamento
	LinkedAt  time.Time     `json:"data_vinculacao"`
	CompanyID string        `json:"empresa_id"`
	Order     *OrderSummary `json:"ordem_data,omitempty"`
}

// CreateQueueItemRequest represents the request body for creating a card
type CreateQueueItemRequest struct {
	Title         string `json:"titulo_cartao"`
	OperationType string `json:"tipo_operacao"`
	Priority      string `json:"prioridade"`
	DriverName    string `json:"motorista_nome"`
	DriverPhone   string `json:"motorista_telefone"`
	VehiclePlate  string `json:"veiculo_placa"`
	VehicleType   string `json:"veiculo_tipo"`
	Dock          string `json:"doca_designada"`
	Notes         string `json:"observacoes"`
	OrderID       string `json:"ordem_id"` // optional: link on creation
}

// MoveQueueItemRequest represents the request body for a stage move
type MoveQueueItemRequest struct {
	Stage string `json:"estagio"`
	Notes string `json:"observacoes"`
}

// EditQueueItemRequest represents the request body for a metadata edit.
// A non-empty Stage here is logged as a move, everything else as an edit.
type EditQueueItemRequest struct {
	DriverName   string `json:"motorista_nome"`
	DriverPhone  string `json:"motorista_telefone"`
	VehiclePlate string `json:"veiculo_placa"`
	VehicleType  string `json:"veiculo_tipo"`
	Dock         string `json:"doca_designada"`
	Stage        string `json:"estagio"`
}

// LinkOrderRequest represents the request body for linking an order
type LinkOrderRequest struct {
	OrderID string `json:"ordem_id"`
	Force   bool   `json:"forcar"` // accept a duplicate link on purpose
}
