package services

import (
	"context"
	"time"

	"patio-backend/internal/models"
)

// QueueStore persists the card projection, its linked orders and the
// transition history. Mutations are atomic: projection update and history
// append happen in one transaction, serialized per item.
type QueueStore interface {
	Get(ctx context.Context, companyID, id string) (*models.QueueItem, error)
	List(ctx context.Context, companyID string, archived bool) ([]*models.QueueItem, error)

	// FindRecentByDriver returns an active card with the same driver and
	// plate created at or after since, or ErrNotFound.
	FindRecentByDriver(ctx context.Context, companyID, driverName, plate string, since time.Time) (*models.QueueItem, error)

	Create(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error

	// Move re-reads the current stage under a row lock, fills ev.FromStage
	// from it, appends the event and updates the projection. Returns
	// ErrNotFound for missing or archived items.
	Move(ctx context.Context, companyID, id, toStage string, ev *models.TransitionEvent) (*models.QueueItem, error)

	UpdateMeta(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error
	Archive(ctx context.Context, companyID, id string, ev *models.TransitionEvent) (*models.QueueItem, error)

	// ArchiveStage archives every active item sitting in stageKey in one
	// statement (single MVCC snapshot) and returns how many were archived.
	ArchiveStage(ctx context.Context, companyID, stageKey string, actor *models.Actor, now time.Time) (int, error)

	LinkOrder(ctx context.Context, link *models.LinkedOrder, ev *models.TransitionEvent) error
	UnlinkOrder(ctx context.Context, companyID, itemID, orderID string, ev *models.TransitionEvent) error
	ListLinks(ctx context.Context, companyID, itemID string) ([]*models.LinkedOrder, error)
}

// EventStore is the read side of the append-only history.
type EventStore interface {
	ListByItem(ctx context.Context, companyID, itemID string) ([]*models.TransitionEvent, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.TransitionEvent, error)
}

// StageStore persists tenant-scoped stage definitions.
type StageStore interface {
	List(ctx context.Context, companyID string) ([]*models.StageDefinition, error)

	// Insert adds a definition if the key is free; reports whether a row
	// was written.
	Insert(ctx context.Context, stage *models.StageDefinition) (bool, error)
	Update(ctx context.Context, stage *models.StageDefinition) error
}

// OrderProvider exposes externally owned orders read-only.
type OrderProvider interface {
	Get(ctx context.Context, companyID, id string) (*models.OrderSummary, error)
	Search(ctx context.Context, companyID, query string, excludeLinked bool) ([]*models.OrderSummary, error)
}
