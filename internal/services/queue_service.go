package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"patio-backend/internal/cache"
	"patio-backend/internal/metrics"
	"patio-backend/internal/models"
	"patio-backend/internal/timeutil"
)

// BoardNotifier receives a ping whenever the queue of a company changes,
// so connected boards can refresh without polling.
type BoardNotifier interface {
	BoardChanged(companyID string)
}

// duplicateCardWindow guards against double-submits from the creation
// dialog: an identical driver+plate card created inside this window is
// returned instead of duplicated.
const duplicateCardWindow = 5 * time.Minute

// QueueService is the transition engine and archive manager of the FilaX
// board. All projection mutations go through here; reads of time and SLA
// live in SLAService/AnalyticsService over the same event log.
type QueueService struct {
	store    QueueStore
	events   EventStore
	registry *StageRegistry
	orders   OrderProvider
	notifier BoardNotifier
}

func NewQueueService(store QueueStore, events EventStore, registry *StageRegistry, orders OrderProvider) *QueueService {
	return &QueueService{store: store, events: events, registry: registry, orders: orders}
}

// SetNotifier wires the websocket hub. Optional.
func (s *QueueService) SetNotifier(n BoardNotifier) {
	s.notifier = n
}

func requireActor(actor *models.Actor) error {
	if actor == nil || actor.ID == "" || actor.CompanyID == "" {
		return ErrUnauthorized
	}
	return nil
}

func (s *QueueService) changed(ctx context.Context, companyID string) {
	cache.Invalidate(ctx, companyID)
	if s.notifier != nil {
		s.notifier.BoardChanged(companyID)
	}
}

func (s *QueueService) newEvent(actor *models.Actor, itemID, action string, now time.Time) *models.TransitionEvent {
	return &models.TransitionEvent{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		CompanyID:  actor.CompanyID,
		OccurredAt: now,
		CreatedAt:  now,
	}
}

// cardTitle derives the display title with the documented fallback chain:
// explicit title > "driver - plate" > driver > "Veículo {plate}" >
// "Cartão {shortId}".
func cardTitle(title, driverName, vehiclePlate, id string) string {
	switch {
	case title != "":
		return title
	case driverName != "" && vehiclePlate != "":
		return driverName + " - " + vehiclePlate
	case driverName != "":
		return driverName
	case vehiclePlate != "":
		return "Veículo " + vehiclePlate
	default:
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		return "Cartão " + short
	}
}

// Create admits a new card into the initial stage and writes its
// cartao_criado event. An optional order id is linked right after creation;
// a link failure never fails the creation itself.
func (s *QueueService) Create(ctx context.Context, actor *models.Actor, req *models.CreateQueueItemRequest) (*models.QueueItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	now := timeutil.Now()

	// Double-submit guard from the original board: same driver and plate
	// within the window means the dialog was submitted twice.
	if req.DriverName != "" && req.VehiclePlate != "" {
		existing, err := s.store.FindRecentByDriver(ctx, actor.CompanyID, req.DriverName, req.VehiclePlate, now.Add(-duplicateCardWindow))
		if err == nil {
			return s.withLinks(ctx, existing)
		}
	}

	operationType := req.OperationType
	if operationType == "" {
		operationType = models.OperationReceiving
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	notes := req.Notes
	if notes == "" {
		notes = "Cartão criado"
	}

	item := &models.QueueItem{
		ID:            uuid.NewString(),
		OperationType: operationType,
		Stage:         models.StageTriage,
		Priority:      priority,
		EnteredAt:     now,
		UpdatedAt:     now,
		DriverName:    req.DriverName,
		DriverPhone:   req.DriverPhone,
		VehiclePlate:  req.VehiclePlate,
		VehicleType:   req.VehicleType,
		Dock:          req.Dock,
		Notes:         notes,
		CompanyID:     actor.CompanyID,
	}
	item.Title = cardTitle(req.Title, req.DriverName, req.VehiclePlate, item.ID)

	if _, err := s.registry.Ensure(ctx, actor.CompanyID, models.StageTriage); err != nil {
		return nil, err
	}

	ev := s.newEvent(actor, item.ID, models.ActionCreated, now)
	ev.ToStage = models.StageTriage
	ev.Notes = "Novo cartão criado na fila"

	if err := s.store.Create(ctx, item, ev); err != nil {
		return nil, err
	}

	if req.OrderID != "" {
		if _, _, err := s.LinkOrder(ctx, actor, item.ID, &models.LinkOrderRequest{OrderID: req.OrderID}); err != nil {
			log.Printf("[FilaX] Cartão %s criado, vinculação da ordem %s falhou: %v", item.ID, req.OrderID, err)
		}
	}

	s.changed(ctx, actor.CompanyID)
	return s.withLinks(ctx, item)
}

// Move applies a stage transition. Transitions are unrestricted - any stage
// to any stage, including itself - because operators use moves to correct
// mis-moves. An unknown destination stage is auto-registered with the
// default SLA as part of the same operation.
func (s *QueueService) Move(ctx context.Context, actor *models.Actor, itemID, toStage, notes string) (*models.QueueItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	toStage = NormalizeKey(toStage)
	if toStage == "" {
		return nil, fmt.Errorf("%w: estágio vazio", ErrInvalidState)
	}

	stage, err := s.registry.Ensure(ctx, actor.CompanyID, toStage)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	ev := s.newEvent(actor, itemID, models.ActionMoved, now)
	ev.ToStage = stage.Key
	ev.Notes = notes
	if ev.Notes == "" {
		ev.Notes = "Movido para " + stage.Label
	}

	item, err := s.store.Move(ctx, actor.CompanyID, itemID, stage.Key, ev)
	if err != nil {
		return nil, err
	}

	metrics.QueueMovesTotal.WithLabelValues(stage.Key).Inc()
	s.changed(ctx, actor.CompanyID)
	return s.withLinks(ctx, item)
}

// Edit updates driver/vehicle/dock metadata. A stage passed here is applied
// too and the history row is recorded as movido; otherwise as editado.
func (s *QueueService) Edit(ctx context.Context, actor *models.Actor, itemID string, req *models.EditQueueItemRequest) (*models.QueueItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	item, err := s.store.Get(ctx, actor.CompanyID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, ErrNotFound
	}

	// A title that still matches the fallback chain was derived, not typed
	// in, so it follows the driver and plate when they change.
	autoTitled := item.Title == cardTitle("", item.DriverName, item.VehiclePlate, item.ID)

	if req.DriverName != "" {
		item.DriverName = req.DriverName
	}
	if req.DriverPhone != "" {
		item.DriverPhone = req.DriverPhone
	}
	if req.VehiclePlate != "" {
		item.VehiclePlate = req.VehiclePlate
	}
	if req.VehicleType != "" {
		item.VehicleType = req.VehicleType
	}
	if req.Dock != "" {
		item.Dock = req.Dock
	}
	if autoTitled {
		item.Title = cardTitle("", item.DriverName, item.VehiclePlate, item.ID)
	}

	now := timeutil.Now()
	fromStage := item.Stage
	action := models.ActionEdited
	newStage := NormalizeKey(req.Stage)
	if newStage != "" && newStage != item.Stage {
		if _, err := s.registry.Ensure(ctx, actor.CompanyID, newStage); err != nil {
			return nil, err
		}
		item.Stage = newStage
		action = models.ActionMoved
	}
	item.UpdatedAt = now

	ev := s.newEvent(actor, item.ID, action, now)
	ev.FromStage = fromStage
	ev.ToStage = item.Stage
	ev.Notes = "Dados do cartão atualizados"

	if err := s.store.UpdateMeta(ctx, item, ev); err != nil {
		return nil, err
	}

	if action == models.ActionMoved {
		metrics.QueueMovesTotal.WithLabelValues(item.Stage).Inc()
	}
	s.changed(ctx, actor.CompanyID)
	return s.withLinks(ctx, item)
}

// LinkOrder attaches an order to a card. Linking the same order twice is a
// soft conflict: without forcar the call returns ErrConflict so the
// operator can confirm; with forcar it succeeds and the returned warning
// flags the duplicate instead of dropping it silently.
func (s *QueueService) LinkOrder(ctx context.Context, actor *models.Actor, itemID string, req *models.LinkOrderRequest) (*models.LinkedOrder, string, error) {
	if err := requireActor(actor); err != nil {
		return nil, "", err
	}
	if req.OrderID == "" {
		return nil, "", fmt.Errorf("%w: ordem_id obrigatório", ErrInvalidState)
	}

	item, err := s.store.Get(ctx, actor.CompanyID, itemID)
	if err != nil {
		return nil, "", err
	}
	if item.Archived {
		return nil, "", ErrNotFound
	}

	order, err := s.orders.Get(ctx, actor.CompanyID, req.OrderID)
	if err != nil {
		return nil, "", err
	}

	warning := ""
	links, err := s.store.ListLinks(ctx, actor.CompanyID, itemID)
	if err != nil {
		return nil, "", err
	}
	for _, l := range links {
		if l.OrderID == order.ID {
			if !req.Force {
				return nil, "", fmt.Errorf("%w: ordem já vinculada a este cartão", ErrConflict)
			}
			warning = "Ordem já estava vinculada a este cartão; vinculação duplicada registrada"
			break
		}
	}

	now := timeutil.Now()
	link := &models.LinkedOrder{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		OrderID:   order.ID,
		OrderType: order.Type,
		LinkedAt:  now,
		CompanyID: actor.CompanyID,
		Order:     order,
	}

	ev := s.newEvent(actor, item.ID, models.ActionOrderLinked, now)
	ev.OrderID = order.ID
	ev.Notes = fmt.Sprintf("Ordem %s vinculada ao cartão", order.Number)

	if err := s.store.LinkOrder(ctx, link, ev); err != nil {
		return nil, "", err
	}

	s.changed(ctx, actor.CompanyID)
	return link, warning, nil
}

// UnlinkOrder removes an order from a card and records the event.
func (s *QueueService) UnlinkOrder(ctx context.Context, actor *models.Actor, itemID, orderID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	item, err := s.store.Get(ctx, actor.CompanyID, itemID)
	if err != nil {
		return err
	}

	now := timeutil.Now()
	ev := s.newEvent(actor, item.ID, models.ActionOrderUnlinked, now)
	ev.OrderID = orderID
	ev.Notes = "Ordem desvinculada do cartão"

	if err := s.store.UnlinkOrder(ctx, actor.CompanyID, itemID, orderID, ev); err != nil {
		return err
	}

	s.changed(ctx, actor.CompanyID)
	return nil
}

// ArchiveItem takes one card out of the active board. History stays intact
// and queryable; nothing is deleted.
func (s *QueueService) ArchiveItem(ctx context.Context, actor *models.Actor, itemID string) (*models.QueueItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	ev := s.newEvent(actor, itemID, models.ActionArchived, now)
	ev.Notes = "Item arquivado individualmente"

	item, err := s.store.Archive(ctx, actor.CompanyID, itemID, ev)
	if err != nil {
		return nil, err
	}

	metrics.QueueItemsArchivedTotal.Inc()
	s.changed(ctx, actor.CompanyID)
	return item, nil
}

// ArchiveStage archives every active card currently sitting in the stage.
// The archived set is one consistent snapshot: cards moved into the stage
// while the operation runs are not picked up. Returns the count archived;
// an empty stage is NotFound, matching the board's 404.
func (s *QueueService) ArchiveStage(ctx context.Context, actor *models.Actor, stageKey string) (int, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	stageKey = NormalizeKey(stageKey)

	count, err := s.store.ArchiveStage(ctx, actor.CompanyID, stageKey, actor, timeutil.Now())
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: nenhum item neste estágio", ErrNotFound)
	}

	metrics.QueueItemsArchivedTotal.Add(float64(count))
	s.changed(ctx, actor.CompanyID)
	return count, nil
}

// List returns the board (or the archive) with linked orders resolved.
func (s *QueueService) List(ctx context.Context, companyID string, archived bool) ([]*models.QueueItem, error) {
	items, err := s.store.List(ctx, companyID, archived)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, err := s.withLinks(ctx, item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Get returns one card with linked orders resolved.
func (s *QueueService) Get(ctx context.Context, companyID, itemID string) (*models.QueueItem, error) {
	item, err := s.store.Get(ctx, companyID, itemID)
	if err != nil {
		return nil, err
	}
	return s.withLinks(ctx, item)
}

// History returns the item's events newest first, the order the history
// modal renders them in.
func (s *QueueService) History(ctx context.Context, companyID, itemID string) ([]*models.TransitionEvent, error) {
	if _, err := s.store.Get(ctx, companyID, itemID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByItem(ctx, companyID, itemID)
	if err != nil {
		return nil, err
	}
	sorted := sortEvents(events)
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted, nil
}

// CompanyHistory returns the most recent events across the whole board.
func (s *QueueService) CompanyHistory(ctx context.Context, companyID string, limit int) ([]*models.TransitionEvent, error) {
	return s.events.ListByCompany(ctx, companyID, limit)
}

// withLinks resolves linked orders and their display snapshots. Order
// lookups are best effort: the snapshot is a cache, a missing order must
// not make the card unrenderable.
func (s *QueueService) withLinks(ctx context.Context, item *models.QueueItem) (*models.QueueItem, error) {
	links, err := s.store.ListLinks(ctx, item.CompanyID, item.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Order == nil {
			if order, err := s.orders.Get(ctx, item.CompanyID, l.OrderID); err == nil {
				l.Order = order
			}
		}
	}
	item.LinkedOrders = links
	return item, nil
}
