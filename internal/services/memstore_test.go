package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"patio-backend/internal/models"
)

// memStore is an in-memory QueueStore + EventStore for service tests.
type memStore struct {
	mu     sync.Mutex
	items  map[string]*models.QueueItem
	links  []*models.LinkedOrder
	events []*models.TransitionEvent

	// archiveStageHook runs between reading the stage snapshot and marking
	// its rows, the window a concurrent writer has against the single
	// UPDATE the real store issues.
	archiveStageHook func()
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*models.QueueItem)}
}

func (s *memStore) Get(ctx context.Context, companyID, id string) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *memStore) List(ctx context.Context, companyID string, archived bool) ([]*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.QueueItem
	for _, item := range s.items {
		if item.CompanyID == companyID && item.Archived == archived {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnteredAt.Before(out[j].EnteredAt) })
	return out, nil
}

func (s *memStore) FindRecentByDriver(ctx context.Context, companyID, driverName, plate string, since time.Time) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.CompanyID == companyID && !item.Archived &&
			item.DriverName == driverName && item.VehiclePlate == plate &&
			!item.EnteredAt.Before(since) {
			return item, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) Create(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) Move(ctx context.Context, companyID, id, toStage string, ev *models.TransitionEvent) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.CompanyID != companyID || item.Archived {
		return nil, ErrNotFound
	}
	ev.FromStage = item.Stage
	item.Stage = toStage
	item.UpdatedAt = ev.OccurredAt
	s.events = append(s.events, ev)
	return item, nil
}

func (s *memStore) UpdateMeta(ctx context.Context, item *models.QueueItem, ev *models.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[item.ID]
	if !ok || existing.CompanyID != item.CompanyID || existing.Archived {
		return ErrNotFound
	}
	s.items[item.ID] = item
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) Archive(ctx context.Context, companyID, id string, ev *models.TransitionEvent) (*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.CompanyID != companyID || item.Archived {
		return nil, ErrNotFound
	}
	item.Archived = true
	archivedAt := ev.OccurredAt
	item.ArchivedAt = &archivedAt
	item.UpdatedAt = ev.OccurredAt
	ev.FromStage = item.Stage
	ev.ToStage = item.Stage
	s.events = append(s.events, ev)
	return item, nil
}

func (s *memStore) ArchiveStage(ctx context.Context, companyID, stageKey string, actor *models.Actor, now time.Time) (int, error) {
	s.mu.Lock()
	var snapshot []string
	for id, item := range s.items {
		if item.CompanyID == companyID && !item.Archived && item.Stage == stageKey {
			snapshot = append(snapshot, id)
		}
	}
	s.mu.Unlock()

	if s.archiveStageHook != nil {
		s.archiveStageHook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, id := range snapshot {
		item := s.items[id]
		if item == nil || item.Archived {
			continue
		}
		item.Archived = true
		archivedAt := now
		item.ArchivedAt = &archivedAt
		item.UpdatedAt = now
		s.events = append(s.events, &models.TransitionEvent{
			ItemID:     item.ID,
			Action:     models.ActionArchived,
			FromStage:  stageKey,
			ToStage:    stageKey,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			CompanyID:  companyID,
			OccurredAt: now,
			CreatedAt:  now,
		})
		count++
	}
	return count, nil
}

func (s *memStore) LinkOrder(ctx context.Context, link *models.LinkedOrder, ev *models.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, link)
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) UnlinkOrder(ctx context.Context, companyID, itemID, orderID string, ev *models.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.links {
		if l.CompanyID == companyID && l.ItemID == itemID && l.OrderID == orderID {
			s.links = append(s.links[:i], s.links[i+1:]...)
			s.events = append(s.events, ev)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) ListLinks(ctx context.Context, companyID, itemID string) ([]*models.LinkedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LinkedOrder
	for _, l := range s.links {
		if l.CompanyID == companyID && l.ItemID == itemID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) ListByItem(ctx context.Context, companyID, itemID string) ([]*models.TransitionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TransitionEvent
	for _, e := range s.events {
		if e.CompanyID == companyID && e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.TransitionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TransitionEvent
	for _, e := range s.events {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memStageStore backs the StageRegistry in tests.
type memStageStore struct {
	mu     sync.Mutex
	stages map[string]map[string]*models.StageDefinition // companyID -> key
}

func newMemStageStore() *memStageStore {
	return &memStageStore{stages: make(map[string]map[string]*models.StageDefinition)}
}

func (s *memStageStore) List(ctx context.Context, companyID string) ([]*models.StageDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.StageDefinition
	for _, def := range s.stages[companyID] {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (s *memStageStore) Insert(ctx context.Context, stage *models.StageDefinition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.stages[stage.CompanyID]
	if !ok {
		byKey = make(map[string]*models.StageDefinition)
		s.stages[stage.CompanyID] = byKey
	}
	if _, exists := byKey[stage.Key]; exists {
		return false, nil
	}
	byKey[stage.Key] = stage
	return true, nil
}

func (s *memStageStore) Update(ctx context.Context, stage *models.StageDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.stages[stage.CompanyID]
	if !ok {
		return ErrNotFound
	}
	if _, exists := byKey[stage.Key]; !exists {
		return ErrNotFound
	}
	byKey[stage.Key] = stage
	return nil
}

// memOrders is a canned order provider.
type memOrders struct {
	orders map[string]*models.OrderSummary
}

func newMemOrders(orders ...*models.OrderSummary) *memOrders {
	m := &memOrders{orders: make(map[string]*models.OrderSummary)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) Get(ctx context.Context, companyID, id string) (*models.OrderSummary, error) {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *memOrders) Search(ctx context.Context, companyID, query string, excludeLinked bool) ([]*models.OrderSummary, error) {
	var out []*models.OrderSummary
	for _, o := range m.orders {
		if o.CompanyID == companyID && strings.Contains(o.Number, query) {
			out = append(out, o)
		}
	}
	return out, nil
}
