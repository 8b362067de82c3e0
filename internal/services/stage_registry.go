package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"patio-backend/internal/metrics"
	"patio-backend/internal/models"
	"patio-backend/internal/timeutil"
)

// StageRegistry is the tenant-scoped catalogue of board stages. It is an
// injected dependency, not module state: every company gets the built-in
// stages seeded on first access, and unknown keys found in data are
// registered with a default SLA instead of rejected, so history can always
// be rendered.
type StageRegistry struct {
	store StageStore

	mu    sync.RWMutex
	cache map[string]map[string]*models.StageDefinition // companyID -> key -> def
}

func NewStageRegistry(store StageStore) *StageRegistry {
	return &StageRegistry{
		store: store,
		cache: make(map[string]map[string]*models.StageDefinition),
	}
}

// builtinStages returns the fixed board columns. Only finalizado and
// recusado are terminal; custom stages never are.
func builtinStages() []*models.StageDefinition {
	return []*models.StageDefinition{
		{Key: models.StageTriage, Label: "Triagem", Description: "Aguardando análise inicial e documentação", SLAMinutes: 15, Position: 1, BuiltIn: true},
		{Key: models.StageAwaitingDock, Label: "Aguardando Doca", Description: "Autorizado - Aguardando doca disponível", SLAMinutes: 30, Position: 2, BuiltIn: true},
		{Key: models.StageInProcess, Label: "Em Processo", Description: "Operação em andamento na doca", SLAMinutes: 120, Position: 3, BuiltIn: true},
		{Key: models.StageFinalized, Label: "Finalizado", Description: "Operação concluída com sucesso", SLAMinutes: 0, Position: 4, Terminal: true, BuiltIn: true},
		{Key: models.StageRefused, Label: "Recusado", Description: "Não autorizado ou com problemas", SLAMinutes: 0, Position: 5, Terminal: true, BuiltIn: true},
	}
}

// NormalizeKey maps legacy stage keys still present in old history rows
// onto their current equivalents.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == models.StageLegacyNotify {
		return models.StageAwaitingDock
	}
	return key
}

// List returns every stage for the company ordered by board position,
// seeding the built-ins on first access.
func (r *StageRegistry) List(ctx context.Context, companyID string) ([]*models.StageDefinition, error) {
	stages, err := r.load(ctx, companyID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.StageDefinition, 0, len(stages))
	for _, s := range stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Get returns one stage definition or ErrNotFound.
func (r *StageRegistry) Get(ctx context.Context, companyID, key string) (*models.StageDefinition, error) {
	key = NormalizeKey(key)
	stages, err := r.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if s, ok := stages[key]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// SLAMinutes returns the SLA budget for a key, falling back to the default
// for unregistered custom stages so reconstruction never fails on them.
func (r *StageRegistry) SLAMinutes(ctx context.Context, companyID, key string) int {
	if s, err := r.Get(ctx, companyID, key); err == nil {
		return s.SLAMinutes
	}
	return models.DefaultCustomSLAMinutes
}

// IsTerminal reports whether key closes an item's total elapsed time.
func (r *StageRegistry) IsTerminal(ctx context.Context, companyID, key string) bool {
	if s, err := r.Get(ctx, companyID, key); err == nil {
		return s.Terminal
	}
	return false
}

// Ensure registers key with the default SLA when it is unknown, returning
// the definition. Auto-registration is idempotent and part of the move
// operation that triggered it; it never fails independently of the move
// when the key is already present.
func (r *StageRegistry) Ensure(ctx context.Context, companyID, key string) (*models.StageDefinition, error) {
	key = NormalizeKey(key)
	if s, err := r.Get(ctx, companyID, key); err == nil {
		return s, nil
	}

	now := timeutil.Now()
	stage := &models.StageDefinition{
		Key:         key,
		Label:       labelFromKey(key),
		Description: "Etapa personalizada",
		SLAMinutes:  models.DefaultCustomSLAMinutes,
		Position:    r.nextPosition(companyID),
		CompanyID:   companyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inserted, err := r.store.Insert(ctx, stage)
	if err != nil {
		return nil, err
	}
	if inserted {
		metrics.StagesAutoRegisteredTotal.Inc()
	}

	r.mu.Lock()
	if byKey, ok := r.cache[companyID]; ok {
		byKey[key] = stage
	}
	r.mu.Unlock()
	return stage, nil
}

// CreateCustom registers an explicitly configured stage.
func (r *StageRegistry) CreateCustom(ctx context.Context, companyID string, req *models.CreateStageRequest) (*models.StageDefinition, error) {
	key := NormalizeKey(req.Key)
	if key == "" {
		return nil, ErrInvalidState
	}
	if _, err := r.Get(ctx, companyID, key); err == nil {
		return nil, ErrConflict
	}

	now := timeutil.Now()
	stage := &models.StageDefinition{
		Key:         key,
		Label:       req.Label,
		Description: req.Description,
		SLAMinutes:  req.SLAMinutes,
		Position:    req.Position,
		CompanyID:   companyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if stage.Label == "" {
		stage.Label = labelFromKey(key)
	}
	if stage.Position == 0 {
		stage.Position = r.nextPosition(companyID)
	}
	if _, err := r.store.Insert(ctx, stage); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if byKey, ok := r.cache[companyID]; ok {
		byKey[key] = stage
	}
	r.mu.Unlock()
	return stage, nil
}

// UpdateStage edits label, description, SLA or position of an existing
// stage. Terminal flags are fixed: they exist only on the built-ins.
func (r *StageRegistry) UpdateStage(ctx context.Context, companyID, key string, req *models.UpdateStageRequest) (*models.StageDefinition, error) {
	stage, err := r.Get(ctx, companyID, key)
	if err != nil {
		return nil, err
	}

	updated := *stage
	if req.Label != "" {
		updated.Label = req.Label
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if req.SLAMinutes != nil {
		updated.SLAMinutes = *req.SLAMinutes
	}
	if req.Position != nil {
		updated.Position = *req.Position
	}
	updated.UpdatedAt = timeutil.Now()

	if err := r.store.Update(ctx, &updated); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if byKey, ok := r.cache[companyID]; ok {
		byKey[updated.Key] = &updated
	}
	r.mu.Unlock()
	return &updated, nil
}

// load seeds built-ins and fills the per-company cache on first access.
func (r *StageRegistry) load(ctx context.Context, companyID string) (map[string]*models.StageDefinition, error) {
	r.mu.RLock()
	if byKey, ok := r.cache[companyID]; ok {
		r.mu.RUnlock()
		return byKey, nil
	}
	r.mu.RUnlock()

	now := timeutil.Now()
	for _, b := range builtinStages() {
		stage := *b
		stage.CompanyID = companyID
		stage.CreatedAt = now
		stage.UpdatedAt = now
		if _, err := r.store.Insert(ctx, &stage); err != nil {
			return nil, err
		}
	}

	stages, err := r.store.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.StageDefinition, len(stages))
	for _, s := range stages {
		byKey[s.Key] = s
	}

	r.mu.Lock()
	r.cache[companyID] = byKey
	r.mu.Unlock()
	return byKey, nil
}

func (r *StageRegistry) nextPosition(companyID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for _, s := range r.cache[companyID] {
		if s.Position > max {
			max = s.Position
		}
	}
	return max + 1
}

func labelFromKey(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
