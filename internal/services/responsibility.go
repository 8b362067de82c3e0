package services

import (
	"context"
	"math"
	"sort"
	"time"

	"patio-backend/internal/models"
	"patio-backend/internal/timeutil"
)

// AttributeResponsibility turns raw occupancy periods into accountability
// records. Periods stay non-consolidated - responsibility is per occurrence
// - and each one belongs to the actor whose event moved the item *into* the
// stage, which is who created the wait that follows.
func AttributeResponsibility(periods []*StagePeriod, slaFor func(stage string) int) []*models.ResponsibilityPeriod {
	out := make([]*models.ResponsibilityPeriod, 0, len(periods))
	for _, p := range periods {
		sla := slaFor(p.Stage)
		within := sla == 0 || p.Minutes <= sla
		overrun := 0
		if !within {
			overrun = p.Minutes - sla
		}
		out = append(out, &models.ResponsibilityPeriod{
			Stage:          p.Stage,
			ActorID:        p.ActorID,
			ActorName:      p.ActorName,
			Start:          p.Start,
			End:            p.End,
			Minutes:        p.Minutes,
			SLAMinutes:     sla,
			WithinSLA:      within,
			OverrunMinutes: overrun,
			Ongoing:        p.Ongoing,
		})
	}
	return out
}

// AnalyticsFilter narrows AnalyzeUsers to one actor and/or a window that a
// period's start must fall into.
type AnalyticsFilter struct {
	ActorID string
	From    *time.Time
	To      *time.Time
}

func (f *AnalyticsFilter) match(p *models.ResponsibilityPeriod) bool {
	if f == nil {
		return true
	}
	if f.ActorID != "" && f.ActorID != "all" && p.ActorID != f.ActorID {
		return false
	}
	if f.From != nil && p.Start.Before(*f.From) {
		return false
	}
	if f.To != nil && p.Start.After(*f.To) {
		return false
	}
	return true
}

// AggregateUserStats groups responsibility periods by actor. Actors with no
// matching periods never appear, so there is no divide-by-zero row, and the
// result is ordered by SLA percentage descending.
func AggregateUserStats(periods []*models.ResponsibilityPeriod, filter *AnalyticsFilter) []*models.UserStats {
	byActor := make(map[string]*models.UserStats)

	for _, p := range periods {
		if !filter.match(p) {
			continue
		}

		actorID := p.ActorID
		if actorID == "" {
			actorID = "unknown"
		}
		stats, ok := byActor[actorID]
		if !ok {
			name := p.ActorName
			if name == "" {
				name = "Sistema"
			}
			stats = &models.UserStats{
				ActorID:   actorID,
				ActorName: name,
				ByStage:   make(map[string]*models.StageStats),
			}
			byActor[actorID] = stats
		}

		stats.TotalPeriods++
		stats.TotalMinutes += p.Minutes
		if p.WithinSLA {
			stats.WithinSLA++
		} else {
			stats.OverSLA++
			stats.OverrunMinutes += p.OverrunMinutes
		}

		stageStats, ok := stats.ByStage[p.Stage]
		if !ok {
			stageStats = &models.StageStats{}
			stats.ByStage[p.Stage] = stageStats
		}
		stageStats.Total++
		stageStats.TotalMinutes += p.Minutes
		if p.WithinSLA {
			stageStats.WithinSLA++
		} else {
			stageStats.OverSLA++
			stageStats.OverrunMinutes += p.OverrunMinutes
		}
	}

	out := make([]*models.UserStats, 0, len(byActor))
	for _, stats := range byActor {
		stats.PercentWithin = int(math.Round(float64(stats.WithinSLA) / float64(stats.TotalPeriods) * 100))
		stats.AverageMinutes = int(math.Round(float64(stats.TotalMinutes) / float64(stats.TotalPeriods)))
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PercentWithin != out[j].PercentWithin {
			return out[i].PercentWithin > out[j].PercentWithin
		}
		return out[i].ActorID < out[j].ActorID
	})
	return out
}

// AnalyticsService computes per-user SLA accountability across the whole
// queue, archived items included: history stays queryable after archival.
type AnalyticsService struct {
	queue    QueueStore
	events   EventStore
	registry *StageRegistry
}

func NewAnalyticsService(queue QueueStore, events EventStore, registry *StageRegistry) *AnalyticsService {
	return &AnalyticsService{queue: queue, events: events, registry: registry}
}

// AnalyzeUsers replays every item of the company and aggregates SLA
// responsibility per actor, honoring the filter. Items with broken history
// (no events) are skipped rather than failing the whole report.
func (s *AnalyticsService) AnalyzeUsers(ctx context.Context, companyID string, filter *AnalyticsFilter) ([]*models.UserStats, error) {
	active, err := s.queue.List(ctx, companyID, false)
	if err != nil {
		return nil, err
	}
	archived, err := s.queue.List(ctx, companyID, true)
	if err != nil {
		return nil, err
	}
	items := append(active, archived...)

	now := timeutil.Now()
	slaFor := func(stage string) int { return s.registry.SLAMinutes(ctx, companyID, stage) }

	var all []*models.ResponsibilityPeriod
	for _, item := range items {
		events, err := s.events.ListByItem(ctx, companyID, item.ID)
		if err != nil {
			return nil, err
		}
		periods, err := ReconstructPeriods(events, item, now)
		if err != nil {
			continue // zero-event item: unrenderable, not fatal to the report
		}
		all = append(all, AttributeResponsibility(periods, slaFor)...)
	}

	return AggregateUserStats(all, filter), nil
}
