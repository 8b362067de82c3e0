package services

import (
	"context"
	"sort"
	"time"

	"patio-backend/internal/models"
	"patio-backend/internal/timeutil"
)

// StagePeriod is one raw occupancy interval produced by replaying the event
// log: the item sat in Stage from Start until End (nil while ongoing), put
// there by the recorded actor.
type StagePeriod struct {
	Stage     string
	ActorID   string
	ActorName string
	Start     time.Time
	End       *time.Time
	Minutes   int
	Ongoing   bool
}

// sortEvents orders a history snapshot chronologically. The log is append
// only but arrival order is not guaranteed, so every replay re-sorts.
func sortEvents(events []*models.TransitionEvent) []*models.TransitionEvent {
	sorted := make([]*models.TransitionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].OccurredAt.Equal(sorted[j].OccurredAt) {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func minutesBetween(from, to time.Time) int {
	m := int(to.Sub(from) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}

// ReconstructPeriods replays an item's event log into its sequence of stage
// occupancy intervals. Only cartao_criado and movido events define stages.
// The live projection is authoritative for the current interval: when the
// last event disagrees with item.Stage (replay lag), the replayed interval
// is closed at the event's timestamp and a synthetic open interval in the
// live stage starts there.
//
// An item with no events is invalid and returns ErrInvalidState; a lone
// cartao_criado yields exactly one open interval.
func ReconstructPeriods(events []*models.TransitionEvent, item *models.QueueItem, now time.Time) ([]*StagePeriod, error) {
	var defining []*models.TransitionEvent
	for _, e := range sortEvents(events) {
		if e.IsStageDefining() {
			defining = append(defining, e)
		}
	}
	if len(defining) == 0 {
		return nil, ErrInvalidState
	}

	var periods []*StagePeriod
	var current *StagePeriod

	for _, e := range defining {
		stage := NormalizeKey(e.ToStage)
		if stage == "" {
			stage = models.StageTriage
		}
		ts := e.OccurredAt

		if current != nil {
			end := ts
			current.End = &end
			current.Minutes = minutesBetween(current.Start, end)
			periods = append(periods, current)
		}
		current = &StagePeriod{
			Stage:     stage,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			Start:     ts,
		}
	}

	liveStage := NormalizeKey(item.Stage)
	if current.Stage == liveStage {
		current.Ongoing = true
		current.Minutes = minutesBetween(current.Start, now)
		periods = append(periods, current)
		return periods, nil
	}

	// Projection and log diverged: close the replayed interval where the
	// log left off and account the rest of the time to the live stage.
	end := current.Start
	current.End = &end
	current.Minutes = 0
	periods = append(periods, current)

	periods = append(periods, &StagePeriod{
		Stage:     liveStage,
		ActorID:   current.ActorID,
		ActorName: current.ActorName,
		Start:     current.Start,
		Minutes:   minutesBetween(current.Start, now),
		Ongoing:   true,
	})
	return periods, nil
}

// ConsolidateStages merges repeated visits to the same stage into a single
// entry per stage key - summed minutes, earliest start, latest end, open
// whenever any visit is still open - and evaluates the SLA budget against
// the consolidated total. Entries keep first-visit order.
func ConsolidateStages(periods []*StagePeriod, slaFor func(stage string) int) []*models.StageSLA {
	byStage := make(map[string]*models.StageSLA)
	var order []string

	for _, p := range periods {
		entry, ok := byStage[p.Stage]
		if !ok {
			entry = &models.StageSLA{
				Stage:      p.Stage,
				Start:      p.Start,
				End:        p.End,
				SLAMinutes: slaFor(p.Stage),
			}
			byStage[p.Stage] = entry
			order = append(order, p.Stage)
		}

		entry.TotalMinutes += p.Minutes
		if p.Start.Before(entry.Start) {
			entry.Start = p.Start
		}
		if p.End != nil && (entry.End == nil || p.End.After(*entry.End)) && !entry.Active {
			entry.End = p.End
		}
		if p.Ongoing {
			entry.Active = true
			entry.End = nil
		}
	}

	out := make([]*models.StageSLA, 0, len(order))
	for _, key := range order {
		entry := byStage[key]
		entry.WithinSLA = entry.SLAMinutes == 0 || entry.TotalMinutes <= entry.SLAMinutes
		if !entry.WithinSLA {
			entry.OverrunMinutes = entry.TotalMinutes - entry.SLAMinutes
		}
		out = append(out, entry)
	}
	return out
}

// TotalElapsedMinutes returns the item's total time in the queue: now minus
// the first event while the item is still moving, frozen at the last event
// once it reached a terminal stage.
func TotalElapsedMinutes(events []*models.TransitionEvent, item *models.QueueItem, now time.Time, isTerminal func(stage string) bool) (int, bool, error) {
	sorted := sortEvents(events)
	if len(sorted) == 0 {
		return 0, false, ErrInvalidState
	}

	first := sorted[0].OccurredAt
	closed := isTerminal(NormalizeKey(item.Stage))
	if closed {
		return minutesBetween(first, sorted[len(sorted)-1].OccurredAt), true, nil
	}
	return minutesBetween(first, now), false, nil
}

// SLAService assembles the full read-side report for one item.
type SLAService struct {
	queue    QueueStore
	events   EventStore
	registry *StageRegistry
}

func NewSLAService(queue QueueStore, events EventStore, registry *StageRegistry) *SLAService {
	return &SLAService{queue: queue, events: events, registry: registry}
}

// Report replays one item's history into the consolidated SLA view plus the
// per-occurrence responsibility periods. Pure over an event snapshot; safe
// to recompute per request.
func (s *SLAService) Report(ctx context.Context, companyID, itemID string) (*models.SLAReport, error) {
	item, err := s.queue.Get(ctx, companyID, itemID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByItem(ctx, companyID, itemID)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	periods, err := ReconstructPeriods(events, item, now)
	if err != nil {
		return nil, err
	}

	slaFor := func(stage string) int { return s.registry.SLAMinutes(ctx, companyID, stage) }
	total, closed, err := TotalElapsedMinutes(events, item, now, func(stage string) bool {
		return s.registry.IsTerminal(ctx, companyID, stage)
	})
	if err != nil {
		return nil, err
	}

	return &models.SLAReport{
		ItemID:           item.ID,
		Stages:           ConsolidateStages(periods, slaFor),
		Responsibilities: AttributeResponsibility(periods, slaFor),
		TotalMinutes:     total,
		Closed:           closed,
	}, nil
}
