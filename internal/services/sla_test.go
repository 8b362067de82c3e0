package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patio-backend/internal/models"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func stageEvent(itemID, action, toStage, actorID, actorName string, at time.Time) *models.TransitionEvent {
	return &models.TransitionEvent{
		ItemID:     itemID,
		Action:     action,
		ToStage:    toStage,
		ActorID:    actorID,
		ActorName:  actorName,
		CompanyID:  "emp-1",
		OccurredAt: at,
		CreatedAt:  at,
	}
}

func TestReconstructPeriodsNoEvents(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageTriage}
	_, err := ReconstructPeriods(nil, item, baseTime)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReconstructPeriodsSingleEvent(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageTriage}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(20*time.Minute))
	require.NoError(t, err)
	require.Len(t, periods, 1)

	assert.Equal(t, models.StageTriage, periods[0].Stage)
	assert.Equal(t, "u1", periods[0].ActorID)
	assert.Equal(t, 20, periods[0].Minutes)
	assert.True(t, periods[0].Ongoing)
	assert.Nil(t, periods[0].End)
}

func TestReconstructPeriodsWalk(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageFinalized}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u2", "Bruno", baseTime.Add(20*time.Minute)),
		stageEvent("c1", models.ActionMoved, models.StageFinalized, "u1", "Ana", baseTime.Add(50*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(60*time.Minute))
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, models.StageTriage, periods[0].Stage)
	assert.Equal(t, 20, periods[0].Minutes)
	assert.False(t, periods[0].Ongoing)

	assert.Equal(t, models.StageAwaitingDock, periods[1].Stage)
	assert.Equal(t, "u2", periods[1].ActorID)
	assert.Equal(t, 30, periods[1].Minutes)

	assert.Equal(t, models.StageFinalized, periods[2].Stage)
	assert.Equal(t, 10, periods[2].Minutes)
	assert.True(t, periods[2].Ongoing)
}

func TestReconstructPeriodsIgnoresNonStageEvents(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageTriage}
	link := stageEvent("c1", models.ActionOrderLinked, "", "u1", "Ana", baseTime.Add(5*time.Minute))
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		link,
		stageEvent("c1", models.ActionEdited, "", "u1", "Ana", baseTime.Add(10*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, 30, periods[0].Minutes)
}

func TestReconstructPeriodsLegacyKeyNormalized(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageAwaitingDock}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageLegacyNotify, "u2", "Bruno", baseTime.Add(10*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(25*time.Minute))
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, models.StageAwaitingDock, periods[1].Stage)
	assert.True(t, periods[1].Ongoing)
}

func TestReconstructPeriodsDivergence(t *testing.T) {
	// Last event says aguardando_doca but the projection says em_processo.
	// The projection wins: the replayed interval closes at zero length and
	// the remaining time belongs to the live stage.
	item := &models.QueueItem{ID: "c1", Stage: models.StageInProcess}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u2", "Bruno", baseTime.Add(10*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(40*time.Minute))
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, models.StageAwaitingDock, periods[1].Stage)
	assert.Equal(t, 0, periods[1].Minutes)
	assert.False(t, periods[1].Ongoing)

	assert.Equal(t, models.StageInProcess, periods[2].Stage)
	assert.Equal(t, 30, periods[2].Minutes)
	assert.True(t, periods[2].Ongoing)
}

func defaultSLAs(stage string) int {
	switch stage {
	case models.StageTriage:
		return 15
	case models.StageAwaitingDock:
		return 30
	case models.StageInProcess:
		return 120
	case models.StageFinalized, models.StageRefused:
		return 0
	default:
		return models.DefaultCustomSLAMinutes
	}
}

func TestConsolidateStagesBounce(t *testing.T) {
	// triagem -> doca -> back to triagem -> finalizado: repeated visits to
	// triagem collapse into one entry with summed minutes.
	item := &models.QueueItem{ID: "c1", Stage: models.StageFinalized}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u1", "Ana", baseTime.Add(10*time.Minute)),
		stageEvent("c1", models.ActionMoved, models.StageTriage, "u2", "Bruno", baseTime.Add(25*time.Minute)),
		stageEvent("c1", models.ActionMoved, models.StageFinalized, "u2", "Bruno", baseTime.Add(30*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(45*time.Minute))
	require.NoError(t, err)

	stages := ConsolidateStages(periods, defaultSLAs)
	require.Len(t, stages, 3)

	assert.Equal(t, models.StageTriage, stages[0].Stage)
	assert.Equal(t, 15, stages[0].TotalMinutes) // 10 + 5
	assert.Equal(t, models.StageAwaitingDock, stages[1].Stage)
	assert.Equal(t, 15, stages[1].TotalMinutes)
	assert.Equal(t, models.StageFinalized, stages[2].Stage)
	assert.True(t, stages[2].Active)
	assert.Nil(t, stages[2].End)
}

func TestConsolidateStagesSLAEvaluation(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageAwaitingDock}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u1", "Ana", baseTime.Add(20*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(30*time.Minute))
	require.NoError(t, err)

	stages := ConsolidateStages(periods, defaultSLAs)
	require.Len(t, stages, 2)

	// 20 minutes in triagem against a 15 minute budget
	assert.False(t, stages[0].WithinSLA)
	assert.Equal(t, 5, stages[0].OverrunMinutes)

	// 10 minutes in doca against 30
	assert.True(t, stages[1].WithinSLA)
	assert.Equal(t, 0, stages[1].OverrunMinutes)
}

func TestConsolidateStagesZeroSLAAlwaysWithin(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageFinalized}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageFinalized, "u1", "Ana", baseTime.Add(5*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(10*24*time.Hour))
	require.NoError(t, err)

	stages := ConsolidateStages(periods, defaultSLAs)
	require.Len(t, stages, 2)
	assert.True(t, stages[1].WithinSLA)
	assert.Equal(t, 0, stages[1].OverrunMinutes)
}

func TestConsolidationPreservesTotalMinutes(t *testing.T) {
	item := &models.QueueItem{ID: "c1", Stage: models.StageInProcess}
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u1", "Ana", baseTime.Add(7*time.Minute)),
		stageEvent("c1", models.ActionMoved, models.StageTriage, "u2", "Bruno", baseTime.Add(19*time.Minute)),
		stageEvent("c1", models.ActionMoved, models.StageInProcess, "u2", "Bruno", baseTime.Add(31*time.Minute)),
	}

	periods, err := ReconstructPeriods(events, item, baseTime.Add(55*time.Minute))
	require.NoError(t, err)

	rawTotal := 0
	for _, p := range periods {
		rawTotal += p.Minutes
	}
	stages := ConsolidateStages(periods, defaultSLAs)
	consolidatedTotal := 0
	for _, s := range stages {
		consolidatedTotal += s.TotalMinutes
	}
	assert.Equal(t, rawTotal, consolidatedTotal)
	assert.Equal(t, 55, consolidatedTotal)
}

func TestTotalElapsedMinutes(t *testing.T) {
	events := []*models.TransitionEvent{
		stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime),
		stageEvent("c1", models.ActionMoved, models.StageFinalized, "u1", "Ana", baseTime.Add(45*time.Minute)),
	}
	isTerminal := func(stage string) bool { return stage == models.StageFinalized }

	// Terminal stage: frozen at the last event, the clock stops.
	closedItem := &models.QueueItem{ID: "c1", Stage: models.StageFinalized}
	total, closed, err := TotalElapsedMinutes(events, closedItem, baseTime.Add(3*time.Hour), isTerminal)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, 45, total)

	// Non-terminal: still accumulating.
	openItem := &models.QueueItem{ID: "c1", Stage: models.StageInProcess}
	total, closed, err = TotalElapsedMinutes(events, openItem, baseTime.Add(60*time.Minute), isTerminal)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, 60, total)
}

func TestSortEventsTieBreak(t *testing.T) {
	e1 := stageEvent("c1", models.ActionCreated, models.StageTriage, "u1", "Ana", baseTime)
	e2 := stageEvent("c1", models.ActionMoved, models.StageAwaitingDock, "u1", "Ana", baseTime)
	e2.CreatedAt = baseTime.Add(time.Second)

	sorted := sortEvents([]*models.TransitionEvent{e2, e1})
	assert.Equal(t, models.ActionCreated, sorted[0].Action)
	assert.Equal(t, models.ActionMoved, sorted[1].Action)
}
