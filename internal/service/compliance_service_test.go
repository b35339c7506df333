package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
)

// screenLoader scripted per screen id.
func loaderFor(screens map[string]retrieval.LoadResult) *fakeLoader {
	return &fakeLoader{fn: func(_ context.Context, screenID string, _ record.RoleContext) retrieval.LoadResult {
		if result, ok := screens[screenID]; ok {
			return result
		}
		return retrieval.LoadResult{Rows: []record.Row{}, Tier: 1}
	}}
}

func TestScorecardAggregatesCategories(t *testing.T) {
	loader := loaderFor(map[string]retrieval.LoadResult{
		"incidents": {Rows: []record.Row{
			{"id": "i1", "status": "open"},
			{"id": "i2", "status": "investigating"},
			{"id": "i3", "status": "closed"},
		}},
		"deliveries": {Rows: []record.Row{
			{"id": "d1", "status": "pending"},
			{"id": "d2", "status": "delivered"},
		}},
		"weighings": {Rows: []record.Row{
			{"id": "w1", "estimated_kg": 100.0, "measured_kg": 102.0},
			{"id": "w2", "estimated_kg": 100.0, "measured_kg": 130.0},
		}},
		"trainings": {Rows: []record.Row{
			{"id": "t1", "status": "completed"},
			{"id": "t2", "status": "completed"},
			{"id": "t3", "status": "completed"},
			{"id": "t4", "status": "scheduled"},
			{"id": "t5", "status": "cancelled"},
		}},
	})
	s := NewComplianceService(loader, scoring.DefaultPolicy(), zerolog.Nop())

	card := s.Scorecard(context.Background(), record.RoleContext{Privileged: true})

	assert.Equal(t, 2, card.Inputs.OpenIncidents)
	assert.Equal(t, 1, card.Inputs.PendingDeliveries)
	assert.Equal(t, 2, card.Inputs.TotalWeighings)
	assert.Equal(t, 1, card.Inputs.HighVarianceWeighings)
	// Cancelled sessions are excluded from the denominator: 3 of 4.
	assert.InDelta(t, 0.75, card.Inputs.TrainingCompletionRatio, 1e-9)

	// 100 - 10 (incidents) - 3 (deliveries) - 15 (variance share capped),
	// no training bonus below 0.80.
	assert.Equal(t, 72.0, card.Score)
	assert.Equal(t, scoring.BandRegular, card.Band)
}

func TestScorecardFailedScreenContributesZero(t *testing.T) {
	loader := loaderFor(map[string]retrieval.LoadResult{
		"incidents": {Rows: []record.Row{}, Err: errors.New("all tiers failed")},
		"trainings": {Rows: []record.Row{
			{"id": "t1", "status": "completed"},
		}},
	})
	s := NewComplianceService(loader, scoring.DefaultPolicy(), zerolog.Nop())

	card := s.Scorecard(context.Background(), record.RoleContext{Privileged: true})

	assert.Equal(t, 0, card.Inputs.OpenIncidents)
	assert.Equal(t, 100.0, card.Score)
}

func TestScorecardRowsWithoutQuantitiesSkipped(t *testing.T) {
	loader := loaderFor(map[string]retrieval.LoadResult{
		"weighings": {Rows: []record.Row{
			{"id": "w1", "estimated_kg": 100.0}, // no measured value yet
			{"id": "w2", "estimated_kg": 100.0, "measured_kg": 150.0},
		}},
	})
	s := NewComplianceService(loader, scoring.DefaultPolicy(), zerolog.Nop())

	card := s.Scorecard(context.Background(), record.RoleContext{Privileged: true})

	assert.Equal(t, 1, card.Inputs.TotalWeighings)
	assert.Equal(t, 1, card.Inputs.HighVarianceWeighings)
}
