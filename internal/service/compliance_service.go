package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/retrieval"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
)

// ComplianceService derives the organization-wide compliance scorecard from
// the normalized screen collections. Nothing is persisted; the scorecard is
// recomputed from current data on every call.
type ComplianceService struct {
	loader ScreenLoader
	policy scoring.Policy
	log    zerolog.Logger
}

// NewComplianceService creates a compliance service with the given scoring
// policy.
func NewComplianceService(loader ScreenLoader, policy scoring.Policy, log zerolog.Logger) *ComplianceService {
	return &ComplianceService{
		loader: loader,
		policy: policy,
		log:    log.With().Str("component", "compliance").Logger(),
	}
}

// Scorecard computes the current compliance scorecard for the caller's
// visibility. A screen whose retrieval failed entirely contributes zero to
// its category — degraded data lowers confidence, not the score.
func (s *ComplianceService) Scorecard(ctx context.Context, role record.RoleContext) scoring.Scorecard {
	inputs := scoring.ComplianceInputs{}

	incidents := s.load(ctx, "incidents", role)
	for _, row := range incidents {
		if status, ok := row.String("status"); ok && status != "closed" {
			inputs.OpenIncidents++
		}
	}

	deliveries := s.load(ctx, "deliveries", role)
	for _, row := range deliveries {
		if status, ok := row.String("status"); ok && status == "pending" {
			inputs.PendingDeliveries++
		}
	}

	weighings := s.load(ctx, "weighings", role)
	for _, row := range weighings {
		estimated, okE := row.Float("estimated_kg")
		measured, okM := row.Float("measured_kg")
		if !okE || !okM {
			continue
		}
		inputs.TotalWeighings++
		if scoring.ClassifyVariance(estimated, measured).NeedsReview() {
			inputs.HighVarianceWeighings++
		}
	}

	trainings := s.load(ctx, "trainings", role)
	completed := 0
	held := 0
	for _, row := range trainings {
		status, ok := row.String("status")
		if !ok || status == "cancelled" {
			continue
		}
		held++
		if status == "completed" {
			completed++
		}
	}
	if held > 0 {
		inputs.TrainingCompletionRatio = float64(completed) / float64(held)
	}

	card := s.policy.Score(inputs)
	s.log.Info().
		Float64("score", card.Score).
		Str("band", card.Band).
		Int("open_incidents", inputs.OpenIncidents).
		Int("pending_deliveries", inputs.PendingDeliveries).
		Msg("Compliance scorecard computed")
	return card
}

// load fetches one screen's rows, treating total retrieval failure as an
// empty category.
func (s *ComplianceService) load(ctx context.Context, screenID string, role record.RoleContext) []record.Row {
	result := s.loader.LoadNormalized(ctx, screenID, role)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).Str("screen", screenID).Msg("Screen unavailable for scoring, category contributes zero")
		return nil
	}
	return result.Rows
}

// ensure the coordinator satisfies the loader contract.
var _ ScreenLoader = (*retrieval.Coordinator)(nil)
