package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotraq/be-waste-dashboard/internal/client"
	"github.com/ecotraq/be-waste-dashboard/internal/record"
	"github.com/ecotraq/be-waste-dashboard/internal/scoring"
)

// WeighingService records weighing events. The write itself is a
// pass-through to the record store; this service adds the variance
// classification and raises a non-fatal alert for the review band. A review
// result never blocks the write.
type WeighingService struct {
	src    client.RecordSource
	alerts *client.AlertPublisher
	log    zerolog.Logger
}

// NewWeighingService creates a weighing service.
func NewWeighingService(src client.RecordSource, alerts *client.AlertPublisher, log zerolog.Logger) *WeighingService {
	return &WeighingService{
		src:    src,
		alerts: alerts,
		log:    log.With().Str("component", "weighings").Logger(),
	}
}

// RecordWeighingRequest carries a weighing capture.
type RecordWeighingRequest struct {
	WasteItemID string  `json:"waste_item_id"`
	EstimatedKg float64 `json:"estimated_kg"`
	MeasuredKg  float64 `json:"measured_kg"`
	RecordedBy  string  `json:"recorded_by"`
}

// RecordWeighingResult is the stored row plus its classification.
type RecordWeighingResult struct {
	Row      record.Row       `json:"row"`
	Variance scoring.Variance `json:"variance"`
}

// RecordWeighing validates and stores a weighing event.
func (s *WeighingService) RecordWeighing(ctx context.Context, req RecordWeighingRequest) (*RecordWeighingResult, error) {
	if req.WasteItemID == "" {
		return nil, fmt.Errorf("waste_item_id is required")
	}
	if req.MeasuredKg < 0 || req.EstimatedKg < 0 {
		return nil, fmt.Errorf("quantities cannot be negative")
	}

	variance := scoring.ClassifyVariance(req.EstimatedKg, req.MeasuredKg)

	row := record.Row{
		"waste_item_id": req.WasteItemID,
		"estimated_kg":  req.EstimatedKg,
		"measured_kg":   req.MeasuredKg,
		"variance_band": variance.Band,
		"recorded_by":   req.RecordedBy,
		"recorded_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if variance.Percent != nil {
		row["variance_percent"] = *variance.Percent
	}

	stored, err := s.src.InsertRow(ctx, "weighing_events", row)
	if err != nil {
		return nil, fmt.Errorf("failed to record weighing: %w", err)
	}

	if variance.NeedsReview() && s.alerts != nil {
		s.alerts.Publish("weighing_variance_review", "warning", req.RecordedBy, map[string]any{
			"waste_item_id":    req.WasteItemID,
			"estimated_kg":     req.EstimatedKg,
			"measured_kg":      req.MeasuredKg,
			"variance_percent": row["variance_percent"],
		})
	}

	s.log.Info().
		Str("waste_item_id", req.WasteItemID).
		Str("variance_band", variance.Band).
		Msg("Weighing recorded")

	return &RecordWeighingResult{Row: stored, Variance: variance}, nil
}
