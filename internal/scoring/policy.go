// Package scoring is the derived-metric engine: it turns counts and ratios
// taken from normalized view records into the organization compliance score
// and per-record variance classifications. Everything here is a pure
// function of its inputs; nothing is persisted.
package scoring

import (
	"github.com/go-playground/validator/v10"
)

// Policy is the versioned scoring configuration. The weights used to be
// scattered as inline constants per screen; keeping them in one named
// structure lets the policy be tested and changed independently of the
// aggregation mechanics.
type Policy struct {
	Version string `validate:"required"`

	// Each open incident costs IncidentPenalty points, capped at IncidentCap.
	IncidentPenalty float64 `validate:"gte=0"`
	IncidentCap     float64 `validate:"gte=0"`

	// The share of weighings in the review band costs up to VarianceCap
	// points.
	VarianceCap float64 `validate:"gte=0"`

	// Each pending delivery costs DeliveryPenalty points, capped at
	// DeliveryCap.
	DeliveryPenalty float64 `validate:"gte=0"`
	DeliveryCap     float64 `validate:"gte=0"`

	// A flat TrainingBonus is granted when the completion ratio reaches
	// TrainingThreshold. No partial bonus below the threshold.
	TrainingBonus     float64 `validate:"gte=0"`
	TrainingThreshold float64 `validate:"gte=0,lte=1"`
}

// DefaultPolicy returns the current scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Version:           "2025-06",
		IncidentPenalty:   5,
		IncidentCap:       20,
		VarianceCap:       15,
		DeliveryPenalty:   3,
		DeliveryCap:       10,
		TrainingBonus:     5,
		TrainingThreshold: 0.80,
	}
}

var validate = validator.New()

// Validate checks the policy's structural constraints.
func (p Policy) Validate() error {
	return validate.Struct(p)
}
