package scoring

// ComplianceInputs are the category counts and ratios the score is computed
// from. They are derived from the currently loaded normalized collections,
// never read back from storage.
type ComplianceInputs struct {
	OpenIncidents           int     `json:"open_incidents"`
	HighVarianceWeighings   int     `json:"high_variance_weighings"`
	TotalWeighings          int     `json:"total_weighings"`
	PendingDeliveries       int     `json:"pending_deliveries"`
	TrainingCompletionRatio float64 `json:"training_completion_ratio"`
}

// Deductions itemizes each category's contribution so callers can explain
// the score.
type Deductions struct {
	Incidents     float64 `json:"incidents"`
	Variance      float64 `json:"variance"`
	Deliveries    float64 `json:"deliveries"`
	TrainingBonus float64 `json:"training_bonus"`
}

// Scorecard is the scoring result: the bounded score, its presentation band,
// and the inputs and deductions that produced it. The band is advisory; the
// numeric score and counts are authoritative.
type Scorecard struct {
	Score         float64          `json:"score"`
	Band          string           `json:"band"`
	Inputs        ComplianceInputs `json:"inputs"`
	Deductions    Deductions       `json:"deductions"`
	PolicyVersion string           `json:"policy_version"`
}

// Score bands.
const (
	BandExcellent = "excellent"
	BandGood      = "good"
	BandRegular   = "regular"
	BandCritical  = "critical"
)

// Score computes the compliance score: start at 100, subtract each capped
// category penalty, add the training bonus when earned, clamp to [0, 100].
// A category with a zero denominator contributes nothing — missing data is
// never treated as total failure.
func (p Policy) Score(in ComplianceInputs) Scorecard {
	d := Deductions{
		Incidents:  min(float64(in.OpenIncidents)*p.IncidentPenalty, p.IncidentCap),
		Deliveries: min(float64(in.PendingDeliveries)*p.DeliveryPenalty, p.DeliveryCap),
	}
	if in.TotalWeighings > 0 {
		share := float64(in.HighVarianceWeighings) / float64(in.TotalWeighings) * 100
		d.Variance = min(share, p.VarianceCap)
	}
	if in.TrainingCompletionRatio >= p.TrainingThreshold {
		d.TrainingBonus = p.TrainingBonus
	}

	score := 100 - d.Incidents - d.Variance - d.Deliveries + d.TrainingBonus
	score = min(max(score, 0), 100)

	return Scorecard{
		Score:         score,
		Band:          ScoreBand(score),
		Inputs:        in,
		Deductions:    d,
		PolicyVersion: p.Version,
	}
}

// ScoreBand maps a score to its presentation label.
func ScoreBand(score float64) string {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 80:
		return BandGood
	case score >= 70:
		return BandRegular
	default:
		return BandCritical
	}
}
