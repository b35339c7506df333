package scoring

import "math"

// Variance bands.
const (
	VarianceExcellent     = "excellent"
	VarianceAcceptable    = "acceptable"
	VarianceReview        = "review"
	VarianceIndeterminate = "indeterminate"
)

// Variance is the classification of a measured quantity against its
// estimate. Percent is nil when the estimate is zero and no meaningful
// percentage exists.
type Variance struct {
	Percent *float64 `json:"percent"`
	Band    string   `json:"band"`
}

// NeedsReview reports whether the weighing should be surfaced as a warning.
// The review band never blocks a write; it only flags the record.
func (v Variance) NeedsReview() bool {
	return v.Band == VarianceReview
}

// ClassifyVariance compares a measured quantity to its estimate and returns
// the variance percentage with its band: up to 5% excellent, up to 10%
// acceptable, above that review. A zero estimate yields an explicit
// indeterminate result instead of Inf or NaN.
func ClassifyVariance(estimated, measured float64) Variance {
	if estimated == 0 {
		return Variance{Band: VarianceIndeterminate}
	}

	percent := math.Abs(measured-estimated) / math.Abs(estimated) * 100

	band := VarianceReview
	switch {
	case percent <= 5:
		band = VarianceExcellent
	case percent <= 10:
		band = VarianceAcceptable
	}
	return Variance{Percent: &percent, Band: band}
}
