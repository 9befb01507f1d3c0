package models

import (
	"math"
	"time"

	"github.com/ordersight/matchday/internal/utils"
)

// Time windows a finding or pattern can refer to.
const (
	WindowPreMatch     = "pre_match"
	WindowDuringMatch  = "during_match"
	WindowPostMatch    = "post_match"
	WindowFullMatch    = "full_match"
	WindowPreToPost    = "pre_to_post_match"
	WindowDuringToPost = "during_to_post_match"
)

// DefaultAlpha is the default statistical significance threshold.
const DefaultAlpha = 0.05

// CorrelationFinding is one correlation between a match-outcome variable and
// an order-volume variable, with its significance test result. Findings are
// immutable once constructed; TagSignificant returns an annotated copy.
type CorrelationFinding struct {
	ID          string    `json:"analysis_id"`
	Coefficient float64   `json:"correlation_coefficient"`
	PValue      float64   `json:"statistical_significance"`
	TimeWindow  string    `json:"time_window"`
	Description string    `json:"pattern_description"`
	DataQuality float64   `json:"data_quality"`
	Timestamp   time.Time `json:"analysis_timestamp"`
	SampleSize  int       `json:"sample_size,omitempty"`
}

// NewCorrelationFinding builds and validates a CorrelationFinding. A
// coefficient outside [-1, 1], a p-value outside [0, 1], or a NaN in either
// fails construction.
func NewCorrelationFinding(id string, coefficient, pValue float64, timeWindow, description string, dataQuality float64, ts time.Time, sampleSize int) (*CorrelationFinding, error) {
	f := &CorrelationFinding{
		ID:          id,
		Coefficient: coefficient,
		PValue:      pValue,
		TimeWindow:  timeWindow,
		Description: description,
		DataQuality: dataQuality,
		Timestamp:   ts,
		SampleSize:  sampleSize,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the statistical bounds and descriptive fields.
func (f *CorrelationFinding) Validate() error {
	if f.ID == "" {
		return utils.NewValidationError("analysis_id must be a non-empty string")
	}
	if math.IsNaN(f.Coefficient) || f.Coefficient < -1.0 || f.Coefficient > 1.0 {
		return utils.NewValidationErrorf("correlation_coefficient must be between -1 and 1, got %v", f.Coefficient)
	}
	if math.IsNaN(f.PValue) || f.PValue < 0.0 || f.PValue > 1.0 {
		return utils.NewValidationErrorf("statistical_significance must be between 0 and 1, got %v", f.PValue)
	}
	switch f.TimeWindow {
	case WindowPreMatch, WindowDuringMatch, WindowPostMatch, WindowFullMatch, WindowPreToPost, WindowDuringToPost:
	default:
		return utils.NewValidationErrorf("time_window must be a known window tag, got %q", f.TimeWindow)
	}
	if f.Description == "" {
		return utils.NewValidationError("pattern_description must be a non-empty string")
	}
	if f.DataQuality < 0.0 || f.DataQuality > 100.0 {
		return utils.NewValidationErrorf("data_quality must be between 0 and 100, got %v", f.DataQuality)
	}
	if f.SampleSize < 0 {
		return utils.NewValidationErrorf("sample_size must be non-negative, got %d", f.SampleSize)
	}
	return nil
}

// IsSignificant reports whether the finding's p-value clears alpha.
func (f *CorrelationFinding) IsSignificant(alpha float64) bool {
	return f.PValue < alpha
}

// Strength buckets the absolute coefficient into a descriptive label.
func (f *CorrelationFinding) Strength() string {
	abs := math.Abs(f.Coefficient)
	switch {
	case abs < 0.1:
		return "negligible"
	case abs < 0.3:
		return "weak"
	case abs < 0.5:
		return "moderate"
	case abs < 0.7:
		return "strong"
	default:
		return "very strong"
	}
}

// Direction returns positive, negative, or no depending on the sign of the
// coefficient.
func (f *CorrelationFinding) Direction() string {
	switch {
	case f.Coefficient > 0:
		return "positive"
	case f.Coefficient < 0:
		return "negative"
	default:
		return "no"
	}
}

// TagSignificant returns a copy of the finding with its description prefixed
// as significant. The receiver is never mutated.
func (f *CorrelationFinding) TagSignificant() CorrelationFinding {
	tagged := *f
	tagged.Description = "SIGNIFICANT: " + f.Description
	return tagged
}
