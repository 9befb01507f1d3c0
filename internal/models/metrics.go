package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WindowMetrics holds order aggregates for one time window around a match.
// A window with no matching orders carries all-zero metrics.
type WindowMetrics struct {
	OrderCount      int             `json:"order_count"`
	TotalVolume     decimal.Decimal `json:"total_volume"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	ItemCount       int             `json:"item_count"`
	UniqueLocations int             `json:"unique_locations"`
	OrdersPerHour   float64         `json:"orders_per_hour"`
}

// WindowMetricsRow combines a match's attributes with the order metrics of
// its pre-match, during-match, and post-match windows.
type WindowMetricsRow struct {
	MatchID        string    `json:"match_id"`
	MatchTimestamp time.Time `json:"match_timestamp"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	HomeScore      int       `json:"home_score"`
	AwayScore      int       `json:"away_score"`
	Outcome        string    `json:"outcome"`
	Significance   string    `json:"match_significance"`
	Source         string    `json:"data_source"`
	Winner         string    `json:"winner"`
	TotalGoals     int       `json:"total_goals"`
	IsHighScoring  bool      `json:"is_high_scoring"`

	PreMatch    WindowMetrics `json:"pre_match"`
	DuringMatch WindowMetrics `json:"during_match"`
	PostMatch   WindowMetrics `json:"post_match"`
}

// Window returns the metrics of the named window. Unknown tags return the
// zero value.
func (r *WindowMetricsRow) Window(tag string) WindowMetrics {
	switch tag {
	case WindowPreMatch:
		return r.PreMatch
	case WindowDuringMatch:
		return r.DuringMatch
	case WindowPostMatch:
		return r.PostMatch
	default:
		return WindowMetrics{}
	}
}

// MatchClassification carries the categorical tags derived for one match.
type MatchClassification struct {
	MatchID          string `json:"match_id"`
	HomeTeam         string `json:"home_team"`
	AwayTeam         string `json:"away_team"`
	TotalGoals       int    `json:"total_goals"`
	GoalDifferential int    `json:"goal_differential"`
	ExcitementLevel  string `json:"excitement_level"`
	OutcomeType      string `json:"outcome_type"`
	ScoringPattern   string `json:"scoring_pattern"`
	ImportanceLevel  string `json:"importance_level"`
	ImpactScore      int    `json:"event_impact_score"`
}
