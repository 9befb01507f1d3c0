package models

import (
	"time"

	"github.com/ordersight/matchday/internal/utils"
)

// Match outcome values, seen from the home side.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// Match significance levels.
const (
	SignificanceRegular    = "regular"
	SignificanceTournament = "tournament"
	SignificanceFinal      = "final"
)

// Winner values derived from the final score.
const (
	WinnerHome = "home"
	WinnerAway = "away"
	WinnerDraw = "draw"
)

// MatchEvent represents the final outcome of a single sporting match.
// Instances are validated at construction and treated as immutable afterwards.
type MatchEvent struct {
	ID           string    `json:"match_id"`
	Timestamp    time.Time `json:"timestamp"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	Outcome      string    `json:"outcome"`
	Significance string    `json:"match_significance"`
	Source       string    `json:"data_source"`
}

// NewMatchEvent builds and validates a MatchEvent, enforcing score/outcome
// consistency.
func NewMatchEvent(id string, ts time.Time, homeTeam, awayTeam string, homeScore, awayScore int, outcome, significance, source string) (*MatchEvent, error) {
	m := &MatchEvent{
		ID:           id,
		Timestamp:    ts,
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		HomeScore:    homeScore,
		AwayScore:    awayScore,
		Outcome:      outcome,
		Significance: significance,
		Source:       source,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every field of the match, including the invariant that the
// declared outcome agrees with the final score.
func (m *MatchEvent) Validate() error {
	if m.ID == "" {
		return utils.NewValidationError("match_id must be a non-empty string")
	}
	if m.Timestamp.IsZero() {
		return utils.NewValidationError("timestamp must be set")
	}
	if m.HomeTeam == "" {
		return utils.NewValidationError("home_team must be a non-empty string")
	}
	if m.AwayTeam == "" {
		return utils.NewValidationError("away_team must be a non-empty string")
	}
	if m.HomeTeam == m.AwayTeam {
		return utils.NewValidationError("home_team and away_team must be different")
	}
	if m.HomeScore < 0 {
		return utils.NewValidationErrorf("home_score must be non-negative, got %d", m.HomeScore)
	}
	if m.AwayScore < 0 {
		return utils.NewValidationErrorf("away_score must be non-negative, got %d", m.AwayScore)
	}
	switch m.Outcome {
	case OutcomeWin:
		if m.HomeScore <= m.AwayScore {
			return utils.NewValidationErrorf("outcome %q requires home_score > away_score (%d-%d)", OutcomeWin, m.HomeScore, m.AwayScore)
		}
	case OutcomeLoss:
		if m.HomeScore >= m.AwayScore {
			return utils.NewValidationErrorf("outcome %q requires home_score < away_score (%d-%d)", OutcomeLoss, m.HomeScore, m.AwayScore)
		}
	case OutcomeDraw:
		if m.HomeScore != m.AwayScore {
			return utils.NewValidationErrorf("outcome %q requires equal scores (%d-%d)", OutcomeDraw, m.HomeScore, m.AwayScore)
		}
	default:
		return utils.NewValidationErrorf("outcome must be one of [win loss draw], got %q", m.Outcome)
	}
	switch m.Significance {
	case SignificanceRegular, SignificanceTournament, SignificanceFinal:
	default:
		return utils.NewValidationErrorf("match_significance must be one of [regular tournament final], got %q", m.Significance)
	}
	if m.Source != SourceReal && m.Source != SourceMock {
		return utils.NewValidationErrorf("data_source must be either %q or %q, got %q", SourceReal, SourceMock, m.Source)
	}
	return nil
}

// Winner returns which side won the match based on the final score.
func (m *MatchEvent) Winner() string {
	switch {
	case m.HomeScore > m.AwayScore:
		return WinnerHome
	case m.AwayScore > m.HomeScore:
		return WinnerAway
	default:
		return WinnerDraw
	}
}

// TotalGoals returns the combined score of both sides.
func (m *MatchEvent) TotalGoals() int {
	return m.HomeScore + m.AwayScore
}

// GoalDifferential returns the absolute score difference.
func (m *MatchEvent) GoalDifferential() int {
	diff := m.HomeScore - m.AwayScore
	if diff < 0 {
		return -diff
	}
	return diff
}
