package services

import (
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/models"
)

// Excitement levels.
const (
	ExcitementVeryHigh = "very_high"
	ExcitementHigh     = "high"
	ExcitementMedium   = "medium"
	ExcitementLow      = "low"
)

// Outcome types.
const (
	OutcomeTypeDraw           = "draw"
	OutcomeTypeBlowout        = "blowout"
	OutcomeTypeCloseWin       = "close_win"
	OutcomeTypeComfortableWin = "comfortable_win"
)

// Scoring patterns.
const (
	ScoringScoreless = "scoreless"
	ScoringLow       = "low_scoring"
	ScoringModerate  = "moderate_scoring"
	ScoringHigh      = "high_scoring"
	ScoringVeryHigh  = "very_high_scoring"
)

// Importance levels.
const (
	ImportanceCritical = "critical"
	ImportanceHigh     = "high"
	ImportanceRegular  = "regular"
)

// EventClassifier derives categorical tags and a composite impact score for
// each match. Every classification is a pure function of scores and
// significance.
type EventClassifier struct {
	logger *logrus.Logger
}

// NewEventClassifier creates an event classifier.
func NewEventClassifier(logger *logrus.Logger) *EventClassifier {
	return &EventClassifier{logger: logger}
}

// Classify tags every match with excitement, outcome type, scoring pattern,
// importance, and an impact score. Empty input yields an empty slice.
func (c *EventClassifier) Classify(matches []models.MatchEvent) []models.MatchClassification {
	c.logger.WithField("matches", len(matches)).Info("Classifying match events")

	classifications := make([]models.MatchClassification, 0, len(matches))
	for i := range matches {
		match := &matches[i]
		classifications = append(classifications, models.MatchClassification{
			MatchID:          match.ID,
			HomeTeam:         match.HomeTeam,
			AwayTeam:         match.AwayTeam,
			TotalGoals:       match.TotalGoals(),
			GoalDifferential: match.GoalDifferential(),
			ExcitementLevel:  excitementLevel(match.TotalGoals(), match.GoalDifferential()),
			OutcomeType:      outcomeType(match.GoalDifferential()),
			ScoringPattern:   scoringPattern(match.TotalGoals()),
			ImportanceLevel:  importanceLevel(match.Significance),
			ImpactScore:      impactScore(match.TotalGoals(), match.GoalDifferential(), match.Significance),
		})
	}

	c.logger.WithField("classified", len(classifications)).Info("Classified match events")
	return classifications
}

// Rules are checked in priority order; the first match wins.
func excitementLevel(totalGoals, goalDiff int) string {
	switch {
	case totalGoals >= 5:
		return ExcitementVeryHigh
	case totalGoals >= 3 && goalDiff <= 1:
		return ExcitementHigh
	case totalGoals >= 2:
		return ExcitementMedium
	default:
		return ExcitementLow
	}
}

func outcomeType(goalDiff int) string {
	switch {
	case goalDiff == 0:
		return OutcomeTypeDraw
	case goalDiff >= 3:
		return OutcomeTypeBlowout
	case goalDiff == 1:
		return OutcomeTypeCloseWin
	default:
		return OutcomeTypeComfortableWin
	}
}

func scoringPattern(totalGoals int) string {
	switch {
	case totalGoals == 0:
		return ScoringScoreless
	case totalGoals == 1:
		return ScoringLow
	case totalGoals <= 3:
		return ScoringModerate
	case totalGoals <= 5:
		return ScoringHigh
	default:
		return ScoringVeryHigh
	}
}

func importanceLevel(significance string) string {
	switch significance {
	case models.SignificanceFinal:
		return ImportanceCritical
	case models.SignificanceTournament:
		return ImportanceHigh
	default:
		return ImportanceRegular
	}
}

// impactScore is additive over goal count, closeness, stakes, and a
// high-scoring bonus, clamped to [0, 100].
func impactScore(totalGoals, goalDiff int, significance string) int {
	score := totalGoals * 5
	if score > 30 {
		score = 30
	}

	switch goalDiff {
	case 0:
		score += 20
	case 1:
		score += 15
	case 2:
		score += 10
	}

	switch significance {
	case models.SignificanceFinal:
		score += 30
	case models.SignificanceTournament:
		score += 20
	default:
		score += 10
	}

	if totalGoals >= 5 {
		score += 20
	} else if totalGoals >= 3 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
