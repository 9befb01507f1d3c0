package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/stats"
	"github.com/ordersight/matchday/internal/utils"
)

// outcomeKind selects the statistical method for a correlation pair: binary
// outcomes get point-biserial, continuous outcomes get Pearson.
type outcomeKind int

const (
	outcomeBoolean outcomeKind = iota
	outcomeContinuous
)

// outcomeVariable is a match-derived column of the metrics row set. Exactly
// one of boolValue/contValue is set, matching kind.
type outcomeVariable struct {
	name      string
	kind      outcomeKind
	boolValue func(*models.WindowMetricsRow) bool
	contValue func(*models.WindowMetricsRow) float64
}

// volumeVariable is an order-derived column of the metrics row set, always
// continuous.
type volumeVariable struct {
	name   string
	window string
	value  func(*models.WindowMetricsRow) float64
}

// CorrelationAnalyzer computes per-match window metrics and sweeps the fixed
// outcome x volume variable grid for correlations with significance testing.
type CorrelationAnalyzer struct {
	cfg    config.AnalysisConfig
	logger *logrus.Logger
	title  cases.Caser
}

// NewCorrelationAnalyzer creates a correlation analyzer with the given
// window and threshold configuration.
func NewCorrelationAnalyzer(cfg config.AnalysisConfig, logger *logrus.Logger) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{
		cfg:    cfg,
		logger: logger,
		title:  cases.Title(language.English),
	}
}

// CalculateMatchWindowMetrics buckets orders into the pre, during, and post
// windows of each match and aggregates per-window order metrics. Empty input
// yields an empty slice; a window with no orders yields all-zero metrics.
func (a *CorrelationAnalyzer) CalculateMatchWindowMetrics(matches []models.MatchEvent, orders []models.OrderEvent) []models.WindowMetricsRow {
	a.logger.WithFields(logrus.Fields{
		"matches": len(matches),
		"orders":  len(orders),
	}).Info("Calculating match window metrics")

	if len(matches) == 0 || len(orders) == 0 {
		return []models.WindowMetricsRow{}
	}

	rows := make([]models.WindowMetricsRow, 0, len(matches))
	for i := range matches {
		match := &matches[i]
		t := match.Timestamp

		preStart := t.Add(-hoursToDuration(a.cfg.PreMatchWindowHours))
		half := hoursToDuration(a.cfg.DuringMatchWindowHours / 2)
		duringStart := t.Add(-half)
		duringEnd := t.Add(half)
		postEnd := t.Add(hoursToDuration(a.cfg.PostMatchWindowHours))

		row := models.WindowMetricsRow{
			MatchID:        match.ID,
			MatchTimestamp: t,
			HomeTeam:       match.HomeTeam,
			AwayTeam:       match.AwayTeam,
			HomeScore:      match.HomeScore,
			AwayScore:      match.AwayScore,
			Outcome:        match.Outcome,
			Significance:   match.Significance,
			Source:         match.Source,
			Winner:         match.Winner(),
			TotalGoals:     match.TotalGoals(),
			IsHighScoring:  match.TotalGoals() >= a.cfg.HighScoringGoals,
		}

		// Pre-match is [start, kickoff), during-match is inclusive on both
		// ends, post-match is (kickoff, end]. Windows query independently and
		// may overlap for large window sizes.
		row.PreMatch = aggregateWindow(orders, func(ts time.Time) bool {
			return !ts.Before(preStart) && ts.Before(t)
		}, a.cfg.PreMatchWindowHours)
		row.DuringMatch = aggregateWindow(orders, func(ts time.Time) bool {
			return !ts.Before(duringStart) && !ts.After(duringEnd)
		}, a.cfg.DuringMatchWindowHours)
		row.PostMatch = aggregateWindow(orders, func(ts time.Time) bool {
			return ts.After(t) && !ts.After(postEnd)
		}, a.cfg.PostMatchWindowHours)

		rows = append(rows, row)
	}

	a.logger.WithField("rows", len(rows)).Info("Calculated window metrics")
	return rows
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func aggregateWindow(orders []models.OrderEvent, inWindow func(time.Time) bool, windowHours float64) models.WindowMetrics {
	var m models.WindowMetrics
	locations := make(map[string]struct{})

	for i := range orders {
		order := &orders[i]
		if !inWindow(order.Timestamp) {
			continue
		}
		m.OrderCount++
		m.TotalVolume = m.TotalVolume.Add(order.TotalAmount)
		m.ItemCount += order.ItemCount
		locations[order.Location] = struct{}{}
	}

	m.UniqueLocations = len(locations)
	if m.OrderCount > 0 {
		m.AvgOrderValue = m.TotalVolume.Div(decimal.NewFromInt(int64(m.OrderCount)))
	}
	if windowHours > 0 {
		m.OrdersPerHour = float64(m.OrderCount) / windowHours
	}
	return m
}

// CalculateCorrelations sweeps the fixed grid of outcome variables against
// order-volume variables plus the two cross-period pairs, emitting one
// finding per pair that survives the statistical checks. Skipped pairs are
// logged with their reason and never abort the sweep.
func (a *CorrelationAnalyzer) CalculateCorrelations(rows []models.WindowMetricsRow) []models.CorrelationFinding {
	a.logger.WithField("rows", len(rows)).Info("Calculating correlation coefficients")

	if len(rows) == 0 {
		return []models.CorrelationFinding{}
	}

	quality := a.DataQualityScore(rows)
	now := time.Now().UTC()
	findings := make([]models.CorrelationFinding, 0)

	for _, outcome := range outcomeVariables() {
		for _, volume := range volumeVariables() {
			finding, err := a.correlatePair(outcome, volume, rows, quality, now)
			if err != nil {
				a.logSkippedPair(outcome.name, volume.name, err)
				continue
			}
			findings = append(findings, *finding)
		}
	}

	findings = append(findings, a.crossPeriodFindings(rows, quality, now)...)

	a.logger.WithField("findings", len(findings)).Info("Calculated correlation coefficients")
	return findings
}

// correlatePair is a pure function of the row set: it either produces one
// validated finding or reports why the pair yields none. Insufficient
// observations and degenerate variance are expected outcomes, not failures.
func (a *CorrelationAnalyzer) correlatePair(outcome outcomeVariable, volume volumeVariable, rows []models.WindowMetricsRow, quality float64, now time.Time) (*models.CorrelationFinding, error) {
	volumes := make([]float64, len(rows))
	for i := range rows {
		volumes[i] = volume.value(&rows[i])
	}

	var r, p float64
	var err error
	switch outcome.kind {
	case outcomeBoolean:
		flags := make([]bool, len(rows))
		for i := range rows {
			flags[i] = outcome.boolValue(&rows[i])
		}
		r, p, err = stats.PointBiserial(flags, volumes)
	case outcomeContinuous:
		values := make([]float64, len(rows))
		for i := range rows {
			values[i] = outcome.contValue(&rows[i])
		}
		r, p, err = stats.Pearson(volumes, values)
	}
	if err != nil {
		return nil, err
	}

	description := a.describePattern(r, p, outcome.name, volume.name, volume.window)
	return models.NewCorrelationFinding(
		uuid.New().String(), r, p, volume.window, description, quality, now, len(rows),
	)
}

// crossPeriodFindings relates order counts across windows: anticipation
// carrying into celebration (pre vs post) and the immediate reaction
// (during vs post).
func (a *CorrelationAnalyzer) crossPeriodFindings(rows []models.WindowMetricsRow, quality float64, now time.Time) []models.CorrelationFinding {
	pre := make([]float64, len(rows))
	during := make([]float64, len(rows))
	post := make([]float64, len(rows))
	for i := range rows {
		pre[i] = float64(rows[i].PreMatch.OrderCount)
		during[i] = float64(rows[i].DuringMatch.OrderCount)
		post[i] = float64(rows[i].PostMatch.OrderCount)
	}

	pairs := []struct {
		window string
		label  string
		x      []float64
	}{
		{models.WindowPreToPost, "pre-match", pre},
		{models.WindowDuringToPost, "during-match", during},
	}

	findings := make([]models.CorrelationFinding, 0, len(pairs))
	for _, pair := range pairs {
		r, p, err := stats.Pearson(pair.x, post)
		if err != nil {
			a.logSkippedPair(pair.label+"_order_count", "post_match_order_count", err)
			continue
		}
		description := fmt.Sprintf(
			"Correlation between %s and post-match order volumes: %s %s relationship",
			pair.label, strengthLabel(r), directionLabel(r),
		)
		finding, err := models.NewCorrelationFinding(
			uuid.New().String(), r, p, pair.window, description, quality, now, len(rows),
		)
		if err != nil {
			a.logger.WithError(err).Warn("Discarding invalid cross-period finding")
			continue
		}
		findings = append(findings, *finding)
	}
	return findings
}

func (a *CorrelationAnalyzer) logSkippedPair(outcomeName, volumeName string, err error) {
	entry := a.logger.WithFields(logrus.Fields{
		"outcome": outcomeName,
		"volume":  volumeName,
		"reason":  err.Error(),
	})

	var insufficient *utils.InsufficientDataError
	var degenerate *utils.ComputationError
	switch {
	case errors.As(err, &insufficient):
		entry.Debug("Skipping correlation pair: insufficient observations")
	case errors.As(err, &degenerate):
		entry.Warn("Skipping correlation pair: degenerate computation")
	default:
		entry.Warn("Skipping correlation pair")
	}
}

func (a *CorrelationAnalyzer) describePattern(r, p float64, outcomeName, volumeName, window string) string {
	significance := "not significant"
	if p < a.cfg.SignificanceAlpha {
		significance = "significant"
	}
	return fmt.Sprintf("%s %s correlation between %s and %s during %s period (r=%.3f, p=%.3f, %s)",
		a.title.String(strengthLabel(r)), directionLabel(r), outcomeName, volumeName, window, r, p, significance)
}

func strengthLabel(r float64) string {
	f := models.CorrelationFinding{Coefficient: r}
	return f.Strength()
}

func directionLabel(r float64) string {
	f := models.CorrelationFinding{Coefficient: r}
	return f.Direction()
}

// DataQualityScore is the percentage of rows backed by real-provenance match
// data, 0 when there are no rows.
func (a *CorrelationAnalyzer) DataQualityScore(rows []models.WindowMetricsRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	real := 0
	for i := range rows {
		if rows[i].Source == models.SourceReal {
			real++
		}
	}
	return float64(real) / float64(len(rows)) * 100
}

// DetectSignificant returns the subset of findings whose p-value clears
// alpha, each re-described with a significance prefix. Inputs are never
// mutated.
func (a *CorrelationAnalyzer) DetectSignificant(findings []models.CorrelationFinding, alpha float64) []models.CorrelationFinding {
	a.logger.WithField("alpha", alpha).Info("Detecting statistically significant findings")

	significant := make([]models.CorrelationFinding, 0)
	for i := range findings {
		if findings[i].IsSignificant(alpha) {
			significant = append(significant, findings[i].TagSignificant())
		}
	}

	a.logger.WithField("significant", len(significant)).Info("Detected significant findings")
	return significant
}

// WindowSummary aggregates the findings of one time window.
type WindowSummary struct {
	Count            int     `json:"count"`
	SignificantCount int     `json:"significant_count"`
	MeanCoefficient  float64 `json:"avg_correlation"`
	SignificanceRate float64 `json:"significance_rate"`
}

// CorrelationSummary condenses a finding list into headline statistics.
type CorrelationSummary struct {
	TotalCorrelations  int                        `json:"total_correlations"`
	SignificantCount   int                        `json:"significant_correlations"`
	SignificanceRate   float64                    `json:"significance_rate"`
	StrongestPositive  *models.CorrelationFinding `json:"strongest_positive_correlation,omitempty"`
	StrongestNegative  *models.CorrelationFinding `json:"strongest_negative_correlation,omitempty"`
	StrongestOverall   *models.CorrelationFinding `json:"strongest_overall_correlation,omitempty"`
	AverageDataQuality float64                    `json:"average_data_quality"`
	WindowBreakdown    map[string]WindowSummary   `json:"time_window_analysis"`
	GeneratedAt        time.Time                  `json:"analysis_timestamp"`
}

// Summarize computes deterministic headline statistics over a finding list:
// counts, extremes, mean data quality, and a per-window breakdown.
func (a *CorrelationAnalyzer) Summarize(findings []models.CorrelationFinding) CorrelationSummary {
	summary := CorrelationSummary{
		TotalCorrelations: len(findings),
		WindowBreakdown:   make(map[string]WindowSummary),
		GeneratedAt:       time.Now().UTC(),
	}
	if len(findings) == 0 {
		return summary
	}

	alpha := a.cfg.SignificanceAlpha
	qualities := make([]float64, len(findings))
	perWindow := make(map[string][]float64)
	perWindowSignificant := make(map[string]int)

	strongestPositive := &findings[0]
	strongestNegative := &findings[0]
	strongestOverall := &findings[0]

	for i := range findings {
		f := &findings[i]
		qualities[i] = f.DataQuality
		perWindow[f.TimeWindow] = append(perWindow[f.TimeWindow], f.Coefficient)
		if f.IsSignificant(alpha) {
			summary.SignificantCount++
			perWindowSignificant[f.TimeWindow]++
		}
		if f.Coefficient > strongestPositive.Coefficient {
			strongestPositive = f
		}
		if f.Coefficient < strongestNegative.Coefficient {
			strongestNegative = f
		}
		if absFloat(f.Coefficient) > absFloat(strongestOverall.Coefficient) {
			strongestOverall = f
		}
	}

	summary.SignificanceRate = float64(summary.SignificantCount) / float64(len(findings)) * 100
	summary.StrongestPositive = strongestPositive
	summary.StrongestNegative = strongestNegative
	summary.StrongestOverall = strongestOverall
	summary.AverageDataQuality = stats.Mean(qualities)

	for window, coefficients := range perWindow {
		count := len(coefficients)
		significant := perWindowSignificant[window]
		summary.WindowBreakdown[window] = WindowSummary{
			Count:            count,
			SignificantCount: significant,
			MeanCoefficient:  stats.Mean(coefficients),
			SignificanceRate: float64(significant) / float64(count) * 100,
		}
	}

	return summary
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func outcomeVariables() []outcomeVariable {
	return []outcomeVariable{
		{name: "home_wins", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.Winner == models.WinnerHome }},
		{name: "away_wins", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.Winner == models.WinnerAway }},
		{name: "draws", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.Winner == models.WinnerDraw }},
		{name: "high_scoring_matches", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.IsHighScoring }},
		{name: "total_goals", kind: outcomeContinuous, contValue: func(r *models.WindowMetricsRow) float64 { return float64(r.TotalGoals) }},
		{name: "tournament_matches", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.Significance == models.SignificanceTournament }},
		{name: "final_matches", kind: outcomeBoolean, boolValue: func(r *models.WindowMetricsRow) bool { return r.Significance == models.SignificanceFinal }},
	}
}

func volumeVariables() []volumeVariable {
	windows := []string{models.WindowPreMatch, models.WindowDuringMatch, models.WindowPostMatch}
	metrics := []struct {
		suffix string
		value  func(models.WindowMetrics) float64
	}{
		{"order_count", func(m models.WindowMetrics) float64 { return float64(m.OrderCount) }},
		{"total_volume", func(m models.WindowMetrics) float64 { return m.TotalVolume.InexactFloat64() }},
		{"orders_per_hour", func(m models.WindowMetrics) float64 { return m.OrdersPerHour }},
	}

	variables := make([]volumeVariable, 0, len(windows)*len(metrics))
	for _, window := range windows {
		window := window
		for _, metric := range metrics {
			metric := metric
			variables = append(variables, volumeVariable{
				name:   window + "_" + metric.suffix,
				window: window,
				value: func(r *models.WindowMetricsRow) float64 {
					return metric.value(r.Window(window))
				},
			})
		}
	}
	return variables
}
