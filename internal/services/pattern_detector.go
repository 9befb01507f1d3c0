package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/stats"
)

// PatternDetector finds spikes, dips, and linear trends in ordering behavior
// within each match window, across windows, and split by match outcome.
type PatternDetector struct {
	logger *logrus.Logger
	title  cases.Caser
}

// NewPatternDetector creates a pattern detector.
func NewPatternDetector(logger *logrus.Logger) *PatternDetector {
	return &PatternDetector{
		logger: logger,
		title:  cases.Title(language.English),
	}
}

// Detect runs all pattern sweeps over the metrics rows. Each sweep requires
// its own minimum sample size and degrades silently when a series is too
// short or degenerate.
func (d *PatternDetector) Detect(rows []models.WindowMetricsRow) []models.TemporalPattern {
	d.logger.WithField("rows", len(rows)).Info("Analyzing temporal patterns")

	if len(rows) == 0 {
		return []models.TemporalPattern{}
	}

	patterns := make([]models.TemporalPattern, 0)
	for _, window := range []string{models.WindowPreMatch, models.WindowDuringMatch, models.WindowPostMatch} {
		counts := make([]float64, len(rows))
		volumes := make([]float64, len(rows))
		for i := range rows {
			m := rows[i].Window(window)
			counts[i] = float64(m.OrderCount)
			volumes[i] = m.TotalVolume.InexactFloat64()
		}
		patterns = append(patterns, d.windowPatterns(counts, window, "order_count", rows)...)
		patterns = append(patterns, d.windowPatterns(volumes, window, "order_volume", rows)...)
	}

	patterns = append(patterns, d.crossPeriodPatterns(rows)...)
	patterns = append(patterns, d.outcomeImpactPatterns(rows)...)

	d.logger.WithField("patterns", len(patterns)).Info("Identified temporal patterns")
	return patterns
}

// windowPatterns finds spikes (above mean+2s), dips (below mean-2s floored
// at zero), and OLS trends within one window's series.
func (d *PatternDetector) windowPatterns(series []float64, window, metricType string, rows []models.WindowMetricsRow) []models.TemporalPattern {
	if len(series) < 3 {
		return nil
	}

	mean := stats.Mean(series)
	std := stats.StdDev(series)
	var patterns []models.TemporalPattern

	spikeThreshold := mean + 2*std
	spikeIdx := indexesWhere(series, func(v float64) bool { return v > spikeThreshold })
	if len(spikeIdx) > 0 {
		magnitude := 0.0
		if mean > 0 {
			magnitude = (meanAt(series, spikeIdx) - mean) / mean * 100
		}
		patterns = append(patterns, models.TemporalPattern{
			ID:              uuid.New().String(),
			TimeWindow:      window,
			PatternType:     models.PatternSpike,
			Magnitude:       capMagnitude(magnitude),
			Confidence:      patternConfidence(len(spikeIdx), len(series)),
			Description:     fmt.Sprintf("Significant %s spikes detected in %s period (%d instances)", metricType, window, len(spikeIdx)),
			SourceBreakdown: sourceBreakdownAt(rows, spikeIdx),
			SampleSize:      len(series),
		})
	}

	dipThreshold := mean - 2*std
	if dipThreshold < 0 {
		dipThreshold = 0
	}
	dipIdx := indexesWhere(series, func(v float64) bool { return v < dipThreshold })
	if len(dipIdx) > 0 {
		magnitude := 0.0
		if mean > 0 {
			magnitude = (mean - meanAt(series, dipIdx)) / mean * 100
		}
		patterns = append(patterns, models.TemporalPattern{
			ID:              uuid.New().String(),
			TimeWindow:      window,
			PatternType:     models.PatternDip,
			Magnitude:       capMagnitude(magnitude),
			Confidence:      patternConfidence(len(dipIdx), len(series)),
			Description:     fmt.Sprintf("Significant %s dips detected in %s period (%d instances)", metricType, window, len(dipIdx)),
			SourceBreakdown: sourceBreakdownAt(rows, dipIdx),
			SampleSize:      len(series),
		})
	}

	if trend := d.trendPattern(series, window, metricType, rows); trend != nil {
		patterns = append(patterns, *trend)
	}
	return patterns
}

// trendPattern regresses the series against its sequential index and keeps
// only trends with |r|>0.3 and p<0.05.
func (d *PatternDetector) trendPattern(series []float64, window, metricType string, rows []models.WindowMetricsRow) *models.TemporalPattern {
	if len(series) < stats.MinTrendSamples {
		return nil
	}

	index := make([]float64, len(series))
	for i := range index {
		index[i] = float64(i)
	}
	reg, err := stats.Linregress(index, series)
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"window": window,
			"metric": metricType,
		}).Debug("Skipping trend check")
		return nil
	}
	if absFloat(reg.R) <= 0.3 || reg.PValue >= 0.05 {
		return nil
	}

	direction := "increasing"
	if reg.Slope < 0 {
		direction = "decreasing"
	}
	return &models.TemporalPattern{
		ID:              uuid.New().String(),
		TimeWindow:      window,
		PatternType:     models.PatternTrend,
		Magnitude:       absFloat(reg.R) * 100,
		Confidence:      1 - reg.PValue,
		Description:     fmt.Sprintf("%s trend in %s during %s period (r=%.3f)", d.title.String(direction), metricType, window, reg.R),
		SourceBreakdown: sourceBreakdownAt(rows, allIndexes(len(rows))),
		SampleSize:      len(series),
	}
}

// crossPeriodPatterns relates ordering across windows: pre-to-post count
// jumps above their own 75th percentile, and a during-to-post correlation.
func (d *PatternDetector) crossPeriodPatterns(rows []models.WindowMetricsRow) []models.TemporalPattern {
	var patterns []models.TemporalPattern

	pre := make([]float64, len(rows))
	during := make([]float64, len(rows))
	post := make([]float64, len(rows))
	changes := make([]float64, len(rows))
	for i := range rows {
		pre[i] = float64(rows[i].PreMatch.OrderCount)
		during[i] = float64(rows[i].DuringMatch.OrderCount)
		post[i] = float64(rows[i].PostMatch.OrderCount)
		changes[i] = post[i] - pre[i]
	}

	threshold := stats.Quantile(changes, 0.75)
	increaseIdx := indexesWhere(changes, func(v float64) bool { return v > threshold })
	if len(increaseIdx) > 0 {
		preMean := stats.Mean(pre)
		magnitude := 0.0
		if preMean > 0 {
			magnitude = meanAt(changes, increaseIdx) / preMean * 100
		}
		patterns = append(patterns, models.TemporalPattern{
			ID:              uuid.New().String(),
			TimeWindow:      models.WindowPreToPost,
			PatternType:     models.PatternSpike,
			Magnitude:       capMagnitude(magnitude),
			Confidence:      patternConfidence(len(increaseIdx), len(rows)),
			Description:     fmt.Sprintf("Significant order increases from pre-match to post-match periods (%d matches)", len(increaseIdx)),
			SourceBreakdown: sourceBreakdownAt(rows, increaseIdx),
			SampleSize:      len(rows),
		})
	}

	r, p, err := stats.Pearson(during, post)
	if err != nil {
		d.logger.WithError(err).Debug("Skipping during-to-post correlation pattern")
	} else if absFloat(r) > 0.4 && p < 0.05 {
		patterns = append(patterns, models.TemporalPattern{
			ID:              uuid.New().String(),
			TimeWindow:      models.WindowDuringToPost,
			PatternType:     models.PatternTrend,
			Magnitude:       absFloat(r) * 100,
			Confidence:      1 - p,
			Description:     fmt.Sprintf("Strong correlation between during-match and post-match orders (r=%.3f)", r),
			SourceBreakdown: sourceBreakdownAt(rows, allIndexes(len(rows))),
			SampleSize:      len(rows),
		})
	}

	return patterns
}

// outcomeImpactPatterns compares post-match ordering of each outcome subset
// against the overall mean, and high-scoring matches against the rest.
func (d *PatternDetector) outcomeImpactPatterns(rows []models.WindowMetricsRow) []models.TemporalPattern {
	var patterns []models.TemporalPattern

	post := make([]float64, len(rows))
	for i := range rows {
		post[i] = float64(rows[i].PostMatch.OrderCount)
	}
	overallMean := stats.Mean(post)

	for _, outcome := range []string{models.WinnerHome, models.WinnerAway, models.WinnerDraw} {
		outcome := outcome
		idx := indexesOfRows(rows, func(r *models.WindowMetricsRow) bool { return r.Winner == outcome })
		if len(idx) < 3 {
			continue
		}
		subsetMean := meanAt(post, idx)
		if overallMean <= 0 || subsetMean <= overallMean*1.2 {
			continue
		}
		magnitude := (subsetMean - overallMean) / overallMean * 100
		patterns = append(patterns, models.TemporalPattern{
			ID:              uuid.New().String(),
			TimeWindow:      models.WindowPostMatch,
			PatternType:     models.PatternSpike,
			Magnitude:       capMagnitude(magnitude),
			Confidence:      patternConfidence(len(idx), len(rows)),
			Description:     fmt.Sprintf("Higher post-match orders following %s wins (%.1f vs %.1f average)", outcome, subsetMean, overallMean),
			SourceBreakdown: sourceBreakdownAt(rows, idx),
			SampleSize:      len(idx),
		})
	}

	highIdx := indexesOfRows(rows, func(r *models.WindowMetricsRow) bool { return r.IsHighScoring })
	regularIdx := indexesOfRows(rows, func(r *models.WindowMetricsRow) bool { return !r.IsHighScoring })
	if len(highIdx) >= 3 && len(regularIdx) >= 3 {
		highMean := meanAt(post, highIdx)
		regularMean := meanAt(post, regularIdx)
		if regularMean > 0 && highMean > regularMean*1.15 {
			magnitude := (highMean - regularMean) / regularMean * 100
			patterns = append(patterns, models.TemporalPattern{
				ID:              uuid.New().String(),
				TimeWindow:      models.WindowPostMatch,
				PatternType:     models.PatternSpike,
				Magnitude:       capMagnitude(magnitude),
				Confidence:      patternConfidence(len(highIdx), len(rows)),
				Description:     fmt.Sprintf("Higher orders after high-scoring matches (%.1f vs %.1f)", highMean, regularMean),
				SourceBreakdown: sourceBreakdownAt(rows, highIdx),
				SampleSize:      len(highIdx),
			})
		}
	}

	return patterns
}

// patternConfidence scales with both the proportion of affected observations
// and an absolute sample floor of 10, capped at 1.
func patternConfidence(instances, total int) float64 {
	if total == 0 {
		return 0
	}
	proportion := float64(instances) / float64(total)
	sampleFactor := float64(instances) / 10
	if sampleFactor > 1 {
		sampleFactor = 1
	}
	confidence := proportion * sampleFactor
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func capMagnitude(m float64) float64 {
	if m > 100 {
		return 100
	}
	return m
}

func indexesWhere(series []float64, keep func(float64) bool) []int {
	var idx []int
	for i, v := range series {
		if keep(v) {
			idx = append(idx, i)
		}
	}
	return idx
}

func indexesOfRows(rows []models.WindowMetricsRow, keep func(*models.WindowMetricsRow) bool) []int {
	var idx []int
	for i := range rows {
		if keep(&rows[i]) {
			idx = append(idx, i)
		}
	}
	return idx
}

func allIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func meanAt(series []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += series[i]
	}
	return sum / float64(len(idx))
}

// sourceBreakdownAt reports the real/mock percentage split of the selected
// rows.
func sourceBreakdownAt(rows []models.WindowMetricsRow, idx []int) map[string]float64 {
	breakdown := map[string]float64{
		models.SourceReal: 0,
		models.SourceMock: 0,
	}
	if len(idx) == 0 {
		return breakdown
	}
	for _, i := range idx {
		switch rows[i].Source {
		case models.SourceReal:
			breakdown[models.SourceReal]++
		case models.SourceMock:
			breakdown[models.SourceMock]++
		}
	}
	total := float64(len(idx))
	breakdown[models.SourceReal] = breakdown[models.SourceReal] / total * 100
	breakdown[models.SourceMock] = breakdown[models.SourceMock] / total * 100
	return breakdown
}
