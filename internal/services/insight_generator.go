package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/stats"
)

// InsightGenerator synthesizes temporal patterns, anomalies, and summary
// statistics into one ranked insight report per analysis run.
type InsightGenerator struct {
	cfg      config.AnalysisConfig
	logger   *logrus.Logger
	patterns *PatternDetector
	anomaly  *AnomalyDetector
}

// NewInsightGenerator creates an insight generator with its pattern and
// anomaly sub-detectors.
func NewInsightGenerator(cfg config.AnalysisConfig, logger *logrus.Logger) *InsightGenerator {
	return &InsightGenerator{
		cfg:      cfg,
		logger:   logger,
		patterns: NewPatternDetector(logger),
		anomaly:  NewAnomalyDetector(logger),
	}
}

// GenerateReport runs pattern detection, anomaly detection, and summary
// statistics over one analysis batch and assembles the final report with
// ranked insights and recommendations.
func (g *InsightGenerator) GenerateReport(orders []models.OrderEvent, matches []models.MatchEvent, rows []models.WindowMetricsRow, findings []models.CorrelationFinding) *models.InsightReport {
	g.logger.Info("Generating comprehensive insight report")

	temporalPatterns := g.patterns.Detect(rows)
	anomalies := g.anomaly.Detect(orders, matches, rows)
	summary := g.GenerateSummaryStatistics(orders, matches, rows)

	qualityScore := g.overallDataQuality(orders, matches, rows)
	insights := g.keyInsights(temporalPatterns, summary, anomalies, findings)
	recommendations := g.recommendations(temporalPatterns, anomalies, qualityScore)

	report := &models.InsightReport{
		ID:                 uuid.New().String(),
		GeneratedAt:        time.Now().UTC(),
		Period:             analysisPeriod(orders, matches),
		DataQualityScore:   qualityScore,
		TotalMatches:       len(matches),
		TotalOrders:        len(orders),
		RealDataPercentage: realDataPercentage(orders, matches),
		TemporalPatterns:   temporalPatterns,
		Anomalies:          anomalies,
		SummaryStatistics:  summary,
		KeyInsights:        insights,
		Recommendations:    recommendations,
	}

	g.logger.WithFields(logrus.Fields{
		"patterns":  len(temporalPatterns),
		"anomalies": len(anomalies),
		"quality":   qualityScore,
	}).Info("Generated insight report")
	return report
}

// GenerateSummaryStatistics aggregates order, match, temporal, and data
// quality statistics for the report.
func (g *InsightGenerator) GenerateSummaryStatistics(orders []models.OrderEvent, matches []models.MatchEvent, rows []models.WindowMetricsRow) map[string]interface{} {
	g.logger.Info("Generating summary statistics")

	summary := map[string]interface{}{
		"generation_timestamp": time.Now().UTC().Format(time.RFC3339),
		"data_overview": map[string]interface{}{
			"total_orders":  len(orders),
			"total_matches": len(matches),
			"data_sources":  sourceSummary(orders, matches),
		},
	}

	if len(orders) > 0 {
		summary["order_statistics"] = orderStatistics(orders)
	}
	if len(matches) > 0 {
		summary["match_statistics"] = g.matchStatistics(matches)
	}
	if len(rows) > 0 {
		summary["temporal_statistics"] = temporalStatistics(rows)
	}
	summary["data_quality_metrics"] = map[string]interface{}{
		"real_data_percentage":   realDataPercentage(orders, matches),
		"data_completeness":      dataCompleteness(orders, matches, rows),
		"temporal_coverage":      temporalCoverage(orders, matches),
		"data_consistency_score": dataConsistency(orders, matches),
	}

	return summary
}

func orderStatistics(orders []models.OrderEvent) map[string]interface{} {
	totals := make([]float64, len(orders))
	revenue := decimal.Zero
	items := 0
	locations := make(map[string]int)
	hourCounts := make(map[int]int)
	categoryCounts := make(map[string]int)
	minTS, maxTS := orders[0].Timestamp, orders[0].Timestamp

	for i := range orders {
		order := &orders[i]
		totals[i] = order.TotalAmount.InexactFloat64()
		revenue = revenue.Add(order.TotalAmount)
		items += order.ItemCount
		locations[order.Location]++
		hourCounts[order.Timestamp.Hour()]++
		for _, tag := range order.CategoryTags {
			categoryCounts[tag]++
		}
		if order.Timestamp.Before(minTS) {
			minTS = order.Timestamp
		}
		if order.Timestamp.After(maxTS) {
			maxTS = order.Timestamp
		}
	}

	days := int(maxTS.Sub(minTS).Hours() / 24)
	if days < 1 {
		days = 1
	}

	return map[string]interface{}{
		"total_revenue":           revenue.InexactFloat64(),
		"average_order_value":     stats.Mean(totals),
		"median_order_value":      stats.Median(totals),
		"total_items":             items,
		"average_items_per_order": float64(items) / float64(len(orders)),
		"unique_locations":        len(locations),
		"most_popular_location":   modeKey(locations),
		"orders_per_day":          float64(len(orders)) / float64(days),
		"peak_order_hour":         modeHour(hourCounts),
		"category_distribution":   topCategories(categoryCounts, 10),
	}
}

func (g *InsightGenerator) matchStatistics(matches []models.MatchEvent) map[string]interface{} {
	totalGoals := 0
	highScoring := 0
	homeWins := 0
	draws := 0
	tournament := 0
	finals := 0
	scoreCounts := make(map[string]int)

	for i := range matches {
		m := &matches[i]
		totalGoals += m.TotalGoals()
		if m.TotalGoals() >= g.cfg.HighScoringGoals {
			highScoring++
		}
		if m.HomeScore > m.AwayScore {
			homeWins++
		}
		if m.HomeScore == m.AwayScore {
			draws++
		}
		switch m.Significance {
		case models.SignificanceTournament:
			tournament++
		case models.SignificanceFinal:
			finals++
		}
		scoreCounts[fmt.Sprintf("%d-%d", m.HomeScore, m.AwayScore)]++
	}

	n := float64(len(matches))
	return map[string]interface{}{
		"total_goals":             totalGoals,
		"average_goals_per_match": float64(totalGoals) / n,
		"high_scoring_matches":    highScoring,
		"home_win_rate":           float64(homeWins) / n * 100,
		"draw_rate":               float64(draws) / n * 100,
		"tournament_matches":      tournament,
		"final_matches":           finals,
		"most_common_score":       modeKey(scoreCounts),
		"team_performance":        teamPerformance(matches),
	}
}

func teamPerformance(matches []models.MatchEvent) map[string]interface{} {
	type record struct {
		wins, losses, draws, goalsFor int
	}
	teams := make(map[string]*record)
	get := func(name string) *record {
		if r, ok := teams[name]; ok {
			return r
		}
		r := &record{}
		teams[name] = r
		return r
	}

	for i := range matches {
		m := &matches[i]
		home := get(m.HomeTeam)
		away := get(m.AwayTeam)
		home.goalsFor += m.HomeScore
		away.goalsFor += m.AwayScore
		switch {
		case m.HomeScore > m.AwayScore:
			home.wins++
			away.losses++
		case m.HomeScore < m.AwayScore:
			away.wins++
			home.losses++
		default:
			home.draws++
			away.draws++
		}
	}

	bestTeam := ""
	bestWinRate := 0.0
	totalGoalsFor := 0
	for name, r := range teams {
		totalGoalsFor += r.goalsFor
		games := r.wins + r.losses + r.draws
		if games == 0 {
			continue
		}
		rate := float64(r.wins) / float64(games)
		if rate > bestWinRate || (rate == bestWinRate && (bestTeam == "" || name < bestTeam)) {
			bestWinRate = rate
			bestTeam = name
		}
	}

	avgGoals := 0.0
	if len(teams) > 0 {
		avgGoals = float64(totalGoalsFor) / float64(len(teams))
	}
	return map[string]interface{}{
		"total_teams":            len(teams),
		"best_performing_team":   bestTeam,
		"best_win_rate":          bestWinRate * 100,
		"average_goals_per_team": avgGoals,
	}
}

func temporalStatistics(rows []models.WindowMetricsRow) map[string]interface{} {
	windows := []string{models.WindowPreMatch, models.WindowDuringMatch, models.WindowPostMatch}
	statsMap := make(map[string]interface{})
	averages := make(map[string]float64)
	var volatilities []float64

	for _, window := range windows {
		counts := make([]float64, len(rows))
		volumes := make([]float64, len(rows))
		for i := range rows {
			m := rows[i].Window(window)
			counts[i] = float64(m.OrderCount)
			volumes[i] = m.TotalVolume.InexactFloat64()
		}
		mean := stats.Mean(counts)
		averages[window] = mean
		statsMap[window+"_avg_orders"] = mean
		statsMap[window+"_avg_volume"] = stats.Mean(volumes)
		if mean > 0 && len(counts) > 1 {
			volatilities = append(volatilities, stats.StdDev(counts)/mean)
		}
	}

	peak := "unknown"
	peakValue := -1.0
	for _, window := range windows {
		if averages[window] > peakValue {
			peakValue = averages[window]
			peak = window
		}
	}

	statsMap["highest_order_period"] = peak
	statsMap["order_volatility"] = stats.Mean(volatilities)
	return statsMap
}

// dataCompleteness scores presence of orders, matches, metrics, and temporal
// overlap at 25 points each.
func dataCompleteness(orders []models.OrderEvent, matches []models.MatchEvent, rows []models.WindowMetricsRow) float64 {
	score := 0.0
	if len(orders) > 0 {
		score += 25
	}
	if len(matches) > 0 {
		score += 25
	}
	if len(rows) > 0 {
		score += 25
	}
	if len(orders) > 0 && len(matches) > 0 {
		orderStart, orderEnd := timeRangeOrders(orders)
		matchStart, matchEnd := timeRangeMatches(matches)
		if !orderStart.After(matchEnd) && !matchStart.After(orderEnd) {
			score += 25
		}
	}
	return score
}

func temporalCoverage(orders []models.OrderEvent, matches []models.MatchEvent) map[string]interface{} {
	var timestamps []time.Time
	for i := range orders {
		timestamps = append(timestamps, orders[i].Timestamp)
	}
	for i := range matches {
		timestamps = append(timestamps, matches[i].Timestamp)
	}
	if len(timestamps) == 0 {
		return map[string]interface{}{"coverage_days": 0, "data_density": 0.0, "gaps": []string{}}
	}

	start, end := timestamps[0], timestamps[0]
	datesWithData := make(map[string]struct{})
	for _, ts := range timestamps {
		if ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
		datesWithData[ts.Format("2006-01-02")] = struct{}{}
	}

	coverageDays := int(end.Sub(start).Hours()/24) + 1
	var gaps []string
	day := start.Truncate(24 * time.Hour)
	for !day.After(end) {
		key := day.Format("2006-01-02")
		if _, ok := datesWithData[key]; !ok {
			gaps = append(gaps, key)
		}
		day = day.Add(24 * time.Hour)
	}
	sort.Strings(gaps)
	if len(gaps) > 10 {
		gaps = gaps[:10]
	}
	if gaps == nil {
		gaps = []string{}
	}

	return map[string]interface{}{
		"coverage_days": coverageDays,
		"data_density":  float64(len(timestamps)) / float64(coverageDays),
		"gaps":          gaps,
	}
}

// dataConsistency starts from a perfect score and deducts for validation
// failures and implausible value ranges.
func dataConsistency(orders []models.OrderEvent, matches []models.MatchEvent) float64 {
	score := 100.0

	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			score -= 10
			break
		}
	}
	for i := range matches {
		if err := matches[i].Validate(); err != nil {
			score -= 10
			break
		}
	}

	highTotal := false
	lowTotal := false
	for i := range orders {
		total := orders[i].TotalAmount.InexactFloat64()
		if total > 1000 {
			highTotal = true
		}
		if total < 5 {
			lowTotal = true
		}
	}
	if highTotal {
		score -= 5
	}
	if lowTotal {
		score -= 5
	}

	for i := range matches {
		if matches[i].TotalGoals() > 10 {
			score -= 5
			break
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

// overallDataQuality weights real data 40%, completeness 30%, consistency
// 30%, capped at 100.
func (g *InsightGenerator) overallDataQuality(orders []models.OrderEvent, matches []models.MatchEvent, rows []models.WindowMetricsRow) float64 {
	quality := realDataPercentage(orders, matches)*0.4 +
		dataCompleteness(orders, matches, rows)*0.3 +
		dataConsistency(orders, matches)*0.3
	if quality > 100 {
		return 100
	}
	return quality
}

func realDataPercentage(orders []models.OrderEvent, matches []models.MatchEvent) float64 {
	total := len(orders) + len(matches)
	if total == 0 {
		return 0
	}
	real := 0
	for i := range orders {
		if orders[i].Source == models.SourceReal {
			real++
		}
	}
	for i := range matches {
		if matches[i].Source == models.SourceReal {
			real++
		}
	}
	return float64(real) / float64(total) * 100
}

func sourceSummary(orders []models.OrderEvent, matches []models.MatchEvent) map[string]interface{} {
	orderReal, matchReal := 0, 0
	for i := range orders {
		if orders[i].Source == models.SourceReal {
			orderReal++
		}
	}
	for i := range matches {
		if matches[i].Source == models.SourceReal {
			matchReal++
		}
	}

	orderPct, matchPct := 0.0, 0.0
	if len(orders) > 0 {
		orderPct = float64(orderReal) / float64(len(orders)) * 100
	}
	if len(matches) > 0 {
		matchPct = float64(matchReal) / float64(len(matches)) * 100
	}

	return map[string]interface{}{
		"orders": map[string]interface{}{
			"real_count":      orderReal,
			"mock_count":      len(orders) - orderReal,
			"real_percentage": orderPct,
		},
		"matches": map[string]interface{}{
			"real_count":      matchReal,
			"mock_count":      len(matches) - matchReal,
			"real_percentage": matchPct,
		},
	}
}

// keyInsights derives up to 10 headline sentences in priority order.
func (g *InsightGenerator) keyInsights(patterns []models.TemporalPattern, summary map[string]interface{}, anomalies []models.AnomalyRecord, findings []models.CorrelationFinding) []string {
	insights := make([]string, 0)

	var strongestSpike *models.TemporalPattern
	for i := range patterns {
		if patterns[i].PatternType != models.PatternSpike {
			continue
		}
		if strongestSpike == nil || patterns[i].Magnitude > strongestSpike.Magnitude {
			strongestSpike = &patterns[i]
		}
	}
	if strongestSpike != nil {
		insights = append(insights, fmt.Sprintf("Strongest ordering spike detected in %s period with %.1f%% increase",
			strongestSpike.TimeWindow, strongestSpike.Magnitude))
	}

	var strongestSignificant *models.CorrelationFinding
	for i := range findings {
		if !findings[i].IsSignificant(g.cfg.SignificanceAlpha) {
			continue
		}
		if strongestSignificant == nil || absFloat(findings[i].Coefficient) > absFloat(strongestSignificant.Coefficient) {
			strongestSignificant = &findings[i]
		}
	}
	if strongestSignificant != nil {
		insights = append(insights, "Strongest significant correlation: "+strongestSignificant.Description)
	}

	if quality, ok := summary["data_quality_metrics"].(map[string]interface{}); ok {
		if realPct, ok := quality["real_data_percentage"].(float64); ok {
			if realPct > 70 {
				insights = append(insights, fmt.Sprintf("High data quality with %.1f%% real data", realPct))
			} else if realPct < 30 {
				insights = append(insights, fmt.Sprintf("Analysis primarily based on mock data (%.1f%% real data)", realPct))
			}
		}
	}

	severe := 0
	for i := range anomalies {
		if anomalies[i].Severity == models.SeverityHigh || anomalies[i].Severity == models.SeverityCritical {
			severe++
		}
	}
	if severe > 0 {
		insights = append(insights, fmt.Sprintf("Detected %d high-severity anomalies requiring attention", severe))
	}

	if temporal, ok := summary["temporal_statistics"].(map[string]interface{}); ok {
		if peak, ok := temporal["highest_order_period"].(string); ok && peak != "unknown" {
			insights = append(insights, fmt.Sprintf("Peak ordering occurs during %s period", strings.ReplaceAll(peak, "_", "-")))
		}
	}

	if len(insights) > 10 {
		insights = insights[:10]
	}
	return insights
}

// recommendations derives up to 8 actionable suggestions in priority order.
func (g *InsightGenerator) recommendations(patterns []models.TemporalPattern, anomalies []models.AnomalyRecord, qualityScore float64) []string {
	recommendations := make([]string, 0)

	if qualityScore < 50 {
		recommendations = append(recommendations, "Improve data collection to increase real data percentage for more reliable insights")
	}

	hasPostMatchSpike := false
	for i := range patterns {
		if patterns[i].TimeWindow == models.WindowPostMatch && patterns[i].PatternType == models.PatternSpike {
			hasPostMatchSpike = true
			break
		}
	}
	if hasPostMatchSpike {
		recommendations = append(recommendations, "Consider targeted marketing campaigns immediately after matches to capitalize on ordering spikes")
	}

	for i := range anomalies {
		if anomalies[i].Severity == models.SeverityHigh || anomalies[i].Severity == models.SeverityCritical {
			recommendations = append(recommendations, "Investigate high-severity anomalies to identify potential data quality issues or unusual business patterns")
			break
		}
	}

	recommendations = append(recommendations, "Continue monitoring correlation patterns to identify optimal timing for promotional activities")

	if len(patterns) > 5 {
		recommendations = append(recommendations, "Rich pattern data suggests implementing automated alert system for significant ordering changes")
	}

	if len(recommendations) > 8 {
		recommendations = recommendations[:8]
	}
	return recommendations
}

func analysisPeriod(orders []models.OrderEvent, matches []models.MatchEvent) models.AnalysisPeriod {
	var timestamps []time.Time
	for i := range orders {
		timestamps = append(timestamps, orders[i].Timestamp)
	}
	for i := range matches {
		timestamps = append(timestamps, matches[i].Timestamp)
	}
	if len(timestamps) == 0 {
		now := time.Now().UTC()
		return models.AnalysisPeriod{Start: now, End: now}
	}

	start, end := timestamps[0], timestamps[0]
	for _, ts := range timestamps {
		if ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
	}
	return models.AnalysisPeriod{Start: start, End: end}
}

func timeRangeOrders(orders []models.OrderEvent) (time.Time, time.Time) {
	start, end := orders[0].Timestamp, orders[0].Timestamp
	for i := range orders {
		if orders[i].Timestamp.Before(start) {
			start = orders[i].Timestamp
		}
		if orders[i].Timestamp.After(end) {
			end = orders[i].Timestamp
		}
	}
	return start, end
}

func timeRangeMatches(matches []models.MatchEvent) (time.Time, time.Time) {
	start, end := matches[0].Timestamp, matches[0].Timestamp
	for i := range matches {
		if matches[i].Timestamp.Before(start) {
			start = matches[i].Timestamp
		}
		if matches[i].Timestamp.After(end) {
			end = matches[i].Timestamp
		}
	}
	return start, end
}

func modeKey(counts map[string]int) string {
	best := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best
}

func modeHour(counts map[int]int) int {
	best := 0
	bestCount := -1
	for hour, count := range counts {
		if count > bestCount || (count == bestCount && hour < best) {
			best = hour
			bestCount = count
		}
	}
	return best
}

func topCategories(counts map[string]int, limit int) map[string]int {
	type kv struct {
		key   string
		count int
	}
	sorted := make([]kv, 0, len(counts))
	for key, count := range counts {
		sorted = append(sorted, kv{key, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].key < sorted[j].key
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	top := make(map[string]int, len(sorted))
	for _, entry := range sorted {
		top[entry.key] = entry.count
	}
	return top
}
