package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersight/matchday/internal/models"
)

func insightFixture() ([]models.OrderEvent, []models.MatchEvent) {
	base := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)

	var orders []models.OrderEvent
	var matches []models.MatchEvent
	scores := [][2]int{{2, 1}, {0, 0}, {1, 3}, {2, 2}, {4, 0}}
	for i, score := range scores {
		kickoff := base.AddDate(0, 0, i)
		matches = append(matches, testMatch(ids("m", i), kickoff, score[0], score[1], models.SignificanceRegular, models.SourceMock))
		for j := 0; j < 4; j++ {
			orders = append(orders, testOrder(ids("o", i*4+j), kickoff.Add(time.Duration(j-1)*time.Hour), "north", 25, models.SourceMock))
		}
	}
	return orders, matches
}

func TestGenerateReport(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())
	analyzer := NewCorrelationAnalyzer(testAnalysisConfig(), newTestLogger())

	orders, matches := insightFixture()
	rows := analyzer.CalculateMatchWindowMetrics(matches, orders)
	findings := analyzer.CalculateCorrelations(rows)

	report := generator.GenerateReport(orders, matches, rows, findings)
	require.NotNil(t, report)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, len(matches), report.TotalMatches)
	assert.Equal(t, len(orders), report.TotalOrders)
	assert.Equal(t, 0.0, report.RealDataPercentage)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.False(t, report.Period.Start.After(report.Period.End))

	assert.LessOrEqual(t, len(report.KeyInsights), 10)
	assert.LessOrEqual(t, len(report.Recommendations), 8)
	assert.GreaterOrEqual(t, report.DataQualityScore, 0.0)
	assert.LessOrEqual(t, report.DataQualityScore, 100.0)

	// All-mock input always yields the mock-data insight.
	assert.Contains(t, report.KeyInsights, "Analysis primarily based on mock data (0.0% real data)")
	// The standing monitoring recommendation is always present.
	assert.Contains(t, report.Recommendations, "Continue monitoring correlation patterns to identify optimal timing for promotional activities")
}

func TestGenerateReport_EmptyInput(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())

	report := generator.GenerateReport(nil, nil, nil, nil)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TotalMatches)
	assert.Equal(t, 0, report.TotalOrders)
	assert.Empty(t, report.TemporalPatterns)
	assert.Empty(t, report.Anomalies)
	// No data at all scores zero on the real-data and completeness components.
	assert.InDelta(t, 30.0, report.DataQualityScore, 1e-9)
}

func TestGenerateSummaryStatistics(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())
	analyzer := NewCorrelationAnalyzer(testAnalysisConfig(), newTestLogger())

	orders, matches := insightFixture()
	rows := analyzer.CalculateMatchWindowMetrics(matches, orders)

	summary := generator.GenerateSummaryStatistics(orders, matches, rows)

	overview := summary["data_overview"].(map[string]interface{})
	assert.Equal(t, len(orders), overview["total_orders"])
	assert.Equal(t, len(matches), overview["total_matches"])

	orderStats := summary["order_statistics"].(map[string]interface{})
	assert.Equal(t, 25.0, orderStats["average_order_value"])
	assert.Equal(t, 25.0, orderStats["median_order_value"])
	assert.Equal(t, 500.0, orderStats["total_revenue"])
	assert.Equal(t, "north", orderStats["most_popular_location"])
	assert.Equal(t, 1, orderStats["unique_locations"])
	assert.Equal(t, map[string]int{"margherita": 20}, orderStats["category_distribution"])

	matchStats := summary["match_statistics"].(map[string]interface{})
	assert.Equal(t, 15, matchStats["total_goals"])
	assert.Equal(t, 3.0, matchStats["average_goals_per_match"])
	assert.Equal(t, 3, matchStats["high_scoring_matches"])
	assert.Equal(t, 40.0, matchStats["home_win_rate"])
	assert.Equal(t, 40.0, matchStats["draw_rate"])

	teamStats := matchStats["team_performance"].(map[string]interface{})
	assert.Equal(t, 2, teamStats["total_teams"])

	temporal := summary["temporal_statistics"].(map[string]interface{})
	assert.Contains(t, temporal, "highest_order_period")
	assert.Contains(t, temporal, "order_volatility")

	quality := summary["data_quality_metrics"].(map[string]interface{})
	assert.Equal(t, 0.0, quality["real_data_percentage"])
	assert.Equal(t, 100.0, quality["data_completeness"])
}

func TestDataCompleteness(t *testing.T) {
	orders, matches := insightFixture()
	analyzer := NewCorrelationAnalyzer(testAnalysisConfig(), newTestLogger())
	rows := analyzer.CalculateMatchWindowMetrics(matches, orders)

	assert.Equal(t, 100.0, dataCompleteness(orders, matches, rows))
	assert.Equal(t, 0.0, dataCompleteness(nil, nil, nil))
	assert.Equal(t, 25.0, dataCompleteness(orders, nil, nil))
	// Orders and matches present but no metrics and no temporal overlap.
	farOrders := []models.OrderEvent{testOrder("o1", matches[0].Timestamp.AddDate(1, 0, 0), "north", 25, models.SourceMock)}
	assert.Equal(t, 50.0, dataCompleteness(farOrders, matches, nil))
}

func TestDataConsistency(t *testing.T) {
	orders, matches := insightFixture()
	assert.Equal(t, 100.0, dataConsistency(orders, matches))

	// An implausibly large order total costs five points.
	spiked := append([]models.OrderEvent{}, orders...)
	spiked = append(spiked, testOrder("big", orders[0].Timestamp, "north", 5000, models.SourceMock))
	assert.Equal(t, 95.0, dataConsistency(spiked, matches))

	// An invalid order costs ten.
	broken := append([]models.OrderEvent{}, orders...)
	broken[0].ID = ""
	assert.Equal(t, 90.0, dataConsistency(broken, matches))
}

func TestOverallDataQuality_AllMock(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())
	analyzer := NewCorrelationAnalyzer(testAnalysisConfig(), newTestLogger())

	orders, matches := insightFixture()
	rows := analyzer.CalculateMatchWindowMetrics(matches, orders)

	// 0% real data, full completeness, full consistency: 0*0.4 + 100*0.3 + 100*0.3.
	assert.InDelta(t, 60.0, generator.overallDataQuality(orders, matches, rows), 1e-9)
}

func TestRealDataPercentage(t *testing.T) {
	base := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	orders := []models.OrderEvent{
		testOrder("o1", base, "north", 25, models.SourceReal),
		testOrder("o2", base, "north", 25, models.SourceMock),
	}
	matches := []models.MatchEvent{
		testMatch("m1", base, 1, 0, models.SignificanceRegular, models.SourceReal),
		testMatch("m2", base, 1, 0, models.SignificanceRegular, models.SourceMock),
	}

	assert.Equal(t, 50.0, realDataPercentage(orders, matches))
	assert.Equal(t, 0.0, realDataPercentage(nil, nil))
}

func TestKeyInsights_Priorities(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())

	patterns := []models.TemporalPattern{
		{PatternType: models.PatternSpike, TimeWindow: models.WindowPostMatch, Magnitude: 45.5},
		{PatternType: models.PatternSpike, TimeWindow: models.WindowPreMatch, Magnitude: 80.0},
		{PatternType: models.PatternTrend, TimeWindow: models.WindowPostMatch, Magnitude: 99.0},
	}
	findings := []models.CorrelationFinding{
		{Coefficient: 0.5, PValue: 0.01, Description: "moderate link"},
		{Coefficient: -0.8, PValue: 0.02, Description: "strong inverse link"},
		{Coefficient: 0.95, PValue: 0.50, Description: "not significant link"},
	}
	anomalies := []models.AnomalyRecord{
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityLow},
		{Severity: models.SeverityCritical},
	}
	summary := map[string]interface{}{
		"data_quality_metrics": map[string]interface{}{"real_data_percentage": 85.0},
		"temporal_statistics":  map[string]interface{}{"highest_order_period": models.WindowPostMatch},
	}

	insights := generator.keyInsights(patterns, summary, anomalies, findings)
	require.Len(t, insights, 5)

	assert.Equal(t, "Strongest ordering spike detected in pre_match period with 80.0% increase", insights[0])
	assert.Equal(t, "Strongest significant correlation: strong inverse link", insights[1])
	assert.Equal(t, "High data quality with 85.0% real data", insights[2])
	assert.Equal(t, "Detected 2 high-severity anomalies requiring attention", insights[3])
	assert.Equal(t, "Peak ordering occurs during post-match period", insights[4])
}

func TestRecommendations(t *testing.T) {
	generator := NewInsightGenerator(testAnalysisConfig(), newTestLogger())

	patterns := []models.TemporalPattern{
		{PatternType: models.PatternSpike, TimeWindow: models.WindowPostMatch},
		{PatternType: models.PatternSpike, TimeWindow: models.WindowPreMatch},
		{PatternType: models.PatternTrend, TimeWindow: models.WindowDuringMatch},
		{PatternType: models.PatternDip, TimeWindow: models.WindowPreMatch},
		{PatternType: models.PatternSpike, TimeWindow: models.WindowPostMatch},
		{PatternType: models.PatternTrend, TimeWindow: models.WindowPostMatch},
	}
	anomalies := []models.AnomalyRecord{{Severity: models.SeverityHigh}}

	recommendations := generator.recommendations(patterns, anomalies, 40)
	require.Len(t, recommendations, 5)
	assert.Equal(t, "Improve data collection to increase real data percentage for more reliable insights", recommendations[0])
	assert.Contains(t, recommendations[1], "targeted marketing campaigns")
	assert.Contains(t, recommendations[2], "high-severity anomalies")
	assert.Contains(t, recommendations[3], "Continue monitoring")
	assert.Contains(t, recommendations[4], "automated alert system")

	quiet := generator.recommendations(nil, nil, 90)
	require.Len(t, quiet, 1)
	assert.Contains(t, quiet[0], "Continue monitoring")
}

func TestModeHelpers(t *testing.T) {
	assert.Equal(t, "b", modeKey(map[string]int{"a": 1, "b": 3, "c": 2}))
	// Ties break toward the lexicographically smaller key.
	assert.Equal(t, "a", modeKey(map[string]int{"b": 2, "a": 2}))
	assert.Equal(t, 18, modeHour(map[int]int{18: 5, 20: 3}))
	assert.Equal(t, 18, modeHour(map[int]int{20: 5, 18: 5}))

	top := topCategories(map[string]int{"a": 5, "b": 4, "c": 3}, 2)
	assert.Equal(t, map[string]int{"a": 5, "b": 4}, top)
}
