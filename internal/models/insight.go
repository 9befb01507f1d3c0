package models

import "time"

// Temporal pattern types.
const (
	PatternSpike  = "spike"
	PatternDip    = "dip"
	PatternStable = "stable"
	PatternTrend  = "trend"
)

// Anomaly types.
const (
	AnomalyOrderSpike     = "order_spike"
	AnomalyOrderDip       = "order_dip"
	AnomalyUnusualPattern = "unusual_pattern"
)

// Anomaly severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// TemporalPattern describes a spike, dip, or trend found in ordering behavior
// within or across match windows.
type TemporalPattern struct {
	ID              string             `json:"pattern_id"`
	TimeWindow      string             `json:"time_window"`
	PatternType     string             `json:"pattern_type"`
	Magnitude       float64            `json:"magnitude"`  // 0-100
	Confidence      float64            `json:"confidence"` // 0-1
	Description     string             `json:"description"`
	SourceBreakdown map[string]float64 `json:"data_source_breakdown"`
	SampleSize      int                `json:"sample_size"`
}

// AnomalyRecord flags a statistical outlier or otherwise unusual observation.
type AnomalyRecord struct {
	ID          string                 `json:"anomaly_id"`
	Timestamp   time.Time              `json:"timestamp"`
	AnomalyType string                 `json:"anomaly_type"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	Source      string                 `json:"data_source"`
	Confidence  float64                `json:"confidence_score"` // 0-1
	Context     map[string]interface{} `json:"context"`
}

// AnalysisPeriod is the time span covered by one analysis run.
type AnalysisPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// InsightReport is the aggregate result of one analysis run. It owns its
// patterns, anomalies, and summary statistics by value and is never mutated
// after construction.
type InsightReport struct {
	ID                 string                 `json:"report_id"`
	GeneratedAt        time.Time              `json:"generation_timestamp"`
	Period             AnalysisPeriod         `json:"analysis_period"`
	DataQualityScore   float64                `json:"data_quality_score"` // 0-100
	TotalMatches       int                    `json:"total_matches"`
	TotalOrders        int                    `json:"total_orders"`
	RealDataPercentage float64                `json:"real_data_percentage"`
	TemporalPatterns   []TemporalPattern      `json:"temporal_patterns"`
	Anomalies          []AnomalyRecord        `json:"anomalies"`
	SummaryStatistics  map[string]interface{} `json:"summary_statistics"`
	KeyInsights        []string               `json:"key_insights"`
	Recommendations    []string               `json:"recommendations"`
}
