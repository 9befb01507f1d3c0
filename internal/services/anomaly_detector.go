package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/stats"
)

// AnomalyDetector flags statistical outliers in order values, unusual
// zero-order windows, counter-intuitive correlations, and divergence between
// real and mock data. Each sub-detector is best-effort: a failure is logged
// and the sweep continues.
type AnomalyDetector struct {
	logger *logrus.Logger
}

// NewAnomalyDetector creates an anomaly detector.
func NewAnomalyDetector(logger *logrus.Logger) *AnomalyDetector {
	return &AnomalyDetector{logger: logger}
}

// Detect runs all anomaly sub-detectors and returns the combined records.
func (d *AnomalyDetector) Detect(orders []models.OrderEvent, matches []models.MatchEvent, rows []models.WindowMetricsRow) []models.AnomalyRecord {
	d.logger.WithFields(logrus.Fields{
		"orders":  len(orders),
		"matches": len(matches),
		"rows":    len(rows),
	}).Info("Detecting anomalies")

	anomalies := make([]models.AnomalyRecord, 0)
	anomalies = append(anomalies, d.detectOrderValueOutliers(orders)...)
	anomalies = append(anomalies, d.detectZeroOrderWindows(rows)...)
	anomalies = append(anomalies, d.detectCorrelationAnomalies(rows)...)
	anomalies = append(anomalies, d.detectSourceInconsistencies(orders)...)

	d.logger.WithField("anomalies", len(anomalies)).Info("Detected anomalies")
	return anomalies
}

// detectOrderValueOutliers flags order totals beyond a 3xIQR fence. The
// fence is deliberately wide to keep the detector conservative.
func (d *AnomalyDetector) detectOrderValueOutliers(orders []models.OrderEvent) []models.AnomalyRecord {
	if len(orders) == 0 {
		return nil
	}

	totals := make([]float64, len(orders))
	for i := range orders {
		totals[i] = orders[i].TotalAmount.InexactFloat64()
	}

	q1 := stats.Quantile(totals, 0.25)
	q3 := stats.Quantile(totals, 0.75)
	iqr := q3 - q1
	lower := q1 - 3*iqr
	upper := q3 + 3*iqr

	var anomalies []models.AnomalyRecord
	for i := range orders {
		order := &orders[i]
		total := totals[i]
		if total >= lower && total <= upper {
			continue
		}

		anomalyType := models.AnomalyOrderDip
		severity := models.SeverityMedium
		if total > upper {
			anomalyType = models.AnomalyOrderSpike
			severity = models.SeverityHigh
		}

		anomalies = append(anomalies, models.AnomalyRecord{
			ID:          uuid.New().String(),
			Timestamp:   order.Timestamp,
			AnomalyType: anomalyType,
			Severity:    severity,
			Description: fmt.Sprintf("Unusual order value: $%.2f (normal range: $%.2f-$%.2f)", total, lower, upper),
			Source:      order.Source,
			Confidence:  0.8,
			Context: map[string]interface{}{
				"order_id":       order.ID,
				"location":       order.Location,
				"expected_range": fmt.Sprintf("$%.2f-$%.2f", lower, upper),
			},
		})
	}
	return anomalies
}

// detectZeroOrderWindows flags a window when more than 10% of matches saw no
// orders in it.
func (d *AnomalyDetector) detectZeroOrderWindows(rows []models.WindowMetricsRow) []models.AnomalyRecord {
	if len(rows) == 0 {
		return nil
	}

	var anomalies []models.AnomalyRecord
	for _, window := range []string{models.WindowPreMatch, models.WindowDuringMatch, models.WindowPostMatch} {
		zero := 0
		for i := range rows {
			if rows[i].Window(window).OrderCount == 0 {
				zero++
			}
		}
		if float64(zero) <= float64(len(rows))*0.1 {
			continue
		}

		anomalies = append(anomalies, models.AnomalyRecord{
			ID:          uuid.New().String(),
			Timestamp:   time.Now().UTC(),
			AnomalyType: models.AnomalyUnusualPattern,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("Unusually high number of zero-order %s periods (%d out of %d)", window, zero, len(rows)),
			Source:      models.SourceMixed,
			Confidence:  0.7,
			Context: map[string]interface{}{
				"period":        window,
				"zero_count":    zero,
				"total_periods": len(rows),
				"percentage":    float64(zero) / float64(len(rows)) * 100,
			},
		})
	}
	return anomalies
}

// detectCorrelationAnomalies flags a significant negative relationship
// between match excitement and post-match ordering, which runs against the
// expected celebration effect.
func (d *AnomalyDetector) detectCorrelationAnomalies(rows []models.WindowMetricsRow) []models.AnomalyRecord {
	if len(rows) < 5 {
		return nil
	}

	goals := make([]float64, len(rows))
	postCounts := make([]float64, len(rows))
	for i := range rows {
		goals[i] = float64(rows[i].TotalGoals)
		postCounts[i] = float64(rows[i].PostMatch.OrderCount)
	}

	r, p, err := stats.Pearson(goals, postCounts)
	if err != nil {
		d.logger.WithError(err).Warn("Skipping correlation anomaly check")
		return nil
	}
	if r >= -0.3 || p >= 0.05 {
		return nil
	}

	return []models.AnomalyRecord{{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		AnomalyType: models.AnomalyUnusualPattern,
		Severity:    models.SeverityHigh,
		Description: fmt.Sprintf("Unusual negative correlation between match excitement and post-match orders (r=%.3f)", r),
		Source:      models.SourceMixed,
		Confidence:  1 - p,
		Context: map[string]interface{}{
			"correlation_coefficient": r,
			"p_value":                 p,
			"sample_size":             len(rows),
		},
	}}
}

// detectSourceInconsistencies compares mean order totals of real and mock
// provenance; a divergence above 50% of the larger mean suggests the mock
// generator has drifted from observed behavior.
func (d *AnomalyDetector) detectSourceInconsistencies(orders []models.OrderEvent) []models.AnomalyRecord {
	var realTotals, mockTotals []float64
	for i := range orders {
		total := orders[i].TotalAmount.InexactFloat64()
		switch orders[i].Source {
		case models.SourceReal:
			realTotals = append(realTotals, total)
		case models.SourceMock:
			mockTotals = append(mockTotals, total)
		}
	}
	if len(realTotals) == 0 || len(mockTotals) == 0 {
		return nil
	}

	realAvg := stats.Mean(realTotals)
	mockAvg := stats.Mean(mockTotals)
	larger := realAvg
	if mockAvg > larger {
		larger = mockAvg
	}
	if larger <= 0 || absFloat(realAvg-mockAvg)/larger <= 0.5 {
		return nil
	}

	return []models.AnomalyRecord{{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		AnomalyType: models.AnomalyUnusualPattern,
		Severity:    models.SeverityMedium,
		Description: fmt.Sprintf("Significant difference between real and mock order averages ($%.2f vs $%.2f)", realAvg, mockAvg),
		Source:      models.SourceMixed,
		Confidence:  0.8,
		Context: map[string]interface{}{
			"real_average": realAvg,
			"mock_average": mockAvg,
			"real_count":   len(realTotals),
			"mock_count":   len(mockTotals),
		},
	}}
}
