package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ordersight/matchday/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// AnalysisRepository persists insight reports and correlation findings.
// Reports are stored whole as JSONB with the headline columns extracted for
// querying; findings get one row each so they can be filtered by p-value.
type AnalysisRepository struct {
	pool DatabasePool
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(pool DatabasePool) *AnalysisRepository {
	return &AnalysisRepository{
		pool: pool,
	}
}

// SaveReport stores one insight report.
func (r *AnalysisRepository) SaveReport(ctx context.Context, report *models.InsightReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal insight report: %w", err)
	}

	query := `
		INSERT INTO insight_reports (
			id, generated_at, period_start, period_end, data_quality_score,
			total_matches, total_orders, real_data_percentage, report
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		report.ID,
		report.GeneratedAt,
		report.Period.Start,
		report.Period.End,
		report.DataQualityScore,
		report.TotalMatches,
		report.TotalOrders,
		report.RealDataPercentage,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save insight report: %w", err)
	}

	return nil
}

// SaveFindings stores the correlation findings of one report. A report with
// no findings is a no-op.
func (r *AnalysisRepository) SaveFindings(ctx context.Context, reportID string, findings []models.CorrelationFinding) error {
	if len(findings) == 0 {
		return nil
	}

	query := `
		INSERT INTO correlation_findings (
			id, report_id, coefficient, p_value, time_window, description,
			data_quality, sample_size, analyzed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i := range findings {
		f := &findings[i]
		_, err := r.pool.Exec(ctx, query,
			f.ID,
			reportID,
			f.Coefficient,
			f.PValue,
			f.TimeWindow,
			f.Description,
			f.DataQuality,
			f.SampleSize,
			f.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to save correlation finding %s: %w", f.ID, err)
		}
	}

	return nil
}

// GetLatestReport returns the most recently generated report, or nil when no
// report has been stored yet.
func (r *AnalysisRepository) GetLatestReport(ctx context.Context) (*models.InsightReport, error) {
	query := `
		SELECT report
		FROM insight_reports
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest insight report: %w", err)
	}

	var report models.InsightReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insight report: %w", err)
	}

	return &report, nil
}

// GetReport returns one report by id, or nil when it does not exist.
func (r *AnalysisRepository) GetReport(ctx context.Context, id string) (*models.InsightReport, error) {
	query := `
		SELECT report
		FROM insight_reports
		WHERE id = $1
	`

	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get insight report %s: %w", id, err)
	}

	var report models.InsightReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insight report: %w", err)
	}

	return &report, nil
}

// ListSignificantFindings returns stored findings whose p-value clears alpha,
// strongest first.
func (r *AnalysisRepository) ListSignificantFindings(ctx context.Context, alpha float64, limit int) ([]models.CorrelationFinding, error) {
	query := `
		SELECT id, coefficient, p_value, time_window, description,
			data_quality, sample_size, analyzed_at
		FROM correlation_findings
		WHERE p_value < $1
		ORDER BY abs(coefficient) DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, alpha, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list significant findings: %w", err)
	}
	defer rows.Close()

	var findings []models.CorrelationFinding
	for rows.Next() {
		var f models.CorrelationFinding
		err := rows.Scan(
			&f.ID,
			&f.Coefficient,
			&f.PValue,
			&f.TimeWindow,
			&f.Description,
			&f.DataQuality,
			&f.SampleSize,
			&f.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correlation finding: %w", err)
		}
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating correlation findings: %w", err)
	}

	return findings, nil
}

// PruneReports deletes reports generated before the cutoff, cascading to
// their findings, and returns how many reports were removed.
func (r *AnalysisRepository) PruneReports(ctx context.Context, before time.Time) (int64, error) {
	findingsQuery := `
		DELETE FROM correlation_findings
		WHERE report_id IN (
			SELECT id FROM insight_reports WHERE generated_at < $1
		)
	`
	if _, err := r.pool.Exec(ctx, findingsQuery, before); err != nil {
		return 0, fmt.Errorf("failed to prune correlation findings: %w", err)
	}

	reportsQuery := `
		DELETE FROM insight_reports
		WHERE generated_at < $1
	`
	result, err := r.pool.Exec(ctx, reportsQuery, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune insight reports: %w", err)
	}

	return result.RowsAffected(), nil
}
