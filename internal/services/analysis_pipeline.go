package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
)

// eventSource supplies one batch of orders and matches for analysis.
type eventSource interface {
	Collect(ctx context.Context, now time.Time) ([]models.OrderEvent, []models.MatchEvent, error)
}

// reportStore persists a finished report and its findings.
type reportStore interface {
	SaveReport(ctx context.Context, report *models.InsightReport) error
	SaveFindings(ctx context.Context, reportID string, findings []models.CorrelationFinding) error
}

// reportCache keeps the latest report and significant findings hot.
type reportCache interface {
	SetLatest(ctx context.Context, report *models.InsightReport)
	SetSignificantFindings(ctx context.Context, findings []models.CorrelationFinding)
}

// digestNotifier delivers a digest of a finished run.
type digestNotifier interface {
	SendReportDigest(ctx context.Context, report *models.InsightReport, significant []models.CorrelationFinding) error
}

// AnalysisPipeline runs one end to end analysis: collect events, compute
// window metrics and correlations, classify matches, assemble the report,
// then persist, cache, and announce it. Persistence, caching, and
// notification are best effort; a failure there does not void the report.
type AnalysisPipeline struct {
	cfg        config.AnalysisConfig
	logger     *logrus.Logger
	source     eventSource
	analyzer   *CorrelationAnalyzer
	classifier *EventClassifier
	generator  *InsightGenerator
	monitor    *ResourceMonitor
	store      reportStore
	cache      reportCache
	notifier   digestNotifier
}

// AnalysisResult bundles everything one pipeline run produced.
type AnalysisResult struct {
	Report          *models.InsightReport        `json:"report"`
	Findings        []models.CorrelationFinding  `json:"findings"`
	Significant     []models.CorrelationFinding  `json:"significant_findings"`
	Classifications []models.MatchClassification `json:"classifications"`
	Duration        time.Duration                `json:"-"`
}

// NewAnalysisPipeline wires the pipeline. Store, cache, notifier, and
// monitor may be nil; the corresponding stage is skipped.
func NewAnalysisPipeline(
	cfg config.AnalysisConfig,
	logger *logrus.Logger,
	source eventSource,
	monitor *ResourceMonitor,
	store reportStore,
	cache reportCache,
	notifier digestNotifier,
) *AnalysisPipeline {
	return &AnalysisPipeline{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		analyzer:   NewCorrelationAnalyzer(cfg, logger),
		classifier: NewEventClassifier(logger),
		generator:  NewInsightGenerator(cfg, logger),
		monitor:    monitor,
		store:      store,
		cache:      cache,
		notifier:   notifier,
	}
}

// Run executes one full analysis for the period ending at now.
func (p *AnalysisPipeline) Run(ctx context.Context, now time.Time) (*AnalysisResult, error) {
	started := time.Now()

	if p.monitor != nil {
		if _, err := p.monitor.Sample(ctx); err != nil {
			p.logger.WithError(err).Warn("Resource sampling failed, continuing")
		}
	}

	orders, matches, err := p.source.Collect(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("collection failed: %w", err)
	}

	rows := p.analyzer.CalculateMatchWindowMetrics(matches, orders)
	findings := p.analyzer.CalculateCorrelations(rows)
	significant := p.analyzer.DetectSignificant(findings, p.cfg.SignificanceAlpha)
	classifications := p.classifier.Classify(matches)

	report := p.generator.GenerateReport(orders, matches, rows, findings)

	p.persist(ctx, report, findings)
	if p.cache != nil {
		p.cache.SetLatest(ctx, report)
		p.cache.SetSignificantFindings(ctx, significant)
	}
	p.notify(ctx, report, significant)

	result := &AnalysisResult{
		Report:          report,
		Findings:        findings,
		Significant:     significant,
		Classifications: classifications,
		Duration:        time.Since(started),
	}

	p.logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"findings":    len(findings),
		"significant": len(significant),
		"duration":    result.Duration,
	}).Info("Analysis run complete")
	return result, nil
}

func (p *AnalysisPipeline) persist(ctx context.Context, report *models.InsightReport, findings []models.CorrelationFinding) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveReport(ctx, report); err != nil {
		p.logger.WithError(err).Warn("Failed to persist report")
		return
	}
	if err := p.store.SaveFindings(ctx, report.ID, findings); err != nil {
		p.logger.WithError(err).Warn("Failed to persist correlation findings")
	}
}

func (p *AnalysisPipeline) notify(ctx context.Context, report *models.InsightReport, significant []models.CorrelationFinding) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.SendReportDigest(ctx, report, significant); err != nil {
		p.logger.WithError(err).Warn("Failed to send report digest")
	}
}
