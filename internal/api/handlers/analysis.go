package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/services"
)

// analysisRunner triggers one full analysis run.
type analysisRunner interface {
	Run(ctx context.Context, now time.Time) (*services.AnalysisResult, error)
}

// reportReader reads persisted reports and findings.
type reportReader interface {
	GetLatestReport(ctx context.Context) (*models.InsightReport, error)
	GetReport(ctx context.Context, id string) (*models.InsightReport, error)
	ListSignificantFindings(ctx context.Context, alpha float64, limit int) ([]models.CorrelationFinding, error)
}

// reportCacheReader serves hot copies of the latest run.
type reportCacheReader interface {
	GetLatest(ctx context.Context) (*models.InsightReport, bool)
	GetSignificantFindings(ctx context.Context) ([]models.CorrelationFinding, bool)
}

// AnalysisHandler exposes analysis runs and their results over HTTP.
type AnalysisHandler struct {
	pipeline analysisRunner
	repo     reportReader
	cache    reportCacheReader
	alpha    float64
	logger   *logrus.Logger
}

// NewAnalysisHandler creates the handler. Cache may be nil; reads then go
// straight to the repository.
func NewAnalysisHandler(pipeline analysisRunner, repo reportReader, cache reportCacheReader, alpha float64, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline: pipeline,
		repo:     repo,
		cache:    cache,
		alpha:    alpha,
		logger:   logger,
	}
}

// RunAnalysis executes one analysis run and returns its full result.
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	result, err := h.pipeline.Run(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.WithError(err).Error("Analysis run failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis run failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatestReport serves the most recent report, preferring the cache.
func (h *AnalysisHandler) GetLatestReport(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if report, ok := h.cache.GetLatest(ctx); ok {
			c.JSON(http.StatusOK, report)
			return
		}
	}

	report, err := h.repo.GetLatestReport(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetReport serves one report by ID.
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.repo.GetReport(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("report_id", id).Error("Failed to load report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSignificantFindings lists persisted findings below the significance
// threshold, strongest first.
func (h *AnalysisHandler) GetSignificantFindings(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = parsed
	}

	if h.cache != nil && c.Query("limit") == "" {
		if findings, ok := h.cache.GetSignificantFindings(ctx); ok {
			c.JSON(http.StatusOK, gin.H{"findings": findings, "count": len(findings)})
			return
		}
	}

	findings, err := h.repo.ListSignificantFindings(ctx, h.alpha, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list significant findings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list findings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"findings": findings, "count": len(findings)})
}
