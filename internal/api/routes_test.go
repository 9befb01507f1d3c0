package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/ordersight/matchday/internal/api/handlers"
	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/services"
)

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, now time.Time) (*services.AnalysisResult, error) {
	return &services.AnalysisResult{Report: &models.InsightReport{ID: "rep-1"}}, nil
}

type stubRepo struct{}

func (stubRepo) GetLatestReport(ctx context.Context) (*models.InsightReport, error) {
	return &models.InsightReport{ID: "rep-1"}, nil
}

func (stubRepo) GetReport(ctx context.Context, id string) (*models.InsightReport, error) {
	return &models.InsightReport{ID: id}, nil
}

func (stubRepo) ListSignificantFindings(ctx context.Context, alpha float64, limit int) ([]models.CorrelationFinding, error) {
	return nil, nil
}

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	health := handlers.NewHealthHandler(nil, nil, nil, "test")
	analysis := handlers.NewAnalysisHandler(stubRunner{}, stubRepo{}, nil, 0.05, logger)
	SetupRoutes(router, health, analysis)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/v1/analysis/run", http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/report", http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/reports/rep-2", http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/significant-findings", http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/unknown", http.StatusNotFound},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}
