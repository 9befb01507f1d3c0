package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersight/matchday/internal/models"
	"github.com/ordersight/matchday/internal/services"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRouter(h *AnalysisHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/analysis/run", h.RunAnalysis)
	router.GET("/api/v1/analysis/report", h.GetLatestReport)
	router.GET("/api/v1/analysis/reports/:id", h.GetReport)
	router.GET("/api/v1/analysis/significant-findings", h.GetSignificantFindings)
	return router
}

type fakeRunner struct {
	result *services.AnalysisResult
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, now time.Time) (*services.AnalysisResult, error) {
	return r.result, r.err
}

type fakeRepo struct {
	latest    *models.InsightReport
	byID      map[string]*models.InsightReport
	findings  []models.CorrelationFinding
	err       error
	gotAlpha  float64
	gotLimit  int
	gotLookup string
}

func (r *fakeRepo) GetLatestReport(ctx context.Context) (*models.InsightReport, error) {
	return r.latest, r.err
}

func (r *fakeRepo) GetReport(ctx context.Context, id string) (*models.InsightReport, error) {
	r.gotLookup = id
	return r.byID[id], r.err
}

func (r *fakeRepo) ListSignificantFindings(ctx context.Context, alpha float64, limit int) ([]models.CorrelationFinding, error) {
	r.gotAlpha = alpha
	r.gotLimit = limit
	return r.findings, r.err
}

type fakeCache struct {
	latest   *models.InsightReport
	findings []models.CorrelationFinding
}

func (c *fakeCache) GetLatest(ctx context.Context) (*models.InsightReport, bool) {
	return c.latest, c.latest != nil
}

func (c *fakeCache) GetSignificantFindings(ctx context.Context) ([]models.CorrelationFinding, bool) {
	return c.findings, c.findings != nil
}

func testReport(id string) *models.InsightReport {
	return &models.InsightReport{
		ID:           id,
		GeneratedAt:  time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC),
		TotalMatches: 12,
		TotalOrders:  800,
	}
}

func TestRunAnalysis(t *testing.T) {
	runner := &fakeRunner{result: &services.AnalysisResult{Report: testReport("rep-1")}}
	h := NewAnalysisHandler(runner, &fakeRepo{}, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rep-1")
}

func TestRunAnalysis_Failure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("sports api down")}
	h := NewAnalysisHandler(runner, &fakeRepo{}, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetLatestReport_CacheHit(t *testing.T) {
	cache := &fakeCache{latest: testReport("cached")}
	repo := &fakeRepo{latest: testReport("persisted")}
	h := NewAnalysisHandler(&fakeRunner{}, repo, cache, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cached")
}

func TestGetLatestReport_FallsBackToRepo(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeRepo{latest: testReport("persisted")}, &fakeCache{}, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "persisted")
}

func TestGetLatestReport_NotFound(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeRepo{}, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLatestReport_RepoError(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeRepo{err: errors.New("db down")}, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetReport(t *testing.T) {
	repo := &fakeRepo{byID: map[string]*models.InsightReport{"rep-9": testReport("rep-9")}}
	h := NewAnalysisHandler(&fakeRunner{}, repo, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/reports/rep-9", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rep-9", repo.gotLookup)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/analysis/reports/missing", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSignificantFindings(t *testing.T) {
	repo := &fakeRepo{findings: []models.CorrelationFinding{{ID: "f-1"}, {ID: "f-2"}}}
	h := NewAnalysisHandler(&fakeRunner{}, repo, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/significant-findings", nil)
	testRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.05, repo.gotAlpha)
	assert.Equal(t, 20, repo.gotLimit)
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestGetSignificantFindings_Limit(t *testing.T) {
	repo := &fakeRepo{}
	h := NewAnalysisHandler(&fakeRunner{}, repo, nil, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/significant-findings?limit=5", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, repo.gotLimit)

	for _, bad := range []string{"0", "101", "abc"} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/v1/analysis/significant-findings?limit="+bad, nil)
		testRouter(h).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
}

func TestGetSignificantFindings_CacheHit(t *testing.T) {
	cache := &fakeCache{findings: []models.CorrelationFinding{{ID: "cached-f"}}}
	repo := &fakeRepo{gotLimit: -1}
	h := NewAnalysisHandler(&fakeRunner{}, repo, cache, 0.05, newTestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/significant-findings", nil)
	testRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cached-f")
	// The repository is bypassed on a cache hit.
	assert.Equal(t, -1, repo.gotLimit)
}
