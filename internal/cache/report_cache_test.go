package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordersight/matchday/internal/models"
)

// setupTestRedis creates a test Redis instance using miniredis
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	cleanup := func() {
		client.Close()
		s.Close()
	}

	return client, cleanup
}

func testCacheLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func cachedReport() *models.InsightReport {
	return &models.InsightReport{
		ID:               "rep-1",
		GeneratedAt:      time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC),
		DataQualityScore: 72.5,
		TotalMatches:     20,
		TotalOrders:      500,
		KeyInsights:      []string{"Peak ordering occurs during post-match period"},
	}
}

func TestNewRedisReportCache(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ttl := 5 * time.Minute
	cache := NewRedisReportCache(client, testCacheLogger(), ttl)

	assert.NotNil(t, cache)
	assert.Equal(t, client, cache.redis)
	assert.Equal(t, ttl, cache.ttl)
	assert.Equal(t, "insight_report:", cache.prefix)
}

func TestRedisReportCache_SetAndGetLatest(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)
	ctx := context.Background()
	report := cachedReport()

	cache.SetLatest(ctx, report)

	got, found := cache.GetLatest(ctx)
	require.True(t, found)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.TotalOrders, got.TotalOrders)
	assert.Equal(t, report.KeyInsights, got.KeyInsights)

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestRedisReportCache_GetLatest_Miss(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)

	got, found := cache.GetLatest(context.Background())
	assert.False(t, found)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), cache.GetStats().Misses)
}

func TestRedisReportCache_GetLatest_Corrupt(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "insight_report:latest", "not json", time.Minute).Err())

	got, found := cache.GetLatest(ctx)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRedisReportCache_Findings(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)
	ctx := context.Background()
	now := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)

	findings := []models.CorrelationFinding{
		{ID: "f-1", Coefficient: 0.8, PValue: 0.01, TimeWindow: models.WindowPostMatch, Description: "SIGNIFICANT: strong link", DataQuality: 40, Timestamp: now},
	}

	_, found := cache.GetSignificantFindings(ctx)
	assert.False(t, found)

	cache.SetSignificantFindings(ctx, findings)

	got, found := cache.GetSignificantFindings(ctx)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "f-1", got[0].ID)
	assert.Equal(t, 0.8, got[0].Coefficient)
}

func TestRedisReportCache_Invalidate(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)
	ctx := context.Background()

	cache.SetLatest(ctx, cachedReport())
	cache.SetSignificantFindings(ctx, []models.CorrelationFinding{{ID: "f-1"}})

	cache.Invalidate(ctx)

	_, found := cache.GetLatest(ctx)
	assert.False(t, found)
	_, found = cache.GetSignificantFindings(ctx)
	assert.False(t, found)
}

func TestRedisReportCache_RedisDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	cache := NewRedisReportCache(client, testCacheLogger(), 5*time.Minute)
	ctx := context.Background()
	s.Close()

	got, found := cache.GetLatest(ctx)
	assert.False(t, found)
	assert.Nil(t, got)

	// Writes are best-effort and never panic.
	cache.SetLatest(ctx, cachedReport())
}
