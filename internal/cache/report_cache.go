package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/models"
)

// ReportCacheEntry wraps a cached report with caching metadata.
type ReportCacheEntry struct {
	Report    *models.InsightReport `json:"report"`
	CachedAt  time.Time             `json:"cached_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// ReportCacheStats tracks cache performance metrics.
type ReportCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisReportCache caches the latest insight report and the significant
// findings list in Redis so repeated API reads skip the database.
type RedisReportCache struct {
	redis  *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
	stats  *ReportCacheStats
	prefix string
}

const (
	latestReportKey        = "latest"
	significantFindingsKey = "significant_findings"
)

// NewRedisReportCache creates a Redis-backed report cache.
func NewRedisReportCache(redisClient *redis.Client, logger *logrus.Logger, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
		stats:  &ReportCacheStats{},
		prefix: "insight_report:",
	}
}

// GetLatest retrieves the cached latest report. A miss, a Redis error, or a
// corrupt entry all report a miss; the caller falls through to the database.
func (c *RedisReportCache) GetLatest(ctx context.Context) (*models.InsightReport, bool) {
	cacheKey := c.prefix + latestReportKey

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis error getting cached report")
		c.recordMiss()
		return nil, false
	}

	var entry ReportCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).Warn("Error deserializing cached report")
		c.recordMiss()
		return nil, false
	}
	if entry.Report == nil {
		c.recordMiss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return entry.Report, true
}

// SetLatest stores the latest report. Failures are logged and swallowed, the
// cache is an optimization only.
func (c *RedisReportCache) SetLatest(ctx context.Context, report *models.InsightReport) {
	cacheKey := c.prefix + latestReportKey

	now := time.Now()
	entry := ReportCacheEntry{
		Report:    report,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).Warn("Error serializing report for cache")
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis error setting cached report")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// GetSignificantFindings retrieves the cached significant findings list.
func (c *RedisReportCache) GetSignificantFindings(ctx context.Context) ([]models.CorrelationFinding, bool) {
	cacheKey := c.prefix + significantFindingsKey

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.recordMiss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis error getting cached findings")
		c.recordMiss()
		return nil, false
	}

	var findings []models.CorrelationFinding
	if err := json.Unmarshal([]byte(data), &findings); err != nil {
		c.logger.WithError(err).Warn("Error deserializing cached findings")
		c.recordMiss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return findings, true
}

// SetSignificantFindings stores the significant findings list.
func (c *RedisReportCache) SetSignificantFindings(ctx context.Context, findings []models.CorrelationFinding) {
	cacheKey := c.prefix + significantFindingsKey

	data, err := json.Marshal(findings)
	if err != nil {
		c.logger.WithError(err).Warn("Error serializing findings for cache")
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis error setting cached findings")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Invalidate drops the cached report and findings, typically after a new
// analysis run persists fresh results.
func (c *RedisReportCache) Invalidate(ctx context.Context) {
	keys := []string{c.prefix + latestReportKey, c.prefix + significantFindingsKey}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis error invalidating report cache")
	}
}

// GetStats returns a snapshot of the cache counters.
func (c *RedisReportCache) GetStats() ReportCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return ReportCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

func (c *RedisReportCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
