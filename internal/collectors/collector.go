package collectors

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
)

// DataCollector coordinates one collection run: match results from the
// sports API (or its mock fallback) and a mock order stream aligned to the
// collected matches.
type DataCollector struct {
	cfg    config.CollectorConfig
	sports *SportsClient
	logger *logrus.Logger
}

// NewDataCollector creates a data collector.
func NewDataCollector(cfg config.CollectorConfig, sports *SportsClient, logger *logrus.Logger) *DataCollector {
	return &DataCollector{
		cfg:    cfg,
		sports: sports,
		logger: logger,
	}
}

// Collect gathers matches and orders for the trailing analysis period ending
// at now.
func (d *DataCollector) Collect(ctx context.Context, now time.Time) ([]models.OrderEvent, []models.MatchEvent, error) {
	start := now.AddDate(0, 0, -d.cfg.MockPeriodDays)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(d.cfg.CollectionTimeout)*time.Second)
	defer cancel()

	matches, err := d.sports.CollectMatches(ctx, start, now)
	if err != nil {
		return nil, nil, err
	}

	genCfg := DefaultGeneratorConfig(start, now)
	genCfg.BaseOrdersPerDay = d.cfg.MockOrdersPerDay
	genCfg.MatchDayMultiplier = d.cfg.MatchDayBoost
	generator := NewMockGenerator(genCfg, d.logger)

	orders := generator.GenerateOrders()
	orders = generator.AlignOrders(orders, matches)

	d.logger.WithFields(logrus.Fields{
		"orders":  len(orders),
		"matches": len(matches),
	}).Info("Collection run complete")
	return orders, matches, nil
}
