package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/config"
	"github.com/ordersight/matchday/internal/models"
)

// SportsClient fetches finished match results from a football-data.org style
// API. Records parsed from the API carry real provenance; on missing
// credentials or any transport failure the client falls back to the mock
// generator when the configuration allows it.
type SportsClient struct {
	cfg       config.SportsAPIConfig
	collector config.CollectorConfig
	logger    *logrus.Logger
	client    *http.Client
}

// NewSportsClient creates a sports results client.
func NewSportsClient(cfg config.SportsAPIConfig, collector config.CollectorConfig, logger *logrus.Logger) *SportsClient {
	return &SportsClient{
		cfg:       cfg,
		collector: collector,
		logger:    logger,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

type apiMatchesResponse struct {
	Matches []apiMatch `json:"matches"`
}

type apiMatch struct {
	ID       int64   `json:"id"`
	UTCDate  string  `json:"utcDate"`
	Stage    string  `json:"stage"`
	HomeTeam apiTeam `json:"homeTeam"`
	AwayTeam apiTeam `json:"awayTeam"`
	Score    struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

type apiTeam struct {
	Name string `json:"name"`
}

// CollectMatches fetches finished matches in [start, end]. When the API is
// unreachable or returns nothing usable, it falls back to mock matches if
// configured to, otherwise returns the error.
func (c *SportsClient) CollectMatches(ctx context.Context, start, end time.Time) ([]models.MatchEvent, error) {
	c.logger.WithFields(logrus.Fields{
		"start":       start.Format("2006-01-02"),
		"end":         end.Format("2006-01-02"),
		"competition": c.cfg.Competition,
	}).Info("Collecting match results")

	if c.cfg.APIKey == "" {
		c.logger.Warn("Sports API key not configured, using mock matches")
		return c.fallback(start, end, nil)
	}

	matches, err := c.fetchMatches(ctx, start, end)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to collect real match results")
		return c.fallback(start, end, err)
	}
	if len(matches) == 0 {
		c.logger.Warn("No finished matches returned, using mock matches")
		return c.fallback(start, end, nil)
	}

	c.logger.WithField("matches", len(matches)).Info("Collected real match results")
	return matches, nil
}

func (c *SportsClient) fetchMatches(ctx context.Context, start, end time.Time) ([]models.MatchEvent, error) {
	endpoint := fmt.Sprintf("%s/competitions/%s/matches", c.cfg.BaseURL, c.cfg.Competition)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build matches request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.cfg.APIKey)

	query := url.Values{}
	query.Set("dateFrom", start.Format("2006-01-02"))
	query.Set("dateTo", end.Format("2006-01-02"))
	query.Set("status", "FINISHED")
	req.URL.RawQuery = query.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matches request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matches request returned status %d", resp.StatusCode)
	}

	var payload apiMatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode matches response: %w", err)
	}

	return c.parseMatches(payload), nil
}

// parseMatches converts API records, skipping entries that fail validation
// rather than aborting the batch.
func (c *SportsClient) parseMatches(payload apiMatchesResponse) []models.MatchEvent {
	matches := make([]models.MatchEvent, 0, len(payload.Matches))
	for i := range payload.Matches {
		m := &payload.Matches[i]
		if m.Score.FullTime.Home == nil || m.Score.FullTime.Away == nil {
			continue
		}

		kickoff, err := time.Parse(time.RFC3339, m.UTCDate)
		if err != nil {
			c.logger.WithError(err).WithField("match_id", m.ID).Warn("Skipping match with bad timestamp")
			continue
		}

		homeScore := *m.Score.FullTime.Home
		awayScore := *m.Score.FullTime.Away
		outcome := models.OutcomeDraw
		if homeScore > awayScore {
			outcome = models.OutcomeWin
		} else if homeScore < awayScore {
			outcome = models.OutcomeLoss
		}

		match, err := models.NewMatchEvent(
			strconv.FormatInt(m.ID, 10),
			kickoff,
			m.HomeTeam.Name,
			m.AwayTeam.Name,
			homeScore,
			awayScore,
			outcome,
			significanceFromStage(m.Stage),
			models.SourceReal,
		)
		if err != nil {
			c.logger.WithError(err).WithField("match_id", m.ID).Warn("Skipping invalid match record")
			continue
		}
		matches = append(matches, *match)
	}
	return matches
}

func significanceFromStage(stage string) string {
	switch {
	case stage == "FINAL":
		return models.SignificanceFinal
	case stage == "" || stage == "REGULAR_SEASON":
		return models.SignificanceRegular
	default:
		return models.SignificanceTournament
	}
}

func (c *SportsClient) fallback(start, end time.Time, cause error) ([]models.MatchEvent, error) {
	if !c.collector.FallbackToMock {
		if cause != nil {
			return nil, cause
		}
		return nil, fmt.Errorf("no match results available and mock fallback is disabled")
	}

	generator := NewMockGenerator(DefaultGeneratorConfig(start, end), c.logger)
	return generator.GenerateMatches(c.collector.MockMatchCount), nil
}
