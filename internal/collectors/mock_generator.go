package collectors

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ordersight/matchday/internal/models"
)

// GeneratorConfig holds tuning parameters for mock data generation.
type GeneratorConfig struct {
	StartDate time.Time
	EndDate   time.Time

	BaseOrdersPerDay   int
	OrderVariance      float64
	MatchDayMultiplier float64
	PostWinMultiplier  float64

	MatchesPerWeek        int
	TournamentProbability float64
	FinalProbability      float64

	Locations []string

	// Seed controls the deterministic RNG. The same seed always yields the
	// same dataset.
	Seed int64
}

// DefaultGeneratorConfig returns the standard generation parameters for the
// given date range.
func DefaultGeneratorConfig(start, end time.Time) GeneratorConfig {
	return GeneratorConfig{
		StartDate:             start,
		EndDate:               end,
		BaseOrdersPerDay:      150,
		OrderVariance:         0.3,
		MatchDayMultiplier:    1.8,
		PostWinMultiplier:     2.2,
		MatchesPerWeek:        3,
		TournamentProbability: 0.15,
		FinalProbability:      0.05,
		Locations: []string{
			"Manchester City Centre",
			"Liverpool Downtown",
			"London Bridge",
			"Birmingham Central",
			"Leeds City",
			"Newcastle Upon Tyne",
			"Sheffield Center",
			"Bristol Downtown",
			"Cardiff Bay",
			"Edinburgh Old Town",
		},
		Seed: 42,
	}
}

type weightedPizza struct {
	name   string
	weight float64
}

var pizzaTypes = []weightedPizza{
	{"Margherita", 0.25},
	{"Pepperoni", 0.20},
	{"Hawaiian", 0.15},
	{"Meat Feast", 0.12},
	{"Vegetarian Supreme", 0.10},
	{"BBQ Chicken", 0.08},
	{"Four Cheese", 0.05},
	{"Spicy Italian", 0.03},
	{"Seafood Special", 0.02},
}

var footballTeams = []string{
	"Manchester United", "Manchester City", "Liverpool", "Chelsea",
	"Arsenal", "Tottenham", "Newcastle", "Brighton", "Aston Villa",
	"West Ham", "Crystal Palace", "Fulham", "Wolves", "Everton",
	"Brentford", "Nottingham Forest", "Leeds United", "Leicester City",
	"Southampton", "Bournemouth",
}

type scorePattern struct {
	home, away int
	weight     float64
}

// Score distribution roughly matching real-world full-time results.
var scorePatterns = []scorePattern{
	{0, 0, 0.08}, {1, 0, 0.12}, {0, 1, 0.12}, {1, 1, 0.15},
	{2, 0, 0.10}, {0, 2, 0.10}, {2, 1, 0.12}, {1, 2, 0.12},
	{3, 0, 0.05}, {0, 3, 0.05}, {2, 2, 0.06}, {3, 1, 0.04},
	{1, 3, 0.04}, {3, 2, 0.02}, {2, 3, 0.02}, {4, 0, 0.01},
}

// MockGenerator produces deterministic synthetic orders and matches with
// temporal alignment so the two streams carry real correlation signal.
type MockGenerator struct {
	cfg    GeneratorConfig
	logger *logrus.Logger
	rng    *rand.Rand
}

// NewMockGenerator creates a seeded mock generator.
func NewMockGenerator(cfg GeneratorConfig, logger *logrus.Logger) *MockGenerator {
	return &MockGenerator{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// GenerateOrders produces orders across the configured date range with
// weekend boosts, peak-hour clustering, and log-normal order totals.
func (g *MockGenerator) GenerateOrders() []models.OrderEvent {
	var orders []models.OrderEvent
	day := g.cfg.StartDate

	for day.Before(g.cfg.EndDate) {
		volume := g.dailyOrderVolume(day)
		orders = append(orders, g.ordersForDay(day, volume)...)
		day = day.AddDate(0, 0, 1)
	}

	g.logger.WithField("orders", len(orders)).Info("Generated mock orders")
	return orders
}

// GenerateMatches produces matches spread across the date range, shifted
// toward weekend kickoff slots.
func (g *MockGenerator) GenerateMatches(count int) []models.MatchEvent {
	if count <= 0 {
		days := g.cfg.EndDate.Sub(g.cfg.StartDate).Hours() / 24
		count = int(days / 7 * float64(g.cfg.MatchesPerWeek))
	}
	if count <= 0 {
		return nil
	}

	rangeDays := g.cfg.EndDate.Sub(g.cfg.StartDate).Hours() / 24
	matches := make([]models.MatchEvent, 0, count)
	for i := 0; i < count; i++ {
		offset := float64(i) / float64(count) * rangeDays
		matchDay := g.cfg.StartDate.AddDate(0, 0, int(offset))
		kickoff := g.realisticKickoff(matchDay)
		matches = append(matches, g.singleMatch(kickoff, fmt.Sprintf("MATCH_%04d", i+1)))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.Before(matches[j].Timestamp)
	})

	g.logger.WithField("matches", len(matches)).Info("Generated mock matches")
	return matches
}

// AlignOrders thins and augments the order stream around match days so
// outcomes leave a footprint in ordering volume: wins boost orders, losses
// suppress them, and effects carry into the following day at reduced
// strength.
func (g *MockGenerator) AlignOrders(orders []models.OrderEvent, matches []models.MatchEvent) []models.OrderEvent {
	if len(matches) == 0 {
		return orders
	}

	effects := make(map[string]float64)
	for i := range matches {
		m := &matches[i]
		effect := 1.0
		switch m.Outcome {
		case models.OutcomeWin:
			effect = g.cfg.PostWinMultiplier
		case models.OutcomeDraw:
			effect = 1.3
		case models.OutcomeLoss:
			effect = 0.8
		}
		switch m.Significance {
		case models.SignificanceFinal:
			effect *= 1.5
		case models.SignificanceTournament:
			effect *= 1.2
		}
		effects[m.Timestamp.Format("2006-01-02")] = effect
	}

	var aligned []models.OrderEvent
	for i := range orders {
		order := orders[i]
		date := order.Timestamp.Format("2006-01-02")
		effect := 1.0
		if e, ok := effects[date]; ok {
			effect = e
		}
		prevDate := order.Timestamp.AddDate(0, 0, -1).Format("2006-01-02")
		if e, ok := effects[prevDate]; ok && e*0.6 > effect {
			effect = e * 0.6
		}

		if g.rng.Float64() >= effect {
			continue
		}
		aligned = append(aligned, order)

		if effect > 1.5 && g.rng.Float64() < 0.3 {
			aligned = append(aligned, g.similarOrder(&order))
		}
	}

	g.logger.WithFields(logrus.Fields{
		"input":   len(orders),
		"aligned": len(aligned),
	}).Info("Aligned mock orders to match outcomes")
	return aligned
}

func (g *MockGenerator) dailyOrderVolume(day time.Time) int {
	volume := float64(g.cfg.BaseOrdersPerDay)

	// Friday through Sunday sees a 40% lift.
	switch day.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		volume *= 1.4
	}

	variance := 1.0 + g.rng.NormFloat64()*g.cfg.OrderVariance
	if variance < 0.3 {
		variance = 0.3
	}
	return int(volume * variance)
}

func (g *MockGenerator) ordersForDay(day time.Time, count int) []models.OrderEvent {
	orders := make([]models.OrderEvent, 0, count)
	for i := 0; i < count; i++ {
		ts := time.Date(day.Year(), day.Month(), day.Day(),
			g.orderHour(), g.rng.Intn(60), g.rng.Intn(60), 0, day.Location())

		orders = append(orders, models.OrderEvent{
			ID:           fmt.Sprintf("ORD_%s_%04d", day.Format("20060102"), i+1),
			Timestamp:    ts,
			Location:     g.cfg.Locations[g.rng.Intn(len(g.cfg.Locations))],
			TotalAmount:  g.orderTotal(),
			ItemCount:    g.orderQuantity(),
			CategoryTags: g.pizzaSelection(),
			Source:       models.SourceMock,
		})
	}
	return orders
}

// orderHour draws from a bimodal distribution peaking at lunch and dinner.
func (g *MockGenerator) orderHour() int {
	weights := make([]float64, 24)
	for hour := 0; hour < 24; hour++ {
		switch {
		case hour >= 6 && hour <= 10, hour >= 15 && hour <= 16, hour >= 22:
			weights[hour] = 0.02
		default:
			weights[hour] = 0.005
		}
	}
	weights[11] = 0.05
	weights[12] = 0.12
	weights[13] = 0.15
	weights[14] = 0.08
	weights[17] = 0.08
	weights[18] = 0.15
	weights[19] = 0.20
	weights[20] = 0.12
	weights[21] = 0.05

	total := 0.0
	for _, w := range weights {
		total += w
	}
	pick := g.rng.Float64() * total
	for hour, w := range weights {
		pick -= w
		if pick < 0 {
			return hour
		}
	}
	return 19
}

// orderTotal draws from a log-normal distribution clamped to a plausible
// delivery range.
func (g *MockGenerator) orderTotal() decimal.Decimal {
	price := math.Exp(2.8 + 0.4*g.rng.NormFloat64())
	if price < 8.99 {
		price = 8.99
	}
	if price > 45.99 {
		price = 45.99
	}
	return decimal.NewFromFloat(price).Round(2)
}

func (g *MockGenerator) pizzaSelection() []string {
	counts := []int{1, 2, 3, 4}
	countWeights := []float64{0.6, 0.25, 0.12, 0.03}
	n := counts[g.weightedIndex(countWeights)]

	var selected []string
	for i := 0; i < n; i++ {
		pizza := pizzaTypes[g.weightedPizzaIndex()].name
		if !contains(selected, pizza) {
			selected = append(selected, pizza)
		}
	}
	if len(selected) == 0 {
		selected = []string{"Margherita"}
	}
	return selected
}

func (g *MockGenerator) orderQuantity() int {
	quantities := []int{1, 2, 3, 4, 5}
	weights := []float64{0.5, 0.25, 0.15, 0.07, 0.03}
	return quantities[g.weightedIndex(weights)]
}

func (g *MockGenerator) realisticKickoff(day time.Time) time.Time {
	// Most fixtures move to the weekend.
	if wd := day.Weekday(); wd >= time.Monday && wd <= time.Friday && g.rng.Float64() < 0.8 {
		toSaturday := int(time.Saturday - wd)
		if g.rng.Float64() < 0.6 {
			day = day.AddDate(0, 0, toSaturday)
		} else {
			day = day.AddDate(0, 0, toSaturday+1)
		}
	}

	var hour int
	switch day.Weekday() {
	case time.Saturday:
		hour = []int{12, 15, 17}[g.rng.Intn(3)]
	case time.Sunday:
		hour = []int{14, 16}[g.rng.Intn(2)]
	default:
		hour = []int{19, 20}[g.rng.Intn(2)]
	}
	minute := []int{0, 15, 30, 45}[g.rng.Intn(4)]

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func (g *MockGenerator) singleMatch(kickoff time.Time, id string) models.MatchEvent {
	homeIdx := g.rng.Intn(len(footballTeams))
	awayIdx := g.rng.Intn(len(footballTeams) - 1)
	if awayIdx >= homeIdx {
		awayIdx++
	}

	pattern := scorePatterns[g.weightedScoreIndex()]
	outcome := models.OutcomeDraw
	if pattern.home > pattern.away {
		outcome = models.OutcomeWin
	} else if pattern.home < pattern.away {
		outcome = models.OutcomeLoss
	}

	significance := models.SignificanceRegular
	roll := g.rng.Float64()
	if roll < g.cfg.FinalProbability {
		significance = models.SignificanceFinal
	} else if roll < g.cfg.TournamentProbability {
		significance = models.SignificanceTournament
	}

	return models.MatchEvent{
		ID:           id,
		Timestamp:    kickoff,
		HomeTeam:     footballTeams[homeIdx],
		AwayTeam:     footballTeams[awayIdx],
		HomeScore:    pattern.home,
		AwayScore:    pattern.away,
		Outcome:      outcome,
		Significance: significance,
		Source:       models.SourceMock,
	}
}

func (g *MockGenerator) similarOrder(original *models.OrderEvent) models.OrderEvent {
	offset := time.Duration(g.rng.Intn(61)-30) * time.Minute
	return models.OrderEvent{
		ID:           fmt.Sprintf("%s_EXTRA_%04d", original.ID, g.rng.Intn(9000)+1000),
		Timestamp:    original.Timestamp.Add(offset),
		Location:     original.Location,
		TotalAmount:  g.orderTotal(),
		ItemCount:    g.orderQuantity(),
		CategoryTags: g.pizzaSelection(),
		Source:       models.SourceMock,
	}
}

func (g *MockGenerator) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	pick := g.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func (g *MockGenerator) weightedPizzaIndex() int {
	weights := make([]float64, len(pizzaTypes))
	for i := range pizzaTypes {
		weights[i] = pizzaTypes[i].weight
	}
	return g.weightedIndex(weights)
}

func (g *MockGenerator) weightedScoreIndex() int {
	weights := make([]float64, len(scorePatterns))
	for i := range scorePatterns {
		weights[i] = scorePatterns[i].weight
	}
	return g.weightedIndex(weights)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
