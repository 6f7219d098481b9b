package simulator

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/tables"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
}

func table(t *testing.T, id string) tables.TableConfig {
	t.Helper()
	cfg, ok := tables.Default().Get(id)
	require.True(t, ok)
	return cfg
}

func TestNewValidatesConfig(t *testing.T) {
	rookie := table(t, "rookie")

	tests := []struct {
		name   string
		config Config
	}{
		{"no hands", Config{Table: rookie}},
		{"bet below minimum", Config{Table: rookie, Hands: 10, Bet: 1}},
		{"bet above maximum", Config{Table: rookie, Hands: 10, Bet: 500}},
		{"unknown strategy", Config{Table: rookie, Hands: 10, Strategy: "card-counter"}},
		{"invalid table", Config{Table: tables.TableConfig{ID: "broken"}, Hands: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	sim, err := New(Config{Table: table(t, "vip"), Hands: 3, Workers: 16})
	require.NoError(t, err)

	assert.Equal(t, 100, sim.config.Bet)
	assert.Equal(t, "basic", sim.config.Strategy)
	assert.Equal(t, 3, sim.config.Workers, "workers are capped by hands")
	assert.NotNil(t, sim.config.Logger)
}

func TestRunPlaysEveryHand(t *testing.T) {
	for _, cfg := range tables.Default().All() {
		t.Run(cfg.ID, func(t *testing.T) {
			sim, err := New(Config{Table: cfg, Hands: 2000, Workers: 4, Seed: 7, Logger: testLogger()})
			require.NoError(t, err)

			report, err := sim.Run(context.Background())
			require.NoError(t, err)

			stats := report.Stats
			assert.Equal(t, 2000, stats.Hands)
			assert.Equal(t, stats.Hands, stats.Wins+stats.Losses+stats.Pushes+stats.Blackjacks+stats.Voids)
			assert.Equal(t, (stats.Hands-stats.Voids)*cfg.GameSettings.MinBet, stats.Wagered)
			assert.Len(t, stats.Values, stats.Hands-stats.Voids)
			assert.Greater(t, stats.Blackjacks, 0)
			assert.InDelta(t, 0, stats.Mean(), 0.25)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func(seed int64) *Statistics {
		sim, err := New(Config{Table: table(t, "high-roller"), Hands: 500, Workers: 3, Seed: seed, Logger: testLogger()})
		require.NoError(t, err)
		report, err := sim.Run(context.Background())
		require.NoError(t, err)
		return report.Stats
	}

	first := run(42)
	second := run(42)
	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Net, second.Net)

	other := run(43)
	assert.NotEqual(t, first.Values, other.Values)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	sim, err := New(Config{Table: table(t, "rookie"), Hands: 1000, Workers: 2, Logger: testLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatistics(t *testing.T) {
	stats := &Statistics{}
	stats.Add(HandResult{Result: blackjack.ResultWin, Bet: 10, Payout: 20, PlayerTotal: 20})
	stats.Add(HandResult{Result: blackjack.ResultLose, Bet: 10, Payout: 0, PlayerTotal: 25})
	stats.Add(HandResult{Result: blackjack.ResultPush, Bet: 10, Payout: 10, PlayerTotal: 19})
	stats.Add(HandResult{Result: blackjack.ResultBlackjack, Bet: 10, Payout: 25, PlayerTotal: 21})
	stats.Add(HandResult{Result: blackjack.ResultVoid, Bet: 10, Payout: 10})

	assert.Equal(t, 5, stats.Hands)
	assert.Equal(t, 1, stats.Voids)
	assert.Equal(t, 1, stats.Busts)
	assert.Equal(t, 40, stats.Wagered)
	assert.Equal(t, 15, stats.Net)

	assert.InDelta(t, 0.375, stats.Mean(), 1e-9)
	assert.InDelta(t, -0.375, stats.HouseEdge(), 1e-9)
	assert.InDelta(t, 0.25, stats.Rate(stats.Wins), 1e-9)
	assert.Equal(t, -1.0, stats.Percentile(0))
	assert.Equal(t, 1.5, stats.Percentile(1))

	low, high := stats.ConfidenceInterval95()
	assert.Less(t, low, stats.Mean())
	assert.Greater(t, high, stats.Mean())
}

func TestEmptyStatistics(t *testing.T) {
	stats := &Statistics{}
	assert.Zero(t, stats.Mean())
	assert.Zero(t, stats.StdDev())
	assert.Zero(t, stats.Percentile(0.5))
	assert.Zero(t, stats.Rate(0))

	low, high := stats.ConfidenceInterval95()
	assert.Zero(t, low)
	assert.Zero(t, high)
}

func TestBasicStrategy(t *testing.T) {
	tests := []struct {
		player string
		up     string
		want   blackjack.Action
	}{
		{"Th 7c", "As", blackjack.ActionStand},
		{"Th 6c", "6s", blackjack.ActionStand},
		{"Th 6c", "7s", blackjack.ActionHit},
		{"Th 2c", "3s", blackjack.ActionHit},
		{"Th 2c", "4s", blackjack.ActionStand},
		{"Th 2c", "7s", blackjack.ActionHit},
		{"5h 6c", "6s", blackjack.ActionHit},
		{"Ah 7c", "8s", blackjack.ActionStand},
		{"Ah 7c", "9s", blackjack.ActionHit},
		{"Ah 8c", "Ts", blackjack.ActionStand},
		{"Ah 6c", "2s", blackjack.ActionHit},
	}
	for _, tt := range tests {
		t.Run(tt.player+" v "+tt.up, func(t *testing.T) {
			up := deck.MustParseCards(tt.up)[0]
			assert.Equal(t, tt.want, BasicStrategy(deck.MustParseCards(tt.player), up))
		})
	}
}

func TestSimpleStrategies(t *testing.T) {
	up := deck.MustParseCards("Ts")[0]

	assert.Equal(t, blackjack.ActionHit, MimicDealer(deck.MustParseCards("Th 6c"), up))
	assert.Equal(t, blackjack.ActionStand, MimicDealer(deck.MustParseCards("Ah 6c"), up))

	assert.Equal(t, blackjack.ActionHit, NeverBust(deck.MustParseCards("5h 6c"), up))
	assert.Equal(t, blackjack.ActionStand, NeverBust(deck.MustParseCards("Th 2c"), up))
	assert.Equal(t, blackjack.ActionHit, NeverBust(deck.MustParseCards("Ah 6c"), up))
}

func TestLookupStrategy(t *testing.T) {
	assert.Equal(t, []string{"basic", "mimic", "never-bust"}, StrategyNames())

	_, err := LookupStrategy("mimic")
	assert.NoError(t, err)

	_, err = LookupStrategy("martingale")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestPrintSummary(t *testing.T) {
	sim, err := New(Config{Table: table(t, "rookie"), Hands: 50, Workers: 1, Seed: 1, Logger: testLogger()})
	require.NoError(t, err)
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "Rookie Table (basic strategy)")
	assert.Contains(t, out, "Hands played: 50")
	assert.Contains(t, out, "House edge:")
}
