// Package simulator auto-plays many blackjack hands against a table's rules
// to estimate the house edge of a playing strategy.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/randutil"
	"github.com/windfall/windfall/internal/tables"
)

// Config holds configuration for running simulations
type Config struct {
	Table    tables.TableConfig
	Hands    int
	Workers  int
	Seed     int64
	Bet      int    // defaults to the table minimum
	Strategy string // defaults to "basic"
	Logger   *log.Logger
}

// Report is the outcome of a simulation
type Report struct {
	Table    tables.TableConfig
	Strategy string
	Seed     int64
	Bet      int
	Stats    *Statistics
}

// Simulator runs blackjack hand simulations
type Simulator struct {
	config   Config
	strategy Strategy
}

// New creates a simulator, filling in defaults and validating config
func New(config Config) (*Simulator, error) {
	if config.Hands <= 0 {
		return nil, fmt.Errorf("hands must be positive, got %d", config.Hands)
	}
	if err := config.Table.GameSettings.Validate(); err != nil {
		return nil, err
	}
	if config.Bet == 0 {
		config.Bet = config.Table.GameSettings.MinBet
	}
	if !tables.IsValidBet(config.Bet, config.Table.GameSettings) {
		return nil, fmt.Errorf("bet %d is outside the %s limits %d-%d", config.Bet,
			config.Table.ID, config.Table.GameSettings.MinBet, config.Table.GameSettings.MaxBet)
	}
	if config.Strategy == "" {
		config.Strategy = "basic"
	}
	strategy, err := LookupStrategy(config.Strategy)
	if err != nil {
		return nil, err
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	config.Workers = min(config.Workers, config.Hands)
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}

	return &Simulator{config: config, strategy: strategy}, nil
}

// Run plays every hand across the worker pool. Each worker owns a round
// with its own shoe, seeded from the simulation seed, and results are merged
// in worker order so a seed always reproduces the same report.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	workers := s.config.Workers
	perWorker := s.config.Hands / workers
	remainder := s.config.Hands % workers

	results := make([][]HandResult, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		hands := perWorker
		if w < remainder {
			hands++
		}
		seed := randutil.Derive(s.config.Seed, w)

		g.Go(func() error {
			out, err := s.runWorker(ctx, seed, hands)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			results[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Statistics{}
	for _, rs := range results {
		for _, r := range rs {
			stats.Add(r)
		}
	}

	s.config.Logger.Info("Simulation complete",
		"table", s.config.Table.ID,
		"strategy", s.config.Strategy,
		"hands", stats.Hands,
		"house_edge", fmt.Sprintf("%.4f", stats.HouseEdge()))

	return &Report{
		Table:    s.config.Table,
		Strategy: s.config.Strategy,
		Seed:     s.config.Seed,
		Bet:      s.config.Bet,
		Stats:    stats,
	}, nil
}

func (s *Simulator) runWorker(ctx context.Context, seed int64, hands int) ([]HandResult, error) {
	out := make([]HandResult, 0, hands)
	bet := s.config.Bet

	// Enough chips to lose every hand
	round, err := blackjack.NewRound(s.config.Table.GameSettings, bet*(hands+1),
		blackjack.WithRNG(randutil.New(seed)),
		blackjack.WithTableID(s.config.Table.ID),
		blackjack.WithSettleFunc(func(st blackjack.Settlement) {
			out = append(out, HandResult{
				Result:      st.Result,
				Bet:         st.Bet,
				Payout:      st.Payout,
				PlayerTotal: st.PlayerTotal,
				DealerTotal: st.DealerTotal,
			})
		}))
	if err != nil {
		return nil, err
	}

	for i := 0; i < hands; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := s.playHand(round, bet); err != nil {
			return nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
	}
	return out, nil
}

// playHand plays one hand to settlement and clears the table. A shoe that
// runs dry voids the hand, which the statistics skip.
func (s *Simulator) playHand(round *blackjack.Round, bet int) error {
	if err := round.PlaceBet(bet); err != nil && !errors.Is(err, deck.ErrEmptyDeck) {
		return err
	}

	for round.Phase() == blackjack.Playing {
		var err error
		switch s.strategy(round.PlayerHand(), round.DealerHand()[0]) {
		case blackjack.ActionHit:
			err = round.Hit()
		default:
			err = round.Stand()
		}
		if err != nil && !errors.Is(err, deck.ErrEmptyDeck) {
			return err
		}
	}

	return round.NewHand()
}

// PrintSummary writes a human readable summary of report to w
func PrintSummary(w io.Writer, report *Report) {
	stats := report.Stats
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== %s (%s strategy) ===\n", report.Table.Name, report.Strategy)
	fmt.Fprintf(w, "Rules: %d deck(s), %s, blackjack pays %s, bets %d-%d\n",
		report.Table.GameSettings.NumOfDecks,
		report.Table.GameSettings.DealerRuleLabel(),
		report.Table.GameSettings.PayoutLabel(),
		report.Table.GameSettings.MinBet,
		report.Table.GameSettings.MaxBet)
	fmt.Fprintf(w, "Hands played: %d (seed %d, bet %d)\n", stats.Hands, report.Seed, report.Bet)

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(w, "Wins: %d (%.1f%%)\n", stats.Wins, stats.Rate(stats.Wins)*100)
	fmt.Fprintf(w, "Blackjacks: %d (%.1f%%)\n", stats.Blackjacks, stats.Rate(stats.Blackjacks)*100)
	fmt.Fprintf(w, "Pushes: %d (%.1f%%)\n", stats.Pushes, stats.Rate(stats.Pushes)*100)
	fmt.Fprintf(w, "Losses: %d (%.1f%%), %d busts\n", stats.Losses, stats.Rate(stats.Losses)*100, stats.Busts)
	if stats.Voids > 0 {
		fmt.Fprintf(w, "Void hands: %d\n", stats.Voids)
	}

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Wagered: %d, net: %+d\n", stats.Wagered, stats.Net)
	fmt.Fprintf(w, "Mean: %.4f bets/hand\n", stats.Mean())
	fmt.Fprintf(w, "Std Dev: %.4f bets\n", stats.StdDev())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] bets/hand\n", low, high)
	fmt.Fprintf(w, "House edge: %.2f%%\n", stats.HouseEdge()*100)
}
