package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/randutil"
	"github.com/windfall/windfall/internal/tui"
)

// PlayCmd plays one table in the terminal
type PlayCmd struct {
	Table   string `short:"t" default:"rookie" help:"Table to sit at"`
	Chips   int    `default:"1000" help:"Starting chips"`
	Seed    *int64 `help:"Deterministic shuffle seed (optional)"`
	LogFile string `type:"path" help:"Write logs to this file while playing"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs only go to a file
	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := g.newLogger(out, cfg)

	registry, err := cfg.Registry(time.Now())
	if err != nil {
		return err
	}
	table, err := registry.Lookup(c.Table)
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.Table)
	}

	rng, seed := randutil.FromOptional(c.Seed)
	logger.Info("Sitting down", "table", table.ID, "chips", c.Chips, "seed", seed)

	round, err := blackjack.NewRound(table.GameSettings, c.Chips,
		blackjack.WithRNG(rng),
		blackjack.WithTableID(table.ID),
		blackjack.WithLogger(logger.WithPrefix("round")))
	if err != nil {
		return err
	}

	model := tui.NewTUIModel(table, round, logger)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}

	fmt.Printf("You leave the %s with $%d (%+d) after %d hands.\n",
		table.Name, round.Chips(), round.Chips()-c.Chips, round.HandNumber())
	return nil
}
