package main

import (
	"os"
	"time"

	"github.com/windfall/windfall/internal/randutil"
	"github.com/windfall/windfall/internal/simulator"
	"github.com/windfall/windfall/internal/tables"
)

// SimulateCmd auto-plays hands at each table and reports the house edge
type SimulateCmd struct {
	Tables   []string `short:"t" help:"Tables to simulate (default all)"`
	Hands    int      `short:"n" default:"100000" help:"Hands to play per table"`
	Workers  int      `default:"0" help:"Parallel workers (0 = one per CPU)"`
	Seed     *int64   `help:"Deterministic RNG seed (optional)"`
	Bet      int      `help:"Flat bet per hand (default table minimum)"`
	Strategy string   `short:"s" default:"basic" enum:"basic,mimic,never-bust" help:"Playing strategy (basic, mimic, never-bust)"`
	Out      string   `short:"o" type:"path" help:"Also write the results as JSON to this file"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := g.newLogger(os.Stderr, cfg)

	registry, err := cfg.Registry(time.Now())
	if err != nil {
		return err
	}

	var selected []tables.TableConfig
	if len(c.Tables) == 0 {
		selected = registry.All()
	} else {
		for _, id := range c.Tables {
			table, err := registry.Lookup(id)
			if err != nil {
				return err
			}
			selected = append(selected, table)
		}
	}

	_, seed := randutil.FromOptional(c.Seed)
	logger.Info("Running simulation", "tables", len(selected), "hands", c.Hands, "strategy", c.Strategy, "seed", seed)

	ctx, cancel := signalContext(logger)
	defer cancel()

	var reports []*simulator.Report
	for i, table := range selected {
		sim, err := simulator.New(simulator.Config{
			Table:    table,
			Hands:    c.Hands,
			Workers:  c.Workers,
			Seed:     randutil.Derive(seed, i),
			Bet:      c.Bet,
			Strategy: c.Strategy,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		report, err := sim.Run(ctx)
		if err != nil {
			return err
		}
		simulator.PrintSummary(os.Stdout, report)
		logger.Debug("Table simulated", "table", table.ID, "duration", time.Since(start))
		reports = append(reports, report)
	}

	if c.Out != "" {
		if err := simulator.WriteReports(c.Out, reports); err != nil {
			return err
		}
		logger.Info("Wrote simulation results", "path", c.Out)
	}
	return nil
}
