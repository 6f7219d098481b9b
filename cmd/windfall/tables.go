package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/windfall/windfall/internal/tables"
)

// TablesCmd lists the tables of the configured registry
type TablesCmd struct{}

func (c *TablesCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	registry, err := cfg.Registry(time.Now())
	if err != nil {
		return err
	}

	writeTables(os.Stdout, registry)
	return nil
}

// writeTables renders the registry as a bordered table
func writeTables(w io.Writer, registry *tables.Registry) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "NAME", "LEVEL", "BETS", "DECKS", "SHUFFLE", "BLACKJACK", "DEALER")
	for _, tc := range registry.All() {
		s := tc.GameSettings
		t.Row(
			tc.ID,
			tc.Name,
			string(tc.Difficulty),
			fmt.Sprintf("%d-%d", s.MinBet, s.MaxBet),
			strconv.Itoa(s.NumOfDecks),
			string(s.ShuffleFrequency),
			s.PayoutLabel(),
			s.DealerRuleLabel(),
		)
	}

	fmt.Fprintln(w, t.Render())
}
