package simulator

import (
	"github.com/windfall/windfall/internal/fileutil"
)

// Summary is the machine readable form of a Report
type Summary struct {
	Table      string  `json:"table"`
	Strategy   string  `json:"strategy"`
	Seed       int64   `json:"seed"`
	Bet        int     `json:"bet"`
	Decks      int     `json:"decks"`
	HitSoft17  bool    `json:"hit_soft_17"`
	Payout     string  `json:"blackjack_payout"`
	Hands      int     `json:"hands"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	Blackjacks int     `json:"blackjacks"`
	Busts      int     `json:"busts"`
	Voids      int     `json:"voids"`
	Wagered    int     `json:"wagered"`
	Net        int     `json:"net"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	CILow      float64 `json:"ci95_low"`
	CIHigh     float64 `json:"ci95_high"`
	HouseEdge  float64 `json:"house_edge"`
	Median     float64 `json:"median"`
}

// Summarize flattens report for export
func Summarize(report *Report) Summary {
	stats := report.Stats
	low, high := stats.ConfidenceInterval95()
	settings := report.Table.GameSettings
	return Summary{
		Table:      report.Table.ID,
		Strategy:   report.Strategy,
		Seed:       report.Seed,
		Bet:        report.Bet,
		Decks:      settings.NumOfDecks,
		HitSoft17:  settings.DealerHitsSoft17,
		Payout:     settings.PayoutLabel(),
		Hands:      stats.Hands,
		Wins:       stats.Wins,
		Losses:     stats.Losses,
		Pushes:     stats.Pushes,
		Blackjacks: stats.Blackjacks,
		Busts:      stats.Busts,
		Voids:      stats.Voids,
		Wagered:    stats.Wagered,
		Net:        stats.Net,
		Mean:       stats.Mean(),
		StdDev:     stats.StdDev(),
		CILow:      low,
		CIHigh:     high,
		HouseEdge:  stats.HouseEdge(),
		Median:     stats.Percentile(0.5),
	}
}

// WriteReports writes the summaries of reports to path as a JSON array
func WriteReports(path string, reports []*Report) error {
	summaries := make([]Summary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, Summarize(r))
	}
	return fileutil.WriteJSON(path, summaries)
}
