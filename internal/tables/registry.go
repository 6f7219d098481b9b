// Package tables holds the catalog of blackjack table configurations.
//
// A Registry is built once at startup, either from Default or from the
// table blocks of the configuration file, and is read-only afterwards, so it
// can be shared between goroutines without locking.
package tables

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrTableNotFound is returned when a table identifier is not in the registry
var ErrTableNotFound = errors.New("tables: table not found")

// Difficulty is the lobby tier of a table
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// TableConfig is a table's presentation metadata plus its rules
type TableConfig struct {
	ID           string
	Name         string
	Description  string
	Difficulty   Difficulty
	Color        string
	GradientFrom string
	GradientTo   string
	GameSettings GameSettings
}

// Registry is an ordered, immutable set of table configurations
type Registry struct {
	order []string
	byID  map[string]TableConfig
}

// NewRegistry builds a registry preserving the order of configs. Duplicate
// or empty identifiers and invalid settings are rejected.
func NewRegistry(configs ...TableConfig) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(configs)),
		byID:  make(map[string]TableConfig, len(configs)),
	}

	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, errors.New("table id is required")
		}
		if _, exists := r.byID[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate table id %q", cfg.ID)
		}
		if err := cfg.GameSettings.Validate(); err != nil {
			return nil, fmt.Errorf("table %s: %w", cfg.ID, err)
		}
		r.order = append(r.order, cfg.ID)
		r.byID[cfg.ID] = cfg
	}

	return r, nil
}

// Get returns the table configuration with the given identifier
func (r *Registry) Get(id string) (TableConfig, bool) {
	cfg, ok := r.byID[id]
	return cfg, ok
}

// Lookup is Get with an error suitable for wrapping
func (r *Registry) Lookup(id string) (TableConfig, error) {
	cfg, ok := r.byID[id]
	if !ok {
		return TableConfig{}, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return cfg, nil
}

// All returns every table in registration order
func (r *Registry) All() []TableConfig {
	out := make([]TableConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// SettingsByID finds the first table whose settings carry the given id
func (r *Registry) SettingsByID(settingsID string) (GameSettings, bool) {
	for _, id := range r.order {
		if s := r.byID[id].GameSettings; s.ID == settingsID {
			return s, true
		}
	}
	return GameSettings{}, false
}

// Len returns the number of tables
func (r *Registry) Len() int {
	return len(r.order)
}

// DefaultConfigs returns the built-in table catalog. createdAt stamps every
// ruleset so they share the registry's construction time.
func DefaultConfigs(createdAt time.Time) []TableConfig {
	return []TableConfig{
		{
			ID:           "rookie",
			Name:         "Rookie Table",
			Description:  "Perfect for beginners learning the basics",
			Difficulty:   Beginner,
			Color:        "green",
			GradientFrom: "from-green-500",
			GradientTo:   "to-emerald-600",
			GameSettings: GameSettings{
				ID:                    "rookie-settings",
				Signature:             "ROOKIE_BEGINNER_FRIENDLY",
				GameType:              "blackjack",
				MinBet:                5,
				MaxBet:                50,
				NumOfDecks:            1,
				ShuffleFrequency:      ShuffleEveryHand,
				DealerHitsSoft17:      false,
				AllowDoubleAfterSplit: true,
				AllowResplitAces:      false,
				AllowSurrender:        true,
				InsuranceAllowed:      true,
				MaxSplits:             2,
				PayoutBlackjack:       decimal.RequireFromString("1.5"),
				CreatedAt:             createdAt,
			},
		},
		{
			ID:           "high-roller",
			Name:         "High Roller Table",
			Description:  "For experienced players seeking bigger wins",
			Difficulty:   Intermediate,
			Color:        "purple",
			GradientFrom: "from-purple-500",
			GradientTo:   "to-violet-600",
			GameSettings: GameSettings{
				ID:                    "high-roller-settings",
				Signature:             "HIGHROLLER_STANDARD_RULES",
				GameType:              "blackjack",
				MinBet:                25,
				MaxBet:                500,
				NumOfDecks:            6,
				ShuffleFrequency:      ShufflePenetration75,
				DealerHitsSoft17:      true,
				AllowDoubleAfterSplit: true,
				AllowResplitAces:      true,
				AllowSurrender:        false,
				InsuranceAllowed:      true,
				MaxSplits:             3,
				PayoutBlackjack:       decimal.RequireFromString("1.5"),
				CreatedAt:             createdAt,
			},
		},
		{
			ID:           "vip",
			Name:         "VIP Elite Table",
			Description:  "Exclusive table for card counting masters",
			Difficulty:   Advanced,
			Color:        "gold",
			GradientFrom: "from-yellow-500",
			GradientTo:   "to-orange-600",
			GameSettings: GameSettings{
				ID:                    "vip-settings",
				Signature:             "VIP_ELITE_HARDCORE",
				GameType:              "blackjack",
				MinBet:                100,
				MaxBet:                2000,
				NumOfDecks:            8,
				ShuffleFrequency:      ShufflePenetration50,
				DealerHitsSoft17:      true,
				AllowDoubleAfterSplit: false,
				AllowResplitAces:      false,
				AllowSurrender:        false,
				InsuranceAllowed:      false,
				MaxSplits:             1,
				PayoutBlackjack:       decimal.RequireFromString("1.2"),
				CreatedAt:             createdAt,
			},
		},
	}
}

// Default returns a registry holding the built-in catalog
func Default() *Registry {
	r, err := NewRegistry(DefaultConfigs(time.Now().UTC())...)
	if err != nil {
		// The built-in catalog is static; failing here is a programming error.
		panic(err)
	}
	return r
}
