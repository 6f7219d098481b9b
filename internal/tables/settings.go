package tables

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShuffleFrequency controls when a table's shoe is replaced between hands
type ShuffleFrequency string

const (
	ShuffleEveryHand     ShuffleFrequency = "every-hand"
	ShufflePenetration75 ShuffleFrequency = "penetration-75"
	ShufflePenetration50 ShuffleFrequency = "penetration-50"
	ShufflePenetration25 ShuffleFrequency = "penetration-25"
)

// Penetration returns the dealt fraction of the shoe that triggers a
// reshuffle. Every-hand tables return 0.
func (f ShuffleFrequency) Penetration() float64 {
	switch f {
	case ShufflePenetration75:
		return 0.75
	case ShufflePenetration50:
		return 0.50
	case ShufflePenetration25:
		return 0.25
	default:
		return 0
	}
}

// Valid reports whether f is one of the known frequencies
func (f ShuffleFrequency) Valid() bool {
	switch f {
	case ShuffleEveryHand, ShufflePenetration75, ShufflePenetration50, ShufflePenetration25:
		return true
	}
	return false
}

// GameSettings is the rule configuration of a table. Values are fixed once
// the registry is built.
type GameSettings struct {
	ID        string
	Signature string
	GameType  string

	// Betting
	MinBet int
	MaxBet int

	// Shoe
	NumOfDecks       int
	ShuffleFrequency ShuffleFrequency

	// Dealer
	DealerHitsSoft17 bool

	// Player options. Carried for display; the round engine does not offer
	// splits, doubles, surrender or insurance.
	AllowDoubleAfterSplit bool
	AllowResplitAces      bool
	AllowSurrender        bool
	InsuranceAllowed      bool
	MaxSplits             int

	// PayoutBlackjack is the multiplier paid on a natural (1.5 for 3:2).
	PayoutBlackjack decimal.Decimal

	CreatedAt time.Time
}

// Validate checks that the settings can drive a round
func (s GameSettings) Validate() error {
	if s.ID == "" {
		return errors.New("settings id is required")
	}
	if s.MinBet <= 0 {
		return fmt.Errorf("settings %s: min bet must be positive", s.ID)
	}
	if s.MaxBet < s.MinBet {
		return fmt.Errorf("settings %s: max bet must be at least min bet", s.ID)
	}
	if s.NumOfDecks < 1 || s.NumOfDecks > 8 {
		return fmt.Errorf("settings %s: decks must be between 1 and 8", s.ID)
	}
	if !s.ShuffleFrequency.Valid() {
		return fmt.Errorf("settings %s: unknown shuffle frequency %q", s.ID, s.ShuffleFrequency)
	}
	if !s.PayoutBlackjack.IsPositive() {
		return fmt.Errorf("settings %s: blackjack payout must be positive", s.ID)
	}
	return nil
}

// PayoutLabel renders the blackjack payout as odds ("3:2", "6:5")
func (s GameSettings) PayoutLabel() string {
	switch {
	case s.PayoutBlackjack.Equal(decimal.NewFromFloat(1.5)):
		return "3:2"
	case s.PayoutBlackjack.Equal(decimal.NewFromFloat(1.2)):
		return "6:5"
	case s.PayoutBlackjack.Equal(decimal.NewFromInt(2)):
		return "2:1"
	case s.PayoutBlackjack.Equal(decimal.NewFromInt(1)):
		return "1:1"
	default:
		return s.PayoutBlackjack.String() + ":1"
	}
}

// DealerRuleLabel describes the soft 17 rule ("Dealer hits on soft 17")
func (s GameSettings) DealerRuleLabel() string {
	if s.DealerHitsSoft17 {
		return "Dealer hits on soft 17"
	}
	return "Dealer stands on soft 17"
}

// IsValidBet reports whether amount lies within the table limits, inclusive
func IsValidBet(amount int, settings GameSettings) bool {
	return amount >= settings.MinBet && amount <= settings.MaxBet
}

// BetOptions returns the quick-bet amounts offered at a table: the minimum
// and its 2x, 5x and 10x multiples, capped at the maximum.
func BetOptions(settings GameSettings) []int {
	var out []int
	for _, m := range []int{1, 2, 5, 10} {
		amount := settings.MinBet * m
		if amount > settings.MaxBet {
			break
		}
		out = append(out, amount)
	}
	return out
}
