package simulator

import (
	"fmt"
	"sort"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
)

// Strategy decides the player's next move from their hand and the dealer's
// up card. It only ever answers hit or stand.
type Strategy func(player []deck.Card, dealerUp deck.Card) blackjack.Action

var strategies = map[string]Strategy{
	"basic":      BasicStrategy,
	"mimic":      MimicDealer,
	"never-bust": NeverBust,
}

// StrategyNames lists the registered strategies in sorted order
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupStrategy returns the strategy registered under name
func LookupStrategy(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (want one of %v)", name, StrategyNames())
	}
	return s, nil
}

// BasicStrategy is the hit/stand part of the standard basic strategy chart.
func BasicStrategy(player []deck.Card, dealerUp deck.Card) blackjack.Action {
	total := blackjack.Score(player)
	up := dealerUp.Value()

	if blackjack.IsSoft(player) {
		switch {
		case total >= 19:
			return blackjack.ActionStand
		case total == 18 && up <= 8:
			return blackjack.ActionStand
		default:
			return blackjack.ActionHit
		}
	}

	switch {
	case total >= 17:
		return blackjack.ActionStand
	case total >= 13 && up <= 6:
		return blackjack.ActionStand
	case total == 12 && up >= 4 && up <= 6:
		return blackjack.ActionStand
	default:
		return blackjack.ActionHit
	}
}

// MimicDealer plays the dealer's own rule: hit below 17, stand on any 17.
func MimicDealer(player []deck.Card, _ deck.Card) blackjack.Action {
	if blackjack.ShouldDealerHit(player, false) {
		return blackjack.ActionHit
	}
	return blackjack.ActionStand
}

// NeverBust only hits totals that cannot go over 21.
func NeverBust(player []deck.Card, _ deck.Card) blackjack.Action {
	total := blackjack.Score(player)
	if total <= 11 || (blackjack.IsSoft(player) && total < 18) {
		return blackjack.ActionHit
	}
	return blackjack.ActionStand
}
