package blackjack

import "github.com/windfall/windfall/internal/deck"

// Score returns the best total of a hand: every ace counts 11, then aces are
// re-valued to 1, one at a time, while the total is over 21.
func Score(cards []deck.Card) int {
	total, _ := score(cards)
	return total
}

// IsSoft reports whether the best total still counts an ace as 11
func IsSoft(cards []deck.Card) bool {
	_, softAces := score(cards)
	return softAces > 0
}

// IsBlackjack reports a two-card 21
func IsBlackjack(cards []deck.Card) bool {
	return len(cards) == 2 && Score(cards) == 21
}

// IsBust reports a total over 21
func IsBust(cards []deck.Card) bool {
	return Score(cards) > 21
}

func score(cards []deck.Card) (total, softAces int) {
	for _, c := range cards {
		total += c.Value()
		if c.IsAce() {
			softAces++
		}
	}
	for total > 21 && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// ShouldDealerHit applies the house drawing rule: hit below 17, and on a
// soft 17 when the table says so.
func ShouldDealerHit(cards []deck.Card, hitsSoft17 bool) bool {
	total := Score(cards)
	if total < 17 {
		return true
	}
	return total == 17 && hitsSoft17 && IsSoft(cards)
}
