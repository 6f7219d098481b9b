package blackjack

import "github.com/shopspring/decimal"

// Payout returns the chips credited back to the player when a round settles.
// The bet has already been debited, so a loss pays nothing and a push returns
// the stake. A natural pays the stake plus floor(bet * multiplier); decimal
// arithmetic keeps 6:5 tables from losing a chip to float rounding.
func Payout(result Result, bet int, blackjackMultiplier decimal.Decimal) int {
	switch result {
	case ResultBlackjack:
		bonus := decimal.NewFromInt(int64(bet)).Mul(blackjackMultiplier).Floor()
		return bet + int(bonus.IntPart())
	case ResultWin:
		return 2 * bet
	case ResultPush, ResultVoid:
		return bet
	default:
		return 0
	}
}
