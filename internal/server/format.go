package server

import (
	"fmt"

	"github.com/windfall/windfall/internal/blackjack"
)

// lowChipThreshold is the balance below which players are warned
const lowChipThreshold = 100

// FormatChips renders a balance the way the lobby shows it: $950, $1.2K, $3.4M
func FormatChips(amount int) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("$%.1fM", float64(amount)/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("$%.1fK", float64(amount)/1_000)
	default:
		return fmt.Sprintf("$%d", amount)
	}
}

// FormatSigned renders a chip delta with its sign
func FormatSigned(amount int) string {
	if amount > 0 {
		return fmt.Sprintf("+%d", amount)
	}
	return fmt.Sprintf("%d", amount)
}

// FormatPercent renders a 0..1 ratio as a whole percentage
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// ChipTier names the colour band of a balance
func ChipTier(amount int) string {
	switch {
	case amount >= 10_000:
		return "diamond"
	case amount >= 5_000:
		return "gold"
	case amount >= 1_000:
		return "blue"
	case amount >= 500:
		return "green"
	default:
		return "red"
	}
}

// LowChips reports whether the low balance warning should show
func LowChips(amount int) bool {
	return amount < lowChipThreshold
}

// ResultBanner is the headline shown when a round settles
func ResultBanner(r blackjack.Result) string {
	switch r {
	case blackjack.ResultWin:
		return "🎉 You Win!"
	case blackjack.ResultLose:
		return "😞 You Lose!"
	case blackjack.ResultPush:
		return "🤝 Push!"
	case blackjack.ResultBlackjack:
		return "🎰 Blackjack!"
	case blackjack.ResultVoid:
		return "The shoe ran out. Your bet was returned."
	default:
		return ""
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
