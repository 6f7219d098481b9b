package blackjack

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhase is returned when an action is not legal in the round's current phase
	ErrInvalidPhase = errors.New("blackjack: action not allowed in current phase")

	// ErrInvalidBet matches every *BetRejection
	ErrInvalidBet = errors.New("blackjack: invalid bet")
)

// RejectReason explains why a bet was refused
type RejectReason string

const (
	BelowMinimum      RejectReason = "below-minimum"
	AboveMaximum      RejectReason = "above-maximum"
	InsufficientChips RejectReason = "insufficient-chips"
)

// BetRejection is returned by PlaceBet for an amount the table or the
// player's balance cannot accept. Limit is the bound that was violated.
type BetRejection struct {
	Amount int
	Reason RejectReason
	Limit  int
}

func (e *BetRejection) Error() string {
	switch e.Reason {
	case BelowMinimum:
		return fmt.Sprintf("bet %d is below the table minimum of %d", e.Amount, e.Limit)
	case AboveMaximum:
		return fmt.Sprintf("bet %d is above the table maximum of %d", e.Amount, e.Limit)
	case InsufficientChips:
		return fmt.Sprintf("bet %d exceeds your balance of %d", e.Amount, e.Limit)
	default:
		return fmt.Sprintf("bet %d rejected", e.Amount)
	}
}

// Is lets errors.Is(err, ErrInvalidBet) match any rejection
func (e *BetRejection) Is(target error) bool {
	return target == ErrInvalidBet
}

func phaseError(action string, phase Phase) error {
	return fmt.Errorf("%w: cannot %s during %s", ErrInvalidPhase, action, phase)
}
