package blackjack

import (
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/tables"
)

// Phase is the observable stage of a round
type Phase int

const (
	Betting Phase = iota
	Playing
	GameOver
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case Betting:
		return "betting"
	case Playing:
		return "playing"
	case GameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Result is the outcome of a settled round
type Result int

const (
	ResultNone Result = iota
	ResultWin
	ResultLose
	ResultPush
	ResultBlackjack
	// ResultVoid marks a round abandoned because the shoe ran out; the bet
	// is refunded.
	ResultVoid
)

// String returns the string representation of a result
func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLose:
		return "lose"
	case ResultPush:
		return "push"
	case ResultBlackjack:
		return "blackjack"
	case ResultVoid:
		return "void"
	default:
		return ""
	}
}

// MarshalText encodes the result by name
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// minShoeReserve forces a reshuffle between hands when fewer cards than this
// remain, whatever the table's penetration.
const minShoeReserve = 20

// Settlement describes a round that reached GameOver
type Settlement struct {
	HandNumber  int
	TableID     string
	Bet         int
	Result      Result
	Payout      int
	PlayerCards []deck.Card
	DealerCards []deck.Card
	PlayerTotal int
	DealerTotal int
	ChipsAfter  int
}

// Net returns the chip change the round caused for the player
func (s Settlement) Net() int {
	return s.Payout - s.Bet
}

// SettleFunc is called every time a round settles
type SettleFunc func(Settlement)

// ShoeSource builds a fresh shoe holding the given number of decks
type ShoeSource func(decks int) *deck.Deck

// Option configures a Round
type Option func(*Round)

// WithRNG shuffles shoes with rng
func WithRNG(rng *rand.Rand) Option {
	return func(r *Round) {
		r.newShoe = func(decks int) *deck.Deck { return deck.NewShoe(decks, rng) }
	}
}

// WithShoeSource replaces shoe construction, e.g. with stacked decks
func WithShoeSource(src ShoeSource) Option {
	return func(r *Round) { r.newShoe = src }
}

// WithLogger sets the logger used for round events
func WithLogger(logger *log.Logger) Option {
	return func(r *Round) { r.logger = logger }
}

// WithSettleFunc registers a settlement callback
func WithSettleFunc(fn SettleFunc) Option {
	return func(r *Round) { r.onSettle = fn }
}

// WithTableID tags settlements with the table the round is played at
func WithTableID(id string) Option {
	return func(r *Round) { r.tableID = id }
}

// Round is one player's seat at a blackjack table. It moves through
// Betting -> Playing -> GameOver, and back to Betting with NewHand. Each
// action runs to completion; a Round is not safe for concurrent use.
type Round struct {
	settings tables.GameSettings
	tableID  string
	newShoe  ShoeSource
	shoe     *deck.Deck
	logger   *log.Logger
	onSettle SettleFunc

	player     []deck.Card
	dealer     []deck.Card
	bet        int
	chips      int
	phase      Phase
	result     Result
	payout     int
	handNumber int
}

// NewRound seats a player with the given chips at a table using settings.
// The round starts in Betting with a freshly shuffled shoe.
func NewRound(settings tables.GameSettings, chips int, opts ...Option) (*Round, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if chips < 0 {
		return nil, fmt.Errorf("starting chips must not be negative, got %d", chips)
	}

	r := &Round{
		settings: settings,
		chips:    chips,
		phase:    Betting,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newShoe == nil {
		r.newShoe = func(decks int) *deck.Deck { return deck.NewShoe(decks, nil) }
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}

	r.shoe = r.newShoe(settings.NumOfDecks)
	return r, nil
}

// PlaceBet validates amount, debits it and deals two cards each to player
// and dealer. A player 21 on the deal settles immediately as a blackjack, or
// a push when the dealer also holds 21.
func (r *Round) PlaceBet(amount int) error {
	if r.phase != Betting {
		return phaseError("bet", r.phase)
	}
	if err := r.checkBet(amount); err != nil {
		return err
	}

	r.bet = amount
	r.chips -= amount
	r.handNumber++
	r.phase = Playing

	// Player, dealer, player, dealer.
	for i := 0; i < 2; i++ {
		if err := r.dealTo(&r.player); err != nil {
			return r.void(err)
		}
		if err := r.dealTo(&r.dealer); err != nil {
			return r.void(err)
		}
	}

	r.logger.Debug("Dealt hand",
		"hand", r.handNumber,
		"bet", amount,
		"player", r.player,
		"upcard", r.dealer[0])

	if Score(r.player) == 21 {
		if Score(r.dealer) == 21 {
			r.settle(ResultPush)
		} else {
			r.settle(ResultBlackjack)
		}
	}
	return nil
}

// Hit deals one card to the player. Going over 21 loses the round.
func (r *Round) Hit() error {
	if r.phase != Playing {
		return phaseError("hit", r.phase)
	}
	if err := r.dealTo(&r.player); err != nil {
		return r.void(err)
	}

	if IsBust(r.player) {
		r.settle(ResultLose)
	}
	return nil
}

// Stand ends the player's turn, plays out the dealer's hand and settles
func (r *Round) Stand() error {
	if r.phase != Playing {
		return phaseError("stand", r.phase)
	}

	for ShouldDealerHit(r.dealer, r.settings.DealerHitsSoft17) {
		if err := r.dealTo(&r.dealer); err != nil {
			return r.void(err)
		}
	}

	playerTotal, dealerTotal := Score(r.player), Score(r.dealer)
	switch {
	case dealerTotal > 21 || dealerTotal < playerTotal:
		r.settle(ResultWin)
	case dealerTotal > playerTotal:
		r.settle(ResultLose)
	default:
		r.settle(ResultPush)
	}
	return nil
}

// NewHand clears the table for the next bet. The shoe is replaced according
// to the table's shuffle frequency; it is never replaced mid-round.
func (r *Round) NewHand() error {
	if r.phase != GameOver {
		return phaseError("start a new hand", r.phase)
	}

	r.player = nil
	r.dealer = nil
	r.bet = 0
	r.payout = 0
	r.result = ResultNone
	r.phase = Betting

	if r.needsReshuffle() {
		r.shoe = r.newShoe(r.settings.NumOfDecks)
		r.logger.Debug("Reshuffled shoe", "decks", r.settings.NumOfDecks, "cards", r.shoe.Remaining())
	}
	return nil
}

func (r *Round) needsReshuffle() bool {
	threshold := r.settings.ShuffleFrequency.Penetration()
	if threshold == 0 {
		return true
	}
	return r.shoe.Penetration() >= threshold || r.shoe.Remaining() < minShoeReserve
}

func (r *Round) checkBet(amount int) error {
	switch {
	case amount < r.settings.MinBet:
		return &BetRejection{Amount: amount, Reason: BelowMinimum, Limit: r.settings.MinBet}
	case amount > r.settings.MaxBet:
		return &BetRejection{Amount: amount, Reason: AboveMaximum, Limit: r.settings.MaxBet}
	case amount > r.chips:
		return &BetRejection{Amount: amount, Reason: InsufficientChips, Limit: r.chips}
	}
	return nil
}

func (r *Round) dealTo(hand *[]deck.Card) error {
	card, err := r.shoe.Draw()
	if err != nil {
		return err
	}
	*hand = append(*hand, card)
	return nil
}

// void abandons the round after a failed draw and refunds the bet
func (r *Round) void(cause error) error {
	r.logger.Error("Voiding round", "hand", r.handNumber, "error", cause)
	r.settle(ResultVoid)
	if errors.Is(cause, deck.ErrEmptyDeck) {
		return fmt.Errorf("hand %d voided: %w", r.handNumber, cause)
	}
	return cause
}

func (r *Round) settle(result Result) {
	r.result = result
	r.payout = Payout(result, r.bet, r.settings.PayoutBlackjack)
	r.chips += r.payout
	r.phase = GameOver

	s := Settlement{
		HandNumber:  r.handNumber,
		TableID:     r.tableID,
		Bet:         r.bet,
		Result:      result,
		Payout:      r.payout,
		PlayerCards: r.PlayerHand(),
		DealerCards: r.DealerHand(),
		PlayerTotal: Score(r.player),
		DealerTotal: Score(r.dealer),
		ChipsAfter:  r.chips,
	}

	r.logger.Debug("Round settled",
		"hand", s.HandNumber,
		"result", result,
		"bet", s.Bet,
		"payout", s.Payout,
		"player", s.PlayerTotal,
		"dealer", s.DealerTotal,
		"chips", s.ChipsAfter)

	if r.onSettle != nil {
		r.onSettle(s)
	}
}

// Phase returns the current phase
func (r *Round) Phase() Phase { return r.phase }

// Result returns the outcome of the last settled round, ResultNone before settlement
func (r *Round) Result() Result { return r.result }

// Bet returns the stake of the hand in play, 0 while betting
func (r *Round) Bet() int { return r.bet }

// Chips returns the player's balance
func (r *Round) Chips() int { return r.chips }

// Payout returns the chips credited at the last settlement
func (r *Round) Payout() int { return r.payout }

// HandNumber counts the bets placed at this seat
func (r *Round) HandNumber() int { return r.handNumber }

// Settings returns the table rules
func (r *Round) Settings() tables.GameSettings { return r.settings }

// ShoeRemaining returns the cards left in the shoe
func (r *Round) ShoeRemaining() int { return r.shoe.Remaining() }

// ShoeSize returns the number of cards the current shoe started with
func (r *Round) ShoeSize() int { return r.shoe.Size() }

// PlayerHand returns a copy of the player's cards
func (r *Round) PlayerHand() []deck.Card { return append([]deck.Card(nil), r.player...) }

// DealerHand returns a copy of the dealer's cards, hole card included
func (r *Round) DealerHand() []deck.Card { return append([]deck.Card(nil), r.dealer...) }

// PlayerTotal returns the player's best total
func (r *Round) PlayerTotal() int { return Score(r.player) }

// DealerTotal returns the dealer total the player may see: only the up card
// counts while the player is still acting.
func (r *Round) DealerTotal() int {
	if r.phase == Playing && len(r.dealer) > 0 {
		return Score(r.dealer[:1])
	}
	return Score(r.dealer)
}
