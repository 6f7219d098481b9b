// Package blackjack implements single-player blackjack against a dealer.
//
// The main type is Round, one player's seat at a table. A Round owns the
// shoe, both hands, the current bet and the player's chip balance, and moves
// through three phases:
//
//	Betting --PlaceBet--> Playing --Hit (bust) / Stand--> GameOver --NewHand--> Betting
//
// A player 21 on the deal settles straight from PlaceBet. Every action is
// rejected with ErrInvalidPhase outside its phase, and a refused bet returns a
// *BetRejection that matches ErrInvalidBet.
//
// # Deterministic Testing
//
// Stack the shoe to control every card. Cards are dealt player, dealer,
// player, dealer, then to whoever draws next:
//
//	cards := deck.MustParseCards("As 9h Kd 8c")
//	r, _ := blackjack.NewRound(settings, 1000, blackjack.WithShoeSource(
//	    func(int) *deck.Deck { return deck.NewStacked(cards...) }))
//	r.PlaceBet(10) // player natural, settles as ResultBlackjack
//
// Or seed the shuffle with WithRNG(randutil.New(seed)).
package blackjack
