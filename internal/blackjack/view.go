package blackjack

import "github.com/windfall/windfall/internal/deck"

// Action names a move the player may make
type Action string

const (
	ActionBet     Action = "bet"
	ActionHit     Action = "hit"
	ActionStand   Action = "stand"
	ActionNewHand Action = "new_hand"
)

// CardView is a card as shown to the player. A hidden card carries no rank
// or suit.
type CardView struct {
	Rank   string `json:"rank,omitempty"`
	Suit   string `json:"suit,omitempty"`
	Label  string `json:"label"`
	Red    bool   `json:"red,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// View is the player-facing snapshot of a round. The dealer's hole card is
// hidden while the player is still acting.
type View struct {
	Phase       Phase      `json:"phase"`
	Result      Result     `json:"result,omitempty"`
	HandNumber  int        `json:"hand_number"`
	Bet         int        `json:"bet"`
	Chips       int        `json:"chips"`
	Payout      int        `json:"payout,omitempty"`
	PlayerCards []CardView `json:"player_cards"`
	DealerCards []CardView `json:"dealer_cards"`
	PlayerTotal int        `json:"player_total"`
	DealerTotal int        `json:"dealer_total"`
	Actions     []Action   `json:"actions"`
	ShoeLeft    int        `json:"shoe_remaining"`
	ShoeSize    int        `json:"shoe_size"`
}

// View returns the current snapshot
func (r *Round) View() View {
	v := View{
		Phase:       r.phase,
		Result:      r.result,
		HandNumber:  r.handNumber,
		Bet:         r.bet,
		Chips:       r.chips,
		Payout:      r.payout,
		PlayerCards: make([]CardView, 0, len(r.player)),
		DealerCards: make([]CardView, 0, len(r.dealer)),
		PlayerTotal: r.PlayerTotal(),
		DealerTotal: r.DealerTotal(),
		Actions:     r.Actions(),
		ShoeLeft:    r.shoe.Remaining(),
		ShoeSize:    r.shoe.Size(),
	}

	for _, c := range r.player {
		v.PlayerCards = append(v.PlayerCards, cardView(c))
	}
	for i, c := range r.dealer {
		if i == 1 && r.phase == Playing {
			v.DealerCards = append(v.DealerCards, CardView{Label: "??", Hidden: true})
			continue
		}
		v.DealerCards = append(v.DealerCards, cardView(c))
	}
	return v
}

// Actions lists the moves legal in the current phase
func (r *Round) Actions() []Action {
	switch r.phase {
	case Betting:
		if r.chips >= r.settings.MinBet {
			return []Action{ActionBet}
		}
		return []Action{}
	case Playing:
		return []Action{ActionHit, ActionStand}
	default:
		return []Action{ActionNewHand}
	}
}

func cardView(c deck.Card) CardView {
	return CardView{
		Rank:  c.Rank.String(),
		Suit:  c.Suit.String(),
		Label: c.String(),
		Red:   c.IsRed(),
	}
}
