package deck

import (
	"errors"
	rand "math/rand/v2"

	"github.com/windfall/windfall/internal/randutil"
)

// CardsPerDeck is the size of a standard deck
const CardsPerDeck = 52

// ErrEmptyDeck is returned when drawing from a deck with no cards left
var ErrEmptyDeck = errors.New("deck: no cards remaining")

// Deck represents an ordered pile of cards. The top of the deck is the last
// element of the slice, so drawing never shifts the remaining cards.
type Deck struct {
	cards []Card
	size  int
	rng   *rand.Rand
}

// NewDeck creates a shuffled standard 52-card deck. A nil rng falls back to a
// time-seeded generator.
func NewDeck(rng *rand.Rand) *Deck {
	return NewShoe(1, rng)
}

// NewShoe creates a shuffled shoe made of the given number of standard decks
func NewShoe(decks int, rng *rand.Rand) *Deck {
	if decks < 1 {
		decks = 1
	}
	if rng == nil {
		rng, _ = randutil.NewTimeSeeded()
	}

	d := &Deck{
		cards: make([]Card, 0, decks*CardsPerDeck),
		rng:   rng,
	}
	for i := 0; i < decks; i++ {
		for _, suit := range Suits {
			for rank := Ace; rank <= King; rank++ {
				d.cards = append(d.cards, NewCard(suit, rank))
			}
		}
	}
	d.size = len(d.cards)

	d.Shuffle()
	return d
}

// NewStacked creates an unshuffled deck that deals the given cards in
// argument order: the first card passed is the first card drawn.
func NewStacked(cards ...Card) *Deck {
	d := &Deck{
		cards: make([]Card, len(cards)),
		size:  len(cards),
	}
	for i, c := range cards {
		d.cards[len(cards)-1-i] = c
	}
	return d
}

// Shuffle randomizes the order of the remaining cards (Fisher-Yates)
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, error) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, ErrEmptyDeck
	}

	card := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Size returns the number of cards the deck started with
func (d *Deck) Size() int {
	return d.size
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Penetration returns the fraction of the deck that has been dealt, 0.0 for
// a fresh deck and 1.0 once it is exhausted.
func (d *Deck) Penetration() float64 {
	if d.size == 0 {
		return 1
	}
	return float64(d.size-len(d.cards)) / float64(d.size)
}

// Cards returns a copy of the remaining cards, top of the deck last
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
