package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/windfall/internal/randutil"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck(randutil.New(1))
	require.Equal(t, 52, d.Remaining())
	assert.Equal(t, 52, d.Size())

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestNewDeckCallsAreIndependent(t *testing.T) {
	a := NewDeck(randutil.New(7))
	b := NewDeck(randutil.New(7))

	_, err := a.Draw()
	require.NoError(t, err)

	assert.Equal(t, 51, a.Remaining())
	assert.Equal(t, 52, b.Remaining(), "drawing from one deck must not affect another")
}

func TestNewShoeMultipliesComposition(t *testing.T) {
	d := NewShoe(6, randutil.New(3))
	require.Equal(t, 6*52, d.Remaining())

	counts := make(map[Card]int)
	for _, c := range d.Cards() {
		counts[c]++
	}
	assert.Len(t, counts, 52)
	for c, n := range counts {
		assert.Equal(t, 6, n, "card %s", c)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	d := NewStacked(NewDeck(randutil.New(11)).Cards()...)
	before := make(map[Card]int)
	for _, c := range d.Cards() {
		before[c]++
	}

	d.rng = randutil.New(12)
	d.Shuffle()

	after := make(map[Card]int)
	for _, c := range d.Cards() {
		after[c]++
	}
	assert.Equal(t, before, after)
}

func TestShuffleIsApproximatelyUniform(t *testing.T) {
	const trials = 20000
	rng := randutil.New(42)
	aceOfSpades := NewCard(Spades, Ace)

	// Count how often the ace of spades lands in each position.
	positions := make([]int, 52)
	for i := 0; i < trials; i++ {
		for pos, c := range NewDeck(rng).Cards() {
			if c == aceOfSpades {
				positions[pos]++
				break
			}
		}
	}

	expected := float64(trials) / 52
	for pos, n := range positions {
		assert.InDelta(t, expected, float64(n), expected*0.35, "position %d", pos)
	}
}

func TestDrawTakesFromTop(t *testing.T) {
	cards := MustParseCards("As Kh 9d")
	d := NewStacked(cards...)

	for _, want := range cards {
		got, err := d.Draw()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := d.Draw()
	assert.True(t, errors.Is(err, ErrEmptyDeck))
	assert.True(t, d.IsEmpty())
}

func TestPenetration(t *testing.T) {
	d := NewShoe(1, randutil.New(5))
	assert.Equal(t, 0.0, d.Penetration())

	for i := 0; i < 13; i++ {
		_, err := d.Draw()
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.25, d.Penetration(), 1e-9)

	empty := NewStacked()
	assert.Equal(t, 1.0, empty.Penetration())
}

func TestSeededDecksAreReproducible(t *testing.T) {
	a := NewDeck(randutil.New(99)).Cards()
	b := NewDeck(randutil.New(99)).Cards()
	assert.Equal(t, a, b)
}
