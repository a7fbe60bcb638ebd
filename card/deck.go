package card

import (
	"errors"
	"math/rand"
)

// ErrDeckExhausted is returned by Draw when no cards remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered pile of cards. Draw takes from the top.
type Deck struct {
	cards []Card
}

// NewDeck returns a full 52-card deck shuffled with the given source.
// A nil source leaves the deck unshuffled.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, len(FullDeck))}
	copy(d.cards, FullDeck)
	if rng != nil {
		d.Shuffle(rng)
	}
	return d
}

// NewStackedDeck builds a deck that deals the given cards in order.
// Intended for tests.
func NewStackedDeck(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Shuffle reorders the remaining cards with a Fisher-Yates pass.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Remaining reports how many cards are left to draw.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return CardInvalid, ErrDeckExhausted
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

// DrawN removes and returns the top n cards, failing if fewer remain.
func (d *Deck) DrawN(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Burn discards the top card unseen.
func (d *Deck) Burn() error {
	_, err := d.Draw()
	return err
}
