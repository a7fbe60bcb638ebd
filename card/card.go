package card

import (
	"fmt"
	"strings"
)

// Card is a single playing card packed into one byte.
//
// Encoding:
// - high nibble: suit (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - low nibble: rank (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	if c == CardBack {
		return "Back"
	}
	return fmt.Sprintf("%s%s", c.Suit(), c.rankString())
}

// Code returns the two-character card code used on the wire, e.g. "As", "Td".
func (c Card) Code() string {
	if c == CardInvalid || c == CardBack {
		return "??"
	}
	return c.rankString() + c.Suit().Code()
}

func (c Card) rankString() string {
	switch c.Rank() {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", c.Rank())
	}
}

// Rank returns the face value 1-13 (A=1, K=13).
func (c Card) Rank() byte {
	if c == CardInvalid || c == CardBack {
		return 0
	}
	return byte(c & 0x0F)
}

// Suit returns the suit encoded in the high nibble.
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// HighValue returns the rank used for hand comparison: A counts as 14,
// everything else keeps its face value.
func (c Card) HighValue() int {
	r := int(c & 0x0F)
	if r == 1 {
		return 14
	}
	return r
}

// Parse converts a card code such as "As", "Td" or "10h" into a Card.
func Parse(code string) (Card, error) {
	if len(code) < 2 {
		return CardInvalid, fmt.Errorf("invalid card code: %q", code)
	}

	var suitBase Card
	switch code[len(code)-1] {
	case 's', 'S':
		suitBase = 0x00
	case 'h', 'H':
		suitBase = 0x10
	case 'c', 'C':
		suitBase = 0x20
	case 'd', 'D':
		suitBase = 0x30
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", code[len(code)-1])
	}

	var rank Card
	switch strings.ToUpper(code[:len(code)-1]) {
	case "A":
		rank = 0x01
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = Card(code[0] - '0')
	case "T", "10":
		rank = 0x0A
	case "J":
		rank = 0x0B
	case "Q":
		rank = 0x0C
	case "K":
		rank = 0x0D
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %q", code[:len(code)-1])
	}

	return suitBase | rank, nil
}

// MustParse is Parse for fixtures; it panics on bad input.
func MustParse(code string) Card {
	c, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Codes renders a card slice as wire codes.
func Codes(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code()
	}
	return out
}
