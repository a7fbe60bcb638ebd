package poker

import (
	"fmt"
	"sort"

	"pokerroom/card"
)

// Hand categories, ascending strength.
const (
	CategoryHighCard      = 1
	CategoryOnePair       = 2
	CategoryTwoPair       = 3
	CategoryThreeOfAKind  = 4
	CategoryStraight      = 5
	CategoryFlush         = 6
	CategoryFullHouse     = 7
	CategoryFourOfAKind   = 8
	CategoryStraightFlush = 9
	CategoryRoyalFlush    = 10
)

var categoryNames = map[int]string{
	CategoryHighCard:      "High Card",
	CategoryOnePair:       "One Pair",
	CategoryTwoPair:       "Two Pair",
	CategoryThreeOfAKind:  "Three of a Kind",
	CategoryStraight:      "Straight",
	CategoryFlush:         "Flush",
	CategoryFullHouse:     "Full House",
	CategoryFourOfAKind:   "Four of a Kind",
	CategoryStraightFlush: "Straight Flush",
	CategoryRoyalFlush:    "Royal Flush",
}

// HandRank is the total order over poker hands: category first, then the
// category's tie-break tuple compared element-wise.
type HandRank struct {
	Category int
	// Ranks is the tie-break tuple, most significant first. Values use
	// ace-high ranks (A=14) except the wheel straight, reported as 5-high.
	Ranks []int
	// Best is the winning five-card subset.
	Best []card.Card
}

func (r HandRank) CategoryName() string {
	if name, ok := categoryNames[r.Category]; ok {
		return name
	}
	return "Unknown"
}

// score packs the rank into a single comparable integer, higher is
// stronger: category then up to five 4-bit kickers.
func (r HandRank) score() int {
	s := r.Category << 20
	for i := 0; i < 5; i++ {
		v := 0
		if i < len(r.Ranks) {
			v = r.Ranks[i]
		}
		s |= v << uint(16-4*i)
	}
	return s
}

const maxHandScore = CategoryRoyalFlush<<20 | 0xFFFFF

// Rank is the wire-facing scalar: lower is stronger, equal means split.
func (r HandRank) Rank() int {
	return maxHandScore - r.score()
}

// Beats reports whether r is strictly stronger than other.
func (r HandRank) Beats(other HandRank) bool {
	return r.score() > other.score()
}

// Equals reports an exact tie (split pot).
func (r HandRank) Equals(other HandRank) bool {
	return r.score() == other.score()
}

// Evaluate ranks the best five-card hand among 5 to 7 cards.
func Evaluate(cards []card.Card) (HandRank, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HandRank{}, fmt.Errorf("evaluate needs 5..7 cards, got %d", n)
	}
	if n == 5 {
		return eval5(cards), nil
	}

	var best HandRank
	first := true
	pick := make([]card.Card, 5)
	// all C(n,5) subsets
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			r := eval5(pick)
			if first || r.score() > best.score() {
				best = r
				first = false
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			pick[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best, nil
}

// eval5 ranks exactly five cards.
func eval5(cards []card.Card) HandRank {
	best := make([]card.Card, 5)
	copy(best, cards)

	counts := make(map[int]int, 5)
	suits := make(map[card.Suit]int, 4)
	for _, c := range cards {
		counts[c.HighValue()]++
		suits[c.Suit()]++
	}

	flush := len(suits) == 1
	straightHi := straightHigh(counts)

	if flush && straightHi > 0 {
		cat := CategoryStraightFlush
		if straightHi == 14 {
			cat = CategoryRoyalFlush
		}
		return HandRank{Category: cat, Ranks: []int{straightHi}, Best: best}
	}

	// group ranks by multiplicity
	var quads, trips, pairs, singles []int
	for v, c := range counts {
		switch c {
		case 4:
			quads = append(quads, v)
		case 3:
			trips = append(trips, v)
		case 2:
			pairs = append(pairs, v)
		default:
			singles = append(singles, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))
	sort.Sort(sort.Reverse(sort.IntSlice(singles)))

	switch {
	case len(quads) == 1:
		return HandRank{Category: CategoryFourOfAKind, Ranks: append([]int{quads[0]}, singles...), Best: best}
	case len(trips) == 1 && len(pairs) == 1:
		return HandRank{Category: CategoryFullHouse, Ranks: []int{trips[0], pairs[0]}, Best: best}
	case flush:
		return HandRank{Category: CategoryFlush, Ranks: singles, Best: best}
	case straightHi > 0:
		return HandRank{Category: CategoryStraight, Ranks: []int{straightHi}, Best: best}
	case len(trips) == 1:
		return HandRank{Category: CategoryThreeOfAKind, Ranks: append([]int{trips[0]}, singles...), Best: best}
	case len(pairs) == 2:
		return HandRank{Category: CategoryTwoPair, Ranks: append(pairs, singles...), Best: best}
	case len(pairs) == 1:
		return HandRank{Category: CategoryOnePair, Ranks: append(pairs, singles...), Best: best}
	default:
		return HandRank{Category: CategoryHighCard, Ranks: singles, Best: best}
	}
}

// straightHigh returns the high card of a five-card straight, 0 when the
// ranks do not form one. The wheel (A-2-3-4-5) reports 5.
func straightHigh(counts map[int]int) int {
	if len(counts) != 5 {
		return 0
	}
	vals := make([]int, 0, 5)
	for v := range counts {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	if vals[4]-vals[0] == 4 {
		return vals[4]
	}
	// wheel: A counts low
	if vals[4] == 14 && vals[0] == 2 && vals[3] == 5 {
		return 5
	}
	return 0
}
