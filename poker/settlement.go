package poker

import (
	"fmt"

	"pokerroom/card"
)

// HandResult is one seat's outcome at resolution. Rank is the
// evaluator scalar (lower is stronger); it is zero when the hand never
// reached evaluation (fold-out winner).
type HandResult struct {
	PlayerID string
	Seat     int
	Rank     int
	Category string
	Cards    []card.Card
	Amount   int64
}

// resolveHandLocked ends the hand: refund the uncalled excess, then
// either hand everything to the last claim standing or rank the
// remaining hands and pay out each pot layer.
func (g *Game) resolveHandLocked() error {
	g.refundSeat, g.refundAmount = returnUncalledBets(g.seats)

	contenders := g.participantsFromLocked(g.dealerSeat + 1)

	switch len(contenders) {
	case 0:
		// defensive: nothing to award, refund already ran
	case 1:
		// fold-out: the winner takes the pot unranked and unrevealed
		winner := contenders[0]
		total := potTotal(buildPots(g.seats))
		winner.addStack(total)
		g.results = []HandResult{{
			PlayerID: winner.ID,
			Seat:     winner.Seat,
			Amount:   total,
		}}
		g.emit(Event{Kind: EventPotAwarded, Seat: winner.Seat, Amount: total})
	default:
		if err := g.settleShowdownLocked(contenders); err != nil {
			return g.abortHandLocked(err)
		}
	}

	g.emit(Event{Kind: EventHandFinished, Seat: NoSeat, Results: g.results})
	g.finishHandLocked()
	return nil
}

// settleShowdownLocked ranks every remaining hand and distributes each
// pot layer to its best eligible hand(s), odd chip to the first winner
// left of the dealer. A layer whose claimants all mucked goes to the
// best shown hand so no pot is left undistributed.
func (g *Game) settleShowdownLocked(contenders []*Player) error {
	ranks := make(map[int]HandRank, len(contenders))
	for _, p := range contenders {
		cards := append(p.HoleCards(), g.board...)
		rank, err := Evaluate(cards)
		if err != nil {
			return fmt.Errorf("rank seat %d: %v", p.Seat, err)
		}
		ranks[p.Seat] = rank
	}

	shown := make([]int, 0, len(contenders))
	for _, p := range contenders {
		shown = append(shown, p.Seat)
	}

	won := make(map[int]int64, len(contenders))
	for _, pot := range buildPots(g.seats) {
		winners := bestSeats(pot.Eligible, ranks)
		if len(winners) == 0 {
			// every claimant of this layer mucked; the chips go to
			// the best hand still shown
			winners = bestSeats(shown, ranks)
		}
		if len(winners) == 0 {
			continue
		}
		// seat order left of the dealer decides the odd chip
		winners = g.orderFromDealerLocked(winners)
		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))
		for i, seat := range winners {
			amount := share
			if int64(i) < remainder {
				amount++
			}
			g.seats[seat].addStack(amount)
			won[seat] += amount
			g.emit(Event{Kind: EventPotAwarded, Seat: seat, Amount: amount})
		}
	}

	g.results = g.results[:0]
	for _, p := range contenders {
		rank := ranks[p.Seat]
		g.results = append(g.results, HandResult{
			PlayerID: p.ID,
			Seat:     p.Seat,
			Rank:     rank.Rank(),
			Category: rank.CategoryName(),
			Cards:    rank.Best,
			Amount:   won[p.Seat],
		})
	}
	return nil
}

// bestSeats picks the seats holding the strongest rank among eligible.
func bestSeats(eligible []int, ranks map[int]HandRank) []int {
	var best []int
	for _, seat := range eligible {
		rank, ok := ranks[seat]
		if !ok {
			continue
		}
		if len(best) == 0 {
			best = []int{seat}
			continue
		}
		switch {
		case rank.Beats(ranks[best[0]]):
			best = []int{seat}
		case rank.Equals(ranks[best[0]]):
			best = append(best, seat)
		}
	}
	return best
}

// orderFromDealerLocked sorts seats by clockwise distance from the seat
// left of the dealer.
func (g *Game) orderFromDealerLocked(seats []int) []int {
	n := len(g.seats)
	dist := func(seat int) int {
		return ((seat - g.dealerSeat - 1) % n + n) % n
	}
	out := make([]int, len(seats))
	copy(out, seats)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && dist(out[j]) < dist(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
