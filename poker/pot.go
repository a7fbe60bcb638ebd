package poker

import "sort"

// Pot is one layer of the pot structure. Eligible lists the seats that
// can win it, in ascending seat order.
type Pot struct {
	Amount   int64
	Eligible []int
}

// buildPots partitions all hand contributions into main/side pot layers.
//
// Distinct contribution levels, ascending, cut the money into layers: a
// layer is worth (level - previousLevel) x contributors at or above the
// level, and is winnable by every non-folded contributor at the level.
// Pure function of the seats' totalBet and status.
func buildPots(players []*Player) []Pot {
	contributors := make([]*Player, 0, len(players))
	for _, p := range players {
		if p != nil && p.totalBet > 0 {
			contributors = append(contributors, p)
		}
	}
	if len(contributors) == 0 {
		return nil
	}

	levelSet := make(map[int64]struct{}, len(contributors))
	for _, p := range contributors {
		levelSet[p.totalBet] = struct{}{}
	}
	levels := make([]int64, 0, len(levelSet))
	for lvl := range levelSet {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]Pot, 0, len(levels))
	var prev int64
	for _, lvl := range levels {
		var amount int64
		var eligible []int
		for _, p := range contributors {
			if p.totalBet >= lvl {
				amount += lvl - prev
				if p.inHand() {
					eligible = append(eligible, p.Seat)
				}
			}
		}
		sort.Ints(eligible)
		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		prev = lvl
	}
	return pots
}

// potTotal sums all layers.
func potTotal(pots []Pot) int64 {
	var sum int64
	for _, p := range pots {
		sum += p.Amount
	}
	return sum
}

// returnUncalledBets refunds the part of the highest contribution no other
// live opponent matched. Called once, before distribution.
func returnUncalledBets(players []*Player) (seat int, refund int64) {
	var top, second *Player
	for _, p := range players {
		if p == nil || p.totalBet == 0 {
			continue
		}
		switch {
		case top == nil || p.totalBet > top.totalBet:
			second = top
			top = p
		case second == nil || p.totalBet > second.totalBet:
			second = p
		}
	}
	if top == nil {
		return NoSeat, 0
	}
	matched := int64(0)
	if second != nil {
		matched = second.totalBet
	}
	if top.totalBet <= matched {
		return NoSeat, 0
	}
	excess := top.totalBet - matched
	top.totalBet -= excess
	top.stack += excess
	return top.Seat, excess
}
