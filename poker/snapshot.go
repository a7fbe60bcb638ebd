package poker

import "pokerroom/card"

type PlayerSnapshot struct {
	ID         string
	Seat       int
	Stack      int64
	CurrentBet int64
	TotalBet   int64
	Status     PlayerStatus
	HasActed   bool
	LastAction ActionType
	ShowCards  bool
	BoughtIn   bool
	HoleCards  []card.Card
}

// Snapshot is a pure projection of the table, taken between messages.
// HoleCards are always populated; per-viewer redaction happens in the
// transport codec.
type Snapshot struct {
	HandNumber uint64
	HandActive bool
	Stage      Stage

	DealerSeat  int
	SBSeat      int
	BBSeat      int
	CurrentSeat int

	SmallBlind int64
	BigBlind   int64

	CurrentBet int64 // call target this round
	MinRaiseTo int64 // smallest legal raise-to total

	Board   []card.Card
	Pots    []Pot
	Players []PlayerSnapshot

	RefundSeat   int
	RefundAmount int64

	Results []HandResult
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		HandNumber:   g.handNumber,
		HandActive:   g.handActive,
		Stage:        g.stage,
		DealerSeat:   g.dealerSeat,
		SBSeat:       g.sbSeat,
		BBSeat:       g.bbSeat,
		CurrentSeat:  g.currentSeat,
		SmallBlind:   g.cfg.SmallBlind,
		BigBlind:     g.cfg.BigBlind,
		CurrentBet:   g.currentBet,
		MinRaiseTo:   g.minRaiseToLocked(),
		Board:        append([]card.Card{}, g.board...),
		Pots:         buildPots(g.seats),
		RefundSeat:   g.refundSeat,
		RefundAmount: g.refundAmount,
		Results:      append([]HandResult{}, g.results...),
	}

	for _, p := range g.seats {
		if p == nil {
			continue
		}
		s.Players = append(s.Players, PlayerSnapshot{
			ID:         p.ID,
			Seat:       p.Seat,
			Stack:      p.stack,
			CurrentBet: p.currentBet,
			TotalBet:   p.totalBet,
			Status:     p.status,
			HasActed:   p.hasActed,
			LastAction: p.lastAction,
			ShowCards:  p.showCards,
			BoughtIn:   p.boughtIn,
			HoleCards:  p.HoleCards(),
		})
	}
	return s
}

func (g *Game) minRaiseToLocked() int64 {
	increment := g.lastRaise
	if increment <= 0 {
		increment = g.cfg.BigBlind
	}
	return g.currentBet + increment
}

// TableChips sums every chip the table currently holds: stacks plus
// contributions not yet distributed. Conserved within a hand.
func (g *Game) TableChips() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var sum int64
	for _, p := range g.seats {
		if p != nil {
			sum += p.stack + p.totalBet
		}
	}
	return sum
}
