package poker

import "fmt"

// BuyIn funds a seated player for the first time. The external wallet
// debit happens before this call; a rejection here means the caller
// must roll that debit back.
func (g *Game) BuyIn(playerID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOfLocked(playerID)
	if seat == NoSeat {
		return fmt.Errorf("player %s is not seated", playerID)
	}
	p := g.seats[seat]
	if p.boughtIn {
		return ErrAlreadyBoughtIn
	}
	if amount < g.cfg.MinBuyIn || amount > g.cfg.MaxBuyIn {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrAmountOutOfRange, amount, g.cfg.MinBuyIn, g.cfg.MaxBuyIn)
	}
	p.stack = amount
	p.boughtIn = true
	p.status = StatusWaiting
	return nil
}

// Rebuy refunds a busted seat. It only changes chips that sit outside
// any live hand, so it is safe mid-hand and effective at the next deal.
func (g *Game) Rebuy(playerID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOfLocked(playerID)
	if seat == NoSeat {
		return fmt.Errorf("player %s is not seated", playerID)
	}
	p := g.seats[seat]
	if !g.cfg.AllowRebuys {
		return fmt.Errorf("%w: table does not allow rebuys", ErrIllegalMove)
	}
	if !p.boughtIn || p.status != StatusBusted {
		return fmt.Errorf("%w: only busted players rebuy", ErrIllegalMove)
	}
	if amount < g.cfg.MinBuyIn || amount > g.cfg.MaxBuyIn {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrAmountOutOfRange, amount, g.cfg.MinBuyIn, g.cfg.MaxBuyIn)
	}
	p.stack += amount
	p.status = StatusWaiting
	return nil
}

// CashOut frees the seat and reports the stack to credit back to the
// wallet. Rejected while the seat is in a live hand.
func (g *Game) CashOut(playerID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seat := g.seatOfLocked(playerID)
	if seat == NoSeat {
		return 0, fmt.Errorf("player %s is not seated", playerID)
	}
	p := g.seats[seat]
	if g.handActive && p.inHand() {
		return 0, ErrHandInProgress
	}
	amount := p.stack
	g.seats[seat] = nil
	return amount, nil
}
