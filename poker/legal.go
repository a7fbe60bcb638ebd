package poker

// LegalActions projects what the seat to act may do right now, plus the
// call amount and the smallest raise-to total. Empty when the seat is
// not the current actor.
func (g *Game) LegalActions(seat int) (actions []ActionType, callAmount, minRaiseTo int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.handActive || seat != g.currentSeat {
		return nil, 0, 0
	}
	p := g.seats[seat]
	if p == nil {
		return nil, 0, 0
	}

	if g.stage == StageShowdown {
		actions = []ActionType{ActionShow}
		if g.inHandCountLocked() > 1 {
			actions = append(actions, ActionMuck)
		}
		return actions, 0, 0
	}

	if p.status != StatusPlaying {
		return nil, 0, 0
	}

	callAmount = g.currentBet - p.currentBet
	minRaiseTo = g.minRaiseToLocked()

	actions = append(actions, ActionFold)
	if callAmount == 0 {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}
	if p.stack+p.currentBet > g.currentBet {
		if callAmount == 0 {
			actions = append(actions, ActionBet)
		} else {
			actions = append(actions, ActionRaise)
		}
	}
	if p.stack > 0 {
		actions = append(actions, ActionAllIn)
	}
	return actions, callAmount, minRaiseTo
}
