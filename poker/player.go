package poker

import "pokerroom/card"

// Player is one occupied seat. All mutation happens under the Game lock.
type Player struct {
	ID   string
	Seat int

	stack      int64
	currentBet int64 // this betting round
	totalBet   int64 // cumulative this hand

	status     PlayerStatus
	hasActed   bool
	lastAction ActionType
	showCards  bool
	boughtIn   bool

	holeCards []card.Card
}

func (p *Player) Stack() int64         { return p.stack }
func (p *Player) CurrentBet() int64    { return p.currentBet }
func (p *Player) TotalBet() int64      { return p.totalBet }
func (p *Player) Status() PlayerStatus { return p.status }
func (p *Player) HasActed() bool       { return p.hasActed }
func (p *Player) LastAction() ActionType { return p.lastAction }
func (p *Player) ShowCards() bool      { return p.showCards }
func (p *Player) BoughtIn() bool       { return p.boughtIn }

func (p *Player) HoleCards() []card.Card {
	out := make([]card.Card, len(p.holeCards))
	copy(out, p.holeCards)
	return out
}

// inHand reports whether the player still holds a claim on the pot.
func (p *Player) inHand() bool {
	return p.status == StatusPlaying || p.status == StatusAllIn
}

// canBeDealt reports eligibility for the next deal.
func (p *Player) canBeDealt() bool {
	return p.boughtIn && p.stack > 0 && p.status != StatusBusted
}

func (p *Player) resetForHand() {
	p.currentBet = 0
	p.totalBet = 0
	p.hasActed = false
	p.lastAction = ActionNone
	p.showCards = false
	p.holeCards = p.holeCards[:0]
	p.status = StatusPlaying
}

func (p *Player) resetForRound() {
	p.currentBet = 0
	if p.status == StatusPlaying {
		p.hasActed = false
	}
}

// placeBet moves up to amount from stack into the round bet. Exhausting
// the stack flips the player to all-in.
func (p *Player) placeBet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount >= p.stack {
		amount = p.stack
		p.status = StatusAllIn
	}
	p.stack -= amount
	p.currentBet += amount
	p.totalBet += amount
	return amount
}

func (p *Player) addHoleCards(cards ...card.Card) {
	p.holeCards = append(p.holeCards, cards...)
}

func (p *Player) addStack(amount int64) {
	p.stack += amount
}
