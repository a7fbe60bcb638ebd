package poker

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"pokerroom/card"
)

// Game is the authoritative state of one table. Every exported method
// takes the lock; callers are expected to serialize access anyway (one
// actor per table) but the engine stays safe on its own.
type Game struct {
	cfg Config
	rng *rand.Rand

	// newDeck builds the deck for each hand; tests stack it
	newDeck func(rng *rand.Rand) *card.Deck

	mu sync.Mutex

	seats []*Player

	// hand state
	handNumber uint64
	handActive bool
	stage      Stage
	deck       *card.Deck
	board      []card.Card

	dealerSeat  int
	sbSeat      int
	bbSeat      int
	currentSeat int

	// betting round state
	currentBet int64 // call target: highest currentBet this round
	lastRaise  int64 // size of the previous bet/raise, min-raise basis

	refundSeat   int
	refundAmount int64

	results []HandResult
	pending []Event
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		newDeck:     card.NewDeck,
		seats:       make([]*Player, cfg.MaxSeats),
		stage:       StageIdle,
		dealerSeat:  NoSeat,
		sbSeat:      NoSeat,
		bbSeat:      NoSeat,
		currentSeat: NoSeat,
		refundSeat:  NoSeat,
	}, nil
}

func (g *Game) Config() Config { return g.cfg }

// Sit seats a player as an observer. Buy-in comes separately.
func (g *Game) Sit(seat int, playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= len(g.seats) {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if g.seats[seat] != nil {
		return fmt.Errorf("seat %d already occupied", seat)
	}
	if s := g.seatOfLocked(playerID); s != NoSeat {
		return fmt.Errorf("player %s already seated at %d", playerID, s)
	}
	g.seats[seat] = &Player{
		ID:     playerID,
		Seat:   seat,
		status: StatusObserver,
	}
	return nil
}

// StandUp frees a seat that holds no chips and no live hand. Players
// with a stack leave through CashOut.
func (g *Game) StandUp(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.playerAtLocked(seat)
	if err != nil {
		return err
	}
	if g.handActive && p.inHand() {
		return ErrHandInProgress
	}
	if p.stack > 0 {
		return errInvalidState("seat holds chips, cash out instead")
	}
	g.seats[seat] = nil
	return nil
}

func (g *Game) Player(seat int) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= len(g.seats) {
		return nil
	}
	return g.seats[seat]
}

func (g *Game) SeatOf(playerID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seatOfLocked(playerID)
}

func (g *Game) seatOfLocked(playerID string) int {
	for _, p := range g.seats {
		if p != nil && p.ID == playerID {
			return p.Seat
		}
	}
	return NoSeat
}

func (g *Game) playerAtLocked(seat int) (*Player, error) {
	if seat < 0 || seat >= len(g.seats) {
		return nil, fmt.Errorf("invalid seat %d", seat)
	}
	if g.seats[seat] == nil {
		return nil, fmt.Errorf("seat %d is empty", seat)
	}
	return g.seats[seat], nil
}

func (g *Game) HandNumber() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handNumber
}

func (g *Game) Stage() Stage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stage
}

func (g *Game) HandActive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handActive
}

func (g *Game) CurrentSeat() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentSeat
}

// Results returns the settlement of the last finished hand.
func (g *Game) Results() []HandResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]HandResult, len(g.results))
	copy(out, g.results)
	return out
}

// CanStartHand reports whether enough bought-in, stacked players are
// seated and no hand is running.
func (g *Game) CanStartHand() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.handActive && len(g.dealableLocked()) >= g.cfg.MinPlayers
}

func (g *Game) dealableLocked() []*Player {
	out := make([]*Player, 0, len(g.seats))
	for _, p := range g.seats {
		if p != nil && p.canBeDealt() {
			out = append(out, p)
		}
	}
	return out
}

// StartHand begins a new hand: advance the button, reset seats, shuffle,
// deal hole cards and post blinds.
func (g *Game) StartHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.handActive {
		return ErrHandInProgress
	}
	dealable := g.dealableLocked()
	if len(dealable) < g.cfg.MinPlayers {
		return fmt.Errorf("%w: %d < %d", ErrNotEnoughPlayers, len(dealable), g.cfg.MinPlayers)
	}

	g.handNumber++
	g.handActive = true
	g.board = g.board[:0]
	g.results = nil
	g.refundSeat = NoSeat
	g.refundAmount = 0
	g.currentBet = 0
	g.lastRaise = 0
	g.deck = g.newDeck(g.rng)

	for _, p := range dealable {
		p.resetForHand()
	}

	g.advanceDealerLocked(dealable)
	g.emit(Event{Kind: EventHandStarted, Stage: StagePreflop, Seat: g.dealerSeat})

	if err := g.dealHoleCardsLocked(); err != nil {
		return g.abortHandLocked(err)
	}
	g.postBlindsLocked()

	g.stage = StagePreflop

	// heads-up: the dealer is the small blind and acts first pre-flop
	var firstSeat int
	if len(dealable) == 2 {
		firstSeat = g.dealerSeat
	} else {
		firstSeat = g.bbSeat + 1
	}
	g.currentSeat = g.nextActorLocked(firstSeat)

	if g.currentSeat == NoSeat || g.isBettingRoundCompleteLocked() {
		// blinds already put everyone all-in
		return g.completeBettingRoundLocked()
	}
	return nil
}

// advanceDealerLocked moves the button to the next dealable seat
// strictly after the previous one. First hand: configured or random.
func (g *Game) advanceDealerLocked(dealable []*Player) {
	if g.dealerSeat == NoSeat {
		if g.cfg.FirstDealer != NoSeat {
			g.dealerSeat = g.cfg.FirstDealer
		} else {
			g.dealerSeat = dealable[g.rng.Intn(len(dealable))].Seat
		}
	} else {
		g.dealerSeat = g.nextDealableSeatLocked(g.dealerSeat + 1)
	}

	// blinds relative to the button
	if len(dealable) == 2 {
		g.sbSeat = g.dealerSeat
		g.bbSeat = g.nextDealableSeatLocked(g.dealerSeat + 1)
	} else {
		g.sbSeat = g.nextDealableSeatLocked(g.dealerSeat + 1)
		g.bbSeat = g.nextDealableSeatLocked(g.sbSeat + 1)
	}
}

func (g *Game) nextDealableSeatLocked(start int) int {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		seat := ((start + i) % n + n) % n
		p := g.seats[seat]
		if p != nil && p.status == StatusPlaying {
			return seat
		}
	}
	return NoSeat
}

// dealHoleCardsLocked deals one card per participant around the table,
// then the second, starting left of the dealer.
func (g *Game) dealHoleCardsLocked() error {
	order := g.participantsFromLocked(g.dealerSeat + 1)
	for round := 0; round < 2; round++ {
		for _, p := range order {
			c, err := g.deck.Draw()
			if err != nil {
				return err
			}
			p.addHoleCards(c)
		}
	}
	for _, p := range order {
		g.emit(Event{Kind: EventHoleCards, Stage: StagePreflop, Seat: p.Seat, Cards: p.HoleCards()})
	}
	return nil
}

// participantsFromLocked lists in-hand players in seat order from start.
func (g *Game) participantsFromLocked(start int) []*Player {
	n := len(g.seats)
	out := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		seat := ((start + i) % n + n) % n
		p := g.seats[seat]
		if p != nil && p.inHand() {
			out = append(out, p)
		}
	}
	return out
}

// postBlindsLocked posts min(blind, stack); a short post is an
// immediate all-in. The big blind's post counts as its round action,
// the small blind still owes the rest of the call.
func (g *Game) postBlindsLocked() {
	if sb := g.seats[g.sbSeat]; sb != nil {
		paid := sb.placeBet(g.cfg.SmallBlind)
		g.emit(Event{Kind: EventBlindPosted, Stage: StagePreflop, Seat: sb.Seat, Amount: paid})
	}
	if bb := g.seats[g.bbSeat]; bb != nil {
		paid := bb.placeBet(g.cfg.BigBlind)
		bb.hasActed = true
		g.emit(Event{Kind: EventBlindPosted, Stage: StagePreflop, Seat: bb.Seat, Amount: paid})
	}
	for _, p := range g.seats {
		if p != nil && p.currentBet > g.currentBet {
			g.currentBet = p.currentBet
		}
	}
	g.lastRaise = g.cfg.BigBlind
}

// nextActorLocked scans circularly from start for a playing seat that
// still owes a decision. NoSeat means the round has no actor left.
func (g *Game) nextActorLocked(start int) int {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		seat := ((start + i) % n + n) % n
		p := g.seats[seat]
		if p != nil && p.status == StatusPlaying && !p.hasActed {
			return seat
		}
	}
	return NoSeat
}

func (g *Game) inHandCountLocked() int {
	count := 0
	for _, p := range g.seats {
		if p != nil && p.inHand() {
			count++
		}
	}
	return count
}

// Act applies one player action. For BET/RAISE the amount is the total
// the seat raises to for this round; it is clamped to the legal window
// and a raise to the full stack is an all-in. Other actions ignore it.
func (g *Game) Act(seat int, action ActionType, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.handActive {
		return ErrNoHandInProgress
	}
	p, err := g.playerAtLocked(seat)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if seat != g.currentSeat {
		return ErrOutOfTurn
	}

	if g.stage == StageShowdown {
		return g.actShowdownLocked(p, action)
	}
	if p.status != StatusPlaying {
		return fmt.Errorf("%w: seat %d is %s", ErrIllegalMove, seat, p.status)
	}

	callAmount := g.currentBet - p.currentBet

	switch action {
	case ActionFold:
		p.status = StatusFolded
		p.showCards = false
		p.lastAction = ActionFold

	case ActionCheck:
		if callAmount != 0 {
			return fmt.Errorf("%w: cannot check facing a bet of %d", ErrIllegalMove, g.currentBet)
		}
		p.lastAction = ActionCheck

	case ActionCall:
		if callAmount <= 0 {
			return fmt.Errorf("%w: nothing to call", ErrIllegalMove)
		}
		p.placeBet(callAmount)
		p.lastAction = ActionCall
		if p.status == StatusAllIn {
			p.lastAction = ActionAllIn
		}

	case ActionBet, ActionRaise, ActionAllIn:
		if err := g.applyRaiseLocked(p, action, amount, callAmount); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %s not accepted during %s", ErrIllegalMove, action, g.stage)
	}

	p.hasActed = true
	g.emit(Event{Kind: EventActionApplied, Seat: seat, Action: p.lastAction, Amount: p.currentBet})

	// fold-out: one claim left, no further stages, no evaluation
	if g.inHandCountLocked() <= 1 {
		return g.resolveHandLocked()
	}
	if g.isBettingRoundCompleteLocked() {
		return g.completeBettingRoundLocked()
	}
	g.currentSeat = g.nextActorLocked(seat + 1)
	if g.currentSeat == NoSeat {
		return g.completeBettingRoundLocked()
	}
	return nil
}

// applyRaiseLocked handles BET/RAISE/ALLIN as a raise-to target.
func (g *Game) applyRaiseLocked(p *Player, action ActionType, amount, callAmount int64) error {
	maxTo := p.stack + p.currentBet
	if action == ActionAllIn {
		amount = maxTo
	}

	if maxTo <= g.currentBet {
		// cannot exceed the call target; all-in for less is a short call
		if action != ActionAllIn {
			return fmt.Errorf("%w: stack only covers a call", ErrIllegalMove)
		}
		p.placeBet(p.stack)
		p.lastAction = ActionAllIn
		return nil
	}

	minIncrement := g.lastRaise
	if minIncrement <= 0 {
		minIncrement = g.cfg.BigBlind
	}
	minTo := g.currentBet + minIncrement
	if minTo > maxTo {
		// an all-in below the minimum raise is still allowed
		minTo = maxTo
	}
	if amount < minTo {
		amount = minTo
	}
	if amount > maxTo {
		amount = maxTo
	}

	increment := amount - g.currentBet
	p.placeBet(amount - p.currentBet)

	g.lastRaise = increment
	g.currentBet = amount
	// everyone playing must respond to the new price
	for _, other := range g.seats {
		if other != nil && other != p && other.status == StatusPlaying {
			other.hasActed = false
		}
	}

	switch {
	case p.status == StatusAllIn:
		p.lastAction = ActionAllIn
	case callAmount == 0:
		p.lastAction = ActionBet
	default:
		p.lastAction = ActionRaise
	}
	return nil
}

// isBettingRoundCompleteLocked: complete when at most one claim
// remains, or every playing seat has acted and matched the call target.
func (g *Game) isBettingRoundCompleteLocked() bool {
	if g.inHandCountLocked() <= 1 {
		return true
	}
	for _, p := range g.seats {
		if p == nil || p.status != StatusPlaying {
			continue
		}
		if !p.hasActed || p.currentBet != g.currentBet {
			return false
		}
	}
	return true
}

// completeBettingRoundLocked resets the round and advances stages,
// running the board out when nobody can bet anymore.
func (g *Game) completeBettingRoundLocked() error {
	for {
		for _, p := range g.seats {
			if p != nil {
				p.resetForRound()
			}
		}
		g.currentBet = 0
		g.lastRaise = 0
		g.currentSeat = NoSeat

		if g.stage == StageRiver {
			return g.beginShowdownLocked()
		}

		g.stage++
		if err := g.dealBoardLocked(); err != nil {
			return g.abortHandLocked(err)
		}
		g.emit(Event{Kind: EventStageAdvanced, Stage: g.stage})

		g.currentSeat = g.nextActorLocked(g.dealerSeat + 1)
		if g.currentSeat != NoSeat && !g.isBettingRoundCompleteLocked() {
			return nil
		}
		// all-in runout: keep dealing
	}
}

// dealBoardLocked burns one card, then deals the stage's board cards.
func (g *Game) dealBoardLocked() error {
	var n int
	switch g.stage {
	case StageFlop:
		n = 3
	case StageTurn, StageRiver:
		n = 1
	default:
		return nil
	}
	if err := g.deck.Burn(); err != nil {
		return err
	}
	cards, err := g.deck.DrawN(n)
	if err != nil {
		return err
	}
	g.board = append(g.board, cards...)
	g.emit(Event{Kind: EventBoardDealt, Stage: g.stage, Cards: cards})
	return nil
}

// beginShowdownLocked opens the show/muck phase, left of the dealer
// first. With a single claim left it resolves immediately.
func (g *Game) beginShowdownLocked() error {
	g.stage = StageShowdown
	g.emit(Event{Kind: EventStageAdvanced, Stage: StageShowdown})

	if g.inHandCountLocked() <= 1 {
		return g.resolveHandLocked()
	}
	for _, p := range g.seats {
		if p != nil && p.inHand() {
			p.hasActed = false
		}
	}
	g.currentSeat = g.nextShowdownActorLocked()
	return nil
}

func (g *Game) nextShowdownActorLocked() int {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		seat := ((g.dealerSeat + 1 + i) % n + n) % n
		p := g.seats[seat]
		if p != nil && p.inHand() && !p.hasActed && len(p.holeCards) > 0 {
			return seat
		}
	}
	return NoSeat
}

// actShowdownLocked applies a show/muck decision. The last claim
// standing may not muck.
func (g *Game) actShowdownLocked(p *Player, action ActionType) error {
	if !p.inHand() || len(p.holeCards) == 0 {
		return fmt.Errorf("%w: seat %d has no showdown decision", ErrIllegalMove, p.Seat)
	}
	switch action {
	case ActionShow:
		p.showCards = true
	case ActionMuck:
		if g.inHandCountLocked() <= 1 {
			return fmt.Errorf("%w: last hand standing must show", ErrIllegalMove)
		}
		p.status = StatusFolded
		p.showCards = false
	default:
		return fmt.Errorf("%w: %s not accepted during showdown", ErrIllegalMove, action)
	}
	p.hasActed = true
	p.lastAction = action
	g.emit(Event{Kind: EventActionApplied, Seat: p.Seat, Action: action})

	if g.isShowdownCompleteLocked() {
		return g.resolveHandLocked()
	}
	g.currentSeat = g.nextShowdownActorLocked()
	if g.currentSeat == NoSeat {
		return g.resolveHandLocked()
	}
	return nil
}

func (g *Game) isShowdownCompleteLocked() bool {
	if g.inHandCountLocked() <= 1 {
		return true
	}
	for _, p := range g.seats {
		if p != nil && p.inHand() && len(p.holeCards) > 0 && !p.hasActed {
			return false
		}
	}
	return true
}

// abortHandLocked unwinds the current hand: every contribution goes
// back to its seat and no pot is awarded. The table stays usable.
func (g *Game) abortHandLocked(cause error) error {
	for _, p := range g.seats {
		if p == nil || p.totalBet == 0 {
			continue
		}
		p.stack += p.totalBet
		p.totalBet = 0
		p.currentBet = 0
	}
	g.emit(Event{Kind: EventHandAborted, Seat: NoSeat})
	g.finishHandLocked()
	return fmt.Errorf("hand %d aborted: %w", g.handNumber, cause)
}

// finishHandLocked settles seat statuses for the next deal. The pots
// have been paid by now, so the contribution counters go back to zero.
func (g *Game) finishHandLocked() {
	for _, p := range g.seats {
		if p == nil || !p.boughtIn {
			continue
		}
		p.totalBet = 0
		p.currentBet = 0
		if p.stack == 0 {
			p.status = StatusBusted
		} else {
			p.status = StatusWaiting
		}
	}
	g.handActive = false
	g.stage = StageHandEnd
	g.currentSeat = NoSeat
	g.currentBet = 0
	g.lastRaise = 0
}
