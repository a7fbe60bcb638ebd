// Package table runs one poker table as an actor: a single goroutine
// owns the engine, every mutation arrives as a queued event, and a
// heartbeat tick drives action timeouts and hand scheduling.
package table

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"pokerroom/card"
	"pokerroom/internal/codec"
	"pokerroom/internal/ledger"
	"pokerroom/poker"
)

var (
	ErrTableClosed = errors.New("table closed")
	ErrNotJoined   = errors.New("not joined to table")
	// ErrStaleAction marks an action that arrived after its turn was
	// already resolved by the timeout auto-action.
	ErrStaleAction = errors.New("stale action")
)

const (
	defaultTurnTime      = 30 * time.Second
	defaultHeartbeat     = 500 * time.Millisecond
	defaultShowdownDelay = 8 * time.Second
	defaultFoldDelay     = 3 * time.Second
	staleActionGrace     = 2 * time.Second
	walletTimeout        = 5 * time.Second
	offlineSeatTTL       = 2 * time.Minute
)

// Config holds table settings. Zero timing fields fall back to the
// defaults above.
type Config struct {
	Name string

	MaxSeats    int
	MinPlayers  int
	SmallBlind  int64
	BigBlind    int64
	MinBuyIn    int64
	MaxBuyIn    int64
	AllowRebuys bool
	Seed        int64

	TurnTime      time.Duration
	Heartbeat     time.Duration
	ShowdownDelay time.Duration
	FoldDelay     time.Duration
}

func (c *Config) applyDefaults() {
	if c.TurnTime <= 0 {
		c.TurnTime = defaultTurnTime
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = defaultHeartbeat
	}
	if c.ShowdownDelay <= 0 {
		c.ShowdownDelay = defaultShowdownDelay
	}
	if c.FoldDelay <= 0 {
		c.FoldDelay = defaultFoldDelay
	}
}

// PlayerConn tracks one user joined to the table, seated or observing.
type PlayerConn struct {
	UserID   string
	Username string
	Online   bool
	LastSeen time.Time
}

type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventSit
	EventStand
	EventBuyIn
	EventRebuy
	EventCashOut
	EventAct
	EventClose
)

// Event is one message to the table actor.
type Event struct {
	Type     EventType
	UserID   string
	Username string
	Seat     int
	Amount   int64
	Action   poker.ActionType

	Response chan error
}

// Table owns one engine instance and serializes access through its
// event queue.
type Table struct {
	ID  string
	cfg Config

	mu       sync.RWMutex
	game     *poker.Game
	players  map[string]*PlayerConn
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	serverSeq uint64

	actionSeat     int
	actionDeadline time.Time
	staleSeat      int
	staleSince     time.Time
	nextHandAt     time.Time
	emptySince     time.Time

	broadcast func(userID string, data []byte)
	wallet    ledger.Service
}

func New(id string, cfg Config, broadcastFn func(userID string, data []byte), wallet ledger.Service) (*Table, error) {
	cfg.applyDefaults()

	game, err := poker.NewGame(poker.Config{
		MaxSeats:    cfg.MaxSeats,
		MinPlayers:  cfg.MinPlayers,
		SmallBlind:  cfg.SmallBlind,
		BigBlind:    cfg.BigBlind,
		MinBuyIn:    cfg.MinBuyIn,
		MaxBuyIn:    cfg.MaxBuyIn,
		AllowRebuys: cfg.AllowRebuys,
		FirstDealer: poker.NoSeat,
		Seed:        cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("new table %s: %w", id, err)
	}

	t := &Table{
		ID:         id,
		cfg:        cfg,
		game:       game,
		players:    make(map[string]*PlayerConn),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		actionSeat: poker.NoSeat,
		staleSeat:  poker.NoSeat,
		emptySince: time.Now(),
		broadcast:  broadcastFn,
		wallet:     wallet,
	}

	go t.run()
	log.Printf("[Table %s] Created (seats=%d, blinds=%d/%d)", id, cfg.MaxSeats, cfg.SmallBlind, cfg.BigBlind)
	return t, nil
}

func (t *Table) run() {
	ticker := time.NewTicker(t.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			log.Printf("[Table %s] Actor stopped", t.ID)
			return
		}
	}
}

// SubmitEvent queues an event and waits for the actor's verdict.
func (t *Table) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextHandAt = time.Time{}
	t.clearTurnLocked()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// IsIdleFor reports whether the table has had no seated players for at
// least ttl.
func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return true
	}
	if t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) Snapshot() poker.Snapshot {
	return t.game.Snapshot()
}

// Info summarizes the table for lobby listings.
func (t *Table) Info() codec.TableInfo {
	snap := t.game.Snapshot()
	return codec.TableInfo{
		TableID:    t.ID,
		Name:       t.cfg.Name,
		Seated:     len(snap.Players),
		MaxSeats:   t.cfg.MaxSeats,
		SmallBlind: t.cfg.SmallBlind,
		BigBlind:   t.cfg.BigBlind,
		MinBuyIn:   t.cfg.MinBuyIn,
		MaxBuyIn:   t.cfg.MaxBuyIn,
		HandActive: snap.HandActive,
	}
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoin:
		return t.handleJoin(e.UserID, e.Username)
	case EventLeave:
		return t.handleLeave(e.UserID)
	case EventSit:
		return t.handleSit(e.UserID, e.Seat)
	case EventStand:
		return t.handleStand(e.UserID)
	case EventBuyIn:
		return t.handleBuyIn(e.UserID, e.Amount)
	case EventRebuy:
		return t.handleRebuy(e.UserID, e.Amount)
	case EventCashOut:
		return t.handleCashOut(e.UserID)
	case EventAct:
		return t.handleAct(e.UserID, e.Action, e.Amount)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (t *Table) handleJoin(userID, username string) error {
	now := time.Now()
	if p, exists := t.players[userID]; exists {
		p.Online = true
		p.LastSeen = now
		if username != "" {
			p.Username = username
		}
		t.sendSnapshot(userID)
		return nil
	}
	t.players[userID] = &PlayerConn{
		UserID:   userID,
		Username: username,
		Online:   true,
		LastSeen: now,
	}
	log.Printf("[Table %s] Player %s joined", t.ID, userID)
	t.sendSnapshot(userID)
	return nil
}

func (t *Table) handleLeave(userID string) error {
	p := t.players[userID]
	if p == nil {
		return nil
	}
	if seat := t.game.SeatOf(userID); seat != poker.NoSeat {
		// Seated players stay joined; the seat is released via cash-out
		// or stand. Mark offline so the timeout path folds for them.
		p.Online = false
		p.LastSeen = time.Now()
		return nil
	}
	delete(t.players, userID)
	log.Printf("[Table %s] Player %s left", t.ID, userID)
	return nil
}

func (t *Table) handleSit(userID string, seat int) error {
	if t.players[userID] == nil {
		return ErrNotJoined
	}
	if err := t.game.Sit(seat, userID); err != nil {
		return err
	}
	t.markOccupiedLocked()
	log.Printf("[Table %s] Player %s sat at seat %d", t.ID, userID, seat)
	t.broadcastSnapshots()
	return nil
}

func (t *Table) handleStand(userID string) error {
	seat := t.game.SeatOf(userID)
	if seat == poker.NoSeat {
		return nil
	}
	if err := t.game.StandUp(seat); err != nil {
		return err
	}
	t.updateEmptySinceLocked(time.Now())
	log.Printf("[Table %s] Player %s stood up from seat %d", t.ID, userID, seat)
	t.broadcastSnapshots()
	return nil
}

// handleBuyIn moves chips from the wallet to the table. The wallet is
// debited first; an engine rejection credits the chips back.
func (t *Table) handleBuyIn(userID string, amount int64) error {
	if t.players[userID] == nil {
		return ErrNotJoined
	}
	if err := t.debitWallet(userID, amount); err != nil {
		return err
	}
	if err := t.game.BuyIn(userID, amount); err != nil {
		t.creditWallet(userID, amount)
		return err
	}
	log.Printf("[Table %s] Player %s bought in for %d", t.ID, userID, amount)
	t.broadcastSnapshots()
	t.tryStartHand(time.Now())
	return nil
}

func (t *Table) handleRebuy(userID string, amount int64) error {
	if t.players[userID] == nil {
		return ErrNotJoined
	}
	if err := t.debitWallet(userID, amount); err != nil {
		return err
	}
	if err := t.game.Rebuy(userID, amount); err != nil {
		t.creditWallet(userID, amount)
		return err
	}
	log.Printf("[Table %s] Player %s rebought for %d", t.ID, userID, amount)
	t.broadcastSnapshots()
	t.tryStartHand(time.Now())
	return nil
}

func (t *Table) handleCashOut(userID string) error {
	amount, err := t.game.CashOut(userID)
	if err != nil {
		return err
	}
	t.creditWallet(userID, amount)
	t.updateEmptySinceLocked(time.Now())
	log.Printf("[Table %s] Player %s cashed out %d", t.ID, userID, amount)
	t.broadcastSnapshots()
	return nil
}

func (t *Table) handleAct(userID string, action poker.ActionType, amount int64) error {
	seat := t.game.SeatOf(userID)
	if seat == poker.NoSeat {
		return fmt.Errorf("player %s not seated", userID)
	}

	// A frame racing the timeout auto-action is rejected outright, even
	// when the engine would accept it for a later turn of the same seat.
	if t.isStaleLocked(seat) {
		return fmt.Errorf("%w: turn already resolved by timeout", ErrStaleAction)
	}

	if err := t.game.Act(seat, action, amount); err != nil {
		return err
	}
	if t.actionSeat == seat {
		t.clearTurnLocked()
	}

	t.flushEngineEvents()
	t.afterEngineStep()
	return nil
}

// isStaleLocked reports whether seat just had its turn auto-resolved.
func (t *Table) isStaleLocked(seat int) bool {
	return t.staleSeat == seat && time.Since(t.staleSince) < staleActionGrace
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	t.handleTurnTimeout(now)
	t.reapOfflineSeats(now)
	if !t.nextHandAt.IsZero() && !now.Before(t.nextHandAt) {
		t.tryStartHand(now)
	}
}

// reapOfflineSeats cashes out players that have been disconnected past
// offlineSeatTTL. Cash-out is a between-hands operation, so seats held
// by an offline player in an active hand are left to the turn timeout.
func (t *Table) reapOfflineSeats(now time.Time) {
	if t.game.HandActive() {
		return
	}
	for userID, p := range t.players {
		if p.Online || now.Sub(p.LastSeen) < offlineSeatTTL {
			continue
		}
		if t.game.SeatOf(userID) != poker.NoSeat {
			if err := t.handleCashOut(userID); err != nil {
				log.Printf("[Table %s] offline cash-out for %s failed: %v", t.ID, userID, err)
				continue
			}
		}
		delete(t.players, userID)
		log.Printf("[Table %s] Reaped offline player %s", t.ID, userID)
	}
}

func (t *Table) handleTurnTimeout(now time.Time) {
	if t.actionSeat == poker.NoSeat || t.actionDeadline.IsZero() {
		return
	}
	if now.Before(t.actionDeadline) {
		return
	}

	seat := t.actionSeat
	t.clearTurnLocked()
	if t.game.CurrentSeat() != seat {
		return
	}

	action := t.pickTimeoutAction(seat)
	if action == poker.ActionNone {
		return
	}
	log.Printf("[Table %s] Turn timeout seat=%d -> auto %v", t.ID, seat, action)
	if err := t.game.Act(seat, action, 0); err != nil {
		log.Printf("[Table %s] auto action failed seat=%d: %v", t.ID, seat, err)
		return
	}
	t.staleSeat = seat
	t.staleSince = now

	t.flushEngineEvents()
	t.afterEngineStep()
}

// pickTimeoutAction is check-else-fold during betting and
// muck-else-show at showdown.
func (t *Table) pickTimeoutAction(seat int) poker.ActionType {
	actions, _, _ := t.game.LegalActions(seat)
	if hasAction(actions, poker.ActionCheck) {
		return poker.ActionCheck
	}
	if hasAction(actions, poker.ActionFold) {
		return poker.ActionFold
	}
	if hasAction(actions, poker.ActionMuck) {
		return poker.ActionMuck
	}
	if hasAction(actions, poker.ActionShow) {
		return poker.ActionShow
	}
	return poker.ActionNone
}

func hasAction(actions []poker.ActionType, want poker.ActionType) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func (t *Table) tryStartHand(now time.Time) {
	if t.game.HandActive() {
		return
	}
	if !t.nextHandAt.IsZero() && now.Before(t.nextHandAt) {
		return
	}
	if !t.game.CanStartHand() {
		t.nextHandAt = time.Time{}
		return
	}
	t.nextHandAt = time.Time{}

	if err := t.game.StartHand(); err != nil {
		log.Printf("[Table %s] StartHand failed: %v", t.ID, err)
		return
	}
	log.Printf("[Table %s] Hand %d started", t.ID, t.game.HandNumber())
	t.flushEngineEvents()
	t.afterEngineStep()
}

// afterEngineStep arms the next turn timer or schedules the next hand.
func (t *Table) afterEngineStep() {
	if t.game.HandActive() {
		seat := t.game.CurrentSeat()
		if seat != poker.NoSeat && seat != t.actionSeat {
			t.armTurnLocked(seat)
		}
		return
	}
	t.clearTurnLocked()
}

func (t *Table) armTurnLocked(seat int) {
	t.actionSeat = seat
	t.actionDeadline = time.Now().Add(t.cfg.TurnTime)
	t.sendActionPrompt(seat)
}

func (t *Table) clearTurnLocked() {
	t.actionSeat = poker.NoSeat
	t.actionDeadline = time.Time{}
}

func (t *Table) markOccupiedLocked() {
	t.emptySince = time.Time{}
}

func (t *Table) updateEmptySinceLocked(now time.Time) {
	if len(t.game.Snapshot().Players) == 0 && t.emptySince.IsZero() {
		t.emptySince = now
	}
}

// --- wallet ---

func (t *Table) debitWallet(userID string, amount int64) error {
	if t.wallet == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
	defer cancel()
	return t.wallet.Debit(ctx, userID, amount)
}

func (t *Table) creditWallet(userID string, amount int64) {
	if t.wallet == nil || amount <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
	defer cancel()
	if err := t.wallet.Credit(ctx, userID, amount); err != nil {
		log.Printf("[Table %s] wallet credit failed user=%s amount=%d: %v", t.ID, userID, amount, err)
	}
}

// --- outbound messages ---

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) sendToUser(userID string, kind string, payload any) {
	env := codec.Wrap(t.ID, t.nextSeq(), kind, payload)
	data, err := codec.Encode(env)
	if err != nil {
		log.Printf("[Table %s] encode %s failed: %v", t.ID, kind, err)
		return
	}
	t.broadcast(userID, data)
}

func (t *Table) broadcastToAll(kind string, payload any) {
	env := codec.Wrap(t.ID, t.nextSeq(), kind, payload)
	data, err := codec.Encode(env)
	if err != nil {
		log.Printf("[Table %s] encode %s failed: %v", t.ID, kind, err)
		return
	}
	for userID := range t.players {
		t.broadcast(userID, data)
	}
}

func (t *Table) sendSnapshot(userID string) {
	snap := t.game.Snapshot()
	t.sendToUser(userID, codec.ServerTableSnapshot, codec.SnapshotFor(snap, userID))
}

// broadcastSnapshots sends each joined user their own redacted view.
func (t *Table) broadcastSnapshots() {
	snap := t.game.Snapshot()
	for userID := range t.players {
		t.sendToUser(userID, codec.ServerTableSnapshot, codec.SnapshotFor(snap, userID))
	}
}

func (t *Table) sendActionPrompt(seat int) {
	p := t.game.Player(seat)
	if p == nil {
		return
	}
	actions, callAmount, minRaiseTo := t.game.LegalActions(seat)
	if len(actions) == 0 {
		return
	}
	t.broadcastToAll(codec.ServerActionPrompt, codec.ActionPromptPayload{
		Seat:       seat,
		UserID:     p.ID,
		Actions:    codec.ActionTypes(actions),
		CallAmount: callAmount,
		MinRaiseTo: minRaiseTo,
		DeadlineMs: t.actionDeadline.UnixMilli(),
	})
}

// flushEngineEvents drains the engine's domain events and fans them out
// as wire frames.
func (t *Table) flushEngineEvents() {
	events := t.game.TakeEvents()
	if len(events) == 0 {
		return
	}
	snap := t.game.Snapshot()

	for _, ev := range events {
		switch ev.Kind {
		case poker.EventHandStarted:
			t.broadcastToAll(codec.ServerHandStart, codec.HandStartPayload{
				HandNumber: ev.HandNumber,
				DealerSeat: snap.DealerSeat,
				SBSeat:     snap.SBSeat,
				BBSeat:     snap.BBSeat,
			})
		case poker.EventHoleCards:
			if p := t.game.Player(ev.Seat); p != nil {
				t.sendToUser(p.ID, codec.ServerHoleCards, codec.HoleCardsPayload{
					Seat:  ev.Seat,
					Cards: card.Codes(ev.Cards),
				})
			}
		case poker.EventBlindPosted:
			t.broadcastToAll(codec.ServerActionResult, codec.ActionResultPayload{
				Seat:   ev.Seat,
				Action: ev.Action.String(),
				Amount: ev.Amount,
				Forced: true,
			})
		case poker.EventActionApplied:
			t.broadcastToAll(codec.ServerActionResult, codec.ActionResultPayload{
				Seat:   ev.Seat,
				Action: ev.Action.String(),
				Amount: ev.Amount,
			})
		case poker.EventBoardDealt:
			t.broadcastToAll(codec.ServerBoard, codec.BoardPayload{
				Stage: ev.Stage.String(),
				Cards: card.Codes(ev.Cards),
				Board: card.Codes(snap.Board),
			})
		case poker.EventStageAdvanced:
			t.broadcastToAll(codec.ServerPotUpdate, codec.PotUpdatePayload{
				Pots: codec.PotStates(snap.Pots),
			})
		case poker.EventPotAwarded:
			// summarized by the hand_finished results
		case poker.EventHandFinished:
			t.handleHandFinished(ev, snap)
		case poker.EventHandAborted:
			t.broadcastToAll(codec.ServerHandAborted, codec.HandAbortedPayload{
				HandNumber: ev.HandNumber,
				Reason:     "deck exhausted",
			})
			t.scheduleNextHand(false)
		}
	}
}

func (t *Table) handleHandFinished(ev poker.Event, snap poker.Snapshot) {
	showdown := false
	for _, r := range ev.Results {
		if r.Rank != 0 {
			showdown = true
			break
		}
	}
	if showdown {
		t.broadcastSnapshots()
		t.broadcastToAll(codec.ServerShowdown, codec.ShowdownPayload{
			Results: codec.ResultStates(ev.Results),
		})
	}
	t.broadcastToAll(codec.ServerHandEnd, codec.HandEndPayload{
		HandNumber:   ev.HandNumber,
		Results:      codec.ResultStates(ev.Results),
		RefundSeat:   snap.RefundSeat,
		RefundAmount: snap.RefundAmount,
	})
	t.scheduleNextHand(showdown)
}

func (t *Table) scheduleNextHand(showdown bool) {
	if !t.game.CanStartHand() {
		t.nextHandAt = time.Time{}
		return
	}
	delay := t.cfg.FoldDelay
	if showdown {
		delay = t.cfg.ShowdownDelay
	}
	t.nextHandAt = time.Now().Add(delay)
}
