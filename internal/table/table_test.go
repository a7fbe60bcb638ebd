package table

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pokerroom/internal/codec"
	"pokerroom/internal/ledger"
	"pokerroom/poker"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames map[string][]codec.ServerEnvelope
}

func newFrameRecorder() *frameRecorder {
	return &frameRecorder{frames: make(map[string][]codec.ServerEnvelope)}
}

func (r *frameRecorder) send(userID string, data []byte) {
	var env codec.ServerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	r.mu.Lock()
	r.frames[userID] = append(r.frames[userID], env)
	r.mu.Unlock()
}

func (r *frameRecorder) kinds(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, env := range r.frames[userID] {
		out = append(out, env.Type)
	}
	return out
}

func hasKind(kinds []string, want string) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func newTestTable(t *testing.T) (*Table, *frameRecorder, *ledger.MemoryService) {
	t.Helper()

	wallet := ledger.NewMemoryService()
	rec := newFrameRecorder()

	cfg := Config{
		Name:       "test",
		MaxSeats:   6,
		MinPlayers: 2,
		SmallBlind: 10,
		BigBlind:   20,
		MinBuyIn:   100,
		MaxBuyIn:   10000,
		Seed:       1,
		// Keep the background ticker out of the way; tests drive
		// timeouts and scheduling directly.
		Heartbeat:     time.Hour,
		TurnTime:      time.Hour,
		ShowdownDelay: time.Millisecond,
		FoldDelay:     time.Millisecond,
	}
	tbl, err := New("tbl-test", cfg, rec.send, wallet)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	t.Cleanup(tbl.Stop)
	return tbl, rec, wallet
}

func fundAndSeat(t *testing.T, tbl *Table, wallet *ledger.MemoryService, userID string, seat int, buyIn int64) {
	t.Helper()
	if err := wallet.Credit(context.Background(), userID, buyIn*2); err != nil {
		t.Fatalf("credit %s: %v", userID, err)
	}
	if err := tbl.SubmitEvent(Event{Type: EventJoin, UserID: userID, Username: userID}); err != nil {
		t.Fatalf("join %s: %v", userID, err)
	}
	if err := tbl.SubmitEvent(Event{Type: EventSit, UserID: userID, Seat: seat}); err != nil {
		t.Fatalf("sit %s: %v", userID, err)
	}
	if err := tbl.SubmitEvent(Event{Type: EventBuyIn, UserID: userID, Amount: buyIn}); err != nil {
		t.Fatalf("buy in %s: %v", userID, err)
	}
}

func TestBuyInDebitsWallet(t *testing.T) {
	tbl, _, wallet := newTestTable(t)

	fundAndSeat(t, tbl, wallet, "alice", 0, 500)

	balance, err := wallet.Balance(context.Background(), "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected 500 left in wallet, got %d", balance)
	}

	snap := tbl.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].Stack != 500 {
		t.Fatalf("expected 500 chip stack at table, got %+v", snap.Players)
	}
}

func TestBuyInRollsBackOnRejection(t *testing.T) {
	tbl, _, wallet := newTestTable(t)
	fundAndSeat(t, tbl, wallet, "alice", 0, 500)

	// Second buy-in is rejected by the engine; the debit must be undone.
	err := tbl.SubmitEvent(Event{Type: EventBuyIn, UserID: "alice", Amount: 300})
	if !errors.Is(err, poker.ErrAlreadyBoughtIn) {
		t.Fatalf("expected ErrAlreadyBoughtIn, got %v", err)
	}

	balance, _ := wallet.Balance(context.Background(), "alice")
	if balance != 500 {
		t.Fatalf("rejected buy-in must not cost chips, wallet=%d", balance)
	}
}

func TestBuyInInsufficientFunds(t *testing.T) {
	tbl, _, _ := newTestTable(t)

	if err := tbl.SubmitEvent(Event{Type: EventJoin, UserID: "poor"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := tbl.SubmitEvent(Event{Type: EventSit, UserID: "poor", Seat: 0}); err != nil {
		t.Fatalf("sit: %v", err)
	}
	err := tbl.SubmitEvent(Event{Type: EventBuyIn, UserID: "poor", Amount: 500})
	if !errors.Is(err, ledger.ErrUnknownAccount) && !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected wallet rejection, got %v", err)
	}
	if tbl.Snapshot().Players[0].Stack != 0 {
		t.Fatalf("engine must not receive chips the wallet refused")
	}
}

func TestHandAutoStartsWhenEnoughPlayers(t *testing.T) {
	tbl, rec, wallet := newTestTable(t)

	fundAndSeat(t, tbl, wallet, "alice", 0, 1000)
	if tbl.Snapshot().HandActive {
		t.Fatalf("one player must not start a hand")
	}

	fundAndSeat(t, tbl, wallet, "bob", 1, 1000)
	snap := tbl.Snapshot()
	if !snap.HandActive {
		t.Fatalf("expected hand to auto-start with two funded players")
	}

	kinds := rec.kinds("alice")
	for _, want := range []string{codec.ServerHandStart, codec.ServerHoleCards, codec.ServerActionPrompt} {
		if !hasKind(kinds, want) {
			t.Fatalf("expected %s frame for alice, got %v", want, kinds)
		}
	}
}

func TestTurnTimeoutAutoActs(t *testing.T) {
	tbl, _, wallet := newTestTable(t)
	fundAndSeat(t, tbl, wallet, "alice", 0, 1000)
	fundAndSeat(t, tbl, wallet, "bob", 1, 1000)

	snap := tbl.Snapshot()
	if !snap.HandActive || snap.CurrentSeat == poker.NoSeat {
		t.Fatalf("expected a live turn, got %+v", snap)
	}
	seat := snap.CurrentSeat

	tbl.mu.Lock()
	tbl.actionDeadline = time.Now().Add(-time.Second)
	tbl.handleTurnTimeout(time.Now())
	tbl.mu.Unlock()

	// Heads-up preflop the small blind faces a bet, so the auto action
	// folds and the hand ends.
	after := tbl.Snapshot()
	if after.HandActive {
		t.Fatalf("expected fold timeout to end the heads-up hand")
	}
	for _, p := range after.Players {
		if p.Seat == seat && p.LastAction != poker.ActionFold {
			t.Fatalf("expected auto fold for seat %d, got %v", seat, p.LastAction)
		}
	}
}

func TestLateActionAfterTimeoutIsStale(t *testing.T) {
	tbl, _, wallet := newTestTable(t)
	fundAndSeat(t, tbl, wallet, "alice", 0, 1000)
	fundAndSeat(t, tbl, wallet, "bob", 1, 1000)
	fundAndSeat(t, tbl, wallet, "carol", 2, 1000)

	snap := tbl.Snapshot()
	seat := snap.CurrentSeat
	var userID string
	for _, p := range snap.Players {
		if p.Seat == seat {
			userID = p.ID
		}
	}
	if userID == "" {
		t.Fatalf("no player on acting seat %d", seat)
	}

	tbl.mu.Lock()
	tbl.actionDeadline = time.Now().Add(-time.Second)
	tbl.handleTurnTimeout(time.Now())
	tbl.mu.Unlock()

	err := tbl.SubmitEvent(Event{Type: EventAct, UserID: userID, Action: poker.ActionCall})
	if !errors.Is(err, ErrStaleAction) {
		t.Fatalf("expected ErrStaleAction for the timed-out seat, got %v", err)
	}
}

func TestTimedOutSeatCannotActDuringGrace(t *testing.T) {
	tbl, _, wallet := newTestTable(t)
	fundAndSeat(t, tbl, wallet, "alice", 0, 1000)
	fundAndSeat(t, tbl, wallet, "bob", 1, 1000)

	snap := tbl.Snapshot()
	seat := snap.CurrentSeat
	var userID string
	for _, p := range snap.Players {
		if p.Seat == seat {
			userID = p.ID
		}
	}

	// a duplicate frame racing the auto-action is rejected even when the
	// same seat is already up again
	tbl.mu.Lock()
	tbl.staleSeat = seat
	tbl.staleSince = time.Now()
	tbl.mu.Unlock()

	err := tbl.SubmitEvent(Event{Type: EventAct, UserID: userID, Action: poker.ActionCall})
	if !errors.Is(err, ErrStaleAction) {
		t.Fatalf("act during grace: %v, want ErrStaleAction", err)
	}

	tbl.mu.Lock()
	tbl.staleSince = time.Now().Add(-2 * staleActionGrace)
	tbl.mu.Unlock()

	if err := tbl.SubmitEvent(Event{Type: EventAct, UserID: userID, Action: poker.ActionCall}); err != nil {
		t.Fatalf("act after grace: %v", err)
	}
}

func TestCashOutCreditsWallet(t *testing.T) {
	tbl, _, wallet := newTestTable(t)

	// Single player so no hand starts and the stack is untouched.
	fundAndSeat(t, tbl, wallet, "alice", 0, 600)

	if err := tbl.SubmitEvent(Event{Type: EventCashOut, UserID: "alice"}); err != nil {
		t.Fatalf("cash out: %v", err)
	}

	balance, _ := wallet.Balance(context.Background(), "alice")
	if balance != 1200 {
		t.Fatalf("expected full balance back, got %d", balance)
	}
	if len(tbl.Snapshot().Players) != 0 {
		t.Fatalf("cash-out must free the seat")
	}
}

func TestOfflineSeatReaped(t *testing.T) {
	tbl, _, wallet := newTestTable(t)

	// Single player so no hand starts.
	fundAndSeat(t, tbl, wallet, "alice", 0, 600)

	if err := tbl.SubmitEvent(Event{Type: EventLeave, UserID: "alice"}); err != nil {
		t.Fatalf("leave: %v", err)
	}

	tbl.mu.Lock()
	tbl.players["alice"].LastSeen = time.Now().Add(-2 * offlineSeatTTL)
	tbl.reapOfflineSeats(time.Now())
	seated := len(tbl.game.Snapshot().Players)
	_, joined := tbl.players["alice"]
	tbl.mu.Unlock()

	if seated != 0 {
		t.Fatalf("reap must free the seat, %d still seated", seated)
	}
	if joined {
		t.Fatal("reap must drop the player record")
	}
	balance, _ := wallet.Balance(context.Background(), "alice")
	if balance != 1200 {
		t.Fatalf("expected full balance back, got %d", balance)
	}
}

func TestSnapshotsRedactOpponents(t *testing.T) {
	tbl, rec, wallet := newTestTable(t)
	fundAndSeat(t, tbl, wallet, "alice", 0, 1000)
	fundAndSeat(t, tbl, wallet, "bob", 1, 1000)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, env := range rec.frames["alice"] {
		if env.Type != codec.ServerHoleCards {
			continue
		}
		payload, err := json.Marshal(env.Payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		var hc codec.HoleCardsPayload
		if err := json.Unmarshal(payload, &hc); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if hc.Seat != 0 {
			t.Fatalf("alice received hole cards for seat %d", hc.Seat)
		}
	}
}

func TestClosedTableRejectsEvents(t *testing.T) {
	tbl, _, _ := newTestTable(t)
	tbl.Stop()

	err := tbl.SubmitEvent(Event{Type: EventJoin, UserID: "alice"})
	if !errors.Is(err, ErrTableClosed) {
		t.Fatalf("expected ErrTableClosed, got %v", err)
	}
	if !tbl.IsClosed() {
		t.Fatalf("expected table closed")
	}
}
