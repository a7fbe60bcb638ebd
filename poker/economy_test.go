package poker

import (
	"errors"
	"testing"
)

func TestBuyInBounds(t *testing.T) {
	g, err := NewGame(testConfig(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Sit(0, "alice"); err != nil {
		t.Fatal(err)
	}

	if err := g.BuyIn("alice", 50); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("below min: %v, want ErrAmountOutOfRange", err)
	}
	if err := g.BuyIn("alice", 20000); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("above max: %v, want ErrAmountOutOfRange", err)
	}
	if err := g.BuyIn("alice", 500); err != nil {
		t.Fatalf("buy-in: %v", err)
	}
	if err := g.BuyIn("alice", 500); !errors.Is(err, ErrAlreadyBoughtIn) {
		t.Fatalf("double buy-in: %v, want ErrAlreadyBoughtIn", err)
	}

	p := g.Player(0)
	if p.Stack() != 500 || !p.BoughtIn() || p.Status() != StatusWaiting {
		t.Fatalf("stack=%d boughtIn=%v status=%s", p.Stack(), p.BoughtIn(), p.Status())
	}
	if err := g.BuyIn("nobody", 500); err == nil {
		t.Fatal("buy-in for an unseated player must fail")
	}
}

func TestObserverExcludedFromDeal(t *testing.T) {
	g := newTestGame(t, testConfig(3), 1000, 1000)
	// seat 2 sits without buying in
	if err := g.Sit(2, "watcher"); err != nil {
		t.Fatal(err)
	}
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	snap := g.Snapshot()
	for _, p := range snap.Players {
		if p.Seat == 2 {
			if p.Status != StatusObserver || len(p.HoleCards) != 0 {
				t.Fatalf("observer dealt in: status=%s cards=%d", p.Status, len(p.HoleCards))
			}
		}
	}
}

func TestRebuyRules(t *testing.T) {
	g := newTestGame(t, testConfig(2), 1000, 1000)

	// not busted yet
	if err := g.Rebuy("player-0", 500); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("rebuy while stacked: %v, want ErrIllegalMove", err)
	}

	// bust player 0 manually through a real hand path is long; emulate
	// the busted state the settlement produces
	g.mu.Lock()
	g.seats[0].stack = 0
	g.seats[0].status = StatusBusted
	g.mu.Unlock()

	if err := g.Rebuy("player-0", 50); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("short rebuy: %v, want ErrAmountOutOfRange", err)
	}
	if err := g.Rebuy("player-0", 500); err != nil {
		t.Fatalf("rebuy: %v", err)
	}
	p := g.Player(0)
	if p.Stack() != 500 || p.Status() != StatusWaiting {
		t.Fatalf("after rebuy stack=%d status=%s", p.Stack(), p.Status())
	}
}

func TestRebuyDisabled(t *testing.T) {
	cfg := testConfig(2)
	cfg.AllowRebuys = false
	g := newTestGame(t, cfg, 1000, 1000)
	g.mu.Lock()
	g.seats[0].stack = 0
	g.seats[0].status = StatusBusted
	g.mu.Unlock()

	if err := g.Rebuy("player-0", 500); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("rebuy on a no-rebuy table: %v, want ErrIllegalMove", err)
	}
}

func TestCashOutBetweenHands(t *testing.T) {
	g := newTestGame(t, testConfig(3), 1000, 1000, 1000)

	amount, err := g.CashOut("player-2")
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if amount != 1000 {
		t.Fatalf("cashed out %d, want 1000", amount)
	}
	if g.Player(2) != nil {
		t.Fatal("seat 2 should be free after cash-out")
	}
	if err := g.Sit(2, "replacement"); err != nil {
		t.Fatalf("reseating freed seat: %v", err)
	}
}

func TestCashOutRejectedMidHand(t *testing.T) {
	g := newTestGame(t, testConfig(2), 1000, 1000)
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.CashOut("player-0"); !errors.Is(err, ErrHandInProgress) {
		t.Fatalf("mid-hand cash-out: %v, want ErrHandInProgress", err)
	}
	// the seat and stack are untouched
	if p := g.Player(0); p == nil || p.Stack()+p.TotalBet() != 1000 {
		t.Fatal("rejected cash-out changed seat state")
	}
}

func TestBustedExcludedUntilRebuy(t *testing.T) {
	g := newTestGame(t, testConfig(3), 1000, 1000, 1000)
	g.mu.Lock()
	g.seats[1].stack = 0
	g.seats[1].status = StatusBusted
	g.mu.Unlock()

	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	snap := g.Snapshot()
	for _, p := range snap.Players {
		if p.Seat == 1 && len(p.HoleCards) != 0 {
			t.Fatal("busted player was dealt in")
		}
	}
	playHandOut(t, g)

	if err := g.Rebuy("player-1", 500); err != nil {
		t.Fatal(err)
	}
	if err := g.StartHand(); err != nil {
		t.Fatal(err)
	}
	snap = g.Snapshot()
	for _, p := range snap.Players {
		if p.Seat == 1 && len(p.HoleCards) != 2 {
			t.Fatal("rebought player not dealt in")
		}
	}
}
