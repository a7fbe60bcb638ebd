package lobby

import (
	"testing"
	"time"

	"pokerroom/internal/ledger"
	"pokerroom/internal/table"
)

func testConfig() table.Config {
	return table.Config{
		MaxSeats:   2,
		MinPlayers: 2,
		SmallBlind: 10,
		BigBlind:   20,
		MinBuyIn:   100,
		MaxBuyIn:   10000,
		Heartbeat:  time.Hour,
		TurnTime:   time.Hour,
	}
}

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	l := New(testConfig(), ledger.NewMemoryService(), func(string, []byte) {})
	t.Cleanup(l.Close)
	return l
}

func TestQuickStartReusesOpenTable(t *testing.T) {
	l := newTestLobby(t)

	t1, err := l.QuickStart("alice")
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	t2, err := l.QuickStart("bob")
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	if t1.ID != t2.ID {
		t.Fatalf("expected bob to join alice's table, got %s and %s", t1.ID, t2.ID)
	}
}

func TestQuickStartOpensNewTableWhenFull(t *testing.T) {
	l := newTestLobby(t)

	t1, err := l.QuickStart("alice")
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	for seat, user := range []string{"alice", "bob"} {
		if err := t1.SubmitEvent(table.Event{Type: table.EventJoin, UserID: user}); err != nil {
			t.Fatalf("join %s: %v", user, err)
		}
		if err := t1.SubmitEvent(table.Event{Type: table.EventSit, UserID: user, Seat: seat}); err != nil {
			t.Fatalf("sit %s: %v", user, err)
		}
	}

	t2, err := l.QuickStart("carol")
	if err != nil {
		t.Fatalf("quick start: %v", err)
	}
	if t2.ID == t1.ID {
		t.Fatalf("expected a fresh table once %s filled up", t1.ID)
	}
	if len(l.ListTables()) != 2 {
		t.Fatalf("expected two listed tables, got %d", len(l.ListTables()))
	}
}

func TestGetTable(t *testing.T) {
	l := newTestLobby(t)
	created, err := l.CreateTable(testConfig())
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if got := l.GetTable(created.ID); got != created {
		t.Fatalf("expected lookup to return the created table")
	}
	if got := l.GetTable("missing"); got != nil {
		t.Fatalf("expected nil for unknown id, got %v", got)
	}
}

func TestReapIdleTables(t *testing.T) {
	l := newTestLobby(t)
	created, err := l.CreateTable(testConfig())
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Fresh empty tables are not idle long enough yet.
	l.reapIdleTables()
	if l.GetTable(created.ID) == nil {
		t.Fatalf("fresh table must survive the reaper")
	}

	if !created.IsIdleFor(0) {
		t.Fatalf("empty table should count as idle")
	}
}

func TestCloseStopsTables(t *testing.T) {
	l := New(testConfig(), ledger.NewMemoryService(), func(string, []byte) {})
	created, err := l.CreateTable(testConfig())
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	l.Close()
	if !created.IsClosed() {
		t.Fatalf("closing the lobby must stop its tables")
	}
	if _, err := l.QuickStart("alice"); err == nil {
		t.Fatalf("closed lobby must refuse quick start")
	}
}
