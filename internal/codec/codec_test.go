package codec

import (
	"encoding/json"
	"testing"

	"pokerroom/poker"
)

func snapshotWithHand(t *testing.T) poker.Snapshot {
	t.Helper()
	cfg := poker.DefaultConfig()
	cfg.MinPlayers = 2
	cfg.FirstDealer = 0
	cfg.Seed = 1
	g, err := poker.NewGame(cfg)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for i, id := range []string{"alice", "bob"} {
		if err := g.Sit(i, id); err != nil {
			t.Fatalf("sit %s: %v", id, err)
		}
		if err := g.BuyIn(id, 1000); err != nil {
			t.Fatalf("buy in %s: %v", id, err)
		}
	}
	if err := g.StartHand(); err != nil {
		t.Fatalf("start hand: %v", err)
	}
	return g.Snapshot()
}

func TestSnapshotRedactsOpponentHoleCards(t *testing.T) {
	snap := snapshotWithHand(t)
	ts := SnapshotFor(snap, "alice")

	var alice, bob *PlayerState
	for i := range ts.Players {
		switch ts.Players[i].UserID {
		case "alice":
			alice = &ts.Players[i]
		case "bob":
			bob = &ts.Players[i]
		}
	}
	if alice == nil || bob == nil {
		t.Fatalf("expected both players in snapshot")
	}

	if len(alice.HoleCards) != 2 {
		t.Fatalf("viewer should see own cards, got %v", alice.HoleCards)
	}
	if len(bob.HoleCards) != 0 {
		t.Fatalf("opponent cards must be hidden, got %v", bob.HoleCards)
	}
	if bob.CardCount != 2 {
		t.Fatalf("hidden hand should still report a card count, got %d", bob.CardCount)
	}
}

func TestSnapshotRevealsShownCards(t *testing.T) {
	snap := snapshotWithHand(t)
	for i := range snap.Players {
		if snap.Players[i].ID == "bob" {
			snap.Players[i].ShowCards = true
		}
	}
	ts := SnapshotFor(snap, "alice")
	for _, p := range ts.Players {
		if p.UserID == "bob" && len(p.HoleCards) != 2 {
			t.Fatalf("shown cards must be visible to other viewers, got %v", p.HoleCards)
		}
	}
}

func TestSnapshotObserverSeesNoHoleCards(t *testing.T) {
	snap := snapshotWithHand(t)
	ts := SnapshotFor(snap, "watcher")
	for _, p := range ts.Players {
		if len(p.HoleCards) != 0 {
			t.Fatalf("observer must not see %s's cards", p.UserID)
		}
	}
}

func TestDecodeClientEnvelope(t *testing.T) {
	raw := []byte(`{"type":"act","seq":7,"table_id":"t1","payload":{"action":"RAISE","amount":60}}`)
	env, err := DecodeClient(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != ClientAct || env.Seq != 7 || env.TableID != "t1" {
		t.Fatalf("bad envelope: %+v", env)
	}

	var req ActRequest
	if err := env.DecodePayload(&req); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if req.Action != "RAISE" || req.Amount != 60 {
		t.Fatalf("bad act request: %+v", req)
	}
}

func TestDecodeClientRejectsBadFrames(t *testing.T) {
	if _, err := DecodeClient([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
	if _, err := DecodeClient([]byte(`{"seq":1}`)); err == nil {
		t.Fatalf("expected error for missing type")
	}

	env, err := DecodeClient([]byte(`{"type":"sit"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sit SitRequest
	if err := env.DecodePayload(&sit); err == nil {
		t.Fatalf("expected error for missing payload")
	}
}

func TestWrapAndEncode(t *testing.T) {
	env := Wrap("t1", 3, ServerActionResult, ActionResultPayload{Seat: 2, Action: "FOLD"})
	data, err := Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if decoded["type"] != ServerActionResult {
		t.Fatalf("bad type: %v", decoded["type"])
	}
	if decoded["table_id"] != "t1" {
		t.Fatalf("bad table id: %v", decoded["table_id"])
	}
	if decoded["server_ts_ms"] == nil {
		t.Fatalf("expected server timestamp")
	}
}
