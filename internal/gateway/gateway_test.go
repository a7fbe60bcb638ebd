package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pokerroom/internal/auth"
	"pokerroom/internal/codec"
	"pokerroom/internal/ledger"
	"pokerroom/internal/lobby"
	"pokerroom/internal/table"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.Manager) {
	t.Helper()

	sessions := auth.NewManager()
	g := New(nil, sessions)
	lby := lobby.New(table.Config{
		MaxSeats:   6,
		MinPlayers: 2,
		SmallBlind: 10,
		BigBlind:   20,
		MinBuyIn:   100,
		MaxBuyIn:   10000,
		Heartbeat:  time.Hour,
		TurnTime:   time.Hour,
	}, ledger.NewMemoryService(), g.DeliverToUser)
	g.SetLobby(lby)
	t.Cleanup(lby.Close)

	srv := httptest.NewServer(http.HandlerFunc(g.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, sessions
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, kind string) codec.ServerEnvelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env codec.ServerEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type == kind {
			return env
		}
	}
	t.Fatalf("no %s frame before deadline", kind)
	return codec.ServerEnvelope{}
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "bogus"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail for bad token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestListTables(t *testing.T) {
	srv, sessions := newTestServer(t)
	_, token := sessions.Guest()
	conn := dial(t, srv, token)

	writeFrame(t, conn, `{"type":"list_tables","seq":1}`)
	env := readUntil(t, conn, codec.ServerTableList)
	if env.ClientSeq != 1 {
		t.Fatalf("expected reply to echo seq 1, got %d", env.ClientSeq)
	}
}

func TestQuickStartJoinsTable(t *testing.T) {
	srv, sessions := newTestServer(t)
	_, token := sessions.Guest()
	conn := dial(t, srv, token)

	writeFrame(t, conn, `{"type":"quick_start","seq":2}`)
	joined := readUntil(t, conn, codec.ServerTableJoined)
	if joined.TableID == "" {
		t.Fatalf("expected a table id on join")
	}

	// Joining delivers a personal snapshot from the table actor.
	writeFrame(t, conn, `{"type":"join_table","seq":3,"table_id":"`+joined.TableID+`"}`)
	readUntil(t, conn, codec.ServerTableSnapshot)
}

func TestActionWithoutTableFails(t *testing.T) {
	srv, sessions := newTestServer(t)
	_, token := sessions.Guest()
	conn := dial(t, srv, token)

	writeFrame(t, conn, `{"type":"act","seq":4,"payload":{"action":"CHECK"}}`)
	env := readUntil(t, conn, codec.ServerError)

	payload, _ := json.Marshal(env.Payload)
	var ep codec.ErrorPayload
	if err := json.Unmarshal(payload, &ep); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if ep.Code != "not_in_table" {
		t.Fatalf("expected not_in_table, got %q", ep.Code)
	}
}

func TestUnknownFrameType(t *testing.T) {
	srv, sessions := newTestServer(t)
	_, token := sessions.Guest()
	conn := dial(t, srv, token)

	writeFrame(t, conn, `{"type":"teleport"}`)
	env := readUntil(t, conn, codec.ServerError)
	payload, _ := json.Marshal(env.Payload)
	var ep codec.ErrorPayload
	if err := json.Unmarshal(payload, &ep); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if ep.Code != "bad_request" {
		t.Fatalf("expected bad_request, got %q", ep.Code)
	}
}
