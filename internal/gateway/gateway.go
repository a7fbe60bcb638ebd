// Package gateway is the websocket edge: it authenticates sessions,
// decodes client frames, and routes them to table actors.
package gateway

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pokerroom/internal/auth"
	"pokerroom/internal/codec"
	"pokerroom/internal/lobby"
	"pokerroom/internal/table"
	"pokerroom/poker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxFrameSize   = 65536
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins in production
	},
}

// Connection is one authenticated websocket client.
type Connection struct {
	UserID   string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway

	mu    sync.Mutex
	table *table.Table
}

// Gateway tracks live connections by user.
type Gateway struct {
	mu        sync.RWMutex
	userConns map[string]*Connection

	lobby    *lobby.Lobby
	sessions *auth.Manager
}

func New(lby *lobby.Lobby, sessions *auth.Manager) *Gateway {
	return &Gateway{
		userConns: make(map[string]*Connection),
		lobby:     lby,
		sessions:  sessions,
	}
}

// SetLobby resolves the gateway/lobby construction cycle: the lobby
// needs DeliverToUser before the gateway can hold the lobby.
func (g *Gateway) SetLobby(lby *lobby.Lobby) {
	g.lobby = lby
}

// DeliverToUser is the broadcast sink handed to the lobby's tables.
func (g *Gateway) DeliverToUser(userID string, data []byte) {
	g.mu.RLock()
	c := g.userConns[userID]
	g.mu.RUnlock()

	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		// Slow consumer; drop rather than block the table actor.
	}
}

// HandleWebSocket upgrades the connection after resolving the session
// token from the query string or the Authorization header.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	acct, ok := g.sessions.ResolveSession(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	c := &Connection{
		UserID:   acct.UserID,
		Username: acct.Username,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		Gateway:  g,
	}

	g.mu.Lock()
	if prev := g.userConns[acct.UserID]; prev != nil {
		prev.Conn.Close()
	}
	g.userConns[acct.UserID] = c
	total := len(g.userConns)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: user=%s total=%d", acct.UserID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error user=%s: %v", c.UserID, err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleFrame(message)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) handleFrame(data []byte) {
	env, err := codec.DecodeClient(data)
	if err != nil {
		c.sendError(env, "bad_request", "invalid message format")
		return
	}

	switch env.Type {
	case codec.ClientListTables:
		c.handleListTables(env)
	case codec.ClientQuickStart:
		c.handleQuickStart(env)
	case codec.ClientJoinTable:
		c.handleJoinTable(env)
	case codec.ClientLeaveTable:
		c.handleLeaveTable(env)
	case codec.ClientSit:
		c.handleSit(env)
	case codec.ClientStand:
		c.submitTableEvent(env, table.Event{Type: table.EventStand, UserID: c.UserID})
	case codec.ClientBuyIn:
		c.handleBuyIn(env, table.EventBuyIn)
	case codec.ClientRebuy:
		c.handleBuyIn(env, table.EventRebuy)
	case codec.ClientCashOut:
		c.submitTableEvent(env, table.Event{Type: table.EventCashOut, UserID: c.UserID})
	case codec.ClientAct:
		c.handleAct(env)
	default:
		c.sendError(env, "bad_request", "unknown message type: "+env.Type)
	}
}

func (c *Connection) handleListTables(env codec.ClientEnvelope) {
	c.send(codec.Wrap("", 0, codec.ServerTableList, codec.TableListPayload{
		Tables: c.Gateway.lobby.ListTables(),
	}), env.Seq)
}

func (c *Connection) handleQuickStart(env codec.ClientEnvelope) {
	t, err := c.Gateway.lobby.QuickStart(c.UserID)
	if err != nil {
		c.sendError(env, "lobby_error", err.Error())
		return
	}
	c.attachTable(env, t)
}

func (c *Connection) handleJoinTable(env codec.ClientEnvelope) {
	if env.TableID == "" {
		c.handleQuickStart(env)
		return
	}
	t := c.Gateway.lobby.GetTable(env.TableID)
	if t == nil {
		c.sendError(env, "not_found", "unknown table "+env.TableID)
		return
	}
	c.attachTable(env, t)
}

func (c *Connection) attachTable(env codec.ClientEnvelope, t *table.Table) {
	if err := t.SubmitEvent(table.Event{
		Type:     table.EventJoin,
		UserID:   c.UserID,
		Username: c.Username,
	}); err != nil {
		c.sendError(env, "table_error", err.Error())
		return
	}
	c.mu.Lock()
	c.table = t
	c.mu.Unlock()
	c.send(codec.Wrap(t.ID, 0, codec.ServerTableJoined, codec.TableJoinedPayload{Table: t.Info()}), env.Seq)
	log.Printf("[Gateway] User %s joined table %s", c.UserID, t.ID)
}

func (c *Connection) handleLeaveTable(env codec.ClientEnvelope) {
	c.mu.Lock()
	t := c.table
	c.table = nil
	c.mu.Unlock()
	if t == nil {
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventLeave, UserID: c.UserID}); err != nil {
		c.sendError(env, "table_error", err.Error())
	}
}

func (c *Connection) handleSit(env codec.ClientEnvelope) {
	var req codec.SitRequest
	if err := env.DecodePayload(&req); err != nil {
		c.sendError(env, "bad_request", err.Error())
		return
	}
	c.submitTableEvent(env, table.Event{Type: table.EventSit, UserID: c.UserID, Seat: req.Seat})
}

func (c *Connection) handleBuyIn(env codec.ClientEnvelope, kind table.EventType) {
	var req codec.BuyInRequest
	if err := env.DecodePayload(&req); err != nil {
		c.sendError(env, "bad_request", err.Error())
		return
	}
	c.submitTableEvent(env, table.Event{Type: kind, UserID: c.UserID, Amount: req.Amount})
}

func (c *Connection) handleAct(env codec.ClientEnvelope) {
	var req codec.ActRequest
	if err := env.DecodePayload(&req); err != nil {
		c.sendError(env, "bad_request", err.Error())
		return
	}
	action, ok := poker.ParseActionType(req.Action)
	if !ok {
		c.sendError(env, "bad_request", "unknown action "+req.Action)
		return
	}
	c.submitTableEvent(env, table.Event{
		Type:   table.EventAct,
		UserID: c.UserID,
		Action: action,
		Amount: req.Amount,
	})
}

func (c *Connection) submitTableEvent(env codec.ClientEnvelope, e table.Event) {
	c.mu.Lock()
	t := c.table
	c.mu.Unlock()
	if t == nil {
		c.sendError(env, "not_in_table", "join a table first")
		return
	}
	if err := t.SubmitEvent(e); err != nil {
		c.sendError(env, "table_error", err.Error())
	}
}

func (c *Connection) send(env codec.ServerEnvelope, clientSeq uint64) {
	env.ClientSeq = clientSeq
	data, err := codec.Encode(env)
	if err != nil {
		log.Printf("[Gateway] encode failed user=%s: %v", c.UserID, err)
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Connection) sendError(env codec.ClientEnvelope, code, msg string) {
	c.send(codec.Wrap(env.TableID, 0, codec.ServerError, codec.ErrorPayload{
		Code:    code,
		Message: msg,
	}), env.Seq)
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	if g.userConns[c.UserID] == c {
		delete(g.userConns, c.UserID)
	}
	total := len(g.userConns)
	g.mu.Unlock()

	// Mark the user offline at their table so the timeout path takes
	// over their turns.
	c.mu.Lock()
	t := c.table
	c.mu.Unlock()
	if t != nil {
		_ = t.SubmitEvent(table.Event{Type: table.EventLeave, UserID: c.UserID})
	}
	log.Printf("[Gateway] Client disconnected: user=%s total=%d", c.UserID, total)
}

func bearerToken(raw string) string {
	const prefix = "Bearer "
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return ""
	}
	return raw[len(prefix):]
}
