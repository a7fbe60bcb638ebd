// Package codec defines the JSON wire protocol between the gateway and
// clients. Every frame is an envelope carrying a type tag and one typed
// payload.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"pokerroom/card"
	"pokerroom/poker"
)

// Client to server message types.
const (
	ClientJoinTable  = "join_table"
	ClientLeaveTable = "leave_table"
	ClientListTables = "list_tables"
	ClientQuickStart = "quick_start"
	ClientSit        = "sit"
	ClientStand      = "stand"
	ClientBuyIn      = "buy_in"
	ClientRebuy      = "rebuy"
	ClientCashOut    = "cash_out"
	ClientAct        = "act"
)

// Server to client message types.
const (
	ServerError         = "error"
	ServerTableList     = "table_list"
	ServerTableJoined   = "table_joined"
	ServerTableSnapshot = "table_snapshot"
	ServerHandStart     = "hand_start"
	ServerHoleCards     = "hole_cards"
	ServerBoard         = "board"
	ServerActionPrompt  = "action_prompt"
	ServerActionResult  = "action_result"
	ServerPotUpdate     = "pot_update"
	ServerShowdown      = "showdown"
	ServerHandEnd       = "hand_end"
	ServerHandAborted   = "hand_aborted"
)

// ClientEnvelope is one frame from a client. Payload is decoded
// according to Type.
type ClientEnvelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	TableID string          `json:"table_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SitRequest struct {
	Seat int `json:"seat"`
}

type BuyInRequest struct {
	Amount int64 `json:"amount"`
}

type ActRequest struct {
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

func DecodeClient(data []byte) (ClientEnvelope, error) {
	var env ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return ClientEnvelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

func (e ClientEnvelope) DecodePayload(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}

// ServerEnvelope is one frame to a client.
type ServerEnvelope struct {
	Type       string `json:"type"`
	TableID    string `json:"table_id,omitempty"`
	ServerSeq  uint64 `json:"server_seq,omitempty"`
	ServerTsMs int64  `json:"server_ts_ms"`
	Payload    any    `json:"payload,omitempty"`
	// ClientSeq echoes the request seq on direct replies.
	ClientSeq uint64 `json:"client_seq,omitempty"`
}

func Wrap(tableID string, serverSeq uint64, kind string, payload any) ServerEnvelope {
	return ServerEnvelope{
		Type:       kind,
		TableID:    tableID,
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    payload,
	}
}

func Encode(env ServerEnvelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	return data, nil
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableInfo struct {
	TableID    string `json:"table_id"`
	Name       string `json:"name"`
	Seated     int    `json:"seated"`
	MaxSeats   int    `json:"max_seats"`
	SmallBlind int64  `json:"small_blind"`
	BigBlind   int64  `json:"big_blind"`
	MinBuyIn   int64  `json:"min_buy_in"`
	MaxBuyIn   int64  `json:"max_buy_in"`
	HandActive bool   `json:"hand_active"`
}

type TableListPayload struct {
	Tables []TableInfo `json:"tables"`
}

type TableJoinedPayload struct {
	Table TableInfo `json:"table"`
}

type PlayerState struct {
	UserID     string   `json:"user_id"`
	Seat       int      `json:"seat"`
	Stack      int64    `json:"stack"`
	Bet        int64    `json:"bet"`
	TotalBet   int64    `json:"total_bet"`
	Status     string   `json:"status"`
	LastAction string   `json:"last_action,omitempty"`
	HoleCards  []string `json:"hole_cards,omitempty"`
	CardCount  int      `json:"card_count,omitempty"`
}

type PotState struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"`
}

type TableSnapshot struct {
	HandNumber  uint64 `json:"hand_number"`
	HandActive  bool   `json:"hand_active"`
	Stage       string `json:"stage"`
	DealerSeat  int    `json:"dealer_seat"`
	SBSeat      int    `json:"sb_seat"`
	BBSeat      int    `json:"bb_seat"`
	CurrentSeat int    `json:"current_seat"`

	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	CurrentBet int64 `json:"current_bet"`
	MinRaiseTo int64 `json:"min_raise_to"`

	Board   []string      `json:"board"`
	Pots    []PotState    `json:"pots"`
	Players []PlayerState `json:"players"`

	RefundSeat   int   `json:"refund_seat,omitempty"`
	RefundAmount int64 `json:"refund_amount,omitempty"`

	Results []HandResultState `json:"results,omitempty"`
}

type HandResultState struct {
	UserID   string   `json:"user_id"`
	Seat     int      `json:"seat"`
	Rank     int      `json:"rank,omitempty"`
	Category string   `json:"category,omitempty"`
	Cards    []string `json:"cards,omitempty"`
	Amount   int64    `json:"amount"`
}

type HandStartPayload struct {
	HandNumber uint64 `json:"hand_number"`
	DealerSeat int    `json:"dealer_seat"`
	SBSeat     int    `json:"sb_seat"`
	BBSeat     int    `json:"bb_seat"`
}

type HoleCardsPayload struct {
	Seat  int      `json:"seat"`
	Cards []string `json:"cards"`
}

type BoardPayload struct {
	Stage string   `json:"stage"`
	Cards []string `json:"cards"`
	Board []string `json:"board"`
}

type ActionPromptPayload struct {
	Seat       int      `json:"seat"`
	UserID     string   `json:"user_id"`
	Actions    []string `json:"actions"`
	CallAmount int64    `json:"call_amount"`
	MinRaiseTo int64    `json:"min_raise_to"`
	DeadlineMs int64    `json:"deadline_ms"`
}

type ActionResultPayload struct {
	Seat   int    `json:"seat"`
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

type PotUpdatePayload struct {
	Pots []PotState `json:"pots"`
}

type ShowdownPayload struct {
	Results []HandResultState `json:"results"`
}

type HandEndPayload struct {
	HandNumber   uint64            `json:"hand_number"`
	Results      []HandResultState `json:"results,omitempty"`
	RefundSeat   int               `json:"refund_seat,omitempty"`
	RefundAmount int64             `json:"refund_amount,omitempty"`
}

type HandAbortedPayload struct {
	HandNumber uint64 `json:"hand_number"`
	Reason     string `json:"reason"`
}

// SnapshotFor projects an engine snapshot for one viewer. Hole cards of
// other players are hidden unless the owner is showing them; hidden
// hands keep a card count so clients can render backs.
func SnapshotFor(snap poker.Snapshot, viewerID string) TableSnapshot {
	ts := TableSnapshot{
		HandNumber:   snap.HandNumber,
		HandActive:   snap.HandActive,
		Stage:        snap.Stage.String(),
		DealerSeat:   snap.DealerSeat,
		SBSeat:       snap.SBSeat,
		BBSeat:       snap.BBSeat,
		CurrentSeat:  snap.CurrentSeat,
		SmallBlind:   snap.SmallBlind,
		BigBlind:     snap.BigBlind,
		CurrentBet:   snap.CurrentBet,
		MinRaiseTo:   snap.MinRaiseTo,
		Board:        card.Codes(snap.Board),
		RefundSeat:   snap.RefundSeat,
		RefundAmount: snap.RefundAmount,
		Results:      ResultStates(snap.Results),
	}
	if ts.Board == nil {
		ts.Board = []string{}
	}

	ts.Pots = PotStates(snap.Pots)

	ts.Players = make([]PlayerState, 0, len(snap.Players))
	for _, p := range snap.Players {
		ps := PlayerState{
			UserID:   p.ID,
			Seat:     p.Seat,
			Stack:    p.Stack,
			Bet:      p.CurrentBet,
			TotalBet: p.TotalBet,
			Status:   p.Status.String(),
		}
		if p.LastAction != poker.ActionNone {
			ps.LastAction = p.LastAction.String()
		}
		if len(p.HoleCards) > 0 {
			if p.ID == viewerID || p.ShowCards {
				ps.HoleCards = card.Codes(p.HoleCards)
			} else {
				ps.CardCount = len(p.HoleCards)
			}
		}
		ts.Players = append(ts.Players, ps)
	}
	return ts
}

// PotStates renders engine pots as wire pots.
func PotStates(pots []poker.Pot) []PotState {
	out := make([]PotState, 0, len(pots))
	for _, p := range pots {
		out = append(out, PotState{Amount: p.Amount, Eligible: p.Eligible})
	}
	return out
}

// ResultStates renders hand results as wire results.
func ResultStates(results []poker.HandResult) []HandResultState {
	if len(results) == 0 {
		return nil
	}
	out := make([]HandResultState, 0, len(results))
	for _, r := range results {
		out = append(out, HandResultState{
			UserID:   r.PlayerID,
			Seat:     r.Seat,
			Rank:     r.Rank,
			Category: r.Category,
			Amount:   r.Amount,
			Cards:    card.Codes(r.Cards),
		})
	}
	return out
}

// ActionTypes renders engine action types as wire strings.
func ActionTypes(actions []poker.ActionType) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.String())
	}
	return out
}
