package poker

import (
	"time"

	"pokerroom/card"
)

// EventKind names a domain event emitted by the engine.
type EventKind string

const (
	EventHandStarted   EventKind = "hand_started"
	EventBlindPosted   EventKind = "blind_posted"
	EventHoleCards     EventKind = "hole_cards"
	EventStageAdvanced EventKind = "stage_advanced"
	EventBoardDealt    EventKind = "board_dealt"
	EventActionApplied EventKind = "action_applied"
	EventPotAwarded    EventKind = "pot_awarded"
	EventHandFinished  EventKind = "hand_finished"
	EventHandAborted   EventKind = "hand_aborted"
)

// Event is one entry of the domain-event stream. Only the fields that
// apply to the Kind are set.
type Event struct {
	Kind EventKind
	At   time.Time

	HandNumber uint64
	Stage      Stage
	Seat       int
	Action     ActionType
	Amount     int64
	Cards      []card.Card
	Results    []HandResult
}

func (g *Game) emit(ev Event) {
	ev.At = time.Now()
	ev.HandNumber = g.handNumber
	if ev.Stage == 0 {
		ev.Stage = g.stage
	}
	g.pending = append(g.pending, ev)
}

// TakeEvents drains the accumulated domain events in emission order.
func (g *Game) TakeEvents() []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	evs := g.pending
	g.pending = nil
	return evs
}
