package poker

// NoSeat marks "no seat": no player to act, no dealer assigned yet.
const NoSeat = -1

// Stage is the linear hand progression. No backward transitions.
type Stage byte

const (
	StageIdle     Stage = 0
	StagePreflop  Stage = 1
	StageFlop     Stage = 2
	StageTurn     Stage = 3
	StageRiver    Stage = 4
	StageShowdown Stage = 5
	StageHandEnd  Stage = 6
)

var StageDictionary = map[Stage]string{
	StageIdle:     "idle",
	StagePreflop:  "preflop",
	StageFlop:     "flop",
	StageTurn:     "turn",
	StageRiver:    "river",
	StageShowdown: "showdown",
	StageHandEnd:  "handend",
}

func (s Stage) String() string {
	if name, ok := StageDictionary[s]; ok {
		return name
	}
	return "unknown"
}

// PlayerStatus tracks a seat across and within hands.
type PlayerStatus byte

const (
	StatusObserver PlayerStatus = 0 // seated, no buy-in yet
	StatusWaiting  PlayerStatus = 1 // bought in, between hands
	StatusPlaying  PlayerStatus = 2
	StatusFolded   PlayerStatus = 3
	StatusAllIn    PlayerStatus = 4
	StatusBusted   PlayerStatus = 5 // stack hit zero, needs a rebuy
)

var PlayerStatusDictionary = map[PlayerStatus]string{
	StatusObserver: "observer",
	StatusWaiting:  "waiting",
	StatusPlaying:  "playing",
	StatusFolded:   "folded",
	StatusAllIn:    "all-in",
	StatusBusted:   "busted",
}

func (s PlayerStatus) String() string {
	if name, ok := PlayerStatusDictionary[s]; ok {
		return name
	}
	return "unknown"
}

// ActionType 0-NONE 1-FOLD 2-CHECK 3-CALL 4-BET 5-RAISE 6-ALLIN 7-SHOW 8-MUCK
type ActionType byte

const (
	ActionNone  ActionType = 0
	ActionFold  ActionType = 1
	ActionCheck ActionType = 2
	ActionCall  ActionType = 3
	ActionBet   ActionType = 4
	ActionRaise ActionType = 5
	ActionAllIn ActionType = 6
	ActionShow  ActionType = 7
	ActionMuck  ActionType = 8
)

var ActionTypeDictionary = map[ActionType]string{
	ActionNone:  "NONE",
	ActionFold:  "FOLD",
	ActionCheck: "CHECK",
	ActionCall:  "CALL",
	ActionBet:   "BET",
	ActionRaise: "RAISE",
	ActionAllIn: "ALLIN",
	ActionShow:  "SHOW",
	ActionMuck:  "MUCK",
}

func (a ActionType) String() string {
	if name, ok := ActionTypeDictionary[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseActionType maps a wire action name back to its enum value.
func ParseActionType(name string) (ActionType, bool) {
	for a, n := range ActionTypeDictionary {
		if n == name {
			return a, true
		}
	}
	return ActionNone, false
}
