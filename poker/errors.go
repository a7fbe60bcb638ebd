package poker

import (
	"errors"
	"fmt"

	"pokerroom/card"
)

var (
	// ErrIllegalMove covers any action inconsistent with the current
	// stage, turn, or betting rules. Table state is unchanged.
	ErrIllegalMove = errors.New("illegal move")

	// ErrOutOfTurn is an ErrIllegalMove for a seat that is not the
	// current actor.
	ErrOutOfTurn = fmt.Errorf("%w: out of turn", ErrIllegalMove)

	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrAlreadyBoughtIn  = errors.New("already bought in")
	ErrHandInProgress   = errors.New("hand in progress")
	ErrNoHandInProgress = errors.New("no hand in progress")
	ErrNotEnoughPlayers = errors.New("not enough players")

	// ErrDeckExhausted should be structurally unreachable. When it
	// occurs the hand is aborted and all contributions refunded.
	ErrDeckExhausted = card.ErrDeckExhausted
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func errInvalidState(msg string) error { return InvalidStateError(msg) }
