package room

import (
	"errors"

	"github.com/park285/dambrete/internal/draughts"
	"github.com/park285/dambrete/pkg/damdto"
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }

var (
	ErrInvalidArgs = errf("invalid arguments")
	ErrNotFound    = errf("room not found")
	ErrExists      = errf("room id already taken")
	ErrRoomFull    = errf("room is full")
	ErrNoSeat      = errf("caller holds no seat in this room")
	ErrNotYourTurn = errf("not your turn")
	ErrGameOver    = errf("game is over")
	ErrNotStarted  = errf("game has not started")
	ErrInProgress  = errf("game still in progress")
	ErrConflict    = errf("concurrent update, retry")

	// ErrDrop returned from an Update callback removes the session inside
	// the same critical section.
	ErrDrop = errf("drop session")
)

// ReasonOf maps an error to its wire code. nil maps to "".
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return damdto.CodeNotFound
	case errors.Is(err, ErrNotYourTurn):
		return damdto.CodeNotYourTurn
	case errors.Is(err, ErrNoSeat):
		return damdto.CodeNoSeat
	case errors.Is(err, draughts.ErrOutOfBounds):
		return damdto.CodeOutOfBounds
	case errors.Is(err, draughts.ErrMustContinueChain):
		return damdto.CodeMustContinueChain
	case errors.Is(err, draughts.ErrIllegalMove):
		return damdto.CodeIllegalMove
	case errors.Is(err, ErrGameOver):
		return damdto.CodeGameOver
	case errors.Is(err, ErrNotStarted):
		return damdto.CodeNotStarted
	case errors.Is(err, ErrInProgress):
		return damdto.CodeInProgress
	case errors.Is(err, ErrRoomFull):
		return damdto.CodeRoomFull
	case errors.Is(err, ErrInvalidArgs):
		return damdto.CodeInvalidArgs
	case errors.Is(err, ErrConflict):
		return damdto.CodeConflict
	default:
		return damdto.CodeInternal
	}
}

// AsDomainError converts err for the wire.
func AsDomainError(err error) damdto.DomainError {
	code := ReasonOf(err)
	return damdto.DomainError{Code: code, Message: err.Error(), Retryable: code == damdto.CodeConflict}
}
