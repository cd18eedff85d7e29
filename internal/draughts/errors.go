package draughts

import "errors"

var (
	ErrOutOfBounds       = errors.New("square out of bounds")
	ErrIllegalMove       = errors.New("illegal move")
	ErrMustContinueChain = errors.New("capture chain must continue")
)
