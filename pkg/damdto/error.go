package damdto

// Rejection and failure codes carried in DomainError.Code.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeNotYourTurn       = "NOT_YOUR_TURN"
	CodeNoSeat            = "NO_SEAT"
	CodeOutOfBounds       = "OUT_OF_BOUNDS"
	CodeIllegalMove       = "ILLEGAL_MOVE"
	CodeMustContinueChain = "MUST_CONTINUE_CHAIN"
	CodeGameOver          = "GAME_OVER"
	CodeNotStarted        = "NOT_STARTED"
	CodeInProgress        = "IN_PROGRESS"
	CodeRoomFull          = "ROOM_FULL"
	CodeInvalidArgs       = "INVALID_ARGS"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "dambrete error"
}
