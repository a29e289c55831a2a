package game

import "errors"

// Every failure a connection can trigger maps to one of these. They are
// reported back on the originating connection and never terminate the
// session for anyone else.
var (
	ErrNotFound                = errors.New("game not found")
	ErrDuplicateName           = errors.New("name already taken")
	ErrInvalidStateTransition  = errors.New("operation not valid in current game state")
	ErrDeadlinePassed          = errors.New("answer window closed")
	ErrDuplicateAnswer         = errors.New("answer already submitted for this question")
	ErrUnauthorized            = errors.New("only the host may perform this operation")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique game code")
	ErrSessionAlreadyFinished  = errors.New("game already finished")
)

// ErrorCode returns the stable wire code for err, used in error envelopes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateName):
		return "DUPLICATE_NAME"
	case errors.Is(err, ErrInvalidStateTransition):
		return "INVALID_STATE"
	case errors.Is(err, ErrDeadlinePassed):
		return "DEADLINE_PASSED"
	case errors.Is(err, ErrDuplicateAnswer):
		return "DUPLICATE_ANSWER"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrCodeGenerationExhausted):
		return "CODE_GENERATION_EXHAUSTED"
	case errors.Is(err, ErrSessionAlreadyFinished):
		return "ALREADY_FINISHED"
	default:
		return "INTERNAL"
	}
}
