package domain

import "errors"

// Messages of these errors travel verbatim in CommandResult.error.
var (
	ErrAccountNotConnected   = errors.New("Account not connected")
	ErrAccountAlreadyStarted = errors.New("Account already started")
	ErrAccountNotFound       = errors.New("Account not found")
	ErrConnectionAborted     = errors.New("connection aborted before it was established")
	ErrSupervisorStopped     = errors.New("supervisor stopped")
	ErrUnsupportedCommand    = errors.New("command is not supported")
	ErrUnknownCommand        = errors.New("unknown command type")
	ErrInvalidPayload        = errors.New("invalid command payload")
)

// UnsupportedCommandError is returned for command kinds that decode but have
// no handler.
type UnsupportedCommandError struct {
	Kind CommandKind
}

func (e UnsupportedCommandError) Error() string {
	return "command " + string(e.Kind) + " is not supported"
}

func (e UnsupportedCommandError) Is(target error) bool {
	return target == ErrUnsupportedCommand
}
