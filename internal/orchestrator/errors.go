package orchestrator

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeDaemonControl indicates a service could not be started or stopped
	ErrTypeDaemonControl ErrorType = iota
	// ErrTypeScanParse indicates a scan result line could not be parsed
	ErrTypeScanParse
	// ErrTypeScanEmpty indicates the scan listing failed or was empty
	ErrTypeScanEmpty
	// ErrTypeJoinRejected indicates the connect request failed
	ErrTypeJoinRejected
	// ErrTypeBusy indicates a request arrived while the radio was not in AP mode
	ErrTypeBusy
	// ErrTypeValidation indicates an invalid request
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeDaemonControl:
		return "Daemon Control Failure"
	case ErrTypeScanParse:
		return "Scan Parse Skip"
	case ErrTypeScanEmpty:
		return "Scan Empty"
	case ErrTypeJoinRejected:
		return "Join Rejected"
	case ErrTypeBusy:
		return "Orchestrator Busy"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is an orchestrator failure.
type Error struct {
	Type    ErrorType
	Message string
	// Mode is the radio mode at the time of the error
	Mode Mode
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so errors.Is(err, ErrBusy) works
// regardless of message or mode.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrBusy is the sentinel for ErrTypeBusy.
var ErrBusy = &Error{Type: ErrTypeBusy, Message: "orchestrator busy"}

func newBusyError(mode Mode) *Error {
	return &Error{
		Type:    ErrTypeBusy,
		Message: fmt.Sprintf("orchestrator busy (radio is %s)", mode),
		Mode:    mode,
	}
}

func newValidationError(message string) *Error {
	return &Error{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// IsBusy checks if an error is an OrchestratorBusy rejection
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Type == ErrTypeValidation
}

// ShortMessage returns a concise, user-facing message for an error
func ShortMessage(err error) string {
	var oe *Error
	if !errors.As(err, &oe) {
		return err.Error()
	}

	switch oe.Type {
	case ErrTypeBusy:
		if oe.Mode == ModeClientConnected {
			return "Device has already joined a network - reset it to AP mode first"
		}
		return "A scan or join is already in progress - try again shortly"
	case ErrTypeValidation:
		return oe.Message
	case ErrTypeJoinRejected:
		return "Could not join the network - check the password"
	default:
		return oe.Message
	}
}
