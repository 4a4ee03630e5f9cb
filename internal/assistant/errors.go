package assistant

import (
	"errors"
	"fmt"
)

// Precondition failures
var (
	// ErrNoThread is returned when no thread has been created yet
	ErrNoThread = errors.New("no thread established")

	// ErrEmptyContent is returned for blank message text
	ErrEmptyContent = errors.New("message content is empty")

	// ErrAlreadyActive is returned when a run is already in flight
	ErrAlreadyActive = errors.New("a run is already active")

	// ErrNoActiveRun is returned when tool outputs arrive with no run waiting for them
	ErrNoActiveRun = errors.New("no run is waiting for tool outputs")

	// ErrNoToolOutputs is returned for an empty tool output batch
	ErrNoToolOutputs = errors.New("no tool outputs to submit")
)

// Protocol failures
var (
	// ErrRunFailed is wrapped when the backend reports a failed run
	ErrRunFailed = errors.New("run failed")

	// ErrRunCancelled is wrapped when a run ends cancelled or expired
	ErrRunCancelled = errors.New("run ended without a result")

	// ErrUnknownToolCall is wrapped when an output names a tool call the run never issued
	ErrUnknownToolCall = errors.New("unknown tool call id")

	// ErrMalformedResponse is wrapped when a response lacks required fields
	ErrMalformedResponse = errors.New("malformed response")
)

// TransportError reports a network failure or a non-2xx response
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a well-formed response that breaks the run protocol
type ProtocolError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// PreconditionError reports a call the controller refused to start
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, err error) error {
	return &PreconditionError{Op: op, Err: err}
}

func protocol(op string, err error, reason string) error {
	return &ProtocolError{Op: op, Err: err, Reason: reason}
}
