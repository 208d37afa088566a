package harnesserr

import "fmt"

// Error captures contextual information for harness failures.
type Error struct {
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs an Error with the provided context.
func E(op, msg string, err error) error {
	return &Error{Op: op, Msg: msg, Err: err}
}

// MarkerNotFoundError means the sentinel entry placed for the current
// iteration was absent from the window read back from the gcode store.
// The window is a configuration property, so this is never retried.
type MarkerNotFoundError struct {
	Window int
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("marker entry not found in the last %d log entries; increase the log window for this test type and try again", e.Window)
}

// UnexpectedMessageCountError means the tail slice did not contain the
// number of matching lines the test type requires. Exact distinguishes
// rules that demand a precise count from rules that need a minimum.
type UnexpectedMessageCountError struct {
	Rule  string
	Want  int
	Got   int
	Exact bool
}

func (e *UnexpectedMessageCountError) Error() string {
	q := "at least"
	if e.Exact {
		q = "exactly"
	}
	return fmt.Sprintf("%s: expected %s %d matching log lines, got %d", e.Rule, q, e.Want, e.Got)
}

// RemoteTimeoutError marks a timed-out remote call. Commands may have
// physical side effects, so callers must not retry automatically.
type RemoteTimeoutError struct {
	Op  string
	Err error
}

func (e *RemoteTimeoutError) Error() string {
	return fmt.Sprintf("%s: remote call timed out: %v", e.Op, e.Err)
}

func (e *RemoteTimeoutError) Unwrap() error { return e.Err }
