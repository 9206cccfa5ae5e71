package preflight

import (
	"errors"
	"fmt"
)

var (
	// ErrMarkerUnset is returned when the isolated runtime marker is not set.
	ErrMarkerUnset = errors.New("isolated runtime environment is not active")

	// ErrEnvFileMissing is returned when the configuration file does not exist.
	ErrEnvFileMissing = errors.New("configuration file not found")

	// ErrClientMissing is returned when a probe's client binary is not installed.
	ErrClientMissing = errors.New("client not installed")

	// ErrUnreachable is returned when a probe ran but the service did not answer.
	ErrUnreachable = errors.New("service unreachable")
)

// Error is a failed check. It carries everything needed to print a
// diagnostic line and pick an exit code.
type Error struct {
	Check         string
	Category      Category
	Hint          string
	ClientMissing bool
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Check, e.reason())
}

// reason is the cause text without the check name.
func (e *Error) reason() string {
	if e.Err == nil {
		return "failed"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this failure.
func (e *Error) ExitCode() int {
	return e.Category.ExitCode()
}

// asError normalises any error returned by a check into an *Error.
func asError(c Check, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Check: c.Name(), Category: c.Category(), Err: err}
}
