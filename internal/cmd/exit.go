package cmd

import "fmt"

// ExitError carries a process exit status out of a command. Err is nil
// when the command already reported everything it had to say.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitStatus converts a status into an error, nil for zero.
func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}
