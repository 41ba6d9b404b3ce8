package dispatch

import "fmt"

// Outcome is the result of processing a single work item.
type Outcome int

const (
	// OutcomeSuccess means the external command exited with status 0.
	OutcomeSuccess Outcome = iota
	// OutcomeToolFailure means the external command exited non-zero.
	OutcomeToolFailure
	// OutcomeDispatchError means the command could not be run at all.
	OutcomeDispatchError
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeToolFailure:
		return "tool-failure"
	case OutcomeDispatchError:
		return "dispatch-error"
	default:
		return "unknown"
	}
}

// CountsAsFailure reports whether the outcome sets the run's failure flag.
// Dispatch errors only count when strict is set.
func (o Outcome) CountsAsFailure(strict bool) bool {
	switch o {
	case OutcomeToolFailure:
		return true
	case OutcomeDispatchError:
		return strict
	default:
		return false
	}
}

// Classify maps an exit status to an outcome.
func Classify(exitCode int) Outcome {
	if exitCode == 0 {
		return OutcomeSuccess
	}
	return OutcomeToolFailure
}

// PanicError wraps a value recovered from a panicking TaskRunner.
type PanicError struct {
	Item  string
	Value interface{}
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Item, e.Value)
}
