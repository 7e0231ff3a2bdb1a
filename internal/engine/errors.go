package engine

import (
	"errors"
	"fmt"
)

// FailureKind separates the two operational failure classes.
type FailureKind string

const (
	// FailureRequest marks a malformed request: unknown action id, bad
	// parameters, a choice index with no dialogue open. A host should
	// treat these as its own bugs. Request failures never reference a
	// condition.
	FailureRequest FailureKind = "request"

	// FailureWorld marks a well-formed request the world currently
	// refuses: unmet action conditions, a blocked exit, an unavailable
	// choice. Ordinary gameplay feedback, surfaced however the host
	// sees fit. World failures reference the first failing condition
	// when one exists.
	FailureWorld FailureKind = "world"
)

// FailureCode categorises a failure within its kind.
type FailureCode string

const (
	// Request failures.
	CodeUnknownAction   FailureCode = "UNKNOWN_ACTION"
	CodeUnknownLocation FailureCode = "UNKNOWN_LOCATION"
	CodeBadTarget       FailureCode = "BAD_TARGET"
	CodeNoDialogue      FailureCode = "NO_DIALOGUE"
	CodeChoiceRange     FailureCode = "CHOICE_OUT_OF_RANGE"
	CodeNoSequence      FailureCode = "NO_SEQUENCE"

	// World failures.
	CodeConditionsUnmet   FailureCode = "CONDITIONS_UNMET"
	CodeExitBlocked       FailureCode = "EXIT_BLOCKED"
	CodeNoExit            FailureCode = "NO_EXIT"
	CodeChoiceUnavailable FailureCode = "CHOICE_UNAVAILABLE"
)

// Failure is the structured result of a refused facade call. It is
// returned as a value, never added to the event stream, and the call
// that produced it mutated nothing: Snapshot() before equals
// Snapshot() after.
type Failure struct {
	Kind    FailureKind
	Code    FailureCode
	Message string

	// ConditionRef names the first failing condition by its stable
	// rendering. Set only on world failures that have one (a blocked
	// exit with no declared gate, for instance, has none).
	ConditionRef string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.ConditionRef != "" {
		return fmt.Sprintf("%s: %s (condition: %s)", f.Code, f.Message, f.ConditionRef)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// requestFailure builds a request-validation failure.
func requestFailure(code FailureCode, format string, args ...any) *Failure {
	return &Failure{
		Kind:    FailureRequest,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// worldFailure builds a world-state failure. conditionRef may be empty.
func worldFailure(code FailureCode, conditionRef, format string, args ...any) *Failure {
	return &Failure{
		Kind:         FailureWorld,
		Code:         code,
		Message:      fmt.Sprintf(format, args...),
		ConditionRef: conditionRef,
	}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsRequestFailure reports whether err is a request-validation failure.
func IsRequestFailure(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailureRequest
}

// IsWorldFailure reports whether err is a world-state failure.
func IsWorldFailure(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailureWorld
}
