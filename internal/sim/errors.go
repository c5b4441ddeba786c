package sim

import (
	"errors"
	"fmt"
)

// Class buckets an error by how it propagates.
//
//   - validation: bad input, rejected before any mutation
//   - state: legal input, wrong lifecycle moment; caller redirected
//   - consistency: invariant or checksum broke; state was rolled back
//   - config: malformed region/crop material; fatal to start only
type Class string

const (
	ClassValidation  Class = "validation"
	ClassState       Class = "state"
	ClassConsistency Class = "consistency"
	ClassConfig      Class = "config"
)

// Reason codes surfaced to callers. Stable identifiers, not prose.
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeUnknownCategory      = "UNKNOWN_CATEGORY"
	CodeInvalidPeriods       = "INVALID_PERIODS"
	CodeNothingToUndo        = "NOTHING_TO_UNDO"
	CodeUndoWindowClosed     = "UNDO_WINDOW_CLOSED"
	CodeYearNotComplete      = "YEAR_NOT_COMPLETE"
	CodeEventBudgetExhausted = "EVENT_BUDGET_EXHAUSTED"
	CodeSimulationCompleted  = "SIMULATION_COMPLETED"
	CodeInvalidConfig        = "INVALID_CONFIG"
	CodeBalanceInvariant     = "BALANCE_INVARIANT"
	CodeChecksumMismatch     = "CHECKSUM_MISMATCH"
)

// Error is a classified simulation error with a machine-readable
// reason code. ConsistencyError details are for logs; callers only
// see that state was restored.
type Error struct {
	Class   Class
	Code    string
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s/%s: %s: %v", e.Class, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s", e.Class, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(class Class, code, msg string, cause error) *Error {
	return &Error{Class: class, Code: code, Message: msg, Err: cause}
}

func validationErr(code, msg string, cause error) *Error {
	return newError(ClassValidation, code, msg, cause)
}

func stateErr(code, msg string) *Error {
	return newError(ClassState, code, msg, nil)
}

func consistencyErr(code, msg string, cause error) *Error {
	return newError(ClassConsistency, code, msg, cause)
}

func configErr(code, msg string, cause error) *Error {
	return newError(ClassConfig, code, msg, cause)
}

// classIs reports whether err is a simulation Error of the given class.
func classIs(err error, class Class) bool {
	var se *Error
	return errors.As(err, &se) && se.Class == class
}

// IsValidation reports whether err is a rejected-input error.
func IsValidation(err error) bool { return classIs(err, ClassValidation) }

// IsState reports whether err is a lifecycle error.
func IsState(err error) bool { return classIs(err, ClassState) }

// IsConsistency reports whether err indicates corruption and rollback.
func IsConsistency(err error) bool { return classIs(err, ClassConsistency) }

// IsConfig reports whether err is a content/configuration failure.
func IsConfig(err error) bool { return classIs(err, ClassConfig) }

// CodeOf extracts the reason code, or "" for foreign errors.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
