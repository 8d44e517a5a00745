package plan

import (
	"errors"
	"fmt"
)

// Error is a planner failure with a machine-readable code. Every operation
// surfaces its failure reason synchronously as one of these; there is no
// retry policy in the core, callers decide what to do with the code.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EntityID identifies the rule, session or log involved, when known.
	EntityID string
}

// ErrorCode categorizes planner errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates no owner identity could be resolved.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeForbidden indicates the caller is acting on another owner's
	// rule or session.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// ErrCodeNotFound indicates a dangling rule/session/log reference.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeImmutableState indicates an edit to a completed, canceled or
	// past session, or an append to a non-active execution log.
	ErrCodeImmutableState ErrorCode = "IMMUTABLE_STATE"

	// ErrCodeInvalidRecurrence indicates a malformed recurrence (interval
	// below 1, unknown frequency) or an occurrence date that does not
	// match the rule's pattern.
	ErrCodeInvalidRecurrence ErrorCode = "INVALID_RECURRENCE"

	// ErrCodePolicyViolation indicates scheduling an exercise the caller
	// neither owns nor has saved.
	ErrCodePolicyViolation ErrorCode = "POLICY_VIOLATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// EntityErrorf creates an Error bound to a specific entity id.
func EntityErrorf(code ErrorCode, entityID, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), EntityID: entityID}
}

// CodeOf extracts the planner error code from err, or "" if err is not a
// planner error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND planner error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsImmutableState reports whether err is an IMMUTABLE_STATE planner error.
func IsImmutableState(err error) bool { return CodeOf(err) == ErrCodeImmutableState }

// IsInvalidRecurrence reports whether err is an INVALID_RECURRENCE planner error.
func IsInvalidRecurrence(err error) bool { return CodeOf(err) == ErrCodeInvalidRecurrence }

// IsForbidden reports whether err is a FORBIDDEN planner error.
func IsForbidden(err error) bool { return CodeOf(err) == ErrCodeForbidden }

// IsPolicyViolation reports whether err is a POLICY_VIOLATION planner error.
func IsPolicyViolation(err error) bool { return CodeOf(err) == ErrCodePolicyViolation }
