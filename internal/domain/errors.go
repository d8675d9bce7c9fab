package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                  = errors.New("booking not found")
	ErrInvalidStateTransition    = errors.New("invalid state transition")
	ErrValidation                = errors.New("validation failed")
	ErrHoldExpired               = errors.New("hold expired")
	ErrConflict                  = errors.New("concurrent modification")
	ErrSeatUnavailable           = errors.New("seat unavailable")
	ErrPaymentDeclined           = errors.New("payment declined")
	ErrUpstreamTimeout           = errors.New("upstream timeout")
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")
)

// StateTransitionError names the state a booking was in when an operation
// was refused.
type StateTransitionError struct {
	Op      string
	Current BookingStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking in %s state", e.Op, e.Current)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError is a failure reported by, or detected in the answer of, a
// provider. Kind is one of the ErrUpstream* sentinels or
// ErrMalformedUpstreamResponse.
type UpstreamError struct {
	Tool   string
	Kind   error
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Kind, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return e.Kind }

func Malformed(tool, format string, args ...any) error {
	return &UpstreamError{Tool: tool, Kind: ErrMalformedUpstreamResponse, Detail: fmt.Sprintf(format, args...)}
}
