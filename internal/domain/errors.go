package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a malformed query parameter (caller bug, never retried).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGateway signals a transport or protocol failure at the gateway (retryable with backoff).
	ErrGateway = errors.New("gateway request failed")
	// ErrNotFound signals a transaction unknown to the gateway.
	ErrNotFound = errors.New("transaction not found")
	// ErrDecode signals a payload that is not valid text.
	ErrDecode = errors.New("payload is not valid text")
	// ErrInvariant signals an internal pipeline bug.
	ErrInvariant = errors.New("internal invariant violated")
)

// GatewayError wraps ErrGateway with transport-level context.
type GatewayError struct {
	Op      string // gateway operation: query, content, meta
	Status  int    // HTTP status when the gateway responded, 0 otherwise
	Timeout bool   // request deadline expired
	Cause   error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("gateway %s failed", e.Op)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the cause so callers can still match context errors.
func (e *GatewayError) Unwrap() error { return e.Cause }

// Is marks every GatewayError as an ErrGateway.
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// NewGatewayError creates a gateway transport error.
func NewGatewayError(op string, status int, timeout bool, cause error) error {
	return &GatewayError{Op: op, Status: status, Timeout: timeout, Cause: cause}
}

// IsTimeout reports whether err is a gateway error caused by an expired deadline.
// Timed-out requests never reached a commit point and are safe to retry.
func IsTimeout(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Timeout
}
