package weavefeed

import (
	"github.com/permaloom/weavefeed/internal/domain"
)

// Sentinel errors returned by client operations. Match with errors.Is.
var (
	// ErrInvalidArgument reports a malformed query: bad tag filter, page
	// size out of range, unknown sort order.
	ErrInvalidArgument = domain.ErrInvalidArgument

	// ErrGateway reports a failed exchange with the gateway: connection
	// errors, timeouts, non-2xx responses.
	ErrGateway = domain.ErrGateway

	// ErrNotFound reports a transaction id unknown to the gateway.
	ErrNotFound = domain.ErrNotFound

	// ErrDecode reports a payload that could not be decoded as text.
	ErrDecode = domain.ErrDecode

	// ErrInvariant reports an internal pipeline inconsistency. Seeing it
	// means a bug in this library, not in the caller.
	ErrInvariant = domain.ErrInvariant
)

// IsTimeout reports whether err was caused by a gateway request that ran
// out of time, as opposed to one that was refused or answered with an
// error status.
func IsTimeout(err error) bool {
	return domain.IsTimeout(err)
}
