package leasedkeyq

import "errors"

// Sentinel errors returned by Queue operations. Callers should compare with
// errors.Is, since each is wrapped with call-specific context before it
// crosses the public API.
var (
	// ErrKeyInFlight is returned by Put when the key is in-flight and the
	// policy is PolicyReject.
	ErrKeyInFlight = errors.New("leasedkeyq: key is in flight")

	// ErrInvalidLease is returned by Ack/Release when the token is not
	// currently present in in_flight (unknown, or already resolved without
	// having been acknowledged).
	ErrInvalidLease = errors.New("leasedkeyq: invalid lease token")

	// ErrLeaseAlreadyAcknowledged is returned by Ack/Release when the token
	// was previously acknowledged by a prior Ack call.
	ErrLeaseAlreadyAcknowledged = errors.New("leasedkeyq: lease already acknowledged")

	// ErrTimeout is returned by Get/Take when the wait predicate does not
	// become true within the requested wait timeout.
	ErrTimeout = errors.New("leasedkeyq: timed out waiting")

	// ErrClosed is returned by any operation on a closed queue, including
	// one that closes while the caller is blocked in Get/Take.
	ErrClosed = errors.New("leasedkeyq: queue is closed")
)
