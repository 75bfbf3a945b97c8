package leasedkeyq

import (
	"time"

	"github.com/google/uuid"
)

// LeaseToken is an opaque, globally-unique handle to an exclusive in-flight
// lease, rendered as a UUID. It is returned by Get/Take and consumed by
// Ack/Release. Equality is by value.
type LeaseToken string

// newLeaseToken produces a fresh, globally-unique token. Uniqueness for the
// lifetime of a Queue instance rests on UUIDv4's collision probability.
func newLeaseToken() LeaseToken {
	return LeaseToken(uuid.New().String())
}

// leaseRecord is the internal bookkeeping for an in-flight lease: the key
// and value handed to the consumer, the instant the lease was issued, its
// effective timeout (nil means no timeout), and whether it has been
// acknowledged. A record is created by Get/Take and destroyed on the
// transition back to AVAILABLE (Release, reaper expiry) or to ABSENT (Ack).
type leaseRecord[K comparable, V any] struct {
	token        LeaseToken
	key          K
	value        V
	createdAt    time.Time
	timeout      *time.Duration
	acknowledged bool
}

// expired reports whether the lease has outlived its effective timeout as
// of now. A record with no timeout never expires.
func (r *leaseRecord[K, V]) expired(now time.Time) bool {
	if r.timeout == nil {
		return false
	}
	return now.Sub(r.createdAt) >= *r.timeout
}
