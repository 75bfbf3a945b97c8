// Package leasedkeyq implements a keyed leased queue: a data structure
// that behaves simultaneously as a FIFO queue, a keyed map, and a
// lease-based work-distribution primitive.
//
// Producers insert or update items by key with Put. Consumers either pull
// the oldest available item with Get or block until a named key becomes
// available with Take. Every pull returns an exclusive LeaseToken; the item
// stays invisible to other consumers until the lease is resolved with Ack
// (permanent removal) or Release (re-enqueue). A background reaper
// auto-releases leases that exceed their timeout.
//
// A Queue is safe for concurrent use by multiple goroutines: every mutating
// operation holds a single mutex for its entire critical section and
// broadcasts a change notification before releasing it. Waiters loop and
// re-check their predicate on every wake, so spurious wakes are harmless.
package leasedkeyq

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// NoTimeout, passed as waitTimeout, means block indefinitely for the
// predicate to become true. Passed as leaseTimeout, it means "defer to the
// queue's configured default lease timeout" (which may itself be unset,
// i.e. no timeout at all). A waitTimeout of exactly 0 means "don't block —
// fail immediately with ErrTimeout unless the predicate already holds."
const NoTimeout time.Duration = -1

// Queue is a single-process, in-memory keyed leased queue parameterized by
// a comparable key type K and an arbitrary value type V. The zero value is
// not usable; construct one with New.
type Queue[K comparable, V any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	available    map[K]*node[K, V]
	list         *orderedList[K, V]
	inFlight     map[LeaseToken]*leaseRecord[K, V]
	leasesByKey  map[K]LeaseToken
	acknowledged map[LeaseToken]struct{}

	closed bool

	options options

	reaperCancel context.CancelFunc
	reaperDone   chan struct{}
}

// New constructs a Queue. The queue accepts Put/Get/Take calls immediately;
// call Start to arm the background reaper (only meaningful if a default
// lease timeout was configured; Get/Take also arm it lazily whenever they
// issue a bounded lease).
func New[K comparable, V any](opts ...Option) *Queue[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	q := &Queue[K, V]{
		available:    make(map[K]*node[K, V]),
		list:         newOrderedList[K, V](),
		inFlight:     make(map[LeaseToken]*leaseRecord[K, V]),
		leasesByKey:  make(map[K]LeaseToken),
		acknowledged: make(map[LeaseToken]struct{}),
		options:      o,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Run constructs a Queue, starts it, invokes fn, and guarantees Close runs
// on every exit path (including a panic propagating out of fn), mirroring
// the scoped start/close acquisition pattern of the reference design.
func Run[K comparable, V any](fn func(*Queue[K, V]) error, opts ...Option) error {
	q := New[K, V](opts...)
	q.Start()
	defer q.Close()
	return fn(q)
}

// Start idempotently arms the background reaper if a default lease timeout
// was configured. It is a no-op on a closed queue.
func (q *Queue[K, V]) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if q.options.defaultLeaseTimeout != nil {
		q.startReaperLocked()
	}
}

// Close is terminal: it marks the queue closed, moves every unacknowledged
// in-flight lease back to available (at the front of the list, to preserve
// priority over anything already waiting), stops the reaper, and wakes all
// waiters so they observe ErrClosed. Close is idempotent.
func (q *Queue[K, V]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true

	reclaimed := 0
	for token, rec := range q.inFlight {
		if rec.acknowledged {
			continue
		}
		if err := q.releaseLocked(token, true); err == nil {
			reclaimed++
		}
	}
	q.options.logger.Debug("queue closing", "reclaimed_leases", reclaimed)

	q.cond.Broadcast()
	cancel := q.reaperCancel
	done := q.reaperDone
	q.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Put inserts or updates key's value according to policy when the key is
// currently in-flight. See PolicyUpdate, PolicyReject, and PolicyBuffer.
func (q *Queue[K, V]) Put(key K, value V, policy InFlightPolicy) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("put(%v): %w", key, ErrClosed)
	}

	if token, inFlight := q.leasesByKey[key]; inFlight {
		switch policy {
		case PolicyReject:
			return fmt.Errorf("put(%v): %w", key, ErrKeyInFlight)
		case PolicyBuffer:
			q.appendAvailableLocked(key, value)
		default: // PolicyUpdate
			q.inFlight[token].value = value
		}
		q.cond.Broadcast()
		return nil
	}

	if n, ok := q.available[key]; ok {
		n.value = value
		q.cond.Broadcast()
		return nil
	}

	q.appendAvailableLocked(key, value)
	q.cond.Broadcast()
	return nil
}

func (q *Queue[K, V]) appendAvailableLocked(key K, value V) {
	n := &node[K, V]{key: key, value: value}
	q.list.append(n)
	q.available[key] = n
}

// Get blocks until the list is non-empty, then pops and leases its oldest
// entry (FIFO). waitTimeout and leaseTimeout accept NoTimeout; see its doc.
func (q *Queue[K, V]) Get(waitTimeout, leaseTimeout time.Duration) (K, V, LeaseToken, error) {
	var zeroK K
	var zeroV V

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return zeroK, zeroV, "", fmt.Errorf("get: %w", ErrClosed)
	}

	if err := q.waitLocked(waitTimeout, func() bool { return !q.list.isEmpty() }); err != nil {
		return zeroK, zeroV, "", fmt.Errorf("get: %w", err)
	}

	n := q.list.popFront()
	delete(q.available, n.key)

	rec := q.issueLeaseLocked(n.key, n.value, leaseTimeout)
	if rec.timeout != nil {
		q.startReaperLocked()
	}

	return n.key, n.value, rec.token, nil
}

// Take blocks until key is available (present and not in-flight), then
// unlinks and leases it, regardless of its FIFO position.
func (q *Queue[K, V]) Take(key K, waitTimeout, leaseTimeout time.Duration) (K, V, LeaseToken, error) {
	var zeroV V

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return key, zeroV, "", fmt.Errorf("take(%v): %w", key, ErrClosed)
	}

	if err := q.waitLocked(waitTimeout, func() bool {
		_, ok := q.available[key]
		return ok
	}); err != nil {
		return key, zeroV, "", fmt.Errorf("take(%v): %w", key, err)
	}

	n := q.available[key]
	q.list.unlink(n)
	delete(q.available, key)

	rec := q.issueLeaseLocked(n.key, n.value, leaseTimeout)
	if rec.timeout != nil {
		q.startReaperLocked()
	}

	return n.key, n.value, rec.token, nil
}

func (q *Queue[K, V]) issueLeaseLocked(key K, value V, leaseTimeout time.Duration) *leaseRecord[K, V] {
	rec := &leaseRecord[K, V]{
		token:     newLeaseToken(),
		key:       key,
		value:     value,
		createdAt: time.Now(),
		timeout:   q.effectiveTimeoutLocked(leaseTimeout),
	}
	q.inFlight[rec.token] = rec
	q.leasesByKey[key] = rec.token
	return rec
}

func (q *Queue[K, V]) effectiveTimeoutLocked(leaseTimeout time.Duration) *time.Duration {
	if leaseTimeout == NoTimeout {
		return q.options.defaultLeaseTimeout
	}
	t := leaseTimeout
	return &t
}

// Ack permanently removes the leased item. It fails with ErrInvalidLease if
// token is unknown, or ErrLeaseAlreadyAcknowledged if it was already
// resolved by a prior Ack. A token whose lease was already returned to
// available by Release or by the reaper fails with ErrInvalidLease.
func (q *Queue[K, V]) Ack(token LeaseToken) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("ack(%v): %w", token, ErrClosed)
	}

	if _, done := q.acknowledged[token]; done {
		return fmt.Errorf("ack(%v): %w", token, ErrLeaseAlreadyAcknowledged)
	}

	rec, ok := q.inFlight[token]
	if !ok {
		return fmt.Errorf("ack(%v): %w", token, ErrInvalidLease)
	}
	if rec.acknowledged {
		return fmt.Errorf("ack(%v): %w", token, ErrLeaseAlreadyAcknowledged)
	}

	rec.acknowledged = true
	q.acknowledged[token] = struct{}{}
	delete(q.inFlight, token)
	delete(q.leasesByKey, rec.key)

	q.cond.Broadcast()
	return nil
}

// Release resolves the leased item back to available, appended to the back
// of the list by default or to the front if requeueFront is set. Error
// semantics match Ack.
func (q *Queue[K, V]) Release(token LeaseToken, requeueFront bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("release(%v): %w", token, ErrClosed)
	}

	if err := q.releaseLocked(token, requeueFront); err != nil {
		return fmt.Errorf("release(%v): %w", token, err)
	}
	q.cond.Broadcast()
	return nil
}

// releaseLocked performs the release transition without broadcasting, so
// batch callers (the reaper, Close) can broadcast once after resolving
// several leases. Must be called with q.mu held.
func (q *Queue[K, V]) releaseLocked(token LeaseToken, requeueFront bool) error {
	if _, done := q.acknowledged[token]; done {
		return ErrLeaseAlreadyAcknowledged
	}

	rec, ok := q.inFlight[token]
	if !ok {
		return ErrInvalidLease
	}
	if rec.acknowledged {
		return ErrLeaseAlreadyAcknowledged
	}

	delete(q.inFlight, token)
	delete(q.leasesByKey, rec.key)

	// A PolicyBuffer duplicate may already occupy `available` for this
	// key; don't create a second copy, and drop the in-flight value in
	// favor of the buffered one.
	if _, exists := q.available[rec.key]; exists {
		return nil
	}

	n := &node[K, V]{key: rec.key, value: rec.value}
	if requeueFront {
		q.list.prepend(n)
	} else {
		q.list.append(n)
	}
	q.available[rec.key] = n
	return nil
}

// waitLocked blocks on q.cond until predicate is true, the queue closes, or
// waitTimeout elapses, re-checking the predicate on every wake. Must be
// called with q.mu held; returns with q.mu held in all cases.
func (q *Queue[K, V]) waitLocked(waitTimeout time.Duration, predicate func() bool) error {
	if predicate() {
		return nil
	}
	if q.closed {
		return ErrClosed
	}
	if waitTimeout == 0 {
		return ErrTimeout
	}

	hasDeadline := waitTimeout > 0
	if hasDeadline {
		timer := time.AfterFunc(waitTimeout, func() {
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()
	}

	deadline := time.Now().Add(waitTimeout)
	for {
		q.cond.Wait()
		if q.closed {
			return ErrClosed
		}
		if predicate() {
			return nil
		}
		if hasDeadline && !time.Now().Before(deadline) {
			return ErrTimeout
		}
	}
}

func (q *Queue[K, V]) startReaperLocked() {
	if q.reaperCancel != nil || q.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.reaperCancel = cancel
	q.reaperDone = make(chan struct{})
	go q.reaperLoop(ctx)
}

// Peek returns the value stored under key if it is currently available
// (not in-flight), without leasing it.
func (q *Queue[K, V]) Peek(key K) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, ok := q.available[key]
	if !ok {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Contains reports whether key is currently available.
func (q *Queue[K, V]) Contains(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.available[key]
	return ok
}

// AvailableKeys returns every key currently available (not in-flight).
func (q *Queue[K, V]) AvailableKeys() []K {
	q.mu.Lock()
	defer q.mu.Unlock()

	keys := make([]K, 0, len(q.available))
	for k := range q.available {
		keys = append(keys, k)
	}
	return keys
}

// InflightKeys returns every key currently in-flight.
func (q *Queue[K, V]) InflightKeys() []K {
	q.mu.Lock()
	defer q.mu.Unlock()

	keys := make([]K, 0, len(q.leasesByKey))
	for k := range q.leasesByKey {
		keys = append(keys, k)
	}
	return keys
}

// QSize returns the number of items currently available (not in-flight).
func (q *Queue[K, V]) QSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.list.len()
}

// InflightSize returns the number of leases currently outstanding.
func (q *Queue[K, V]) InflightSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.inFlight)
}
