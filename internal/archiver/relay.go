package archiver

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

// ErrRelayClosed is returned by Put after the relay has been closed.
var ErrRelayClosed = errors.New("relay is closed")

// Relay carries loaded files from many producers to a single consumer. At
// most Cap() records are in flight, that is put but not yet taken. Put blocks
// while the relay is full, Take blocks while it is empty and not closed.
type Relay struct {
	slots chan struct{}
	items chan FileRecord

	closed    atomic.Bool
	closeOnce sync.Once

	aborted   chan struct{}
	abortOnce sync.Once
	cause     error

	inFlight atomic.Int64
	peak     atomic.Int64
	puts     atomic.Uint64
	takes    atomic.Uint64
}

// RelayStats describe the traffic through a relay.
type RelayStats struct {
	Put, Taken uint64
	// Peak is the highest number of records in flight at the same time.
	Peak int
}

// NewRelay returns a relay with the given capacity. Values below one are
// treated as one.
func NewRelay(capacity int) *Relay {
	if capacity < 1 {
		capacity = 1
	}

	return &Relay{
		slots:   make(chan struct{}, capacity),
		items:   make(chan FileRecord, capacity),
		aborted: make(chan struct{}),
	}
}

// Cap returns the capacity of the relay.
func (r *Relay) Cap() int {
	return cap(r.slots)
}

// Put hands rec to the consumer, waiting for a free slot. It returns an error
// without taking ownership of rec if ctx is cancelled or the consumer has
// aborted, in which case the error is the one the consumer aborted with.
func (r *Relay) Put(ctx context.Context, rec FileRecord) error {
	if r.closed.Load() {
		return errors.WithKind(ErrRelayClosed, errors.KindRelay)
	}

	// report an abort even if a slot happens to be free
	select {
	case <-r.aborted:
		return errors.WithKind(r.cause, errors.KindRelay)
	default:
	}

	select {
	case r.slots <- struct{}{}:
	case <-r.aborted:
		return errors.WithKind(r.cause, errors.KindRelay)
	case <-ctx.Done():
		return ctx.Err()
	}

	r.enter()
	// holding a slot guarantees room in items
	r.items <- rec
	return nil
}

// Take returns the next record. The second return value is false once the
// relay has been closed and drained.
func (r *Relay) Take(ctx context.Context) (FileRecord, bool, error) {
	select {
	case rec, ok := <-r.items:
		if !ok {
			return FileRecord{}, false, nil
		}
		r.leave()
		<-r.slots
		return rec, true, nil
	case <-ctx.Done():
		return FileRecord{}, false, ctx.Err()
	}
}

// Close signals that all producers have finished. Records already put can
// still be taken. Put must not be called concurrently with or after Close.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.items)
		debug.Log("relay closed after %d records", r.puts.Load())
	})
}

// Abort is called by the consumer when it stops taking records. Blocked and
// future calls to Put return cause.
func (r *Relay) Abort(cause error) {
	if cause == nil {
		cause = errors.New("relay aborted")
	}

	r.abortOnce.Do(func() {
		r.cause = cause
		close(r.aborted)
		debug.Log("relay aborted: %v", cause)
	})
}

// InFlight returns the number of records put but not yet taken.
func (r *Relay) InFlight() int {
	return int(r.inFlight.Load())
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() RelayStats {
	return RelayStats{
		Put:   r.puts.Load(),
		Taken: r.takes.Load(),
		Peak:  int(r.peak.Load()),
	}
}

func (r *Relay) enter() {
	r.puts.Add(1)
	n := r.inFlight.Add(1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (r *Relay) leave() {
	r.takes.Add(1)
	r.inFlight.Add(-1)
}
