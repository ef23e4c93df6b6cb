package pipeline

import (
	"math"
	"sync/atomic"
)

// SequenceGuard drops transport events that arrive out of order relative to
// the last accepted event. It keeps a single high-water mark: the largest
// event ID accepted so far. This is advisory deduplication against transport
// redelivery, not exactly-once processing — the mark does not survive a
// restart and is never rolled back, so a message that later fails in the
// pipeline is not retried.
//
// The mark is advanced with a compare-and-swap loop so that concurrent
// delivery cannot accept the same event twice.
type SequenceGuard struct {
	mark atomic.Int64
}

// NewSequenceGuard returns a guard with no events accepted yet.
func NewSequenceGuard() *SequenceGuard {
	g := &SequenceGuard{}
	g.mark.Store(math.MinInt64)
	return g
}

// Accept reports whether eventID is strictly newer than every previously
// accepted event, advancing the high-water mark when it is. Stale or
// duplicate IDs leave the guard unchanged.
func (g *SequenceGuard) Accept(eventID int64) bool {
	for {
		cur := g.mark.Load()
		if eventID <= cur {
			return false
		}
		if g.mark.CompareAndSwap(cur, eventID) {
			return true
		}
	}
}
