// Package activity counts arriving lines per second over a sliding window.
package activity

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultWindow is the number of one-second buckets kept
const DefaultWindow = 60

// Tracker is a ring of per-second counters keyed by arrival second.
// It is not safe for concurrent use.
type Tracker struct {
	clk     clock.Clock
	buckets []int
	head    int64 // unix second of the newest bucket
	started bool
}

// NewTracker creates a tracker with width buckets reading time from clk
func NewTracker(clk clock.Clock, width int) *Tracker {
	if width <= 0 {
		width = DefaultWindow
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{clk: clk, buckets: make([]int, width)}
}

// Width returns the number of buckets
func (t *Tracker) Width() int {
	return len(t.buckets)
}

// Record counts one line arriving at at
func (t *Tracker) Record(at time.Time) {
	t.RecordN(at, 1)
}

// RecordN counts n lines arriving at at. Arrivals older than the window
// are ignored.
func (t *Tracker) RecordN(at time.Time, n int) {
	sec := at.Unix()
	t.advance(sec)
	if sec <= t.head-int64(len(t.buckets)) {
		return
	}
	t.buckets[t.slot(sec)] += n
}

func (t *Tracker) slot(sec int64) int {
	w := int64(len(t.buckets))
	return int(((sec % w) + w) % w)
}

// advance rolls the window forward so sec is the newest second, zeroing the
// buckets that fall out.
func (t *Tracker) advance(sec int64) {
	if !t.started {
		t.head = sec
		t.started = true
		return
	}
	if sec <= t.head {
		return
	}
	w := int64(len(t.buckets))
	from := t.head + 1
	if sec-t.head > w {
		from = sec - w + 1
	}
	for s := from; s <= sec; s++ {
		t.buckets[t.slot(s)] = 0
	}
	t.head = sec
}

// Snapshot returns the counts of the last Width seconds ending now, oldest
// first. Seconds without arrivals are zero.
func (t *Tracker) Snapshot() []int {
	now := t.clk.Now().Unix()
	t.advance(now)
	w := int64(len(t.buckets))
	out := make([]int, w)
	for i := int64(0); i < w; i++ {
		sec := t.head - w + 1 + i
		out[i] = t.buckets[t.slot(sec)]
	}
	return out
}

// Rate returns the count of the last complete second
func (t *Tracker) Rate() int {
	now := t.clk.Now().Unix()
	t.advance(now)
	return t.buckets[t.slot(t.head-1)]
}

// Reset zeroes every bucket
func (t *Tracker) Reset() {
	for i := range t.buckets {
		t.buckets[i] = 0
	}
	t.started = false
}
