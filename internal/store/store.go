// Package store holds the bounded, insertion-ordered set of log entries.
package store

import (
	"sort"

	"github.com/vltamanec/logpulse/internal/domain"
)

// DefaultCapacity is the number of entries kept when none is configured
const DefaultCapacity = 10000

// FirstLiveSequence is the sequence given to the first inserted entry.
// Backfilled history counts down from just below it.
const FirstLiveSequence uint64 = 1 << 32

// Store is a circular buffer of entries, oldest first. It is not safe for
// concurrent use: the engine goroutine is its only owner.
type Store struct {
	buf   []domain.Entry
	size  int
	start int
	count int

	nextLive uint64
	nextPast uint64
	version  uint64
	errors   int
}

// New creates a store holding at most capacity entries
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		buf:      make([]domain.Entry, capacity),
		size:     capacity,
		nextLive: FirstLiveSequence,
		nextPast: FirstLiveSequence - 1,
	}
}

// Insert appends e at the tail, assigns its sequence and evicts the oldest
// entry when the store is full.
func (s *Store) Insert(e domain.Entry) uint64 {
	e.Sequence = s.nextLive
	s.nextLive++

	if s.count == s.size {
		s.drop(s.start)
		s.start = (s.start + 1) % s.size
		s.count--
	}
	s.buf[(s.start+s.count)%s.size] = e
	s.count++
	if e.IsError() {
		s.errors++
	}
	s.version++
	return e.Sequence
}

func (s *Store) drop(slot int) {
	if s.buf[slot].IsError() {
		s.errors--
	}
	s.buf[slot] = domain.Entry{}
}

// AppendContinuation adds a continuation line to the entry with sequence
// seq. It returns false when that entry is no longer stored.
func (s *Store) AppendContinuation(seq uint64, line string) bool {
	i, ok := s.Find(seq)
	if !ok {
		return false
	}
	e := s.at(i)
	e.Continuations = append(e.Continuations, line)
	s.version++
	return true
}

// Prepend places history before the oldest entry. entries are oldest first.
// Only free room is filled; when there is less room than history, the
// entries nearest the existing oldest one are kept. It returns how many
// entries were inserted.
func (s *Store) Prepend(entries []domain.Entry) int {
	free := s.size - s.count
	if free > len(entries) {
		free = len(entries)
	}
	n := 0
	for i := len(entries) - 1; i >= len(entries)-free; i-- {
		if s.nextPast == 0 {
			break
		}
		e := entries[i]
		e.Sequence = s.nextPast
		s.nextPast--

		s.start = (s.start - 1 + s.size) % s.size
		s.buf[s.start] = e
		s.count++
		if e.IsError() {
			s.errors++
		}
		n++
	}
	if n > 0 {
		s.version++
	}
	return n
}

// Free returns how many entries fit before eviction starts
func (s *Store) Free() int {
	return s.size - s.count
}

// Cap returns the capacity
func (s *Store) Cap() int {
	return s.size
}

// Len returns the number of stored entries
func (s *Store) Len() int {
	return s.count
}

// Errors returns the number of stored entries at Error level
func (s *Store) Errors() int {
	return s.errors
}

// Version changes on every mutation
func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) at(i int) *domain.Entry {
	return &s.buf[(s.start+i)%s.size]
}

// Get returns the entry at index i, counted from the oldest. The pointer is
// only valid until the next mutation.
func (s *Store) Get(i int) *domain.Entry {
	if i < 0 || i >= s.count {
		return nil
	}
	return s.at(i)
}

// Find returns the index of the entry with sequence seq
func (s *Store) Find(seq uint64) (int, bool) {
	if s.count == 0 {
		return 0, false
	}
	// continuations nearly always target the newest entry
	if last := s.count - 1; s.at(last).Sequence == seq {
		return last, true
	}
	i := sort.Search(s.count, func(i int) bool { return s.at(i).Sequence >= seq })
	if i < s.count && s.at(i).Sequence == seq {
		return i, true
	}
	return 0, false
}

// Range returns a copy of entries [from, to)
func (s *Store) Range(from, to int) []domain.Entry {
	if from < 0 {
		from = 0
	}
	if to > s.count {
		to = s.count
	}
	if from >= to {
		return nil
	}
	out := make([]domain.Entry, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, *s.at(i))
	}
	return out
}

// Each calls fn for every entry oldest first until fn returns false
func (s *Store) Each(fn func(i int, e *domain.Entry) bool) {
	for i := 0; i < s.count; i++ {
		if !fn(i, s.at(i)) {
			return
		}
	}
}

// Clear removes all entries. Sequences keep counting.
func (s *Store) Clear() {
	for i := range s.buf {
		s.buf[i] = domain.Entry{}
	}
	s.start = 0
	s.count = 0
	s.errors = 0
	s.version++
}
