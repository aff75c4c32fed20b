package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vltamanec/logpulse/internal/domain"
)

func entry(raw string) domain.Entry {
	return domain.Entry{Raw: raw, Message: raw, Level: domain.LogLevelInfo}
}

func raws(s *Store) []string {
	var out []string
	s.Each(func(_ int, e *domain.Entry) bool {
		out = append(out, e.Raw)
		return true
	})
	return out
}

func TestNew(t *testing.T) {
	t.Run("uses default capacity for zero", func(t *testing.T) {
		s := New(0)
		assert.Equal(t, DefaultCapacity, s.Cap())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("uses default capacity for negative", func(t *testing.T) {
		assert.Equal(t, DefaultCapacity, New(-1).Cap())
	})
}

func TestInsertAssignsIncreasingSequences(t *testing.T) {
	s := New(10)
	a := s.Insert(entry("a"))
	b := s.Insert(entry("b"))

	assert.Equal(t, FirstLiveSequence, a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b, s.Get(1).Sequence)
}

func TestCapacityEviction(t *testing.T) {
	const c = 5
	s := New(c)
	var seqs []uint64
	for i := 0; i < c; i++ {
		seqs = append(seqs, s.Insert(entry(fmt.Sprint(i))))
	}

	s.Insert(entry("overflow"))

	require.Equal(t, c, s.Len())
	assert.Equal(t, []string{"1", "2", "3", "4", "overflow"}, raws(s))
	for i := 0; i < c-1; i++ {
		assert.Equal(t, seqs[i+1], s.Get(i).Sequence, "survivor sequences are unchanged")
	}
	_, ok := s.Find(seqs[0])
	assert.False(t, ok)
}

func TestSequencesNeverReused(t *testing.T) {
	s := New(2)
	seen := map[uint64]bool{}
	for i := 0; i < 20; i++ {
		seq := s.Insert(entry("x"))
		assert.False(t, seen[seq])
		seen[seq] = true
	}
	s.Clear()
	assert.False(t, seen[s.Insert(entry("after clear"))])
}

func TestAppendContinuation(t *testing.T) {
	s := New(3)
	first := s.Insert(entry("first"))
	s.Insert(entry("second"))

	v := s.Version()
	require.True(t, s.AppendContinuation(first, "  at frame"))
	assert.Greater(t, s.Version(), v)
	assert.Equal(t, []string{"  at frame"}, s.Get(0).Continuations)

	s.Insert(entry("third"))
	s.Insert(entry("fourth"))
	assert.False(t, s.AppendContinuation(first, "late frame"), "evicted parent")
}

func TestPrepend(t *testing.T) {
	t.Run("places history before oldest entry", func(t *testing.T) {
		s := New(10)
		live := s.Insert(entry("live"))

		n := s.Prepend([]domain.Entry{entry("h1"), entry("h2")})
		require.Equal(t, 2, n)
		assert.Equal(t, []string{"h1", "h2", "live"}, raws(s))
		assert.Less(t, s.Get(0).Sequence, s.Get(1).Sequence)
		assert.Less(t, s.Get(1).Sequence, live)
	})

	t.Run("repeated prepends keep order", func(t *testing.T) {
		s := New(10)
		s.Insert(entry("live"))
		s.Prepend([]domain.Entry{entry("h3")})
		s.Prepend([]domain.Entry{entry("h1"), entry("h2")})

		assert.Equal(t, []string{"h1", "h2", "h3", "live"}, raws(s))
		for i := 1; i < s.Len(); i++ {
			assert.Less(t, s.Get(i-1).Sequence, s.Get(i).Sequence)
		}
		idx, ok := s.Find(s.Get(1).Sequence)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("fills only free room", func(t *testing.T) {
		s := New(3)
		s.Insert(entry("a"))
		s.Insert(entry("b"))

		n := s.Prepend([]domain.Entry{entry("h1"), entry("h2"), entry("h3")})
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"h3", "a", "b"}, raws(s))
		assert.Equal(t, 0, s.Free())
	})

	t.Run("nothing to prepend keeps version", func(t *testing.T) {
		s := New(3)
		v := s.Version()
		assert.Equal(t, 0, s.Prepend(nil))
		assert.Equal(t, v, s.Version())
	})

	t.Run("wraps around the ring", func(t *testing.T) {
		s := New(4)
		for _, r := range []string{"a", "b", "c", "d", "e"} {
			s.Insert(entry(r))
		}
		s.Clear()
		s.Insert(entry("x"))
		s.Prepend([]domain.Entry{entry("h1"), entry("h2")})
		s.Insert(entry("y"))
		assert.Equal(t, []string{"h1", "h2", "x", "y"}, raws(s))
	})
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	s := New(2)
	v0 := s.Version()
	seq := s.Insert(entry("a"))
	v1 := s.Version()
	s.AppendContinuation(seq, "c")
	v2 := s.Version()
	s.Prepend([]domain.Entry{entry("h")})
	v3 := s.Version()
	s.Clear()
	v4 := s.Version()

	assert.True(t, v0 < v1 && v1 < v2 && v2 < v3 && v3 < v4)
}

func TestErrors(t *testing.T) {
	s := New(2)
	s.Insert(domain.Entry{Raw: "e1", Level: domain.LogLevelError})
	s.Insert(domain.Entry{Raw: "i", Level: domain.LogLevelInfo})
	assert.Equal(t, 1, s.Errors())

	s.Insert(domain.Entry{Raw: "i2", Level: domain.LogLevelInfo})
	assert.Equal(t, 0, s.Errors(), "evicted error no longer counted")

	s.Clear()
	assert.Equal(t, 0, s.Errors())
}

func TestRange(t *testing.T) {
	s := New(5)
	for _, r := range []string{"a", "b", "c"} {
		s.Insert(entry(r))
	}

	got := s.Range(1, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Raw)
	assert.Nil(t, s.Range(2, 1))
	assert.Nil(t, s.Get(3))
}
