// Package query computes what the presenter shows: the visible subset of
// the store, search matches, highlight spans and time jumps.
package query

import (
	"regexp"
	"strings"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Entries is the read side of the entry store
type Entries interface {
	Len() int
	Get(i int) *domain.Entry
	Version() uint64
}

// State holds the active predicates and caches derived from them. It is
// owned by the engine goroutine.
type State struct {
	filterText string
	filter     *regexp.Regexp
	errorsOnly bool
	minLevel   domain.LogLevel
	gen        uint64

	visible    []int
	visVersion uint64
	visGen     uint64
	visValid   bool

	search searchState

	Highlights Highlights
}

// New creates an empty query state; every entry is visible
func New() *State {
	return &State{search: searchState{current: -1}}
}

// SetFilter replaces the filter pattern. An empty pattern removes the
// filter. On a compile error the previous filter stays active.
func (q *State) SetFilter(pattern string) error {
	if pattern == "" {
		q.filterText, q.filter = "", nil
		q.gen++
		return nil
	}
	re, err := Compile(pattern)
	if err != nil {
		return err
	}
	q.filterText, q.filter = pattern, re
	q.gen++
	return nil
}

// FilterText returns the active filter pattern
func (q *State) FilterText() string {
	return q.filterText
}

// SetErrorsOnly toggles the Error-level-only view
func (q *State) SetErrorsOnly(on bool) {
	if q.errorsOnly != on {
		q.errorsOnly = on
		q.gen++
	}
}

// ErrorsOnly reports whether only Error entries are visible
func (q *State) ErrorsOnly() bool {
	return q.errorsOnly
}

// SetMinLevel hides entries below level. The empty level disables it.
func (q *State) SetMinLevel(level domain.LogLevel) {
	if q.minLevel != level {
		q.minLevel = level
		q.gen++
	}
}

func (q *State) chain() *Chain {
	c := NewChain()
	if q.filter != nil {
		c.filters = append(c.filters, NewRegexFilter(q.filter))
	}
	if q.errorsOnly {
		c.filters = append(c.filters, NewLevelFilter(domain.LogLevelError))
	} else if q.minLevel != "" {
		c.filters = append(c.filters, NewLevelFilter(q.minLevel))
	}
	return c
}

// Match reports whether e passes every active predicate
func (q *State) Match(e *domain.Entry) bool {
	return q.chain().Match(e)
}

// Visible returns the store indices of entries passing the predicates, in
// store order. The result is cached until the store or a predicate changes
// and must not be modified.
func (q *State) Visible(s Entries) []int {
	if q.visValid && q.visVersion == s.Version() && q.visGen == q.gen {
		return q.visible
	}
	c := q.chain()
	out := make([]int, 0, len(q.visible))
	for i := 0; i < s.Len(); i++ {
		if c.Len() == 0 || c.Match(s.Get(i)) {
			out = append(out, i)
		}
	}
	q.visible = out
	q.visVersion, q.visGen, q.visValid = s.Version(), q.gen, true
	return out
}

// Invalidate drops cached results
func (q *State) Invalidate() {
	q.visValid = false
	q.search.valid = false
}

// JumpToTime returns the position in the visible set of the first entry
// whose timestamp text or raw line contains fragment.
func (q *State) JumpToTime(s Entries, fragment string) (int, bool) {
	if fragment == "" {
		return 0, false
	}
	for row, idx := range q.Visible(s) {
		e := s.Get(idx)
		if strings.Contains(e.TimeText, fragment) || strings.Contains(e.Raw, fragment) {
			return row, true
		}
	}
	return 0, false
}
