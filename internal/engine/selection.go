package engine

import (
	"fmt"
	"sort"
)

// Selection is tracked by sequence so it survives eviction and prepends.
// While following, the selection stays on the newest visible entry.

// Selected returns the selected row of the visible set, or -1 when nothing
// is visible.
func (e *Engine) Selected() int {
	visible := e.query.Visible(e.store)
	if len(visible) == 0 {
		return -1
	}
	if e.follow || e.selectedSeq == 0 {
		return len(visible) - 1
	}
	idx, ok := e.store.Find(e.selectedSeq)
	if !ok {
		// selected entry was evicted; the oldest remaining row takes over
		if e.store.Len() > 0 && e.selectedSeq < e.store.Get(0).Sequence {
			return 0
		}
		return len(visible) - 1
	}
	row := sort.SearchInts(visible, idx)
	if row >= len(visible) {
		row = len(visible) - 1
	}
	return row
}

// Following reports whether the selection tracks the newest entry
func (e *Engine) Following() bool {
	return e.follow
}

// Select moves the selection to row of the visible set
func (e *Engine) Select(row int) {
	visible := e.query.Visible(e.store)
	if len(visible) == 0 {
		return
	}
	if row < 0 {
		row = 0
	}
	if row >= len(visible)-1 {
		e.Bottom()
		return
	}
	e.selectedSeq = e.store.Get(visible[row]).Sequence
	e.follow = false
}

// Move shifts the selection by delta rows
func (e *Engine) Move(delta int) {
	row := e.Selected()
	if row < 0 {
		return
	}
	e.Select(row + delta)
}

// Top selects the oldest visible entry
func (e *Engine) Top() {
	visible := e.query.Visible(e.store)
	if len(visible) == 0 {
		return
	}
	e.selectedSeq = e.store.Get(visible[0]).Sequence
	e.follow = false
}

// Bottom selects the newest visible entry and resumes following
func (e *Engine) Bottom() {
	e.follow = true
	e.selectedSeq = 0
}

func (e *Engine) selectIndex(idx int) {
	if entry := e.store.Get(idx); entry != nil {
		e.selectedSeq = entry.Sequence
		e.follow = false
	}
}

// SetFilter applies a filter pattern. An invalid pattern keeps the previous
// filter and raises a status.
func (e *Engine) SetFilter(pattern string) error {
	if err := e.query.SetFilter(pattern); err != nil {
		e.notify(fmt.Sprintf("Invalid regex: %v", err))
		return err
	}
	return nil
}

// ToggleErrorsOnly flips the Error-only view and returns the new state
func (e *Engine) ToggleErrorsOnly() bool {
	on := !e.query.ErrorsOnly()
	e.query.SetErrorsOnly(on)
	return on
}

// SetSearch installs a search pattern and moves to its first match
func (e *Engine) SetSearch(pattern string) error {
	if err := e.query.SetSearch(pattern); err != nil {
		e.notify(fmt.Sprintf("Invalid regex: %v", err))
		return err
	}
	if pattern != "" {
		e.SearchNext()
	}
	return nil
}

// SearchNext selects the next search match
func (e *Engine) SearchNext() bool {
	m, ok := e.query.Next(e.store)
	return e.landOn(m.Index, ok)
}

// SearchPrev selects the previous search match
func (e *Engine) SearchPrev() bool {
	m, ok := e.query.Prev(e.store)
	return e.landOn(m.Index, ok)
}

func (e *Engine) landOn(idx int, ok bool) bool {
	if !ok {
		if e.query.SearchText() != "" {
			e.notify(fmt.Sprintf("No matches for %q", e.query.SearchText()))
		}
		return false
	}
	e.selectIndex(idx)
	return true
}

// AddHighlight registers a highlight pattern; "" clears them all
func (e *Engine) AddHighlight(pattern string) error {
	if err := e.query.Highlights.Add(pattern); err != nil {
		e.notify(fmt.Sprintf("Invalid regex: %v", err))
		return err
	}
	if pattern == "" {
		e.notify("Highlights cleared")
	} else {
		e.notify(fmt.Sprintf("Highlight added (%d active)", e.query.Highlights.Len()))
	}
	return nil
}

// JumpToTime selects the first visible entry whose timestamp text or raw
// line contains fragment, and pauses so the view stays put. On a miss the
// selection is unchanged.
func (e *Engine) JumpToTime(fragment string) bool {
	row, ok := e.query.JumpToTime(e.store, fragment)
	if !ok {
		e.notify(fmt.Sprintf("No entry at %s", fragment))
		return false
	}
	e.selectIndex(e.query.Visible(e.store)[row])
	e.paused = true
	e.notify(fmt.Sprintf("Jumped to %s", fragment))
	return true
}

// VisibleCount returns the number of entries passing the current query
func (e *Engine) VisibleCount() int {
	return len(e.query.Visible(e.store))
}
