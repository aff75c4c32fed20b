package query

import "regexp"

// Match locates one search hit. Line is -1 for the raw line, otherwise the
// continuation index. Start and End are byte offsets within that line.
type Match struct {
	Index int
	Line  int
	Start int
	End   int
}

type searchState struct {
	text    string
	re      *regexp.Regexp
	matches []Match
	current int

	version uint64
	gen     uint64
	valid   bool
}

// SetSearch replaces the search pattern and resets the cursor. An empty
// pattern clears the search. On a compile error the previous search stays.
func (q *State) SetSearch(pattern string) error {
	if pattern == "" {
		q.search = searchState{current: -1}
		return nil
	}
	re, err := Compile(pattern)
	if err != nil {
		return err
	}
	q.search = searchState{text: pattern, re: re, current: -1}
	return nil
}

// SearchText returns the active search pattern
func (q *State) SearchText() string {
	return q.search.text
}

// Matches returns every search hit over the visible set, in order
func (q *State) Matches(s Entries) []Match {
	st := &q.search
	if st.re == nil {
		return nil
	}
	visible := q.Visible(s)
	if st.valid && st.version == s.Version() && st.gen == q.gen {
		return st.matches
	}
	st.matches = st.matches[:0]
	for _, idx := range visible {
		e := s.Get(idx)
		for _, loc := range st.re.FindAllStringIndex(e.Raw, -1) {
			if loc[0] < loc[1] {
				st.matches = append(st.matches, Match{Index: idx, Line: -1, Start: loc[0], End: loc[1]})
			}
		}
		for ci, c := range e.Continuations {
			for _, loc := range st.re.FindAllStringIndex(c, -1) {
				if loc[0] < loc[1] {
					st.matches = append(st.matches, Match{Index: idx, Line: ci, Start: loc[0], End: loc[1]})
				}
			}
		}
	}
	if st.current >= len(st.matches) {
		st.current = len(st.matches) - 1
	}
	st.version, st.gen, st.valid = s.Version(), q.gen, true
	return st.matches
}

// Next advances to the following match, wrapping to the first
func (q *State) Next(s Entries) (Match, bool) {
	ms := q.Matches(s)
	if len(ms) == 0 {
		return Match{}, false
	}
	q.search.current = (q.search.current + 1) % len(ms)
	return ms[q.search.current], true
}

// Prev moves to the preceding match, wrapping to the last
func (q *State) Prev(s Entries) (Match, bool) {
	ms := q.Matches(s)
	if len(ms) == 0 {
		return Match{}, false
	}
	if q.search.current <= 0 {
		q.search.current = len(ms) - 1
	} else {
		q.search.current--
	}
	return ms[q.search.current], true
}

// Current returns the selected match, if any
func (q *State) Current(s Entries) (Match, bool) {
	ms := q.Matches(s)
	if q.search.current < 0 || q.search.current >= len(ms) {
		return Match{}, false
	}
	return ms[q.search.current], true
}

// SearchPosition returns the 1-based current match and the total. The
// position is 0 before the first Next or Prev.
func (q *State) SearchPosition(s Entries) (int, int) {
	ms := q.Matches(s)
	return q.search.current + 1, len(ms)
}

// SearchSpans returns the byte ranges of text matching the search pattern
func (q *State) SearchSpans(text string) [][2]int {
	if q.search.re == nil || text == "" {
		return nil
	}
	var out [][2]int
	for _, loc := range q.search.re.FindAllStringIndex(text, -1) {
		if loc[0] < loc[1] {
			out = append(out, [2]int{loc[0], loc[1]})
		}
	}
	return out
}
