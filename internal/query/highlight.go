package query

import (
	"regexp"
	"sort"
)

// MaxHighlights is the number of concurrent highlight patterns
const MaxHighlights = 4

// Highlight is one registered pattern and the palette slot it paints with
type Highlight struct {
	Pattern string
	Color   int
	re      *regexp.Regexp
}

// Span is a colored byte range [Start, End) of a line
type Span struct {
	Start, End int
	Color      int
}

// Highlights keeps up to MaxHighlights patterns in registration order
type Highlights struct {
	list []Highlight
}

// Add registers pattern. An empty pattern clears every highlight. When all
// slots are taken the oldest pattern is replaced and its color reused.
func (h *Highlights) Add(pattern string) error {
	if pattern == "" {
		h.list = nil
		return nil
	}
	re, err := Compile(pattern)
	if err != nil {
		return err
	}
	color := len(h.list)
	if len(h.list) == MaxHighlights {
		color = h.list[0].Color
		h.list = append(h.list[:0:0], h.list[1:]...)
	}
	h.list = append(h.list, Highlight{Pattern: pattern, Color: color, re: re})
	return nil
}

// Len returns the number of active highlights
func (h *Highlights) Len() int {
	return len(h.list)
}

// List returns the active highlights oldest first
func (h *Highlights) List() []Highlight {
	out := make([]Highlight, len(h.list))
	copy(out, h.list)
	return out
}

// Spans resolves non-overlapping colored ranges of text. Earlier patterns
// claim their matches first; a later match touching a claimed byte is
// dropped.
func (h *Highlights) Spans(text string) []Span {
	if len(h.list) == 0 || text == "" {
		return nil
	}
	var spans []Span
	for _, hl := range h.list {
		for _, loc := range hl.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] || overlaps(spans, loc[0], loc[1]) {
				continue
			}
			spans = append(spans, Span{Start: loc[0], End: loc[1], Color: hl.Color})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func overlaps(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && s.Start < end {
			return true
		}
	}
	return false
}
