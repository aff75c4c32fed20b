package engine

import (
	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/query"
)

// Row is one visible entry prepared for rendering. Highlights and
// SearchSpans cover Entry.Raw; ContinuationSpans holds one element per
// continuation line and is nil when none of them has a span.
type Row struct {
	Entry             domain.Entry
	Continuations     int
	Highlights        []query.Span
	SearchSpans       [][2]int
	ContinuationSpans []LineSpans
	Selected          bool
	CurrentMatch      bool
}

// LineSpans are the styled ranges of one continuation line
type LineSpans struct {
	Highlights  []query.Span
	SearchSpans [][2]int
}

// ContinuationMatch reports whether a search hit sits in a continuation
func (r *Row) ContinuationMatch() bool {
	for _, s := range r.ContinuationSpans {
		if len(s.SearchSpans) > 0 {
			return true
		}
	}
	return false
}

// SourceView reports one source and the format it is parsed with
type SourceView struct {
	ID       string
	Kind     domain.SourceKind
	Format   string
	Detected bool
	Ended    bool
	Lines    uint64
}

// Counts are the pipeline totals
type Counts struct {
	Total    uint64 // entries committed since start
	Errors   uint64 // Error entries committed since start
	Stored   int
	Capacity int
	Pending  int
	Dropped  uint64
}

// Snapshot is everything the presenter needs for one frame
type Snapshot struct {
	Rows     []Row
	From     int
	Visible  int
	Selected int

	Activity []int
	Rate     int

	Filter      string
	ErrorsOnly  bool
	Search      string
	SearchPos   int
	SearchTotal int
	Paused      bool
	Following   bool
	Highlights  []query.Highlight

	Status  string
	Sources []SourceView
	Counts  Counts
}

// Snapshot renders rows [from, from+count) of the visible set. A negative
// count returns every row from from.
func (e *Engine) Snapshot(from, count int) Snapshot {
	visible := e.query.Visible(e.store)
	selected := e.Selected()
	current, hasCurrent := e.query.Current(e.store)
	pos, total := e.query.SearchPosition(e.store)

	if from < 0 {
		from = 0
	}
	if from > len(visible) {
		from = len(visible)
	}
	to := len(visible)
	if count >= 0 && from+count < to {
		to = from + count
	}

	rows := make([]Row, 0, to-from)
	for row := from; row < to; row++ {
		idx := visible[row]
		entry := e.store.Get(idx)
		rows = append(rows, Row{
			Entry:             *entry,
			Continuations:     len(entry.Continuations),
			Highlights:        e.query.Highlights.Spans(entry.Raw),
			SearchSpans:       e.query.SearchSpans(entry.Raw),
			ContinuationSpans: e.continuationSpans(entry),
			Selected:          row == selected,
			CurrentMatch:      hasCurrent && current.Index == idx,
		})
	}

	sources := make([]SourceView, 0, len(e.order))
	for _, id := range e.order {
		st := e.sources[id]
		sources = append(sources, SourceView{
			ID:       st.id,
			Kind:     st.kind,
			Format:   st.format.Name(),
			Detected: st.detected,
			Ended:    st.ended,
			Lines:    st.lines,
		})
	}

	return Snapshot{
		Rows:        rows,
		From:        from,
		Visible:     len(visible),
		Selected:    selected,
		Activity:    e.activity.Snapshot(),
		Rate:        e.activity.Rate(),
		Filter:      e.query.FilterText(),
		ErrorsOnly:  e.query.ErrorsOnly(),
		Search:      e.query.SearchText(),
		SearchPos:   pos,
		SearchTotal: total,
		Paused:      e.paused,
		Following:   e.follow,
		Highlights:  e.query.Highlights.List(),
		Status:      e.Status(),
		Sources:     sources,
		Counts: Counts{
			Total:    e.total,
			Errors:   e.errorsTotal,
			Stored:   e.store.Len(),
			Capacity: e.store.Cap(),
			Pending:  e.pending.len(),
			Dropped:  e.dropped,
		},
	}
}

func (e *Engine) continuationSpans(entry *domain.Entry) []LineSpans {
	var out []LineSpans
	for i, line := range entry.Continuations {
		hl := e.query.Highlights.Spans(line)
		search := e.query.SearchSpans(line)
		if len(hl) == 0 && len(search) == 0 {
			continue
		}
		if out == nil {
			out = make([]LineSpans, len(entry.Continuations))
		}
		out[i] = LineSpans{Highlights: hl, SearchSpans: search}
	}
	return out
}

// Entry returns a copy of the visible entry at row
func (e *Engine) Entry(row int) (domain.Entry, bool) {
	visible := e.query.Visible(e.store)
	if row < 0 || row >= len(visible) {
		return domain.Entry{}, false
	}
	return *e.store.Get(visible[row]), true
}
