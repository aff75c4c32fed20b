// Package multiline folds continuation lines (stack traces, wrapped
// payloads) into the entry that precedes them.
package multiline

import (
	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/format"
)

// Sink receives committed entries and continuation lines
type Sink interface {
	Insert(e domain.Entry) uint64
	AppendContinuation(seq uint64, line string) bool
}

// Grouper tracks the open entry of a single source. It is not safe for
// concurrent use; the engine goroutine owns it.
type Grouper struct {
	source string
	format format.ID
	sink   Sink

	open bool
	seq  uint64
}

// NewGrouper creates a grouper for one source writing into sink
func NewGrouper(source string, id format.ID, sink Sink) *Grouper {
	return &Grouper{source: source, format: id, sink: sink}
}

// Format returns the format lines are parsed with
func (g *Grouper) Format() format.ID {
	return g.format
}

// SetFormat changes the active format and closes any open entry
func (g *Grouper) SetFormat(id format.ID) {
	g.format = id
	g.Reset()
}

// Reset returns to AwaitingPrimary. The next line always opens an entry.
func (g *Grouper) Reset() {
	g.open = false
	g.seq = 0
}

// Accumulating reports whether an entry is open and its sequence
func (g *Grouper) Accumulating() (uint64, bool) {
	return g.seq, g.open
}

// Feed consumes one raw line. It returns true when the line started a new
// entry and false when it was folded into the open one.
func (g *Grouper) Feed(raw string) bool {
	if format.IsPrimary(g.format, raw) {
		g.start(Build(g.source, raw, format.Parse(g.format, raw)))
		return true
	}

	if g.open && g.isContinuation(raw) {
		if g.sink.AppendContinuation(g.seq, raw) {
			return false
		}
		// parent evicted; the orphan stands on its own
	}

	g.start(Build(g.source, raw, format.Parse(format.Plain, raw)))
	return true
}

func (g *Grouper) isContinuation(raw string) bool {
	if format.LooksLikeContinuation(raw) {
		return true
	}
	return g.format != format.Plain && !format.LooksLikeRecord(raw)
}

func (g *Grouper) start(e domain.Entry) {
	g.seq = g.sink.Insert(e)
	g.open = true
}

// Build assembles an entry from a parsed primary line
func Build(source, raw string, p format.Parsed) domain.Entry {
	return domain.Entry{
		SourceID:  source,
		Timestamp: p.Timestamp,
		TimeText:  p.TimeText,
		Level:     p.Level,
		Raw:       raw,
		Message:   p.Message,
		Fields:    p.Fields,
	}
}

// Collect groups lines into standalone entries without a store. Backfill
// uses it to parse history before prepending.
func Collect(source string, id format.ID, lines []string) []domain.Entry {
	c := &collector{}
	g := NewGrouper(source, id, c)
	for _, line := range lines {
		g.Feed(line)
	}
	return c.entries
}

type collector struct {
	entries []domain.Entry
}

func (c *collector) Insert(e domain.Entry) uint64 {
	c.entries = append(c.entries, e)
	return uint64(len(c.entries))
}

func (c *collector) AppendContinuation(seq uint64, line string) bool {
	if seq == 0 || int(seq) > len(c.entries) {
		return false
	}
	e := &c.entries[seq-1]
	e.Continuations = append(e.Continuations, line)
	return true
}
