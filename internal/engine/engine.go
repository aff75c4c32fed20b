// Package engine is the single-goroutine pipeline that turns raw source
// lines into grouped, queryable entries.
//
// Everything here runs on the caller's goroutine: the presenter calls Tick
// on a timer and reads a Snapshot afterwards. Only the inbox (the source
// mux) is shared with producers.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vltamanec/logpulse/internal/activity"
	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/format"
	"github.com/vltamanec/logpulse/internal/multiline"
	"github.com/vltamanec/logpulse/internal/query"
	"github.com/vltamanec/logpulse/internal/source"
	"github.com/vltamanec/logpulse/internal/store"
)

// Defaults used when a Config field is zero
const (
	DefaultBatchSize    = 5000
	DefaultPendingLimit = 1_000_000
	DefaultHistoryChunk = 500
	DefaultStatusTTL    = 3 * time.Second
)

// ErrNoSources is returned when a pipeline has nothing to read from
var ErrNoSources = errors.New("no log sources")

// Config tunes the pipeline
type Config struct {
	Capacity     int
	BatchSize    int
	PendingLimit int
	HistoryChunk int
	SampleSize   int
	Window       int
	StatusTTL    time.Duration

	// Format, when Forced, applies to every source and skips detection
	Format format.ID
	Forced bool
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = store.DefaultCapacity
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.PendingLimit <= 0 {
		c.PendingLimit = DefaultPendingLimit
	}
	if c.HistoryChunk <= 0 {
		c.HistoryChunk = DefaultHistoryChunk
	}
	if c.SampleSize <= 0 {
		c.SampleSize = format.SampleSize
	}
	if c.Window <= 0 {
		c.Window = activity.DefaultWindow
	}
	if c.StatusTTL <= 0 {
		c.StatusTTL = DefaultStatusTTL
	}
	return c
}

// Inbox yields lines produced by sources without blocking
type Inbox interface {
	Drain(max int) []domain.Line
}

// SourceInfo describes a source at registration time
type SourceInfo struct {
	ID         string
	Kind       domain.SourceKind
	Backfiller source.Backfiller
}

type sourceState struct {
	id       string
	kind     domain.SourceKind
	format   format.ID
	detected bool
	sample   []string
	grouper  *multiline.Grouper
	ended    bool
	lines    uint64

	backfill     source.Backfiller
	cursor       int64
	cursorSet    bool
	historyEnded bool
}

// Engine owns the store, the query state and everything derived from them
type Engine struct {
	cfg   Config
	clk   clock.Clock
	log   *zap.Logger
	inbox Inbox

	pending pendingQueue
	dropped uint64
	paused  bool

	store    *store.Store
	query    *query.State
	activity *activity.Tracker

	sources map[string]*sourceState
	order   []string

	status status

	total       uint64
	errorsTotal uint64

	selectedSeq uint64
	follow      bool
}

// New creates an engine reading from inbox
func New(cfg Config, inbox Inbox, clk clock.Clock, log *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		clk:      clk,
		log:      log,
		inbox:    inbox,
		store:    store.New(cfg.Capacity),
		query:    query.New(),
		activity: activity.NewTracker(clk, cfg.Window),
		sources:  make(map[string]*sourceState),
		follow:   true,
	}
}

// Register declares a source ahead of its first line. Lines from an
// unregistered source register it implicitly without backfill.
func (e *Engine) Register(info SourceInfo) {
	st := e.source(info.ID)
	if info.Kind != "" {
		st.kind = info.Kind
	}
	if info.Backfiller != nil {
		st.backfill = info.Backfiller
	}
}

func (e *Engine) source(id string) *sourceState {
	if st, ok := e.sources[id]; ok {
		return st
	}
	st := &sourceState{id: id, format: format.Plain}
	if e.cfg.Forced {
		st.format = e.cfg.Format
		st.detected = true
	}
	st.grouper = multiline.NewGrouper(id, st.format, sink{e})
	e.sources[id] = st
	e.order = append(e.order, id)
	return st
}

// Tick moves arrived lines into the pending queue and, unless paused,
// processes up to one batch of them.
func (e *Engine) Tick(now time.Time) {
	e.drainInbox(now)

	if dropped := e.pending.trim(e.cfg.PendingLimit); dropped > 0 {
		e.dropped += uint64(dropped)
		e.log.Warn("pending queue over limit", zap.Int("dropped", dropped), zap.Int("limit", e.cfg.PendingLimit))
		e.notify(fmt.Sprintf("Dropped %d lines (backlog over %d)", dropped, e.cfg.PendingLimit))
	}

	if e.paused {
		return
	}

	for _, line := range e.pending.pop(e.cfg.BatchSize) {
		e.process(line)
	}
	for _, id := range e.order {
		if st := e.sources[id]; !st.detected && len(st.sample) > 0 {
			e.detect(st)
		}
	}
}

func (e *Engine) drainInbox(now time.Time) {
	if e.inbox == nil {
		return
	}
	lines := e.inbox.Drain(e.cfg.BatchSize)
	if len(lines) == 0 {
		return
	}
	for i := range lines {
		line := &lines[i]
		if line.Arrived.IsZero() {
			line.Arrived = now
		}
		switch line.Kind {
		case domain.LineEOF:
			e.notify(fmt.Sprintf("Source %s ended", line.Source))
			e.log.Info("source ended", zap.String("source", line.Source))
		case domain.LineError:
			e.notify(fmt.Sprintf("Source %s: %v", line.Source, line.Err))
			e.log.Warn("source error", zap.String("source", line.Source), zap.Error(line.Err))
		}
	}
	e.pending.push(lines)
}

func (e *Engine) process(line domain.Line) {
	st := e.source(line.Source)
	switch line.Kind {
	case domain.LineData:
		// counted when processed so a pause stops the rate, bucketed by arrival
		e.activity.Record(line.Arrived)
		st.lines++
		if !st.detected {
			st.sample = append(st.sample, line.Text)
			if len(st.sample) >= e.cfg.SampleSize {
				e.detect(st)
			}
			return
		}
		st.grouper.Feed(line.Text)
	case domain.LineEOF:
		if !st.detected {
			e.detect(st)
		}
		st.grouper.Reset()
		st.ended = true
	case domain.LineError:
		// status already raised on arrival; the grouper keeps its entry
		// open because command sources reconnect
	}
}

// detect runs once per source and then replays the buffered sample
func (e *Engine) detect(st *sourceState) {
	st.format = format.Detect(st.sample)
	st.detected = true
	st.grouper.SetFormat(st.format)
	e.log.Debug("format detected",
		zap.String("source", st.id),
		zap.String("format", st.format.Name()),
		zap.Int("sample", len(st.sample)))
	sample := st.sample
	st.sample = nil
	for _, raw := range sample {
		st.grouper.Feed(raw)
	}
}

// sink counts committed entries on their way into the store
type sink struct{ e *Engine }

func (s sink) Insert(entry domain.Entry) uint64 {
	s.e.total++
	if entry.IsError() {
		s.e.errorsTotal++
	}
	return s.e.store.Insert(entry)
}

func (s sink) AppendContinuation(seq uint64, line string) bool {
	return s.e.store.AppendContinuation(seq, line)
}

// Paused reports whether processing is suspended
func (e *Engine) Paused() bool {
	return e.paused
}

// SetPaused suspends or resumes processing. Lines keep arriving into the
// pending queue while paused.
func (e *Engine) SetPaused(paused bool) {
	e.paused = paused
}

// TogglePause flips the pause state and returns the new one
func (e *Engine) TogglePause() bool {
	e.paused = !e.paused
	return e.paused
}

// Flush closes every open entry, marking the end of input
func (e *Engine) Flush() {
	for _, id := range e.order {
		st := e.sources[id]
		if !st.detected && len(st.sample) > 0 {
			e.detect(st)
		}
		st.grouper.Reset()
	}
}

// Idle reports whether nothing is waiting to be processed
func (e *Engine) Idle() bool {
	return e.pending.len() == 0
}

// Clear empties the store. Counters and sources are kept.
func (e *Engine) Clear() {
	e.store.Clear()
	e.query.Invalidate()
	for _, st := range e.sources {
		st.grouper.Reset()
	}
	e.selectedSeq = 0
	e.follow = true
	e.notify("Buffer cleared")
}

// Store exposes the entry store for read-only use
func (e *Engine) Store() *store.Store {
	return e.store
}

// Closed returns committed entries with a sequence above after that no
// grouper can still extend, oldest first.
func (e *Engine) Closed(after uint64) []domain.Entry {
	var limit uint64 = ^uint64(0)
	for _, st := range e.sources {
		if seq, open := st.grouper.Accumulating(); open && seq < limit {
			limit = seq
		}
	}
	var out []domain.Entry
	e.store.Each(func(_ int, entry *domain.Entry) bool {
		if entry.Sequence >= limit {
			return false
		}
		if entry.Sequence > after {
			out = append(out, *entry)
		}
		return true
	})
	return out
}
