package source

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vltamanec/logpulse/internal/domain"
)

// DefaultMuxBuffer is the channel capacity between producers and the engine
const DefaultMuxBuffer = 4096

// Mux merges lines from many producers into one queue. Producers block when
// the queue is full; the consumer drains without blocking.
type Mux struct {
	ch  chan domain.Line
	clk clock.Clock
	log *zap.Logger

	closeOnce sync.Once
}

// NewMux creates a mux with the given channel capacity
func NewMux(buffer int, clk clock.Clock, log *zap.Logger) *Mux {
	if buffer <= 0 {
		buffer = DefaultMuxBuffer
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mux{ch: make(chan domain.Line, buffer), clk: clk, log: log}
}

// Emitter returns an Emit that tags lines with id and stamps arrival time
func (m *Mux) Emitter(ctx context.Context, id string) Emit {
	return func(l domain.Line) bool {
		if l.Source == "" {
			l.Source = id
		}
		if l.Arrived.IsZero() {
			l.Arrived = m.clk.Now()
		}
		select {
		case m.ch <- l:
			return true
		case <-ctx.Done():
			return false
		}
	}
}

// Go runs src in g. When src returns, the outcome is queued as a status:
// an error line if it failed, then an end-of-stream line. Source failures
// never fail the group.
func (m *Mux) Go(ctx context.Context, g *errgroup.Group, src Source) {
	g.Go(func() error {
		id := src.ID()
		emit := m.Emitter(ctx, id)
		err := src.Run(ctx, emit)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			m.log.Warn("source failed", zap.String("source", id), zap.Error(err))
			if !emit(domain.Line{Kind: domain.LineError, Err: err}) {
				return nil
			}
		}
		emit(domain.Line{Kind: domain.LineEOF})
		return nil
	})
}

// Drain returns up to max queued lines without blocking
func (m *Mux) Drain(max int) []domain.Line {
	var out []domain.Line
	for len(out) < max {
		select {
		case l, ok := <-m.ch:
			if !ok {
				return out
			}
			out = append(out, l)
		default:
			return out
		}
	}
	return out
}

// Close closes the queue. Call it only after every producer has returned.
func (m *Mux) Close() {
	m.closeOnce.Do(func() { close(m.ch) })
}
