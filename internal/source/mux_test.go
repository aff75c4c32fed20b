package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vltamanec/logpulse/internal/domain"
)

type failingSource struct{}

func (failingSource) ID() string { return "broken" }

func (failingSource) Run(context.Context, Emit) error {
	return errors.New("boom")
}

func TestMuxMergesSources(t *testing.T) {
	ctx := context.Background()
	mux := NewMux(16, nil, nil)
	g, gctx := errgroup.WithContext(ctx)

	mux.Go(gctx, g, NewReader("a", strings.NewReader("a1\na2\n")))
	mux.Go(gctx, g, failingSource{})
	require.NoError(t, g.Wait())
	mux.Close()

	lines := mux.Drain(100)
	var data []string
	kinds := map[string][]domain.LineKind{}
	for _, l := range lines {
		assert.False(t, l.Arrived.IsZero())
		kinds[l.Source] = append(kinds[l.Source], l.Kind)
		if l.Kind == domain.LineData {
			data = append(data, l.Text)
		}
	}
	assert.Equal(t, []string{"a1", "a2"}, data)
	assert.Equal(t, []domain.LineKind{domain.LineData, domain.LineData, domain.LineEOF}, kinds["a"])
	assert.Equal(t, []domain.LineKind{domain.LineError, domain.LineEOF}, kinds["broken"])
}

func TestMuxDrainRespectsMax(t *testing.T) {
	mux := NewMux(16, nil, nil)
	emit := mux.Emitter(context.Background(), "s")
	for i := 0; i < 5; i++ {
		require.True(t, emit(domain.Line{Kind: domain.LineData, Text: "x"}))
	}

	assert.Len(t, mux.Drain(3), 3)
	assert.Len(t, mux.Drain(3), 2)
	assert.Empty(t, mux.Drain(3))
}

func TestMuxEmitterStopsOnCancel(t *testing.T) {
	mux := NewMux(1, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	emit := mux.Emitter(ctx, "s")

	require.True(t, emit(domain.Line{Text: "fills the buffer"}))
	cancel()
	assert.False(t, emit(domain.Line{Text: "blocked"}))
}

func TestStdinTrimsCarriageReturns(t *testing.T) {
	c := &lineCollector{}
	src := NewReader("stdin", strings.NewReader("one\r\ntwo\n"))
	require.NoError(t, src.Run(context.Background(), c.emit))
	assert.Equal(t, []string{"one", "two"}, c.snapshot())
	assert.Equal(t, domain.SourceStdin, src.Kind())
}
