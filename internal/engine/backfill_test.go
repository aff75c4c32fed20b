package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/source"
	"github.com/vltamanec/logpulse/internal/store"
)

// memHistory serves whole lines that precede an offset in data
type memHistory struct {
	data  string
	start int64
	err   error
	reads int
}

func (m *memHistory) HistoryOffset() int64 { return m.start }

func (m *memHistory) ReadBackward(offset int64, maxBytes int) ([]string, int64, error) {
	m.reads++
	if m.err != nil {
		return nil, offset, m.err
	}
	from := offset - int64(maxBytes)
	if from < 0 {
		from = 0
	}
	window := m.data[from:offset]
	if from > 0 {
		cut := strings.IndexByte(window, '\n')
		if cut < 0 {
			return nil, offset, nil
		}
		window = window[cut+1:]
		from += int64(cut + 1)
	}
	window = strings.TrimSuffix(window, "\n")
	if window == "" {
		return nil, from, nil
	}
	return strings.Split(window, "\n"), from, nil
}

func history(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func liveEngine(t *testing.T, cfg Config, h *memHistory, live ...string) *Engine {
	t.Helper()
	e, inbox, mock := newEngine(t, cfg)
	e.Register(SourceInfo{ID: "app.log", Kind: domain.SourceFile, Backfiller: h})
	inbox.push("app.log", live...)
	e.Tick(mock.Now())
	return e
}

func TestBackfillPrependsHistory(t *testing.T) {
	data := history(
		"[2024-01-15 10:29:58] production.INFO: booting",
		"[2024-01-15 10:29:59] production.ERROR: cache miss",
		"#0 /app/Cache.php(7)",
	)
	h := &memHistory{data: data, start: int64(len(data))}
	e := liveEngine(t, Config{}, h, laravelScenario...)

	assert.Equal(t, 2, e.Backfill())
	require.Equal(t, 4, e.Store().Len())

	first, second := e.Store().Get(0), e.Store().Get(1)
	assert.Equal(t, "[2024-01-15 10:29:58] production.INFO: booting", first.Raw)
	assert.Equal(t, []string{"#0 /app/Cache.php(7)"}, second.Continuations)
	assert.Less(t, second.Sequence, store.FirstLiveSequence)
	assert.Less(t, first.Sequence, second.Sequence)
	assert.Equal(t, "Loaded 2 earlier entries", e.Status())

	reads := h.reads
	assert.Equal(t, 0, e.Backfill(), "history is exhausted")
	assert.Equal(t, reads, h.reads)
}

func TestBackfillChunkLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("old %d", i))
	}
	data := history(lines...)
	h := &memHistory{data: data, start: int64(len(data))}
	e := liveEngine(t, Config{HistoryChunk: 4}, h, "live")

	assert.Equal(t, 4, e.Backfill())
	assert.Equal(t, []string{"old 6", "old 7", "old 8", "old 9", "live"}, raws(e))
	assert.Equal(t, 4, e.Backfill())
	assert.Equal(t, 2, e.Backfill())
	assert.Equal(t, "old 0", e.Store().Get(0).Raw)
	assert.Equal(t, 0, e.Backfill())
}

func TestBackfillLeavesLeadingContinuation(t *testing.T) {
	data := history(
		"[2024-01-15 10:29:58] production.ERROR: first",
		"#0 frame a",
		"[2024-01-15 10:29:59] production.ERROR: second",
		"#0 frame b",
	)
	h := &memHistory{data: data, start: int64(len(data))}
	e := liveEngine(t, Config{HistoryChunk: 3}, h, laravelScenario...)

	// the three newest lines start with an orphan frame, which waits for
	// the next step so it stays attached to its entry
	assert.Equal(t, 1, e.Backfill())
	assert.Equal(t, "[2024-01-15 10:29:59] production.ERROR: second", e.Store().Get(0).Raw)

	assert.Equal(t, 1, e.Backfill())
	first := e.Store().Get(0)
	assert.Equal(t, "[2024-01-15 10:29:58] production.ERROR: first", first.Raw)
	assert.Equal(t, []string{"#0 frame a"}, first.Continuations)
}

func TestBackfillCapacity(t *testing.T) {
	data := history("old 0", "old 1", "old 2")
	h := &memHistory{data: data, start: int64(len(data))}
	e := liveEngine(t, Config{Capacity: 3}, h, "live 0")

	assert.Equal(t, 2, e.Backfill())
	assert.Equal(t, []string{"old 1", "old 2", "live 0"}, raws(e))
	assert.Contains(t, e.Status(), "history limited by buffer capacity")

	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, "History limited by buffer capacity", e.Status())
}

func TestBackfillErrorKeepsStore(t *testing.T) {
	h := &memHistory{data: "x\n", start: 2, err: errors.New("permission denied")}
	e := liveEngine(t, Config{}, h, "live")

	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, []string{"live"}, raws(e))
	assert.Equal(t, "Backfill app.log failed: permission denied", e.Status())
}

func TestBackfillWithoutHistory(t *testing.T) {
	e, inbox, mock := newEngine(t, Config{})
	inbox.push("stdin", "a")
	e.Tick(mock.Now())

	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, []string{"a"}, raws(e))
	assert.Equal(t, "", e.Status())

	h := &memHistory{}
	e = liveEngine(t, Config{}, h, "live")
	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, 0, h.reads, "offset zero means no history")
}

func TestBackfillAfterFileRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("line %03d", i))
	}
	require.NoError(t, os.WriteFile(path, []byte(history(lines...)), 0o644))

	f, err := source.OpenFile(path, 10)
	require.NoError(t, err)

	e, inbox, mock := newEngine(t, Config{})
	e.Register(SourceInfo{ID: "app.log", Kind: domain.SourceFile, Backfiller: f})
	inbox.push("app.log", lines[190:]...)
	e.Tick(mock.Now())
	before := raws(e)

	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o644))

	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, before, raws(e))
	assert.Equal(t, "History of app.log is no longer available", e.Status())

	// later attempts skip the source
	assert.Equal(t, 0, e.Backfill())
	assert.Equal(t, before, raws(e))
}
