package engine

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vltamanec/logpulse/internal/format"
	"github.com/vltamanec/logpulse/internal/multiline"
	"github.com/vltamanec/logpulse/internal/source"
)

// backfillBytes is the read size for each backward step
const backfillBytes = 64 * 1024

// Backfill loads up to HistoryChunk earlier lines from every seekable
// source and prepends them. Sources that cannot seek are skipped. A failed
// read leaves the store unchanged and raises a status. It returns the
// number of entries added.
func (e *Engine) Backfill() int {
	inserted, limited := 0, false
	for _, id := range e.order {
		st := e.sources[id]
		if st.backfill == nil || st.historyEnded {
			continue
		}
		if e.store.Free() == 0 {
			limited = true
			break
		}
		n, short, err := e.backfillSource(st)
		if errors.Is(err, source.ErrHistoryGone) {
			st.historyEnded = true
			e.log.Info("history gone", zap.String("source", st.id), zap.Error(err))
			e.notify(fmt.Sprintf("History of %s is no longer available", st.id))
			continue
		}
		if err != nil {
			e.log.Warn("backfill failed", zap.String("source", st.id), zap.Error(err))
			e.notify(fmt.Sprintf("Backfill %s failed: %v", st.id, err))
			continue
		}
		inserted += n
		limited = limited || short
	}
	switch {
	case inserted > 0 && limited:
		e.notify(fmt.Sprintf("Loaded %d earlier entries (history limited by buffer capacity)", inserted))
	case inserted > 0:
		e.notify(fmt.Sprintf("Loaded %d earlier entries", inserted))
	case limited:
		e.notify("History limited by buffer capacity")
	}
	return inserted
}

func (e *Engine) backfillSource(st *sourceState) (int, bool, error) {
	if !st.cursorSet {
		st.cursor = st.backfill.HistoryOffset()
		st.cursorSet = true
	}

	offset := st.cursor
	var lines []string
	for len(lines) < e.cfg.HistoryChunk && offset > 0 {
		chunk, next, err := st.backfill.ReadBackward(offset, backfillBytes)
		if err != nil {
			return 0, false, err
		}
		if next >= offset {
			break
		}
		lines = append(chunk, lines...)
		offset = next
	}

	// keep the newest HistoryChunk lines; the rest stays unread
	if over := len(lines) - e.cfg.HistoryChunk; over > 0 {
		offset += byteLen(lines[:over])
		lines = lines[over:]
	}
	// a chunk that starts mid-entry leaves the orphaned tail for next time,
	// unless nothing in it opens an entry
	if offset > 0 {
		head := 0
		for head < len(lines) && !format.IsPrimary(st.format, lines[head]) {
			head++
		}
		if head < len(lines) {
			offset += byteLen(lines[:head])
			lines = lines[head:]
		}
	}

	raw := make([]string, len(lines))
	for i, l := range lines {
		raw[i] = strings.TrimSuffix(l, "\r")
	}
	entries := multiline.Collect(st.id, st.format, raw)
	n := e.store.Prepend(entries)
	limited := n < len(entries)
	if limited {
		// the oldest entries did not fit; rewind the cursor past them only
		skipped := 0
		for _, entry := range entries[:len(entries)-n] {
			skipped += 1 + len(entry.Continuations)
		}
		offset += byteLen(lines[:skipped])
	}

	st.cursor = offset
	if offset <= 0 {
		st.historyEnded = true
	}
	e.log.Debug("backfilled",
		zap.String("source", st.id),
		zap.Int("entries", n),
		zap.Int64("offset", offset))
	return n, limited, nil
}

// byteLen is the on-disk size of newline-terminated lines
func byteLen(lines []string) int64 {
	var n int64
	for _, l := range lines {
		n += int64(len(l)) + 1
	}
	return n
}
