package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Export writes every visible entry, raw line then continuation lines, in
// store order. It returns the number of entries written.
func (e *Engine) Export(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	count := 0
	for _, idx := range e.query.Visible(e.store) {
		entry := e.store.Get(idx)
		if _, err := bw.WriteString(entry.Raw + "\n"); err != nil {
			return count, err
		}
		for _, c := range entry.Continuations {
			if _, err := bw.WriteString(c + "\n"); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, bw.Flush()
}

// ExportFile writes the visible entries to path and reports the result as
// a status.
func (e *Engine) ExportFile(path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		e.notify(fmt.Sprintf("Save failed: %v", err))
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := e.Export(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		e.notify(fmt.Sprintf("Save failed: %v", err))
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	e.log.Info("exported entries", zap.String("path", path), zap.Int("entries", n))
	e.notify(fmt.Sprintf("Saved %d entries to %s", n, path))
	return n, nil
}

// ClipboardText returns the text of the visible entry at row: the raw line
// and its continuations joined by newlines.
func (e *Engine) ClipboardText(row int) (string, bool) {
	entry, ok := e.Entry(row)
	if !ok {
		return "", false
	}
	return entry.Text(), true
}
