// Package source produces raw log lines from files, stdin and external
// commands, and merges them into a single queue for the engine.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vltamanec/logpulse/internal/domain"
)

// ErrNotSeekable is returned by sources that cannot read history
var ErrNotSeekable = errors.New("source is not seekable")

// ErrHistoryGone is returned once the lines before the live tail no longer
// exist, because the file was truncated or replaced
var ErrHistoryGone = errors.New("history no longer available")

// Emit hands one line to the consumer. It returns false once the consumer
// is gone and the source should stop.
type Emit func(domain.Line) bool

// Source produces lines until its input ends or ctx is cancelled
type Source interface {
	ID() string
	Run(ctx context.Context, emit Emit) error
}

// Kinded sources report what kind of input they read
type Kinded interface {
	Kind() domain.SourceKind
}

// Preparer sources resolve their target before streaming starts. A
// failure means the source cannot start at all.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Backfiller sources can read lines that precede the live tail.
//
// ReadBackward returns the complete lines ending at byte offset, oldest
// first, reading about maxBytes, plus the offset of the first returned
// line. HistoryOffset is where the live tail began.
type Backfiller interface {
	ReadBackward(offset int64, maxBytes int) ([]string, int64, error)
	HistoryOffset() int64
}

const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 1024 * 1024
)

// scanLines emits every line of r tagged with id until r ends
func scanLines(ctx context.Context, r io.Reader, id string, emit Emit) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBytes)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if !emit(domain.Line{Source: id, Kind: domain.LineData, Text: text}) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line too long (>%d bytes): %w", maxLineBytes, err)
		}
		return err
	}
	return nil
}
