package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vltamanec/logpulse/internal/domain"
)

// DefaultTailLines is how many existing lines a file source emits first
const DefaultTailLines = 1000

// pollInterval catches appends and truncation that produced no event
const pollInterval = time.Second

// File follows a local file: it emits the last lines of the file, then
// every line appended afterwards. Rotation (remove or rename followed by a
// new file at the same path) and truncation are followed.
type File struct {
	id    string
	path  string
	start int64
	info  os.FileInfo
	// gone is set by the follower when it starts over from offset 0
	gone atomic.Bool

	clk clock.Clock
	log *zap.Logger
}

// FileOption configures a File
type FileOption func(*File)

// WithFileClock sets the clock used for the poll fallback
func WithFileClock(clk clock.Clock) FileOption {
	return func(f *File) { f.clk = clk }
}

// WithFileLogger sets the logger
func WithFileLogger(log *zap.Logger) FileOption {
	return func(f *File) { f.log = log }
}

// WithFileID overrides the source id, which defaults to the base name
func WithFileID(id string) FileOption {
	return func(f *File) { f.id = id }
}

// OpenFile prepares to follow path, starting tailLines lines before its
// current end.
func OpenFile(path string, tailLines int, opts ...FileOption) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	start, err := tailOffset(fh, info.Size(), tailLines)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}

	f := &File{
		id:    filepath.Base(path),
		path:  path,
		start: start,
		info:  info,
		clk:   clock.New(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// ID returns the source id
func (f *File) ID() string { return f.id }

// Kind reports a file source
func (f *File) Kind() domain.SourceKind { return domain.SourceFile }

// Path returns the followed path
func (f *File) Path() string { return f.path }

// HistoryOffset is the byte offset the live tail started from
func (f *File) HistoryOffset() int64 { return f.start }

// ReadBackward reads complete lines preceding offset. It fails with
// ErrHistoryGone once the file was truncated or replaced since OpenFile.
func (f *File) ReadBackward(offset int64, maxBytes int) ([]string, int64, error) {
	if f.gone.Load() {
		return nil, offset, fmt.Errorf("%s: %w", f.path, ErrHistoryGone)
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, offset, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if !os.SameFile(f.info, info) || offset > info.Size() {
		f.gone.Store(true)
		return nil, offset, fmt.Errorf("%s: %w", f.path, ErrHistoryGone)
	}
	lines, next, err := readBackward(fh, offset, maxBytes)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		f.gone.Store(true)
		return nil, offset, fmt.Errorf("%s: %w", f.path, ErrHistoryGone)
	}
	return lines, next, err
}

// follower holds the open handle and read position while Run is active
type follower struct {
	f       *File
	fh      *os.File
	reader  *bufio.Reader
	pos     int64
	partial strings.Builder
	emit    Emit
}

// Run emits lines until ctx is cancelled. It only returns early when the
// file cannot be watched or reopened.
func (f *File) Run(ctx context.Context, emit Emit) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", f.path, err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", f.path, err)
	}

	fw := &follower{f: f, emit: emit}
	if err := fw.open(f.start); err != nil {
		return err
	}
	defer fw.close()

	ticker := f.clk.Ticker(pollInterval)
	defer ticker.Stop()

	target := filepath.Clean(f.path)
	for {
		if ok, err := fw.readAvailable(); err != nil || !ok {
			return err
		}

		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				f.log.Info("file recreated", zap.String("path", f.path))
				if err := fw.reopen(); err != nil {
					return err
				}
				if !emit(notice(f.id, ">>> file rotated, following new file")) {
					return nil
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.log.Info("file moved away", zap.String("path", f.path), zap.String("op", ev.Op.String()))
			case ev.Op&fsnotify.Write != 0:
				if err := fw.checkTruncate(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn("watch error", zap.String("path", f.path), zap.Error(err))

		case <-ticker.C:
			if err := fw.checkTruncate(); err != nil {
				return err
			}
		}
	}
}

func notice(id, text string) domain.Line {
	return domain.Line{Source: id, Kind: domain.LineData, Text: text}
}

func (fw *follower) open(offset int64) error {
	fh, err := os.Open(fw.f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", fw.f.path, err)
	}
	if _, err := fh.Seek(offset, io.SeekStart); err != nil {
		fh.Close()
		return fmt.Errorf("seek %s: %w", fw.f.path, err)
	}
	fw.fh = fh
	fw.pos = offset
	fw.partial.Reset()
	if fw.reader == nil {
		fw.reader = bufio.NewReaderSize(fh, initialLineBuffer)
	} else {
		fw.reader.Reset(fh)
	}
	return nil
}

func (fw *follower) close() {
	if fw.fh != nil {
		fw.fh.Close()
		fw.fh = nil
	}
}

func (fw *follower) reopen() error {
	// finish whatever the old handle still holds
	if _, err := fw.readAvailable(); err != nil {
		return err
	}
	fw.close()
	fw.f.gone.Store(true)
	return fw.open(0)
}

// checkTruncate restarts from the top when the file shrank under us
func (fw *follower) checkTruncate() error {
	info, err := os.Stat(fw.f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", fw.f.path, err)
	}
	if info.Size() >= fw.pos {
		return nil
	}
	fw.f.log.Info("file truncated", zap.String("path", fw.f.path), zap.Int64("size", info.Size()))
	fw.close()
	fw.f.gone.Store(true)
	if err := fw.open(0); err != nil {
		return err
	}
	fw.emit(notice(fw.f.id, ">>> file truncated, reading from start"))
	return nil
}

// readAvailable emits every complete line up to the current end of file.
// A trailing partial line is held until its newline arrives. It returns
// false when the consumer is gone.
func (fw *follower) readAvailable() (bool, error) {
	for {
		chunk, err := fw.reader.ReadString('\n')
		fw.pos += int64(len(chunk))
		if strings.HasSuffix(chunk, "\n") {
			fw.partial.WriteString(chunk[:len(chunk)-1])
			text := strings.TrimSuffix(fw.partial.String(), "\r")
			fw.partial.Reset()
			if !fw.emit(domain.Line{Source: fw.f.id, Kind: domain.LineData, Text: text}) {
				return false, nil
			}
		} else {
			fw.partial.WriteString(chunk)
			if fw.partial.Len() > maxLineBytes {
				text := fw.partial.String()
				fw.partial.Reset()
				if !fw.emit(domain.Line{Source: fw.f.id, Kind: domain.LineData, Text: text}) {
					return false, nil
				}
			}
		}
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", fw.f.path, err)
		}
	}
}
