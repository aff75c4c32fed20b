package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// tailChunk is the step size when walking a file backwards
const tailChunk = 64 * 1024

// tailOffset returns the offset where the last n lines of r begin. A final
// line without a trailing newline counts as a line.
func tailOffset(r io.ReaderAt, size int64, n int) (int64, error) {
	if n <= 0 || size == 0 {
		return size, nil
	}
	end := size
	last := make([]byte, 1)
	if err := readFullAt(r, last, size-1); err != nil {
		return 0, fmt.Errorf("read tail: %w", err)
	}
	if last[0] == '\n' {
		end = size - 1
	}

	buf := make([]byte, tailChunk)
	count := 0
	for pos := end; pos > 0; {
		start := pos - tailChunk
		if start < 0 {
			start = 0
		}
		chunk := buf[:pos-start]
		if err := readFullAt(r, chunk, start); err != nil {
			return 0, fmt.Errorf("read tail: %w", err)
		}
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] != '\n' {
				continue
			}
			count++
			if count == n {
				return start + int64(i) + 1, nil
			}
		}
		pos = start
	}
	return 0, nil
}

// readBackward returns the complete lines in the window ending at offset,
// oldest first, and the offset of the first of them. offset must sit on a
// line boundary. The window grows past maxBytes when a single line is
// longer than it.
func readBackward(r io.ReaderAt, offset int64, maxBytes int) ([]string, int64, error) {
	if offset <= 0 {
		return nil, 0, nil
	}
	if maxBytes <= 0 {
		maxBytes = tailChunk
	}
	for window := int64(maxBytes); ; window *= 2 {
		start := offset - window
		if start < 0 {
			start = 0
		}
		data := make([]byte, offset-start)
		if err := readFullAt(r, data, start); err != nil {
			return nil, offset, fmt.Errorf("read history: %w", err)
		}
		if start > 0 {
			prev := make([]byte, 1)
			if err := readFullAt(r, prev, start-1); err != nil {
				return nil, offset, fmt.Errorf("read history: %w", err)
			}
			if prev[0] != '\n' {
				// drop the partial first line; a window holding only part of
				// one line has to grow
				cut := bytes.IndexByte(data, '\n')
				if cut < 0 || cut == len(data)-1 {
					continue
				}
				data = data[cut+1:]
				start += int64(cut) + 1
			}
		}
		text := strings.TrimSuffix(string(data), "\n")
		return strings.Split(text, "\n"), start, nil
	}
}

// readFullAt fills buf from off. Running out of data before buf is full is
// an error: the file shrank under the caller.
func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
