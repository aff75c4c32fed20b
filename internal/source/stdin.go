package source

import (
	"context"
	"io"
	"os"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Stdin reads lines from standard input, or any reader, until it ends
type Stdin struct {
	id string
	r  io.Reader
}

// NewStdin reads from os.Stdin
func NewStdin() *Stdin {
	return NewReader("stdin", os.Stdin)
}

// NewReader reads lines from r under the given id
func NewReader(id string, r io.Reader) *Stdin {
	return &Stdin{id: id, r: r}
}

// ID returns the source id
func (s *Stdin) ID() string { return s.id }

// Kind reports a stdin source
func (s *Stdin) Kind() domain.SourceKind { return domain.SourceStdin }

// Run emits lines until the reader ends. Cancellation is noticed between
// lines; a blocked read on a terminal returns when the process exits.
func (s *Stdin) Run(ctx context.Context, emit Emit) error {
	return scanLines(ctx, s.r, s.id, emit)
}
