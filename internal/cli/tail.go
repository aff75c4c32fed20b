package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/vltamanec/logpulse/internal/source"
)

// TailCmd follows local files, or stdin
type TailCmd struct {
	Files []string `arg:"" optional:"" name:"file" help:"Log files to follow; - reads stdin (the default when piped)"`
	Lines int      `short:"n" default:"${config_tail_lines}" help:"Lines of existing content to load from each file before following"`
}

// Run executes the tail command
func (c *TailCmd) Run(globals *Globals) error {
	sources, title, err := c.sources(globals)
	if err != nil {
		return err
	}
	return runPipeline(globals, title, sources)
}

func (c *TailCmd) sources(globals *Globals) ([]source.Source, string, error) {
	if len(c.Files) == 0 {
		if isTerminal(globals.Stdin) {
			return nil, "", outputErrorCommon(globals, "NO_INPUT", "no log files given and stdin is a terminal",
				"Usage: logpulse <file>... | logpulse docker <name> | logpulse ssh ... | logpulse k8s ... (or pipe into logpulse)")
		}
		return []source.Source{c.stdin(globals)}, "stdin", nil
	}
	if len(c.Files) == 1 && c.Files[0] == "-" {
		return []source.Source{c.stdin(globals)}, "stdin", nil
	}
	if c.Lines < 0 {
		return nil, "", outputErrorCommon(globals, "INVALID_FLAGS", "--lines must not be negative")
	}

	ids := fileIDs(c.Files)
	sources := make([]source.Source, 0, len(c.Files))
	for i, path := range c.Files {
		f, err := source.OpenFile(path, c.Lines,
			source.WithFileID(ids[i]),
			source.WithFileClock(globals.clock()),
			source.WithFileLogger(globals.logger()),
		)
		if err != nil {
			return nil, "", outputErrorCommon(globals, "FILE_OPEN_FAILED", err.Error(), hintForSource(err))
		}
		globals.Debug("following %s from offset %d", path, f.HistoryOffset())
		sources = append(sources, f)
	}
	return sources, strings.Join(ids, ", "), nil
}

func (c *TailCmd) stdin(globals *Globals) source.Source {
	if globals.Stdin == nil {
		return source.NewStdin()
	}
	return source.NewReader("stdin", globals.Stdin)
}

// fileIDs names each file by its base name, falling back to the path as
// given when two files share a base name.
func fileIDs(paths []string) []string {
	count := make(map[string]int, len(paths))
	for _, p := range paths {
		count[filepath.Base(p)]++
	}
	ids := make([]string, len(paths))
	for i, p := range paths {
		ids[i] = filepath.Base(p)
		if count[ids[i]] > 1 {
			ids[i] = p
		}
	}
	return ids
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
