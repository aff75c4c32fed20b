package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vltamanec/logpulse/internal/format"
)

// DetectCmd prints how each recognizer scores a file's opening lines
type DetectCmd struct {
	File  string `arg:"" help:"Log file to sample; - reads stdin"`
	Lines int    `short:"n" default:"${config_sample_size}" help:"Number of lines to sample"`
	JSON  bool   `help:"Print the scorecard as JSON"`
}

// DetectOutput is the JSON form of a scorecard
type DetectOutput struct {
	Type     string        `json:"type"` // Always "detect"
	File     string        `json:"file"`
	Sampled  int           `json:"sampled"`
	Detected string        `json:"detected"`
	Scores   []ScoreOutput `json:"scores"`
}

// ScoreOutput is one recognizer's result
type ScoreOutput struct {
	Format  string `json:"format"`
	Matches int    `json:"matches"`
}

// Run executes the detect command
func (c *DetectCmd) Run(globals *Globals) error {
	if c.Lines <= 0 {
		return outputErrorCommon(globals, "INVALID_FLAGS", "--lines must be positive")
	}

	var r io.Reader = globals.Stdin
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return outputErrorCommon(globals, "FILE_OPEN_FAILED", err.Error(), hintForSource(err))
		}
		defer f.Close()
		r = f
	}

	sample, err := readSample(r, c.Lines)
	if err != nil {
		return outputErrorCommon(globals, "READ_FAILED", fmt.Sprintf("read %s: %v", c.File, err))
	}
	return c.render(globals.Stdout, sample)
}

func (c *DetectCmd) render(w io.Writer, sample []string) error {
	scores := format.Scores(sample)
	detected := format.Detect(sample)

	if c.JSON {
		out := DetectOutput{
			Type:     "detect",
			File:     c.File,
			Sampled:  len(sample),
			Detected: detected.Name(),
			Scores:   make([]ScoreOutput, 0, len(scores)),
		}
		for _, s := range scores {
			out.Scores = append(out.Scores, ScoreOutput{Format: s.Format.Name(), Matches: s.Matches})
		}
		return json.NewEncoder(w).Encode(out)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Format", "Matches", "Share")
	for _, s := range scores {
		share := "0%"
		if len(sample) > 0 {
			share = strconv.Itoa(s.Matches*100/len(sample)) + "%"
		}
		if err := table.Append([]string{s.Format.Name(), strconv.Itoa(s.Matches), share}); err != nil {
			return fmt.Errorf("render scorecard: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render scorecard: %w", err)
	}
	_, err := fmt.Fprintf(w, "Sampled %d lines. Detected: %s\n", len(sample), detected.Name())
	return err
}

// readSample returns up to n lines from r
func readSample(r io.Reader, n int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var out []string
	for len(out) < n && scanner.Scan() {
		out = append(out, scanner.Text())
	}
	return out, scanner.Err()
}
