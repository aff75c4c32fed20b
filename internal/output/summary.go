package output

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vltamanec/logpulse/internal/domain"
)

var (
	hexAddrRegex = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberRegex  = regexp.MustCompile(`\d+`)
	uuidRegex    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

const (
	topLimit    = 5
	sampleLimit = 3
	maxPattern  = 100
)

// Summary aggregates a run of entries
type Summary struct {
	Total       int            `json:"total"`
	Errors      int            `json:"errors"`
	Warnings    int            `json:"warnings"`
	ByLevel     map[string]int `json:"by_level"`
	WindowStart *time.Time     `json:"window_start,omitempty"`
	WindowEnd   *time.Time     `json:"window_end,omitempty"`
	ErrorRate   float64        `json:"error_rate_per_min,omitempty"`
	TopErrors   []PatternMatch `json:"top_errors,omitempty"`
	Dropped     uint64         `json:"dropped,omitempty"`
}

// PatternMatch is a group of error messages equal after normalization
type PatternMatch struct {
	Pattern string   `json:"pattern"`
	Count   int      `json:"count"`
	Samples []string `json:"samples"`
}

// Analyzer summarizes entries and groups recurring errors
type Analyzer struct{}

// NewAnalyzer creates a new log analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Summarize counts entries by level and ranks the most frequent errors.
// The time window covers entries with a parsed timestamp only.
func (a *Analyzer) Summarize(entries []domain.Entry) *Summary {
	summary := &Summary{ByLevel: make(map[string]int)}
	groups := make(map[string][]string)

	for i := range entries {
		entry := &entries[i]
		summary.Total++
		summary.ByLevel[string(entry.Level)]++

		switch entry.Level {
		case domain.LogLevelError:
			summary.Errors++
			msg := messageOf(entry)
			p := a.normalizeMessage(msg)
			groups[p] = append(groups[p], msg)
		case domain.LogLevelWarn:
			summary.Warnings++
		}

		if ts := entry.Timestamp; ts != nil {
			if summary.WindowStart == nil || ts.Before(*summary.WindowStart) {
				summary.WindowStart = ts
			}
			if summary.WindowEnd == nil || ts.After(*summary.WindowEnd) {
				summary.WindowEnd = ts
			}
		}
	}

	if summary.WindowStart != nil {
		if minutes := summary.WindowEnd.Sub(*summary.WindowStart).Minutes(); minutes > 0 {
			summary.ErrorRate = float64(summary.Errors) / minutes
		}
	}
	summary.TopErrors = topPatterns(groups, 1)
	return summary
}

// DetectPatterns returns error patterns seen at least twice, most frequent first
func (a *Analyzer) DetectPatterns(entries []domain.Entry) []PatternMatch {
	groups := make(map[string][]string)
	for i := range entries {
		if entries[i].IsError() {
			msg := messageOf(&entries[i])
			p := a.normalizeMessage(msg)
			groups[p] = append(groups[p], msg)
		}
	}
	return topPatterns(groups, 2)
}

// normalizeMessage removes variable parts to group similar messages
func (a *Analyzer) normalizeMessage(msg string) string {
	msg = uuidRegex.ReplaceAllString(msg, "<uuid>")
	msg = hexAddrRegex.ReplaceAllString(msg, "<addr>")
	msg = numberRegex.ReplaceAllString(msg, "<n>")

	if len(msg) > maxPattern {
		msg = msg[:maxPattern] + "..."
	}
	return strings.TrimSpace(msg)
}

func messageOf(entry *domain.Entry) string {
	if entry.Message != "" {
		return entry.Message
	}
	return entry.Raw
}

func topPatterns(groups map[string][]string, minCount int) []PatternMatch {
	var patterns []PatternMatch
	for pattern, messages := range groups {
		if len(messages) < minCount {
			continue
		}
		samples := messages
		if len(samples) > sampleLimit {
			samples = samples[:sampleLimit]
		}
		patterns = append(patterns, PatternMatch{Pattern: pattern, Count: len(messages), Samples: samples})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Pattern < patterns[j].Pattern
	})
	if len(patterns) > topLimit {
		patterns = patterns[:topLimit]
	}
	return patterns
}
