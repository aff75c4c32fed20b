package query

import (
	"regexp"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Filter determines if an entry is visible
type Filter interface {
	// Match returns true if the entry passes the filter
	Match(entry *domain.Entry) bool
}

// Chain combines multiple filters (all must pass)
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from multiple filters
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Match returns true only if all filters pass
func (c *Chain) Match(entry *domain.Entry) bool {
	for _, f := range c.filters {
		if !f.Match(entry) {
			return false
		}
	}
	return true
}

// Len returns the number of filters in the chain
func (c *Chain) Len() int {
	return len(c.filters)
}

// RegexFilter matches the raw line or any continuation line
type RegexFilter struct {
	pattern *regexp.Regexp
}

// NewRegexFilter creates a regex filter from a compiled regexp
func NewRegexFilter(re *regexp.Regexp) *RegexFilter {
	return &RegexFilter{pattern: re}
}

// Match returns true if the pattern occurs anywhere in the entry text
func (f *RegexFilter) Match(entry *domain.Entry) bool {
	if f.pattern == nil {
		return true
	}
	if f.pattern.MatchString(entry.Raw) {
		return true
	}
	for _, c := range entry.Continuations {
		if f.pattern.MatchString(c) {
			return true
		}
	}
	return false
}

// LevelFilter passes entries at or above a minimum level
type LevelFilter struct {
	minLevel domain.LogLevel
}

// NewLevelFilter creates a level filter
func NewLevelFilter(minLevel domain.LogLevel) *LevelFilter {
	return &LevelFilter{minLevel: minLevel}
}

// Match returns true if the entry level is >= minimum level
func (f *LevelFilter) Match(entry *domain.Entry) bool {
	return entry.Level.Priority() >= f.minLevel.Priority()
}

// Compile builds a case-insensitive pattern the way every query input does
func Compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}
