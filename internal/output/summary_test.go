package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vltamanec/logpulse/internal/domain"
)

func TestAnalyzer_NormalizeMessage(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "replaces hex addresses",
			input:    "Pointer at 0x7fff5fbff8c0 is invalid",
			expected: "Pointer at <addr> is invalid",
		},
		{
			name:     "replaces numbers",
			input:    "Failed after 123 attempts with code 456",
			expected: "Failed after <n> attempts with code <n>",
		},
		{
			name:     "replaces UUIDs",
			input:    "Device 12345678-1234-1234-1234-123456789abc not found",
			expected: "Device <uuid> not found",
		},
		{
			name:     "handles mixed content",
			input:    "Error at 0xABCDEF: request 42 for UUID 11111111-2222-3333-4444-555555555555 failed",
			expected: "Error at <addr>: request <n> for UUID <uuid> failed",
		},
		{
			name:     "truncates long messages",
			input:    "This is a very long message that exceeds one hundred characters and should be truncated at the limit to prevent overly verbose output",
			expected: "This is a very long message that exceeds one hundred characters and should be truncated at the limit...",
		},
		{
			name:     "trims whitespace",
			input:    "  Message with spaces  ",
			expected: "Message with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.normalizeMessage(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func entryAt(level domain.LogLevel, msg string, ts *time.Time) domain.Entry {
	return domain.Entry{Level: level, Message: msg, Raw: msg, Timestamp: ts}
}

func TestAnalyzer_Summarize(t *testing.T) {
	a := NewAnalyzer()

	t.Run("returns empty summary for no entries", func(t *testing.T) {
		summary := a.Summarize(nil)
		assert.Equal(t, 0, summary.Total)
		assert.Equal(t, 0, summary.Errors)
		assert.Nil(t, summary.WindowStart)
		assert.Empty(t, summary.TopErrors)
	})

	t.Run("counts entries by level", func(t *testing.T) {
		entries := []domain.Entry{
			entryAt(domain.LogLevelDebug, "debug", nil),
			entryAt(domain.LogLevelInfo, "info", nil),
			entryAt(domain.LogLevelWarn, "warn", nil),
			entryAt(domain.LogLevelError, "error1", nil),
			entryAt(domain.LogLevelError, "error2", nil),
			entryAt(domain.LogLevelUnknown, "plain", nil),
		}

		summary := a.Summarize(entries)

		assert.Equal(t, 6, summary.Total)
		assert.Equal(t, 2, summary.Errors)
		assert.Equal(t, 1, summary.Warnings)
		assert.Equal(t, 1, summary.ByLevel["Debug"])
		assert.Equal(t, 1, summary.ByLevel["Unknown"])
		assert.Equal(t, 2, summary.ByLevel["Error"])
	})

	t.Run("window spans parsed timestamps only", func(t *testing.T) {
		start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 15, 10, 5, 0, 0, time.UTC)

		entries := []domain.Entry{
			entryAt(domain.LogLevelError, "late", &end),
			entryAt(domain.LogLevelInfo, "no time", nil),
			entryAt(domain.LogLevelError, "early", &start),
		}

		summary := a.Summarize(entries)

		require.NotNil(t, summary.WindowStart)
		assert.Equal(t, start, *summary.WindowStart)
		assert.Equal(t, end, *summary.WindowEnd)
		assert.InDelta(t, 0.4, summary.ErrorRate, 1e-9)
	})

	t.Run("extracts top errors", func(t *testing.T) {
		entries := []domain.Entry{
			entryAt(domain.LogLevelError, "Connection timeout 1", nil),
			entryAt(domain.LogLevelError, "Connection timeout 2", nil),
			entryAt(domain.LogLevelError, "Connection timeout 3", nil),
			entryAt(domain.LogLevelError, "Auth failed", nil),
		}

		summary := a.Summarize(entries)

		require.Len(t, summary.TopErrors, 2)
		assert.Equal(t, "Connection timeout <n>", summary.TopErrors[0].Pattern)
		assert.Equal(t, 3, summary.TopErrors[0].Count)
		assert.Equal(t, "Auth failed", summary.TopErrors[1].Pattern)
	})

	t.Run("falls back to the raw line", func(t *testing.T) {
		entries := []domain.Entry{{Level: domain.LogLevelError, Raw: "ERROR disk 42 full"}}
		summary := a.Summarize(entries)
		require.Len(t, summary.TopErrors, 1)
		assert.Equal(t, "ERROR disk <n> full", summary.TopErrors[0].Pattern)
	})
}

func TestAnalyzer_DetectPatterns(t *testing.T) {
	a := NewAnalyzer()

	t.Run("groups similar error messages", func(t *testing.T) {
		entries := []domain.Entry{
			entryAt(domain.LogLevelError, "Request 1 failed", nil),
			entryAt(domain.LogLevelError, "Request 2 failed", nil),
			entryAt(domain.LogLevelError, "Request 3 failed", nil),
			entryAt(domain.LogLevelInfo, "Request 4 succeeded", nil),
		}

		patterns := a.DetectPatterns(entries)

		require.Len(t, patterns, 1)
		assert.Equal(t, 3, patterns[0].Count)
		assert.Equal(t, "Request <n> failed", patterns[0].Pattern)
	})

	t.Run("ignores patterns with single occurrence", func(t *testing.T) {
		entries := []domain.Entry{
			entryAt(domain.LogLevelError, "Unique error A", nil),
			entryAt(domain.LogLevelError, "Unique error B", nil),
		}

		assert.Empty(t, a.DetectPatterns(entries))
	})

	t.Run("limits samples to 3", func(t *testing.T) {
		var entries []domain.Entry
		for i := 1; i <= 5; i++ {
			entries = append(entries, entryAt(domain.LogLevelError, "Error "+itoa(i), nil))
		}

		patterns := a.DetectPatterns(entries)

		require.Len(t, patterns, 1)
		assert.Len(t, patterns[0].Samples, 3)
	})
}

func TestPrecompiledRegexes(t *testing.T) {
	t.Run("hexAddrRegex matches hex addresses", func(t *testing.T) {
		assert.True(t, hexAddrRegex.MatchString("0x7fff5fbff8c0"))
		assert.True(t, hexAddrRegex.MatchString("0xABCDEF"))
		assert.False(t, hexAddrRegex.MatchString("not-a-hex"))
	})

	t.Run("numberRegex matches numbers", func(t *testing.T) {
		assert.True(t, numberRegex.MatchString("123"))
		assert.False(t, numberRegex.MatchString("abc"))
	})

	t.Run("uuidRegex matches UUIDs", func(t *testing.T) {
		assert.True(t, uuidRegex.MatchString("12345678-1234-1234-1234-123456789abc"))
		assert.False(t, uuidRegex.MatchString("not-a-uuid"))
	})
}
