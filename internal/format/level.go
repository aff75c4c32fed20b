package format

import "github.com/vltamanec/logpulse/internal/domain"

type levelKeyword struct {
	word  string // upper case ASCII
	level domain.LogLevel
	exact bool // require a word boundary after the keyword as well
}

// Checked in order; the first hit wins. Fatal-class words collapse into Error.
var levelKeywords = []levelKeyword{
	{"FATAL", domain.LogLevelError, false},
	{"EMERGENCY", domain.LogLevelError, false},
	{"CRITICAL", domain.LogLevelError, false},
	{"PANIC", domain.LogLevelError, false},
	{"ERROR", domain.LogLevelError, false},
	{"ERR", domain.LogLevelError, true},
	{"WARN", domain.LogLevelWarn, false},
	{"INFO", domain.LogLevelInfo, false},
	{"NOTICE", domain.LogLevelInfo, false},
	{"DEBUG", domain.LogLevelDebug, false},
	{"DBG", domain.LogLevelDebug, true},
	{"TRACE", domain.LogLevelTrace, false},
}

// ScanLevel finds a level keyword anywhere in text, case-insensitively.
// It does not allocate.
func ScanLevel(text string) domain.LogLevel {
	for _, kw := range levelKeywords {
		if containsWord(text, kw.word, kw.exact) {
			return kw.level
		}
	}
	return domain.LogLevelUnknown
}

// containsWord reports whether upper (an upper-case ASCII word) occurs in s
// starting at a word boundary.
func containsWord(s, upper string, exact bool) bool {
	n := len(upper)
	for i := 0; i+n <= len(s); i++ {
		if i > 0 && isLetter(s[i-1]) {
			continue
		}
		if !equalFoldASCII(s[i:i+n], upper) {
			continue
		}
		if exact && i+n < len(s) && isLetter(s[i+n]) {
			continue
		}
		return true
	}
	return false
}

func equalFoldASCII(s, upper string) bool {
	for j := 0; j < len(upper); j++ {
		c := s[j]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != upper[j] {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
