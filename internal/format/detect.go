package format

import (
	"regexp"
	"strings"

	"github.com/vltamanec/logpulse/internal/domain"
)

// SampleSize is how many leading lines detection looks at by default
const SampleSize = 20

// Matches reports whether line has the primary shape of format id.
// Plain matches every line.
func Matches(id ID, line string) bool {
	switch id {
	case JSON:
		t := strings.TrimSpace(line)
		return strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")
	case Laravel:
		return laravelRe.MatchString(line)
	case Django:
		return djangoRe.MatchString(line)
	case Go:
		return slogRe.MatchString(line) || goStdRe.MatchString(line)
	case Nginx:
		return nginxRe.MatchString(line)
	default:
		return true
	}
}

// Score counts the sample lines matching each recognizer, in detection order
type Score struct {
	Format  ID
	Matches int
}

// Scores evaluates every recognizer against sample
func Scores(sample []string) []Score {
	out := make([]Score, 0, len(priority))
	for _, id := range priority {
		n := 0
		for _, line := range sample {
			if Matches(id, line) {
				n++
			}
		}
		out = append(out, Score{Format: id, Matches: n})
	}
	return out
}

// Detect picks the format matching the most sample lines. A later
// recognizer replaces the current pick only with a strictly greater score,
// so ties go to the earlier one. No matches at all yields Plain.
func Detect(sample []string) ID {
	best, bestScore := Plain, 0
	for _, s := range Scores(sample) {
		if s.Matches > bestScore {
			best, bestScore = s.Format, s.Matches
		}
	}
	return best
}

var continuationPrefixes = []string{"at ", "#", "Traceback", "Caused by", "...", "File \"", "}", "]", "During handling", "goroutine ", "panic: "}

// LooksLikeContinuation reports whether line is shaped like the tail of a
// multi-line record: indented, blank, or a stack frame style prefix.
func LooksLikeContinuation(line string) bool {
	if line == "" || strings.TrimSpace(line) == "" {
		return true
	}
	if line[0] == ' ' || line[0] == '\t' {
		return true
	}
	for _, p := range continuationPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

var recordStartRe = regexp.MustCompile(`^\[?(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}/\w{3}/\d{4}|\d{2}:\d{2}:\d{2})`)

// LooksLikeRecord reports whether line starts its own timestamped or
// leveled record even though it does not fit the active format.
func LooksLikeRecord(line string) bool {
	if recordStartRe.MatchString(line) {
		return true
	}
	for _, id := range priority {
		if Matches(id, line) {
			return true
		}
	}
	return leadingLevel(line)
}

func leadingLevel(line string) bool {
	end := strings.IndexAny(line, " :[]|")
	if end <= 0 {
		return false
	}
	head := strings.Trim(line[:end], "[]")
	return ScanLevel(head) != domain.LogLevelUnknown && len(head) <= 9
}

// IsPrimary reports whether line opens a new entry for the active format.
// Under Plain any line that does not look like a continuation is primary.
func IsPrimary(id ID, line string) bool {
	if id == Plain {
		return !LooksLikeContinuation(line)
	}
	return Matches(id, line)
}
