package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Parsed is the structured view of one primary line
type Parsed struct {
	Timestamp *time.Time
	TimeText  string
	Level     domain.LogLevel
	Message   string
	Fields    map[string]string
}

var (
	laravelRe = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[+-]\d{2}:?\d{2})?)\]\s+(\w+)\.(\w+):\s?(.*)$`)
	djangoRe  = regexp.MustCompile(`^\[(\d{2}/\w{3}/\d{4}\s\d{2}:\d{2}:\d{2})\]\s+(\w+)\s+\[([^\]]+)\]\s+(.*)$`)
	slogRe    = regexp.MustCompile(`^time=(\S+)\s+level=(\w+)\s+(?:source=\S+\s+)?msg=(.*)$`)
	goStdRe   = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2}\s\d{2}:\d{2}:\d{2}(?:\.\d+)?)\s+(.*)$`)
	nginxRe   = regexp.MustCompile(`^(\S+)\s+\S+\s+(\S+)\s+\[([^\]]+)\]\s+"([^"]*)"\s+(\d{3})\s+(\d+|-)(?:\s+"([^"]*)"\s+"([^"]*)")?`)
)

// Parse extracts structure from raw according to id. A line the format
// cannot parse degrades to the Plain view; Parse never fails.
func Parse(id ID, raw string) Parsed {
	var (
		p  Parsed
		ok bool
	)
	switch id {
	case JSON:
		p, ok = parseJSON(raw)
	case Laravel:
		p, ok = parseLaravel(raw)
	case Django:
		p, ok = parseDjango(raw)
	case Go:
		p, ok = parseGo(raw)
	case Nginx:
		p, ok = parseNginx(raw)
	}
	if !ok {
		return parsePlain(raw)
	}
	return p
}

func parsePlain(raw string) Parsed {
	return Parsed{Level: ScanLevel(raw), Message: raw}
}

var (
	jsonLevelKeys   = []string{"level", "severity", "lvl", "log\\.level", "log.level", "levelname"}
	jsonMessageKeys = []string{"msg", "message", "text", "event"}
	jsonTimeKeys    = []string{"time", "timestamp", "ts", "@timestamp", "datetime"}
)

func parseJSON(raw string) (Parsed, bool) {
	line := strings.TrimSpace(raw)
	if !gjson.Valid(line) {
		return Parsed{}, false
	}
	doc := gjson.Parse(line)
	if !doc.IsObject() {
		return Parsed{}, false
	}

	p := Parsed{Level: domain.LogLevelUnknown, Fields: make(map[string]string)}
	doc.ForEach(func(key, value gjson.Result) bool {
		p.Fields[key.String()] = value.String()
		return true
	})

	if v, ok := firstOf(doc, jsonLevelKeys); ok {
		p.Level = jsonLevel(v)
	}
	if v, ok := firstOf(doc, jsonMessageKeys); ok {
		p.Message = v.String()
	} else {
		p.Message = line
	}
	if v, ok := firstOf(doc, jsonTimeKeys); ok {
		p.Timestamp, p.TimeText = jsonTime(v)
	}
	if p.Level == domain.LogLevelUnknown {
		p.Level = ScanLevel(p.Message)
	}
	return p, true
}

func firstOf(doc gjson.Result, keys []string) (gjson.Result, bool) {
	for _, k := range keys {
		if v := doc.Get(k); v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// jsonLevel accepts level names as well as pino/bunyan numeric levels
func jsonLevel(v gjson.Result) domain.LogLevel {
	if v.Type == gjson.Number {
		switch n := v.Int(); {
		case n >= 50:
			return domain.LogLevelError
		case n >= 40:
			return domain.LogLevelWarn
		case n >= 30:
			return domain.LogLevelInfo
		case n >= 20:
			return domain.LogLevelDebug
		default:
			return domain.LogLevelTrace
		}
	}
	return ScanLevel(v.String())
}

func jsonTime(v gjson.Result) (*time.Time, string) {
	if v.Type == gjson.Number {
		n := v.Float()
		var ts time.Time
		if n > 1e12 {
			ts = time.UnixMilli(int64(n)).UTC()
		} else {
			sec := int64(n)
			ts = time.Unix(sec, int64((n-float64(sec))*1e9)).UTC()
		}
		return &ts, ts.Format("2006-01-02 15:04:05.000")
	}
	text := v.String()
	return parseTime(text, time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999"), text
}

func parseLaravel(raw string) (Parsed, bool) {
	m := laravelRe.FindStringSubmatch(raw)
	if m == nil {
		return Parsed{}, false
	}
	return Parsed{
		Timestamp: parseTime(m[1], "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999"),
		TimeText:  m[1],
		Level:     ScanLevel(m[3]),
		Message:   m[4],
		Fields:    map[string]string{"env": m[2]},
	}, true
}

func parseDjango(raw string) (Parsed, bool) {
	m := djangoRe.FindStringSubmatch(raw)
	if m == nil {
		return Parsed{}, false
	}
	return Parsed{
		Timestamp: parseTime(m[1], "02/Jan/2006 15:04:05"),
		TimeText:  m[1],
		Level:     ScanLevel(m[2]),
		Message:   m[4],
		Fields:    map[string]string{"logger": m[3]},
	}, true
}

func parseGo(raw string) (Parsed, bool) {
	if m := slogRe.FindStringSubmatch(raw); m != nil {
		fields := logfmt(raw)
		msg := fields["msg"]
		if msg == "" {
			msg = m[3]
		}
		return Parsed{
			Timestamp: parseTime(m[1], time.RFC3339Nano),
			TimeText:  m[1],
			Level:     ScanLevel(m[2]),
			Message:   msg,
			Fields:    fields,
		}, true
	}
	if m := goStdRe.FindStringSubmatch(raw); m != nil {
		return Parsed{
			Timestamp: parseTime(m[1], "2006/01/02 15:04:05.999999999"),
			TimeText:  m[1],
			Level:     ScanLevel(m[2]),
			Message:   m[2],
		}, true
	}
	return Parsed{}, false
}

func parseNginx(raw string) (Parsed, bool) {
	m := nginxRe.FindStringSubmatch(raw)
	if m == nil {
		return Parsed{}, false
	}
	status, _ := strconv.Atoi(m[5])
	fields := map[string]string{
		"remote":  m[1],
		"request": m[4],
		"status":  m[5],
		"bytes":   m[6],
	}
	if m[2] != "-" {
		fields["user"] = m[2]
	}
	if m[7] != "" && m[7] != "-" {
		fields["referer"] = m[7]
	}
	if m[8] != "" {
		fields["agent"] = m[8]
	}
	return Parsed{
		Timestamp: parseTime(m[3], "02/Jan/2006:15:04:05 -0700"),
		TimeText:  m[3],
		Level:     statusLevel(status),
		Message:   m[4] + " " + m[5],
		Fields:    fields,
	}, true
}

// statusLevel maps an HTTP status class onto a level
func statusLevel(status int) domain.LogLevel {
	switch {
	case status >= 500:
		return domain.LogLevelError
	case status >= 400:
		return domain.LogLevelWarn
	case status >= 300:
		return domain.LogLevelDebug
	case status >= 200:
		return domain.LogLevelInfo
	default:
		return domain.LogLevelUnknown
	}
}

func parseTime(s string, layouts ...string) *time.Time {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// logfmt splits key=value pairs, honoring double-quoted values
func logfmt(s string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(s); {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		for i < len(s) && s[i] != '=' && s[i] != ' ' {
			i++
		}
		key := s[start:i]
		if i >= len(s) || s[i] != '=' {
			continue
		}
		i++
		var val string
		if i < len(s) && s[i] == '"' {
			j := i + 1
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(s) {
				val = s[i+1:]
				i = len(s)
			} else {
				if uq, err := strconv.Unquote(s[i : j+1]); err == nil {
					val = uq
				} else {
					val = s[i+1 : j]
				}
				i = j + 1
			}
		} else {
			start = i
			for i < len(s) && s[i] != ' ' {
				i++
			}
			val = s[start:i]
		}
		if key != "" {
			out[key] = val
		}
	}
	return out
}
