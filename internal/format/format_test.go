package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vltamanec/logpulse/internal/domain"
)

const (
	laravelLine = `[2024-01-15 10:30:00] production.ERROR: Database connection failed`
	djangoLine  = `[15/Jan/2024 10:30:00] ERROR [django.request] Internal Server Error: /api/`
	slogLine    = `time=2024-01-15T10:30:00.000Z level=INFO msg="server started" port=8080`
	goStdLine   = `2024/01/15 10:30:00 listening on :8080`
	nginxLine   = `127.0.0.1 - - [15/Jan/2024:10:30:00 +0000] "GET /api HTTP/1.1" 500 1234 "-" "curl/8.0"`
	jsonLine    = `{"level":"error","msg":"x"}`
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		sample []string
		want   ID
	}{
		{"json", []string{jsonLine}, JSON},
		{"laravel", []string{laravelLine, "#0 /app/Handler.php(42)"}, Laravel},
		{"django", []string{djangoLine}, Django},
		{"go slog", []string{slogLine}, Go},
		{"go std", []string{goStdLine}, Go},
		{"nginx", []string{nginxLine, nginxLine}, Nginx},
		{"plain", []string{"hello", "world"}, Plain},
		{"empty", nil, Plain},
		{"tie goes to earlier recognizer", []string{jsonLine, laravelLine}, JSON},
		{"strictly greater score wins", []string{laravelLine, nginxLine, nginxLine}, Nginx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.sample))
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	sample := []string{jsonLine, laravelLine, djangoLine, slogLine, nginxLine, "plain"}
	first := Detect(sample)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Detect(sample))
	}
}

func TestScores(t *testing.T) {
	scores := Scores([]string{nginxLine, nginxLine, jsonLine})
	require.Len(t, scores, 5)
	assert.Equal(t, Score{Format: JSON, Matches: 1}, scores[0])
	assert.Equal(t, Score{Format: Nginx, Matches: 2}, scores[4])
}

func TestParseLaravel(t *testing.T) {
	p := Parse(Laravel, laravelLine)
	assert.Equal(t, domain.LogLevelError, p.Level)
	assert.Equal(t, "Database connection failed", p.Message)
	assert.Equal(t, "2024-01-15 10:30:00", p.TimeText)
	assert.Equal(t, "production", p.Fields["env"])
	require.NotNil(t, p.Timestamp)
	assert.Equal(t, 10, p.Timestamp.Hour())
}

func TestParseDjango(t *testing.T) {
	p := Parse(Django, djangoLine)
	assert.Equal(t, domain.LogLevelError, p.Level)
	assert.Equal(t, "django.request", p.Fields["logger"])
	assert.Equal(t, "Internal Server Error: /api/", p.Message)
	require.NotNil(t, p.Timestamp)
}

func TestParseGo(t *testing.T) {
	t.Run("slog text handler", func(t *testing.T) {
		p := Parse(Go, slogLine)
		assert.Equal(t, domain.LogLevelInfo, p.Level)
		assert.Equal(t, "server started", p.Message)
		assert.Equal(t, "8080", p.Fields["port"])
		require.NotNil(t, p.Timestamp)
	})

	t.Run("standard logger", func(t *testing.T) {
		p := Parse(Go, goStdLine)
		assert.Equal(t, "listening on :8080", p.Message)
		assert.Equal(t, "2024/01/15 10:30:00", p.TimeText)
		assert.Equal(t, domain.LogLevelUnknown, p.Level)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("named level", func(t *testing.T) {
		p := Parse(JSON, `{"level":"warning","message":"disk low","time":"2024-01-15T10:30:00Z"}`)
		assert.Equal(t, domain.LogLevelWarn, p.Level)
		assert.Equal(t, "disk low", p.Message)
		assert.Equal(t, "2024-01-15T10:30:00Z", p.TimeText)
		require.NotNil(t, p.Timestamp)
	})

	t.Run("numeric level", func(t *testing.T) {
		p := Parse(JSON, `{"level":50,"msg":"boom"}`)
		assert.Equal(t, domain.LogLevelError, p.Level)
		assert.Equal(t, "50", p.Fields["level"])
	})

	t.Run("invalid json degrades to plain", func(t *testing.T) {
		raw := `{not json ERROR}`
		p := Parse(JSON, raw)
		assert.Equal(t, raw, p.Message)
		assert.Equal(t, domain.LogLevelError, p.Level)
		assert.Nil(t, p.Fields)
	})
}

func TestNginxStatusLevels(t *testing.T) {
	tests := []struct {
		status string
		want   domain.LogLevel
	}{
		{"200", domain.LogLevelInfo},
		{"301", domain.LogLevelDebug},
		{"404", domain.LogLevelWarn},
		{"503", domain.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			line := `10.0.0.1 - - [15/Jan/2024:10:30:00 +0000] "GET / HTTP/1.1" ` + tt.status + ` 12`
			p := Parse(Nginx, line)
			assert.Equal(t, tt.want, p.Level)
			assert.Equal(t, tt.status, p.Fields["status"])
		})
	}
}

func TestParseMismatchFallsBackToPlain(t *testing.T) {
	p := Parse(Laravel, "WARN something odd")
	assert.Equal(t, "WARN something odd", p.Message)
	assert.Equal(t, domain.LogLevelWarn, p.Level)
	assert.Nil(t, p.Timestamp)
}

func TestScanLevel(t *testing.T) {
	tests := []struct {
		text string
		want domain.LogLevel
	}{
		{"ERROR: something broke", domain.LogLevelError},
		{"just text", domain.LogLevelUnknown},
		{"fatal error in worker", domain.LogLevelError},
		{"CRITICAL disk failure", domain.LogLevelError},
		{"[err] short form", domain.LogLevelError},
		{"WARNING: disk 91%", domain.LogLevelWarn},
		{"notice: rotated", domain.LogLevelInfo},
		{"level=debug", domain.LogLevelDebug},
		{"DBG cache miss", domain.LogLevelDebug},
		{"trace span=1", domain.LogLevelTrace},
		{"wrote to stderr", domain.LogLevelUnknown},
		{"interrupted by user", domain.LogLevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanLevel(tt.text))
		})
	}
}

func TestLooksLikeContinuation(t *testing.T) {
	for _, line := range []string{
		"    at com.example.Foo(Foo.java:42)",
		"\tat main.go:12",
		"#0 /app/Handler.php(42)",
		"Traceback (most recent call last):",
		"Caused by: java.io.IOException",
		`File "/app/views.py", line 3`,
		"",
	} {
		assert.True(t, LooksLikeContinuation(line), line)
	}
	assert.False(t, LooksLikeContinuation("server started"))
}

func TestIsPrimary(t *testing.T) {
	assert.True(t, IsPrimary(Laravel, laravelLine))
	assert.False(t, IsPrimary(Laravel, "#0 /app/Handler.php(42)"))
	assert.True(t, IsPrimary(Plain, "hello"))
	assert.False(t, IsPrimary(Plain, "  at x"))
}

func TestLooksLikeRecord(t *testing.T) {
	assert.True(t, LooksLikeRecord("2024-01-15 10:30:00 other shape"))
	assert.True(t, LooksLikeRecord("ERROR: standalone"))
	assert.True(t, LooksLikeRecord(nginxLine))
	assert.False(t, LooksLikeRecord("goroutine 1 [running]:"))
	assert.False(t, LooksLikeRecord("Stack trace:"))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in       string
		want     ID
		explicit bool
		wantErr  bool
	}{
		{"auto", Plain, false, false},
		{"", Plain, false, false},
		{"JSON", JSON, true, false},
		{"laravel", Laravel, true, false},
		{"golang", Go, true, false},
		{"apache", Nginx, true, false},
		{"plain", Plain, true, false},
		{"xml", Plain, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, explicit, err := ParseID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, tt.explicit, explicit)
		})
	}
}
