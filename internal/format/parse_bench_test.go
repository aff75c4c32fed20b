package format

import "testing"

func BenchmarkParseJSON(b *testing.B) {
	line := `{"time":"2024-01-15T10:30:00.123Z","level":"error","msg":"Connection failed","service":"api","request_id":"9f1c2a","latency_ms":412}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if p := Parse(JSON, line); p.Message == "" {
			b.Fatal("no message")
		}
	}
}

func BenchmarkParseLaravel(b *testing.B) {
	line := "[2024-01-15 10:30:00] production.ERROR: SQLSTATE[HY000] [2002] Connection refused"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(Laravel, line)
	}
}

func BenchmarkDetect(b *testing.B) {
	sample := make([]string, 0, SampleSize)
	for len(sample) < SampleSize {
		sample = append(sample,
			`127.0.0.1 - - [15/Jan/2024:10:30:00 +0000] "GET /health HTTP/1.1" 200 2 "-" "kube-probe/1.28"`,
			`10.0.0.7 - - [15/Jan/2024:10:30:01 +0000] "POST /api/orders HTTP/1.1" 502 157 "-" "curl/8.4.0"`)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if Detect(sample) != Nginx {
			b.Fatal("expected nginx")
		}
	}
}

func BenchmarkScanLevel(b *testing.B) {
	line := "2024/01/15 10:30:00 worker 3: retrying after WARNING from upstream"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ScanLevel(line)
	}
}
