package output

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vltamanec/logpulse/internal/domain"
)

// EntryWriter is the headless sink for committed entries
type EntryWriter interface {
	Write(entry *domain.Entry) error
	WriteStatus(at time.Time, message string) error
	WriteSource(src SourceOutput) error
	WriteSummary(summary *Summary) error
}

// NDJSONWriter writes log entries as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // keep logs unescaped and avoid extra allocations
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// OutputEntry is the NDJSON form of one grouped entry
type OutputEntry struct {
	Type          string            `json:"type"` // Always "log"
	SchemaVersion int               `json:"schemaVersion"`
	Seq           uint64            `json:"seq"`
	Source        string            `json:"source"`
	Timestamp     string            `json:"timestamp,omitempty"` // RFC 3339, only when the line carried a parseable time
	TimeText      string            `json:"time_text,omitempty"`
	Level         string            `json:"level"`
	Message       string            `json:"message"`
	Raw           string            `json:"raw"`
	Fields        map[string]string `json:"fields,omitempty"`
	Continuations []string          `json:"continuations,omitempty"`
}

// StatusOutput carries a transient pipeline notification
type StatusOutput struct {
	Type          string `json:"type"` // Always "status"
	SchemaVersion int    `json:"schemaVersion"`
	Timestamp     string `json:"timestamp"`
	Message       string `json:"message"`
}

// SourceOutput announces a source and the format it is parsed with
type SourceOutput struct {
	Type          string `json:"type"` // Always "source"
	SchemaVersion int    `json:"schemaVersion"`
	Source        string `json:"source"`
	Kind          string `json:"kind,omitempty"`
	Format        string `json:"format"`
	Detected      bool   `json:"detected"`
}

// ErrorOutput describes a fatal startup failure
type ErrorOutput struct {
	Type          string `json:"type"` // Always "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// MetadataOutput describes the build
type MetadataOutput struct {
	Type          string `json:"type"` // Always "metadata"
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date,omitempty"`
}

// SummaryOutput wraps the end-of-run summary
type SummaryOutput struct {
	Type          string   `json:"type"` // Always "summary"
	SchemaVersion int      `json:"schemaVersion"`
	Summary       *Summary `json:"summary"`
}

// Write outputs a single log entry as NDJSON
func (w *NDJSONWriter) Write(entry *domain.Entry) error {
	out := OutputEntry{
		Type:          "log",
		SchemaVersion: SchemaVersion,
		Seq:           entry.Sequence,
		Source:        entry.SourceID,
		TimeText:      entry.TimeText,
		Level:         string(entry.Level),
		Message:       entry.Message,
		Raw:           entry.Raw,
		Fields:        entry.Fields,
		Continuations: entry.Continuations,
	}
	if entry.Timestamp != nil {
		out.Timestamp = entry.Timestamp.Format(time.RFC3339Nano)
	}
	return w.encoder.Encode(out)
}

// WriteStatus outputs a status notification
func (w *NDJSONWriter) WriteStatus(at time.Time, message string) error {
	return w.encoder.Encode(&StatusOutput{
		Type:          "status",
		SchemaVersion: SchemaVersion,
		Timestamp:     at.Format(time.RFC3339Nano),
		Message:       message,
	})
}

// WriteSource outputs a source announcement
func (w *NDJSONWriter) WriteSource(src SourceOutput) error {
	src.Type = "source"
	src.SchemaVersion = SchemaVersion
	return w.encoder.Encode(&src)
}

// WriteError outputs an error
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.encoder.Encode(out)
}

// WriteMetadata outputs build metadata
func (w *NDJSONWriter) WriteMetadata(version, commit, buildDate string) error {
	return w.encoder.Encode(&MetadataOutput{
		Type:          "metadata",
		SchemaVersion: SchemaVersion,
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
	})
}

// WriteSummary outputs the end-of-run summary
func (w *NDJSONWriter) WriteSummary(summary *Summary) error {
	return w.encoder.Encode(&SummaryOutput{
		Type:          "summary",
		SchemaVersion: SchemaVersion,
		Summary:       summary,
	})
}

// WriteRaw outputs raw JSON data
func (w *NDJSONWriter) WriteRaw(v interface{}) error {
	return w.encoder.Encode(v)
}

// TextWriter writes log entries as formatted text
type TextWriter struct {
	w        io.Writer
	color    bool
	multiSrc bool
}

// NewTextWriter creates a new text writer. Styles apply only when color
// is set; a redirected stdout gets plain lines.
func NewTextWriter(w io.Writer, color bool) *TextWriter {
	return &TextWriter{w: w, color: color}
}

// ShowSource prefixes every line with its source id
func (w *TextWriter) ShowSource(on bool) {
	w.multiSrc = on
}

func (w *TextWriter) render(style lipgloss.Style, s string) string {
	if !w.color {
		return s
	}
	return style.Render(s)
}

// Write outputs a single log entry as styled text
func (w *TextWriter) Write(entry *domain.Entry) error {
	var b strings.Builder
	if w.multiSrc {
		b.WriteString(w.render(Styles.Source, "["+entry.SourceID+"]"))
		b.WriteByte(' ')
	}
	if entry.Level != domain.LogLevelUnknown {
		b.WriteString(w.render(LevelStyle(entry.Level), entry.Level.Short()))
		b.WriteByte(' ')
	}
	b.WriteString(w.render(LevelStyle(entry.Level), entry.Raw))
	b.WriteByte('\n')
	for _, c := range entry.Continuations {
		b.WriteString(w.render(Styles.Continuation, c))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteStatus outputs a status notification
func (w *TextWriter) WriteStatus(_ time.Time, message string) error {
	_, err := io.WriteString(w.w, w.render(Styles.Warning, "-- "+message)+"\n")
	return err
}

// WriteSource outputs a source announcement
func (w *TextWriter) WriteSource(src SourceOutput) error {
	line := w.render(Styles.Label, "source ") + w.render(Styles.Source, src.Source) +
		w.render(Styles.Label, " format ") + w.render(Styles.Value, src.Format)
	_, err := io.WriteString(w.w, line+"\n")
	return err
}

// WriteSummary outputs a styled summary
func (w *TextWriter) WriteSummary(summary *Summary) error {
	line := "\n" + w.render(Styles.Header, "Summary") + "\n"
	line += w.render(Styles.Label, "Total: ") + w.render(Styles.Value, itoa(summary.Total)) + " | "
	if summary.Errors > 0 {
		line += w.render(Styles.Danger, "Errors: "+itoa(summary.Errors)) + " | "
	} else {
		line += w.render(Styles.Label, "Errors: ") + w.render(Styles.Value, "0") + " | "
	}
	if summary.Warnings > 0 {
		line += w.render(Styles.Warning, "Warnings: "+itoa(summary.Warnings))
	} else {
		line += w.render(Styles.Label, "Warnings: ") + w.render(Styles.Value, "0")
	}
	line += "\n"
	for _, p := range summary.TopErrors {
		line += w.render(Styles.Label, "  "+itoa(p.Count)+"x ") + p.Pattern + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	negative := i < 0
	if negative {
		i = -i
	}

	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
