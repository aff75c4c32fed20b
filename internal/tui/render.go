package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/engine"
	"github.com/vltamanec/logpulse/internal/output"
	"github.com/vltamanec/logpulse/internal/query"
)

var (
	sparkBlocks = []rune("▁▂▃▄▅▆▇█")
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	snap := m.eng.Snapshot(m.offset, m.feedHeight())

	var body string
	if m.detail {
		body = lipgloss.Place(m.width, m.feedHeight(), lipgloss.Center, lipgloss.Center,
			borderStyle.Width(m.detailWidth()-4).Render(m.detailView.View()))
	} else {
		body = m.renderFeed(&snap)
	}
	return m.renderHeader(&snap) + "\n" + body + "\n" + m.renderFooter(&snap)
}

func (m Model) renderHeader(snap *engine.Snapshot) string {
	title := output.Styles.Title.Render("LogPulse")
	stats := fmt.Sprintf(" %s | EPS: %d | %s | Total: %d",
		m.opts.Title,
		snap.Rate,
		output.StatusStyle(snap.Counts.Errors).Render(fmt.Sprintf("Errors: %d", snap.Counts.Errors)),
		snap.Counts.Total)

	var badges []string
	if snap.Paused {
		badges = append(badges, output.Styles.Paused.Render("PAUSED"))
	}
	if snap.ErrorsOnly {
		badges = append(badges, output.Styles.Danger.Render("[ERRORS]"))
	}
	if snap.Filter != "" {
		badges = append(badges, output.Styles.Label.Render(fmt.Sprintf("filter %q", snap.Filter)))
	}
	for _, h := range snap.Highlights {
		badges = append(badges, output.HighlightStyle(h.Color).Render(h.Pattern))
	}
	line := title + stats
	if len(badges) > 0 {
		line += " " + strings.Join(badges, " ")
	}

	formats := make([]string, 0, len(snap.Sources))
	for _, src := range snap.Sources {
		f := src.ID + ":" + src.Format
		if !src.Detected {
			f += "?"
		}
		if src.Ended {
			f += " (ended)"
		}
		formats = append(formats, f)
	}
	info := output.Styles.Label.Render(strings.Join(formats, "  "))
	graphWidth := m.width - lipgloss.Width(info) - 1
	graph := output.Styles.Graph.Render(sparkline(snap.Activity, graphWidth))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(line) + "\n" +
		lipgloss.NewStyle().MaxWidth(m.width).Render(info+" "+graph)
}

// sparkline draws the newest width counts scaled to the largest of them
func sparkline(counts []int, width int) string {
	if width <= 0 || len(counts) == 0 {
		return ""
	}
	if len(counts) > width {
		counts = counts[len(counts)-width:]
	}
	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}
	var b strings.Builder
	for _, c := range counts {
		if peak == 0 || c == 0 {
			b.WriteRune(' ')
			continue
		}
		idx := c * (len(sparkBlocks) - 1) / peak
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func (m Model) renderFeed(snap *engine.Snapshot) string {
	height := m.feedHeight()
	lines := make([]string, 0, height)
	for i := range snap.Rows {
		lines = append(lines, m.renderRow(&snap.Rows[i]))
	}
	if len(lines) == 0 {
		msg := "Waiting for log lines..."
		if snap.Counts.Stored > 0 {
			msg = "No entries match the current filter"
		}
		lines = append(lines, output.Styles.Help.Render(msg))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(row *engine.Row) string {
	entry := &row.Entry
	gutter := "  "
	if row.CurrentMatch {
		gutter = output.Styles.CurrentMatch.Render("▶") + " "
	}

	var prefix string
	if entry.Level != domain.LogLevelUnknown {
		prefix = output.LevelStyle(entry.Level).Render(entry.Level.Short()) + " "
	}

	text := paint(entry.Raw, entry.Level, row.Highlights, row.SearchSpans, row.CurrentMatch, m.hscroll)
	if row.Continuations > 0 {
		badge := output.Styles.Continuation
		if row.ContinuationMatch() {
			badge = output.Styles.Search
		}
		text += badge.Render(fmt.Sprintf(" (+%d)", row.Continuations))
	}

	line := gutter + prefix + text
	style := lipgloss.NewStyle().MaxWidth(m.width)
	if row.Selected {
		style = output.Styles.Selected.MaxWidth(m.width).Width(m.width)
	}
	return style.Render(line)
}

type segment struct {
	start, end int
	style      lipgloss.Style
}

// paint styles raw by level, then highlight spans, then search spans, and
// drops the first skip runes.
func paint(raw string, level domain.LogLevel, highlights []query.Span, searchSpans [][2]int, current bool, skip int) string {
	return paintWith(raw, output.LevelStyle(level), highlights, searchSpans, current, skip)
}

func paintWith(raw string, base lipgloss.Style, highlights []query.Span, searchSpans [][2]int, current bool, skip int) string {
	search := output.Styles.Search
	if current {
		search = output.Styles.CurrentMatch
	}

	var segs []segment
	for _, h := range highlights {
		segs = append(segs, segment{h.Start, h.End, output.HighlightStyle(h.Color)})
	}
	for _, s := range searchSpans {
		segs = append(segs, segment{s[0], s[1], search})
	}

	cut := skipRunes(raw, skip)
	bounds := []int{cut, len(raw)}
	for _, s := range segs {
		bounds = append(bounds, s.start, s.end)
	}
	sort.Ints(bounds)

	var b strings.Builder
	prev := cut
	for _, at := range bounds {
		if at <= prev || at > len(raw) {
			continue
		}
		style := base
		// later segments win, so search paints over highlights
		for _, s := range segs {
			if s.start <= prev && at <= s.end {
				style = s.style
			}
		}
		b.WriteString(style.Render(raw[prev:at]))
		prev = at
	}
	return b.String()
}

// skipRunes returns the byte offset after the first n runes of s
func skipRunes(s string, n int) int {
	off := 0
	for i := 0; i < n && off < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[off:])
		off += size
	}
	return off
}

func (m Model) renderFooter(snap *engine.Snapshot) string {
	var first string
	switch {
	case m.mode != modeNormal:
		first = promptStyle.Render(m.input.View())
	case snap.Status != "":
		first = output.Styles.Warning.Render(snap.Status)
	default:
		var parts []string
		if snap.Search != "" {
			parts = append(parts, fmt.Sprintf("search %q %d/%d", snap.Search, snap.SearchPos, snap.SearchTotal))
		}
		parts = append(parts, fmt.Sprintf("%d/%d shown", snap.Visible, snap.Counts.Stored))
		if snap.Counts.Pending > 0 {
			parts = append(parts, fmt.Sprintf("pending %d", snap.Counts.Pending))
		}
		if snap.Counts.Dropped > 0 {
			parts = append(parts, output.Styles.Danger.Render(fmt.Sprintf("dropped %d", snap.Counts.Dropped)))
		}
		if !snap.Following {
			parts = append(parts, "row "+fmt.Sprint(snap.Selected+1))
		}
		first = output.Styles.Label.Render(strings.Join(parts, " | "))
	}

	second := m.help.View(m.keys)
	if m.detail {
		second = output.Styles.Help.Render("esc/q close  ↑↓ scroll")
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(first) + "\n" +
		lipgloss.NewStyle().MaxWidth(m.width).Render(second)
}

// renderDetail lays out one entry for the detail modal. JSON lines are
// pretty printed; everything else gets its parsed fields followed by the
// raw text. Continuation lines carry spans, one element per line, when
// spans is not nil.
func renderDetail(entry *domain.Entry, spans []engine.LineSpans, width int) string {
	var b strings.Builder
	raw := strings.TrimSpace(entry.Raw)
	if strings.HasPrefix(raw, "{") && gjson.Valid(raw) {
		b.WriteString(gjson.Get(raw, "@pretty").String())
	} else {
		label := output.Styles.Label
		if entry.TimeText != "" {
			b.WriteString(label.Render("Timestamp: ") + entry.TimeText + "\n")
		}
		b.WriteString(label.Render("Level: ") + output.LevelStyle(entry.Level).Render(string(entry.Level)) + "\n")
		b.WriteString(label.Render("Source: ") + entry.SourceID + "\n")
		if entry.Message != "" {
			b.WriteString(label.Render("Message: ") + entry.Message + "\n")
		}
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(label.Render(k+": ") + entry.Fields[k] + "\n")
		}
		b.WriteString("\n" + label.Render("--- Raw ---") + "\n" + entry.Raw)
	}
	for i, c := range entry.Continuations {
		if i < len(spans) {
			b.WriteString("\n" + paintWith(c, output.Styles.Continuation, spans[i].Highlights, spans[i].SearchSpans, false, 0))
			continue
		}
		b.WriteString("\n" + output.Styles.Continuation.Render(c))
	}
	if width > 0 {
		return lipgloss.NewStyle().Width(width).Render(b.String())
	}
	return b.String()
}
