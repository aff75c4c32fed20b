package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	// Log level styles
	Trace   lipgloss.Style
	Debug   lipgloss.Style
	Info    lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Unknown lipgloss.Style

	// Component styles
	Timestamp    lipgloss.Style
	Source       lipgloss.Style
	Continuation lipgloss.Style
	Message      lipgloss.Style

	// Summary styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style

	// TUI styles
	Title        lipgloss.Style
	StatusBar    lipgloss.Style
	Selected     lipgloss.Style
	Help         lipgloss.Style
	Search       lipgloss.Style
	CurrentMatch lipgloss.Style
	Paused       lipgloss.Style
	Graph        lipgloss.Style
}{
	// Log levels - distinctive colors
	Trace:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),            // Dark gray
	Debug:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),            // Gray
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // Cyan
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),            // Orange
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red bold
	Unknown: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),            // White

	// Components
	Timestamp:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Source:       lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	Continuation: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Message:      lipgloss.NewStyle(),

	// Summary
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("239")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

	// TUI
	Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
	StatusBar:    lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")).Padding(0, 1),
	Selected:     lipgloss.NewStyle().Background(lipgloss.Color("237")),
	Help:         lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Search:       lipgloss.NewStyle().Underline(true),
	CurrentMatch: lipgloss.NewStyle().Background(lipgloss.Color("208")).Foreground(lipgloss.Color("0")),
	Paused:       lipgloss.NewStyle().Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0")).Bold(true).Padding(0, 1),
	Graph:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
}

// HighlightPalette holds the background colors for highlight slots
var HighlightPalette = []lipgloss.Color{
	lipgloss.Color("226"), // yellow
	lipgloss.Color("51"),  // cyan
	lipgloss.Color("213"), // magenta
	lipgloss.Color("118"), // green
}

// HighlightStyle returns the style painting highlight slot color
func HighlightStyle(color int) lipgloss.Style {
	bg := HighlightPalette[((color%len(HighlightPalette))+len(HighlightPalette))%len(HighlightPalette)]
	return lipgloss.NewStyle().Background(bg).Foreground(lipgloss.Color("0"))
}

// LevelStyle returns the appropriate style for a log level
func LevelStyle(level domain.LogLevel) lipgloss.Style {
	switch level {
	case domain.LogLevelTrace:
		return Styles.Trace
	case domain.LogLevelDebug:
		return Styles.Debug
	case domain.LogLevelInfo:
		return Styles.Info
	case domain.LogLevelWarn:
		return Styles.Warn
	case domain.LogLevelError:
		return Styles.Error
	default:
		return Styles.Unknown
	}
}

// LevelIndicator returns a styled level indicator
func LevelIndicator(level domain.LogLevel) string {
	return LevelStyle(level).Render(level.Short())
}

// StatusStyle returns a style based on the error count
func StatusStyle(errors uint64) lipgloss.Style {
	if errors > 0 {
		return Styles.Danger
	}
	return Styles.Success
}
