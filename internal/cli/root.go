package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vltamanec/logpulse/internal/config"
)

// CLI is the root command structure for logpulse
type CLI struct {
	// Global flags
	Format     string `short:"f" default:"${config_format}" help:"Log format: auto, json, laravel, django, go, nginx, plain"`
	ConfigPath string `name:"config" type:"path" placeholder:"FILE" help:"Config file (default: search ./.logpulse.yaml, ~/.logpulse.yaml, ...)"`
	Verbose    bool   `short:"v" help:"Write debug logging (to --log-file, or stderr with --no-tui)"`
	LogFile    string `name:"log-file" default:"${config_log_file}" placeholder:"FILE" help:"Append internal logs to this file"`
	BufferSize int    `name:"buffer-size" default:"${config_buffer_size}" help:"Maximum entries kept in memory"`
	NoTUI      bool   `name:"no-tui" help:"Stream committed entries to stdout instead of opening the viewer"`
	Output     string `short:"o" default:"ndjson" enum:"ndjson,text" help:"Output format for --no-tui"`

	// Commands
	Tail       TailCmd       `cmd:"" default:"withargs" help:"Follow log files, or stdin when piped"`
	Docker     DockerCmd     `cmd:"" help:"Follow a Docker container (prefix match, reconnects on restart)"`
	SSH        SSHCmd        `cmd:"" name:"ssh" help:"Follow a remote file or a remote Docker container over SSH"`
	K8s        K8sCmd        `cmd:"" name:"k8s" help:"Follow Kubernetes pod logs"`
	Compose    ComposeCmd    `cmd:"" help:"Follow a Docker Compose service"`
	Detect     DetectCmd     `cmd:"" help:"Print the format detection scorecard for a file"`
	Config     ConfigCmd     `cmd:"" help:"Show the effective configuration"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
	Version    VersionCmd    `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format     string
	Verbose    bool
	LogFile    string
	BufferSize int
	NoTUI      bool
	Output     string

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	Config     *config.Config
	ConfigFile string
	PrefsPath  string
	Log        *zap.Logger
	Clock      clock.Clock
}

// NewGlobals creates a new Globals instance from CLI flags
func NewGlobals(cli *CLI) *Globals {
	return NewGlobalsWithConfig(cli, config.Default())
}

// NewGlobalsWithConfig creates a new Globals instance. Flag defaults were
// already seeded from cfg through kong vars, so parsed flags win.
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config) *Globals {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Globals{
		Format:     cli.Format,
		Verbose:    cli.Verbose,
		LogFile:    cli.LogFile,
		BufferSize: cli.BufferSize,
		NoTUI:      cli.NoTUI,
		Output:     cli.Output,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Config:     cfg,
		Clock:      clock.New(),
	}
	if g.Format == "" {
		g.Format = cfg.Format
	}
	if g.BufferSize <= 0 {
		g.BufferSize = cfg.BufferSize
	}
	if g.LogFile == "" {
		g.LogFile = cfg.LogFile
	}
	return g
}

func (g *Globals) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}

func (g *Globals) clock() clock.Clock {
	if g.Clock == nil {
		return clock.New()
	}
	return g.Clock
}

// Debug logs a debug message through the internal logger
func (g *Globals) Debug(format string, args ...interface{}) {
	g.logger().Debug(fmt.Sprintf(format, args...))
}

// ConfigPathFromArgs finds an explicit --config value ahead of parsing, so
// the file can seed flag defaults.
func ConfigPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// VersionCmd shows version information
type VersionCmd struct {
	JSON bool `help:"Print as JSON"`
}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if v.JSON {
		io.WriteString(globals.Stdout, `{"type":"version","version":"`+Version+`","commit":"`+Commit+`"}`+"\n")
	} else {
		io.WriteString(globals.Stdout, "logpulse version "+Version+" ("+Commit+")\n")
	}
	return nil
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
