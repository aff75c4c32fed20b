package cli

import (
	"encoding/json"
	"fmt"

	"github.com/vltamanec/logpulse/internal/config"
)

// ConfigCmd shows or manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"withargs" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate sample configuration file"`
}

// ConfigShowCmd shows current configuration
type ConfigShowCmd struct {
	JSON bool `help:"Print as JSON"`
}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if c.JSON {
		out := map[string]interface{}{
			"type":          "config",
			"file":          globals.ConfigFile,
			"format":        globals.Format,
			"buffer_size":   globals.BufferSize,
			"batch_size":    cfg.BatchSize,
			"pending_limit": cfg.PendingLimit,
			"history_chunk": cfg.HistoryChunk,
			"tail_lines":    cfg.TailLines,
			"sample_size":   cfg.SampleSize,
			"eps_window":    cfg.EPSWindow,
			"status_ttl":    cfg.StatusTTL.String(),
			"tick_interval": cfg.TickInterval.String(),
			"reconnect": map[string]string{
				"interval": cfg.Reconnect.Interval.String(),
				"max_wait": cfg.Reconnect.MaxWait.String(),
			},
			"log_file":   globals.LogFile,
			"highlights": cfg.Highlights,
		}
		encoder := json.NewEncoder(globals.Stdout)
		return encoder.Encode(out)
	}

	// Text output
	w := globals.Stdout
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "  format:        %s\n", globals.Format)
	fmt.Fprintf(w, "  buffer_size:   %d\n", globals.BufferSize)
	fmt.Fprintf(w, "  batch_size:    %d\n", cfg.BatchSize)
	fmt.Fprintf(w, "  pending_limit: %d\n", cfg.PendingLimit)
	fmt.Fprintf(w, "  history_chunk: %d\n", cfg.HistoryChunk)
	fmt.Fprintf(w, "  tail_lines:    %d\n", cfg.TailLines)
	fmt.Fprintf(w, "  sample_size:   %d\n", cfg.SampleSize)
	fmt.Fprintf(w, "  eps_window:    %d\n", cfg.EPSWindow)
	fmt.Fprintf(w, "  status_ttl:    %s\n", cfg.StatusTTL)
	fmt.Fprintf(w, "  tick_interval: %s\n", cfg.TickInterval)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Reconnect:")
	fmt.Fprintf(w, "  interval: %s\n", cfg.Reconnect.Interval)
	fmt.Fprintf(w, "  max_wait: %s\n", cfg.Reconnect.MaxWait)

	if globals.LogFile != "" {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Log file: %s\n", globals.LogFile)
	}
	if len(cfg.Highlights) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Highlights: %v\n", cfg.Highlights)
	}

	if globals.ConfigFile != "" {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Loaded from: %s\n", globals.ConfigFile)
	}

	return nil
}

// ConfigPathCmd shows config file path
type ConfigPathCmd struct {
	JSON bool `help:"Print as JSON"`
}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := globals.ConfigFile
	if path == "" {
		path = config.ConfigFile()
	}

	if c.JSON {
		out := map[string]interface{}{
			"type": "config_path",
			"path": path,
		}
		encoder := json.NewEncoder(globals.Stdout)
		return encoder.Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "")
		fmt.Fprintln(globals.Stdout, "Create one at:")
		fmt.Fprintln(globals.Stdout, "  ./.logpulse.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.logpulse.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.config/logpulse/config.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}

	return nil
}

// ConfigGenerateCmd generates a sample configuration file
type ConfigGenerateCmd struct{}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	sampleConfig := `# logpulse configuration file
# Place this file at ./.logpulse.yaml, ~/.logpulse.yaml or
# ~/.config/logpulse/config.yaml. LOGPULSE_* environment variables
# override it (LOGPULSE_BUFFER_SIZE, LOGPULSE_RECONNECT_MAX_WAIT, ...).

# Log format: auto (detect per source), json, laravel, django, go, nginx, plain
format: auto

# Maximum entries kept in memory; the oldest are evicted first
buffer_size: 10000

# Lines parsed per refresh, and lines queued before the oldest are dropped
batch_size: 5000
pending_limit: 1000000

# Lines loaded per step when scrolling above the first loaded entry
history_chunk: 500

# Lines of existing content shown when a file is opened
tail_lines: 1000

# Lines sampled before a source's format is detected
sample_size: 20

# Seconds of history in the activity graph
eps_window: 60

status_ttl: 3s
tick_interval: 100ms

# Container and remote docker sources retry while the target is missing
reconnect:
  interval: 2s
  max_wait: 5m

# Internal diagnostics (the viewer owns the terminal)
# log_file: /tmp/logpulse.log

# Highlight patterns applied at startup (at most 4 are shown)
# highlights:
#   - timeout
#   - user_id=\d+
`

	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
