package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/vltamanec/logpulse/internal/cli"
	"github.com/vltamanec/logpulse/internal/config"
	"github.com/vltamanec/logpulse/internal/logging"
)

const description = `Real-time log viewer with format detection and stack trace grouping.

  logpulse app.log                       Follow a file
  logpulse app.log worker.log            Follow several files
  kubectl logs -f api | logpulse         Read stdin
  logpulse docker myapi                  Container by name prefix, reconnects
  logpulse ssh user@host docker myapi    Container on a remote host
  logpulse ssh user@host /var/log/app.log
  logpulse k8s -l app=api -n prod        Pod by label
  logpulse compose api                   Compose service

Keys: space pause, / filter, ? search, n/N next/prev, e errors only,
* highlight, enter details, y copy, s save, g go to time, q quit`

func main() {
	// Load configuration from files/environment before parsing so it can
	// seed flag defaults.
	cfg, meta, err := config.LoadWithMeta(cli.ConfigPathFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
		meta = config.Meta{}
	}

	var c cli.CLI

	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format":      cfg.Format,
		"config_buffer_size": strconv.Itoa(cfg.BufferSize),
		"config_log_file":    cfg.LogFile,
		"config_tail_lines":  strconv.Itoa(cfg.TailLines),
		"config_sample_size": strconv.Itoa(cfg.SampleSize),
	}

	ctx := kong.Parse(&c,
		kong.Name("logpulse"),
		kong.Description(description),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	globals.ConfigFile = meta.Path

	logOpts := logging.Options{Path: globals.LogFile, Verbose: globals.Verbose}
	if globals.NoTUI {
		// stderr is free only when the viewer does not own the terminal
		logOpts.Console = os.Stderr
	}
	log, closeLog, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		log, closeLog, _ = logging.New(logging.Options{})
	}
	globals.Log = log

	err = ctx.Run(globals)
	_ = closeLog()
	if err != nil {
		// CLIErrors were already reported in the requested format
		var cliErr *cli.CLIError
		if !errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
