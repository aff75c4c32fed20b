package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vltamanec/logpulse/internal/config"
	"github.com/vltamanec/logpulse/internal/domain"
	"github.com/vltamanec/logpulse/internal/engine"
	"github.com/vltamanec/logpulse/internal/format"
	"github.com/vltamanec/logpulse/internal/output"
	"github.com/vltamanec/logpulse/internal/prefs"
	"github.com/vltamanec/logpulse/internal/source"
	"github.com/vltamanec/logpulse/internal/tui"
)

// shutdownGrace bounds the wait for sources after the presenter exits.
// A stdin read cannot be interrupted, so the process exits without it.
const shutdownGrace = 500 * time.Millisecond

// runPipeline wires sources into the engine and hands it to a presenter
// until the user quits, a signal arrives or (headless) every source ends.
func runPipeline(globals *Globals, title string, sources []source.Source) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, globals, title, sources)
}

func run(parent context.Context, globals *Globals, title string, sources []source.Source) error {
	if len(sources) == 0 {
		return outputErrorCommon(globals, "NO_SOURCES", engine.ErrNoSources.Error(), "Pass a file, pipe into stdin, or use docker/ssh/k8s/compose")
	}
	id, forced, err := format.ParseID(globals.Format)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_FORMAT", err.Error())
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	log := globals.logger()
	clk := globals.clock()

	for _, src := range sources {
		p, ok := src.(source.Preparer)
		if !ok {
			continue
		}
		if err := p.Prepare(ctx); err != nil {
			return outputErrorCommon(globals, "SOURCE_UNAVAILABLE", fmt.Sprintf("%s: %v", src.ID(), err), hintForSource(err))
		}
	}

	mux := source.NewMux(source.DefaultMuxBuffer, clk, log)
	eng := engine.New(engineConfig(globals, id, forced), mux, clk, log)
	for _, src := range sources {
		info := engine.SourceInfo{ID: src.ID()}
		if k, ok := src.(source.Kinded); ok {
			info.Kind = k.Kind()
		}
		if b, ok := src.(source.Backfiller); ok {
			info.Backfiller = b
		}
		eng.Register(info)
		log.Debug("source registered", zap.String("source", info.ID), zap.String("kind", string(info.Kind)))
	}

	// source failures surface as status lines, never as a group error
	var g errgroup.Group
	for _, src := range sources {
		mux.Go(ctx, &g, src)
	}

	if globals.NoTUI {
		err = runHeadless(ctx, globals, eng, len(sources) > 1, forced)
	} else {
		err = runTUI(ctx, globals, eng, title)
	}

	cancel()
	waitSources(&g, clk, shutdownGrace, log)
	return err
}

func engineConfig(globals *Globals, id format.ID, forced bool) engine.Config {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}
	capacity := globals.BufferSize
	if capacity <= 0 {
		capacity = cfg.BufferSize
	}
	return engine.Config{
		Capacity:     capacity,
		BatchSize:    cfg.BatchSize,
		PendingLimit: cfg.PendingLimit,
		HistoryChunk: cfg.HistoryChunk,
		SampleSize:   cfg.SampleSize,
		Window:       cfg.EPSWindow,
		StatusTTL:    cfg.StatusTTL,
		Format:       id,
		Forced:       forced,
	}
}

func waitSources(g *errgroup.Group, clk clock.Clock, grace time.Duration, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-clk.After(grace):
		log.Debug("sources still running at exit", zap.Duration("grace", grace))
	}
}

func runTUI(ctx context.Context, globals *Globals, eng *engine.Engine, title string) error {
	log := globals.logger()
	path := globals.PrefsPath
	if path == "" {
		path = prefs.DefaultPath()
	}
	saved, err := prefs.Load(path)
	if err != nil {
		log.Warn("load prefs", zap.Error(err))
	}
	presets := prefs.Presets(globals.Config.Highlights, saved.Highlights)
	for _, pattern := range presets {
		if err := eng.AddHighlight(pattern); err != nil {
			log.Warn("skip highlight preset", zap.String("pattern", pattern), zap.Error(err))
		}
	}

	model := tui.New(eng, tui.Options{Title: title, Tick: globals.Config.TickInterval})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if current := highlightPatterns(eng); !slices.Equal(current, saved.Highlights) {
		if err := prefs.Save(path, prefs.Prefs{Highlights: current}); err != nil {
			log.Warn("save prefs", zap.Error(err))
		}
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", runErr)
	}
	return nil
}

func highlightPatterns(eng *engine.Engine) []string {
	snap := eng.Snapshot(0, 0)
	out := make([]string, 0, len(snap.Highlights))
	for _, h := range snap.Highlights {
		out = append(out, h.Pattern)
	}
	return out
}

// headless streams committed entries to an EntryWriter
type headless struct {
	eng    *engine.Engine
	w      output.EntryWriter
	forced bool
	now    func() time.Time

	last    uint64
	status  string
	formats map[string]string
}

func newEntryWriter(globals *Globals, multi bool) output.EntryWriter {
	if globals.Output == "text" {
		color := false
		if f, ok := globals.Stdout.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd())
		}
		w := output.NewTextWriter(globals.Stdout, color)
		w.ShowSource(multi)
		return w
	}
	return output.NewNDJSONWriter(globals.Stdout)
}

func runHeadless(ctx context.Context, globals *Globals, eng *engine.Engine, multi, forced bool) error {
	clk := globals.clock()
	h := &headless{
		eng:     eng,
		w:       newEntryWriter(globals, multi),
		forced:  forced,
		now:     clk.Now,
		formats: make(map[string]string),
	}

	interval := globals.Config.TickInterval
	if interval <= 0 {
		interval = tui.DefaultTick
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			eng.Tick(clk.Now())
			return h.finish()
		case now := <-ticker.C:
			eng.Tick(now)
			if err := h.emit(); err != nil {
				return err
			}
			if h.done() {
				return h.finish()
			}
		}
	}
}

// done reports whether every source has ended and nothing is left to parse
func (h *headless) done() bool {
	if !h.eng.Idle() {
		return false
	}
	for _, src := range h.eng.Snapshot(0, 0).Sources {
		if !src.Ended {
			return false
		}
	}
	return true
}

func (h *headless) emit() error {
	snap := h.eng.Snapshot(0, 0)
	for _, src := range snap.Sources {
		if !src.Detected || h.formats[src.ID] == src.Format {
			continue
		}
		h.formats[src.ID] = src.Format
		out := output.SourceOutput{
			Source:   src.ID,
			Kind:     string(src.Kind),
			Format:   src.Format,
			Detected: !h.forced,
		}
		if err := h.w.WriteSource(out); err != nil {
			return fmt.Errorf("write source: %w", err)
		}
	}

	entries := h.eng.Closed(h.last)
	for i := range entries {
		if err := h.w.Write(&entries[i]); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
		h.last = entries[i].Sequence
	}

	if snap.Status != "" && snap.Status != h.status {
		if err := h.w.WriteStatus(h.now(), snap.Status); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
	}
	h.status = snap.Status
	return nil
}

// finish closes open entries, writes what is left and a final summary
func (h *headless) finish() error {
	h.eng.Flush()
	if err := h.emit(); err != nil {
		return err
	}

	var stored []domain.Entry
	h.eng.Store().Each(func(_ int, e *domain.Entry) bool {
		stored = append(stored, *e)
		return true
	})
	summary := output.NewAnalyzer().Summarize(stored)
	summary.Dropped = h.eng.Snapshot(0, 0).Counts.Dropped
	if err := h.w.WriteSummary(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
