package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/vltamanec/logpulse/internal/domain"
)

// Reconnect controls how a command source waits for its target to return
type Reconnect struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// DefaultReconnect retries every 2s for up to 5 minutes
var DefaultReconnect = Reconnect{Interval: 2 * time.Second, MaxWait: 5 * time.Minute}

// Process is a started external command
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader // nil when stderr is discarded
	Wait() error
}

// Runner executes external commands
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Start(ctx context.Context, stderr bool, name string, args ...string) (Process, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Output runs the command and returns its stdout
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, firstLine(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Start launches the command with piped output
func (ExecRunner) Start(ctx context.Context, stderr bool, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var errPipe io.Reader
	if stderr {
		if errPipe, err = cmd.StderrPipe(); err != nil {
			return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: errPipe}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }
func (p *execProcess) Wait() error       { return p.cmd.Wait() }

// CommandSpec describes how to reach one remote log stream
type CommandSpec struct {
	ID   string
	Kind domain.SourceKind

	// Resolve finds the current target (container, pod). It is rerun
	// before every reconnect. Nil means the target is fixed.
	Resolve func(ctx context.Context, r Runner) (string, error)
	// Argv builds the streaming command for a resolved target
	Argv func(target string) []string

	// Noun names the target in notice lines, e.g. "container"
	Noun string
	// Stderr merges the command's stderr into the stream
	Stderr bool
	// Reconnect restarts the stream when the command exits
	Reconnect bool
}

// Command streams the output of an external command
type Command struct {
	spec      CommandSpec
	runner    Runner
	clk       clock.Clock
	log       *zap.Logger
	reconnect Reconnect

	mu     sync.Mutex
	target string
}

// CommandOption configures a Command
type CommandOption func(*Command)

// WithRunner replaces the process runner
func WithRunner(r Runner) CommandOption {
	return func(c *Command) { c.runner = r }
}

// WithCommandClock sets the clock used between reconnect attempts
func WithCommandClock(clk clock.Clock) CommandOption {
	return func(c *Command) { c.clk = clk }
}

// WithCommandLogger sets the logger
func WithCommandLogger(log *zap.Logger) CommandOption {
	return func(c *Command) { c.log = log }
}

// WithReconnect sets the reconnect policy
func WithReconnect(r Reconnect) CommandOption {
	return func(c *Command) { c.reconnect = r }
}

// NewCommand creates a command source from spec
func NewCommand(spec CommandSpec, opts ...CommandOption) *Command {
	c := &Command{
		spec:      spec,
		runner:    ExecRunner{},
		clk:       clock.New(),
		log:       zap.NewNop(),
		reconnect: DefaultReconnect,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reconnect.Interval <= 0 {
		c.reconnect.Interval = DefaultReconnect.Interval
	}
	if c.reconnect.MaxWait <= 0 {
		c.reconnect.MaxWait = DefaultReconnect.MaxWait
	}
	return c
}

// ID returns the source id
func (c *Command) ID() string { return c.spec.ID }

// Kind reports the command's source kind
func (c *Command) Kind() domain.SourceKind { return c.spec.Kind }

// Target returns the last resolved target
func (c *Command) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Prepare resolves the target once so a missing container or pod fails
// before the pipeline starts.
func (c *Command) Prepare(ctx context.Context) error {
	if c.spec.Resolve == nil {
		return nil
	}
	target, err := c.spec.Resolve(ctx, c.runner)
	if err != nil {
		return err
	}
	c.setTarget(target)
	return nil
}

func (c *Command) setTarget(t string) {
	c.mu.Lock()
	c.target = t
	c.mu.Unlock()
}

// Run streams until the command exits for good or ctx is cancelled
func (c *Command) Run(ctx context.Context, emit Emit) error {
	if c.Target() == "" {
		if err := c.Prepare(ctx); err != nil {
			return err
		}
	}

	b := &backoff.Backoff{
		Factor: 1,
		Min:    c.reconnect.Interval,
		Max:    c.reconnect.Interval,
	}

	if c.spec.Noun != "" && !c.notice(emit, ">>> connected to %s: %s", c.spec.Noun, c.Target()) {
		return nil
	}
	for {
		err := c.stream(ctx, emit)
		if ctx.Err() != nil {
			return nil
		}
		if !c.spec.Reconnect {
			return err
		}
		if err != nil {
			c.log.Info("stream exited", zap.String("source", c.spec.ID), zap.Error(err))
		}
		if !c.notice(emit, ">>> %s stopped, reconnecting...", c.spec.Noun) {
			return nil
		}

		target, ok := c.waitForTarget(ctx, b)
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			c.notice(emit, ">>> gave up reconnecting after %s", c.reconnect.MaxWait)
			return nil
		}
		c.setTarget(target)
		if !c.notice(emit, ">>> reconnected to %s: %s", c.spec.Noun, target) {
			return nil
		}
	}
}

func (c *Command) notice(emit Emit, format string, args ...any) bool {
	return emit(domain.Line{Source: c.spec.ID, Kind: domain.LineData, Text: fmt.Sprintf(format, args...)})
}

// waitForTarget retries resolution until it succeeds or MaxWait passes
func (c *Command) waitForTarget(ctx context.Context, b *backoff.Backoff) (string, bool) {
	b.Reset()
	deadline := c.clk.Now().Add(c.reconnect.MaxWait)
	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-c.clk.After(b.Duration()):
		}
		if c.spec.Resolve == nil {
			return c.Target(), true
		}
		target, err := c.spec.Resolve(ctx, c.runner)
		if err == nil {
			return target, true
		}
		c.log.Debug("target not back yet",
			zap.String("source", c.spec.ID),
			zap.Float64("attempt", b.Attempt()),
			zap.Error(err))
		if !c.clk.Now().Before(deadline) {
			return "", false
		}
	}
}

// stream runs one instance of the command, emitting stdout and optionally
// stderr lines, and waits for it to exit.
func (c *Command) stream(ctx context.Context, emit Emit) error {
	argv := c.spec.Argv(c.Target())
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	c.log.Debug("starting command", zap.String("source", c.spec.ID), zap.Strings("argv", argv))

	proc, err := c.runner.Start(ctx, c.spec.Stderr, argv[0], argv[1:]...)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var stderrErr error
	if r := proc.Stderr(); r != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if stderrErr = scanLines(ctx, r, c.spec.ID, emit); stderrErr != nil {
				_, _ = io.Copy(io.Discard, r)
			}
		}()
	}
	stdoutErr := scanLines(ctx, proc.Stdout(), c.spec.ID, emit)
	// keep draining so the process is not blocked on a full pipe
	if stdoutErr != nil {
		_, _ = io.Copy(io.Discard, proc.Stdout())
	}
	wg.Wait()
	waitErr := proc.Wait()

	switch {
	case stdoutErr != nil:
		return stdoutErr
	case stderrErr != nil && ctx.Err() == nil:
		return fmt.Errorf("stderr read error: %w", stderrErr)
	case waitErr != nil:
		return fmt.Errorf("%s exited: %w", argv[0], waitErr)
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
