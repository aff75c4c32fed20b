package cli

import (
	"fmt"
	"strings"

	"github.com/vltamanec/logpulse/internal/source"
)

// DockerCmd follows a local container
type DockerCmd struct {
	Prefix string `arg:"" help:"Container name or prefix (myapi matches myapi.1.abc123)"`
	File   string `arg:"" optional:"" help:"Log file inside the container (omit for stdout)"`
}

// Run executes the docker command
func (c *DockerCmd) Run(globals *Globals) error {
	return runCommand(globals, source.Docker(c.Prefix, c.File))
}

// SSHCmd follows a remote file, or a container on a remote docker host
type SSHCmd struct {
	Target string   `arg:"" help:"SSH target (user@host or a host from ~/.ssh/config)"`
	Args   []string `arg:"" help:"'docker <prefix> [file]' or '/path/to/file.log'"`
	Port   int      `short:"p" help:"SSH port"`
	Key    string   `short:"i" help:"Private key file"`
	Jump   string   `short:"J" help:"Jump host (ProxyJump)"`
}

// Run executes the ssh command
func (c *SSHCmd) Run(globals *Globals) error {
	spec, err := c.spec()
	if err != nil {
		return outputErrorCommon(globals, "INVALID_ARGS", err.Error(), "Example: logpulse ssh user@host docker myapi /var/log/app.log")
	}
	return runCommand(globals, spec)
}

func (c *SSHCmd) spec() (source.CommandSpec, error) {
	opts := source.SSHOptions{Target: c.Target, Port: c.Port, Key: c.Key, Jump: c.Jump}
	if len(c.Args) == 0 {
		return source.CommandSpec{}, fmt.Errorf("ssh needs 'docker <prefix> [file]' or a remote file path")
	}
	if c.Args[0] != "docker" {
		if len(c.Args) > 1 {
			return source.CommandSpec{}, fmt.Errorf("unexpected arguments after %s: %s", c.Args[0], strings.Join(c.Args[1:], " "))
		}
		return source.SSHFile(opts, c.Args[0]), nil
	}
	switch len(c.Args) {
	case 1:
		return source.CommandSpec{}, fmt.Errorf("usage: logpulse ssh <target> docker <prefix> [file]")
	case 2:
		return source.SSHDocker(opts, c.Args[1], ""), nil
	case 3:
		return source.SSHDocker(opts, c.Args[1], c.Args[2]), nil
	default:
		return source.CommandSpec{}, fmt.Errorf("unexpected arguments after %s: %s", c.Args[2], strings.Join(c.Args[3:], " "))
	}
}

// K8sCmd follows a pod's logs or a file inside the pod
type K8sCmd struct {
	Pod       string `arg:"" optional:"" help:"Pod name (omit when using --label)"`
	File      string `arg:"" optional:"" help:"Log file inside the pod (omit for stdout)"`
	Namespace string `short:"n" default:"default" help:"Namespace"`
	Container string `short:"c" help:"Container name for multi-container pods"`
	Label     string `short:"l" help:"Label selector used to find the pod (e.g. app=api)"`
}

// Run executes the k8s command
func (c *K8sCmd) Run(globals *Globals) error {
	spec, err := source.K8s(c.options())
	if err != nil {
		return outputErrorCommon(globals, "INVALID_ARGS", err.Error(), "Example: logpulse k8s -l app=api -n prod")
	}
	return runCommand(globals, spec)
}

// options treats a lone absolute path as the file when a label picks the pod
func (c *K8sCmd) options() source.K8sOptions {
	opts := source.K8sOptions{
		Pod:       c.Pod,
		Namespace: c.Namespace,
		Container: c.Container,
		Label:     c.Label,
		File:      c.File,
	}
	if opts.Label != "" && opts.File == "" && strings.HasPrefix(opts.Pod, "/") {
		opts.File, opts.Pod = opts.Pod, ""
	}
	return opts
}

// ComposeCmd follows a docker compose service
type ComposeCmd struct {
	Service string `arg:"" help:"Service name"`
	File    string `name:"file" type:"path" help:"Compose file"`
}

// Run executes the compose command
func (c *ComposeCmd) Run(globals *Globals) error {
	return runCommand(globals, source.Compose(c.Service, c.File))
}

// newCommandSource builds a command source with the configured reconnect policy
func newCommandSource(globals *Globals, spec source.CommandSpec) *source.Command {
	r := source.DefaultReconnect
	if globals.Config != nil {
		r = source.Reconnect{
			Interval: globals.Config.Reconnect.Interval,
			MaxWait:  globals.Config.Reconnect.MaxWait,
		}
	}
	return source.NewCommand(spec,
		source.WithCommandClock(globals.clock()),
		source.WithCommandLogger(globals.logger()),
		source.WithReconnect(r),
	)
}

func runCommand(globals *Globals, spec source.CommandSpec) error {
	cmd := newCommandSource(globals, spec)
	globals.Debug("command source %s (%s)", spec.ID, spec.Kind)
	return runPipeline(globals, spec.ID, []source.Source{cmd})
}
