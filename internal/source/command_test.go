package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	stdout io.Reader
	stderr io.Reader
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }
func (p *fakeProcess) Stderr() io.Reader { return p.stderr }
func (p *fakeProcess) Wait() error       { return nil }

// fakeRunner answers Output calls from outputs in order (the last one
// repeats) and Start calls from streams in order.
type fakeRunner struct {
	mu      sync.Mutex
	outputs []string
	streams []string
	started [][]string
}

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outputs) == 0 {
		return nil, errors.New("no output")
	}
	out := r.outputs[0]
	if len(r.outputs) > 1 {
		r.outputs = r.outputs[1:]
	}
	if out == "" {
		return nil, nil
	}
	return []byte(out), nil
}

func (r *fakeRunner) Start(_ context.Context, _ bool, name string, args ...string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, append([]string{name}, args...))
	out := ""
	if len(r.streams) > 0 {
		out, r.streams = r.streams[0], r.streams[1:]
	}
	return &fakeProcess{stdout: strings.NewReader(out)}, nil
}

var fastReconnect = Reconnect{Interval: time.Millisecond, MaxWait: 30 * time.Millisecond}

func TestCommandGivesUpAfterMaxWait(t *testing.T) {
	runner := &fakeRunner{outputs: []string{"web-1\n", ""}, streams: []string{"a\nb\n"}}
	cmd := NewCommand(Docker("web", ""), WithRunner(runner), WithReconnect(fastReconnect))

	require.NoError(t, cmd.Prepare(context.Background()))
	assert.Equal(t, "web-1", cmd.Target())

	c := &lineCollector{}
	require.NoError(t, cmd.Run(context.Background(), c.emit))
	assert.Equal(t, []string{
		">>> connected to container: web-1",
		"a",
		"b",
		">>> container stopped, reconnecting...",
		">>> gave up reconnecting after 30ms",
	}, c.snapshot())
}

func TestCommandReconnectsToNewContainer(t *testing.T) {
	runner := &fakeRunner{
		outputs: []string{"web-1\n", "", "web-2\n", ""},
		streams: []string{"a\n", "b\n"},
	}
	cmd := NewCommand(Docker("web", ""), WithRunner(runner), WithReconnect(fastReconnect))

	c := &lineCollector{}
	require.NoError(t, cmd.Run(context.Background(), c.emit))
	assert.Equal(t, []string{
		">>> connected to container: web-1",
		"a",
		">>> container stopped, reconnecting...",
		">>> reconnected to container: web-2",
		"b",
		">>> container stopped, reconnecting...",
		">>> gave up reconnecting after 30ms",
	}, c.snapshot())
	require.Len(t, runner.started, 2)
	assert.Equal(t, []string{"docker", "logs", "-f", "--tail", "1000", "web-2"}, runner.started[1])
}

func TestCommandWithoutReconnectEnds(t *testing.T) {
	runner := &fakeRunner{streams: []string{"x\ny\n"}}
	cmd := NewCommand(Compose("api", ""), WithRunner(runner))

	c := &lineCollector{}
	require.NoError(t, cmd.Run(context.Background(), c.emit))
	assert.Equal(t, []string{"x", "y"}, c.snapshot())
}

func TestCommandPrepareFails(t *testing.T) {
	runner := &fakeRunner{outputs: []string{""}}
	cmd := NewCommand(Docker("missing", ""), WithRunner(runner))
	err := cmd.Prepare(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no running container matching "missing"`)
}

func TestCommandStopsOnCancel(t *testing.T) {
	runner := &fakeRunner{outputs: []string{"web-1\n", ""}, streams: []string{"a\n"}}
	cmd := NewCommand(Docker("web", ""), WithRunner(runner),
		WithReconnect(Reconnect{Interval: time.Hour, MaxWait: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	c := &lineCollector{}
	done := make(chan error, 1)
	go func() { done <- cmd.Run(ctx, c.emit) }()

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 3
	}, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestPickContainer(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
		ok   bool
	}{
		{"exact wins", "my-web-1\nweb\n", "web", true},
		{"prefix beats substring", "my-web-1\nweb-2\n", "web-2", true},
		{"first listed otherwise", "my-web-1\nold-web\n", "my-web-1", true},
		{"nothing running", "\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickContainer([]byte(tt.out), "web")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandArgv(t *testing.T) {
	t.Run("docker file", func(t *testing.T) {
		spec := Docker("web", "/var/log/app.log")
		assert.Equal(t, "web:/var/log/app.log", spec.ID)
		assert.Equal(t, []string{"docker", "exec", "web-1", "sh", "-c", "tail -n +1 -f /var/log/app.log"}, spec.Argv("web-1"))
		assert.False(t, spec.Stderr)
	})

	t.Run("ssh file", func(t *testing.T) {
		spec := SSHFile(SSHOptions{Target: "deploy@host", Port: 2222, Key: "~/.ssh/id", Jump: "bastion"}, "/var/log/my app.log")
		assert.Equal(t, []string{
			"ssh", "-p", "2222", "-i", "~/.ssh/id", "-J", "bastion", "deploy@host",
			"tail -n 1000 -f '/var/log/my app.log'",
		}, spec.Argv(""))
	})

	t.Run("ssh docker", func(t *testing.T) {
		spec := SSHDocker(SSHOptions{Target: "host"}, "api", "")
		assert.Equal(t, "ssh://host:api", spec.ID)
		assert.Equal(t, []string{"ssh", "host", "docker logs -f --tail 1000 api-1"}, spec.Argv("api-1"))
	})

	t.Run("k8s logs", func(t *testing.T) {
		spec, err := K8s(K8sOptions{Pod: "api-7d9", Namespace: "prod", Container: "app"})
		require.NoError(t, err)
		assert.Equal(t, "k8s:prod/api-7d9", spec.ID)
		assert.Equal(t, []string{"kubectl", "logs", "-f", "--tail=1000", "api-7d9", "-n", "prod", "-c", "app"}, spec.Argv("api-7d9"))
	})

	t.Run("k8s file", func(t *testing.T) {
		spec, err := K8s(K8sOptions{Label: "app=api", File: "/tmp/x.log"})
		require.NoError(t, err)
		assert.Equal(t, "k8s:default/app=api:/tmp/x.log", spec.ID)
		assert.Equal(t, []string{"kubectl", "exec", "pod-1", "-n", "default", "--", "sh", "-c", "tail -n +1 -f /tmp/x.log"}, spec.Argv("pod-1"))
	})

	t.Run("k8s requires pod or label", func(t *testing.T) {
		_, err := K8s(K8sOptions{})
		assert.Error(t, err)
	})

	t.Run("compose", func(t *testing.T) {
		spec := Compose("worker", "stack.yml")
		assert.Equal(t, []string{"docker", "compose", "-f", "stack.yml", "logs", "-f", "--tail", "1000", "--no-log-prefix", "worker"}, spec.Argv(""))
	})
}

func TestK8sResolveByLabel(t *testing.T) {
	spec, err := K8s(K8sOptions{Label: "app=api", Namespace: "prod"})
	require.NoError(t, err)

	pod, err := spec.Resolve(context.Background(), &fakeRunner{outputs: []string{"api-123\n"}})
	require.NoError(t, err)
	assert.Equal(t, "api-123", pod)

	_, err = spec.Resolve(context.Background(), &fakeRunner{outputs: []string{""}})
	assert.Error(t, err)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/var/log/app.log", shellQuote("/var/log/app.log"))
	assert.Equal(t, "'a b'", shellQuote("a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}
