package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vltamanec/logpulse/internal/domain"
)

// RemoteTail is how many existing lines remote streams replay first
const RemoteTail = 1000

// SSHOptions are the connection flags passed through to ssh
type SSHOptions struct {
	Target string
	Port   int
	Key    string
	Jump   string
}

// baseArgs builds [-p port] [-i key] [-J jump] target
func (o SSHOptions) baseArgs() []string {
	var args []string
	if o.Port > 0 {
		args = append(args, "-p", strconv.Itoa(o.Port))
	}
	if o.Key != "" {
		args = append(args, "-i", o.Key)
	}
	if o.Jump != "" {
		args = append(args, "-J", o.Jump)
	}
	return append(args, o.Target)
}

// K8sOptions select a pod and optionally a file inside it
type K8sOptions struct {
	Pod       string
	Namespace string
	Container string
	Label     string
	File      string
}

// shellQuote quotes s for a POSIX shell
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == ':' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func dockerPSArgs(prefix string) []string {
	return []string{"ps", "--format", "{{.Names}}", "--filter", "name=" + prefix, "--filter", "status=running"}
}

// pickContainer prefers an exact name, then a name starting with prefix,
// then whatever docker listed first.
func pickContainer(out []byte, prefix string) (string, bool) {
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	for _, n := range names {
		if n == prefix {
			return n, true
		}
	}
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return n, true
		}
	}
	return names[0], true
}

func dockerStreamArgs(container, file string) []string {
	if file != "" {
		return []string{"exec", container, "sh", "-c", "tail -n +1 -f " + shellQuote(file)}
	}
	return []string{"logs", "-f", "--tail", strconv.Itoa(RemoteTail), container}
}

// Docker follows a local container whose name starts with prefix, or a
// file inside it. It reconnects when the container is replaced.
func Docker(prefix, file string) CommandSpec {
	id := prefix
	if file != "" {
		id = prefix + ":" + file
	}
	return CommandSpec{
		ID:   id,
		Kind: domain.SourceDocker,
		Resolve: func(ctx context.Context, r Runner) (string, error) {
			out, err := r.Output(ctx, "docker", dockerPSArgs(prefix)...)
			if err != nil {
				return "", err
			}
			name, ok := pickContainer(out, prefix)
			if !ok {
				return "", fmt.Errorf("no running container matching %q", prefix)
			}
			return name, nil
		},
		Argv: func(container string) []string {
			return append([]string{"docker"}, dockerStreamArgs(container, file)...)
		},
		Noun:      "container",
		Stderr:    file == "",
		Reconnect: true,
	}
}

// SSHDocker follows a container on a remote docker host over ssh
func SSHDocker(opts SSHOptions, prefix, file string) CommandSpec {
	id := "ssh://" + opts.Target + ":" + prefix
	if file != "" {
		id += ":" + file
	}
	return CommandSpec{
		ID:   id,
		Kind: domain.SourceSSH,
		Resolve: func(ctx context.Context, r Runner) (string, error) {
			args := append(opts.baseArgs(), "docker")
			out, err := r.Output(ctx, "ssh", append(args, dockerPSArgs(prefix)...)...)
			if err != nil {
				return "", err
			}
			name, ok := pickContainer(out, prefix)
			if !ok {
				return "", fmt.Errorf("no running container matching %q on %s", prefix, opts.Target)
			}
			return name, nil
		},
		Argv: func(container string) []string {
			remote := "docker logs -f --tail " + strconv.Itoa(RemoteTail) + " " + shellQuote(container)
			if file != "" {
				remote = "docker exec " + shellQuote(container) + " sh -c " + shellQuote("tail -n +1 -f "+shellQuote(file))
			}
			return append(append([]string{"ssh"}, opts.baseArgs()...), remote)
		},
		Noun:      "container",
		Stderr:    file == "",
		Reconnect: true,
	}
}

// SSHFile follows a file on a remote host
func SSHFile(opts SSHOptions, path string) CommandSpec {
	return CommandSpec{
		ID:   opts.Target + ":" + path,
		Kind: domain.SourceSSH,
		Argv: func(string) []string {
			remote := "tail -n " + strconv.Itoa(RemoteTail) + " -f " + shellQuote(path)
			return append(append([]string{"ssh"}, opts.baseArgs()...), remote)
		},
	}
}

// K8s follows a pod's logs, or a file inside it. Without a pod name the
// first running pod matching the label selector is used.
func K8s(opts K8sOptions) (CommandSpec, error) {
	if opts.Pod == "" && opts.Label == "" {
		return CommandSpec{}, fmt.Errorf("either a pod name or --label is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}
	name := opts.Pod
	if name == "" {
		name = opts.Label
	}
	id := "k8s:" + opts.Namespace + "/" + name
	if opts.File != "" {
		id += ":" + opts.File
	}

	spec := CommandSpec{
		ID:   id,
		Kind: domain.SourceK8s,
		Resolve: func(ctx context.Context, r Runner) (string, error) {
			if opts.Pod != "" {
				return opts.Pod, nil
			}
			out, err := r.Output(ctx, "kubectl", "get", "pods", "-n", opts.Namespace, "-l", opts.Label,
				"--field-selector=status.phase=Running", "-o", "jsonpath={.items[0].metadata.name}")
			if err != nil {
				return "", err
			}
			pod := strings.TrimSpace(string(out))
			if pod == "" {
				return "", fmt.Errorf("no running pod matching label %q in namespace %q", opts.Label, opts.Namespace)
			}
			return pod, nil
		},
		Argv: func(pod string) []string {
			if opts.File != "" {
				args := []string{"kubectl", "exec", pod, "-n", opts.Namespace}
				if opts.Container != "" {
					args = append(args, "-c", opts.Container)
				}
				return append(args, "--", "sh", "-c", "tail -n +1 -f "+shellQuote(opts.File))
			}
			args := []string{"kubectl", "logs", "-f", "--tail=" + strconv.Itoa(RemoteTail), pod, "-n", opts.Namespace}
			if opts.Container != "" {
				args = append(args, "-c", opts.Container)
			}
			return args
		},
		Stderr: opts.File == "",
	}
	return spec, nil
}

// Compose follows a docker compose service
func Compose(service, composeFile string) CommandSpec {
	return CommandSpec{
		ID:   "compose:" + service,
		Kind: domain.SourceCompose,
		Argv: func(string) []string {
			args := []string{"docker", "compose"}
			if composeFile != "" {
				args = append(args, "-f", composeFile)
			}
			return append(args, "logs", "-f", "--tail", strconv.Itoa(RemoteTail), "--no-log-prefix", service)
		},
		Stderr: true,
	}
}
