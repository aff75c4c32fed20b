package cli

import (
	"fmt"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// Run executes the completion command
func (c *CompletionCmd) Run(globals *Globals) error {
	var script string
	switch c.Shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

const bashCompletion = `# logpulse bash completion script
# Add to ~/.bashrc:
#   eval "$(logpulse completion bash)"

_logpulse_completions() {
    local cur prev words cword
    _init_completion || return

    local commands="tail docker ssh k8s compose detect config completion version"
    local global_flags="-f --format --config -v --verbose --log-file --buffer-size --no-tui -o --output"

    case "${prev}" in
        logpulse)
            COMPREPLY=($(compgen -W "${commands}" -- "${cur}") $(compgen -f -- "${cur}"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "auto json laravel django go nginx plain" -- "${cur}"))
            return
            ;;
        -o|--output)
            COMPREPLY=($(compgen -W "ndjson text" -- "${cur}"))
            return
            ;;
        docker)
            local names=$(docker ps --format '{{.Names}}' 2>/dev/null | tr '\n' ' ')
            COMPREPLY=($(compgen -W "${names}" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
    esac

    case "${words[1]}" in
        ssh)
            COMPREPLY=($(compgen -W "-p --port -i --key -J --jump docker ${global_flags}" -- "${cur}"))
            ;;
        k8s)
            COMPREPLY=($(compgen -W "-n --namespace -c --container -l --label ${global_flags}" -- "${cur}"))
            ;;
        compose)
            COMPREPLY=($(compgen -W "--file ${global_flags}" -- "${cur}"))
            ;;
        detect)
            COMPREPLY=($(compgen -W "-n --lines --json" -- "${cur}") $(compgen -f -- "${cur}"))
            ;;
        *)
            COMPREPLY=($(compgen -W "-n --lines ${global_flags}" -- "${cur}") $(compgen -f -- "${cur}"))
            ;;
    esac
}

complete -F _logpulse_completions logpulse
`

const zshCompletion = `#compdef logpulse
# logpulse zsh completion script
# Add to ~/.zshrc:
#   eval "$(logpulse completion zsh)"

_logpulse() {
    local -a commands
    commands=(
        'tail:Follow log files, or stdin when piped'
        'docker:Follow a Docker container'
        'ssh:Follow a remote file or container over SSH'
        'k8s:Follow Kubernetes pod logs'
        'compose:Follow a Docker Compose service'
        'detect:Print the format detection scorecard'
        'config:Show the effective configuration'
        'completion:Generate shell completions'
        'version:Show version information'
    )

    local -a global_opts
    global_opts=(
        '(-f --format)'{-f,--format}'[Log format]:format:(auto json laravel django go nginx plain)'
        '--config[Config file]:file:_files'
        '(-v --verbose)'{-v,--verbose}'[Write debug logging]'
        '--log-file[Append internal logs to this file]:file:_files'
        '--buffer-size[Maximum entries kept in memory]:size:'
        '--no-tui[Stream entries to stdout]'
        '(-o --output)'{-o,--output}'[Output format for --no-tui]:output:(ndjson text)'
    )

    _arguments -C \
        $global_opts \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            _files
            ;;
        args)
            case $words[1] in
                k8s)
                    _arguments \
                        '(-n --namespace)'{-n,--namespace}'[Namespace]:namespace:' \
                        '(-c --container)'{-c,--container}'[Container]:container:' \
                        '(-l --label)'{-l,--label}'[Label selector]:label:' \
                        $global_opts
                    ;;
                ssh)
                    _arguments \
                        '(-p --port)'{-p,--port}'[SSH port]:port:' \
                        '(-i --key)'{-i,--key}'[Private key]:file:_files' \
                        '(-J --jump)'{-J,--jump}'[Jump host]:host:_hosts' \
                        '1:target:_hosts' \
                        $global_opts
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
                *)
                    _files
                    ;;
            esac
            ;;
    esac
}

compdef _logpulse logpulse
`

const fishCompletion = `# logpulse fish completion script
# Add to ~/.config/fish/completions/logpulse.fish

# Commands
complete -c logpulse -n "__fish_use_subcommand" -a "tail" -d "Follow log files, or stdin when piped"
complete -c logpulse -n "__fish_use_subcommand" -a "docker" -d "Follow a Docker container"
complete -c logpulse -n "__fish_use_subcommand" -a "ssh" -d "Follow a remote file or container over SSH"
complete -c logpulse -n "__fish_use_subcommand" -a "k8s" -d "Follow Kubernetes pod logs"
complete -c logpulse -n "__fish_use_subcommand" -a "compose" -d "Follow a Docker Compose service"
complete -c logpulse -n "__fish_use_subcommand" -a "detect" -d "Print the format detection scorecard"
complete -c logpulse -n "__fish_use_subcommand" -a "config" -d "Show the effective configuration"
complete -c logpulse -n "__fish_use_subcommand" -a "completion" -d "Generate shell completions"
complete -c logpulse -n "__fish_use_subcommand" -a "version" -d "Show version information"

# Global flags
complete -c logpulse -s f -l format -d "Log format" -xa "auto json laravel django go nginx plain"
complete -c logpulse -l config -d "Config file" -r
complete -c logpulse -s v -l verbose -d "Write debug logging"
complete -c logpulse -l log-file -d "Append internal logs to this file" -r
complete -c logpulse -l buffer-size -d "Maximum entries kept in memory" -x
complete -c logpulse -l no-tui -d "Stream entries to stdout"
complete -c logpulse -s o -l output -d "Output format for --no-tui" -xa "ndjson text"

# ssh flags
complete -c logpulse -n "__fish_seen_subcommand_from ssh" -s p -l port -d "SSH port" -x
complete -c logpulse -n "__fish_seen_subcommand_from ssh" -s i -l key -d "Private key" -r
complete -c logpulse -n "__fish_seen_subcommand_from ssh" -s J -l jump -d "Jump host" -x

# k8s flags
complete -c logpulse -n "__fish_seen_subcommand_from k8s" -s n -l namespace -d "Namespace" -x
complete -c logpulse -n "__fish_seen_subcommand_from k8s" -s c -l container -d "Container" -x
complete -c logpulse -n "__fish_seen_subcommand_from k8s" -s l -l label -d "Label selector" -x

# compose flags
complete -c logpulse -n "__fish_seen_subcommand_from compose" -l file -d "Compose file" -r

# completion shells
complete -c logpulse -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
