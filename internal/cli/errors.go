package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vltamanec/logpulse/internal/output"
)

// CLIError is a structured error used for consistent NDJSON/text emission.
type CLIError struct {
	Code    string
	Message string
	Hint    string
}

func (e *CLIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// outputErrorCommon reports a startup failure. Headless NDJSON runs get a
// machine-readable error line on stdout; everything else goes to stderr
// because the viewer never started.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	cliErr := &CLIError{Code: code, Message: message}
	if len(hint) > 0 {
		cliErr.Hint = hint[0]
	}
	if globals == nil {
		return cliErr
	}
	if globals.NoTUI && globals.Output == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, cliErr.Hint)
		return cliErr
	}
	fmt.Fprintf(globals.Stderr, "Error [%s]: %s\n", code, message)
	if cliErr.Hint != "" {
		fmt.Fprintf(globals.Stderr, "Hint: %s\n", cliErr.Hint)
	}
	return cliErr
}

// hintForSource suggests a fix for a source that failed to start
func hintForSource(err error) string {
	if err == nil {
		return ""
	}
	for _, tool := range []string{"docker", "kubectl", "ssh"} {
		if isCommandNotFound(err, tool) {
			return tool + " not found in PATH; install it or follow a file instead"
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Check the path; use - to read stdin"
	}
	if errors.Is(err, os.ErrPermission) {
		return "The file is not readable by the current user"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "cannot connect to the docker daemon"):
		return "Start Docker, or check DOCKER_HOST"
	case strings.Contains(msg, "no running container matching"):
		return "Run `docker ps` to see running container names"
	case strings.Contains(msg, "no running pod"):
		return "Run `kubectl get pods -n <namespace> -l <label>` to check the selector"
	case strings.Contains(msg, "permission denied (publickey"):
		return "Pass a key with -i, or add the host to ~/.ssh/config"
	}
	return ""
}

func isCommandNotFound(err error, name string) bool {
	if err == nil {
		return false
	}

	var ee *exec.Error
	if errors.As(err, &ee) && strings.EqualFold(ee.Name, name) && errors.Is(ee.Err, exec.ErrNotFound) {
		return true
	}

	// Fallback to string matching for wrapped errors.
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") && strings.Contains(msg, name)
}
