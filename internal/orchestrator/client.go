package orchestrator

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/tsm-sh/tsm/internal/errors"
)

// Client is the orchestrator surface the control loop depends on.
// Implementations must be safe for concurrent use.
type Client interface {
	// SetReplicas asks the runtime to run n replicas of the service.
	// The call returns once the request is acknowledged; convergence
	// is asynchronous.
	SetReplicas(ctx context.Context, service string, n int) error

	// Replicas reports how many replicas of the service are running.
	Replicas(ctx context.Context, service string) (int, error)

	// LiveEndpoints returns the addressable names of the service's
	// running replicas, sorted.
	LiveEndpoints(ctx context.Context, service string) ([]string, error)
}

// Runner executes an external command and returns its stdout. It
// exists so tests can fake the docker CLI.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CLIRunner is the production Runner backed by os/exec. Stderr is kept
// out of the returned output and folded into the error text instead,
// so JSON parsing never sees diagnostics.
type CLIRunner struct{}

// Run executes the command and returns its stdout. When the context
// ends before the command does, the context error joins the chain so
// callers can distinguish deadline expiry from command failure.
func (CLIRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = errors.Join(ctx.Err(), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return stdout.Bytes(), errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), detail)
	}
	return stdout.Bytes(), nil
}
