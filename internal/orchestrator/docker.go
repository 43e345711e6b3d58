package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
)

// DockerClient implements Client by shelling out to the docker CLI.
// In compose mode replica changes go through `docker compose up -d
// --scale`, which leaves running containers untouched; in swarm mode
// they go through `docker service scale`.
type DockerClient struct {
	binary  string
	file    string
	project string
	swarm   bool
	timeout time.Duration
	runner  Runner
	logger  *logging.Logger
}

// NewDockerClient creates a client from the docker and compose config
// sections. A nil logger disables logging.
func NewDockerClient(cfg *config.Config, logger *logging.Logger) *DockerClient {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &DockerClient{
		binary:  cfg.Docker.Binary,
		file:    cfg.Compose.File,
		project: cfg.Compose.Project,
		swarm:   cfg.Docker.SwarmMode,
		timeout: cfg.Docker.CommandTimeout(),
		runner:  CLIRunner{},
		logger:  logger.WithComponent("docker"),
	}
}

// SetReplicas scales the service to n replicas.
func (c *DockerClient) SetReplicas(ctx context.Context, service string, n int) error {
	if n < 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "replica count %d for %s", n, service)
	}

	var args []string
	if c.swarm {
		args = []string{"service", "scale", fmt.Sprintf("%s=%d", c.swarmTarget(service), n)}
	} else {
		args = c.composeArgs("up", "-d", "--scale", fmt.Sprintf("%s=%d", service, n), "--no-recreate")
	}

	c.logger.Debug("scaling service", "service", service, "replicas", n, "swarm", c.swarm)
	if _, err := c.run(ctx, args...); err != nil {
		return classify(err, errors.ErrScaleRejected)
	}
	return nil
}

// Replicas reports the number of running replicas. In compose mode it
// counts running containers; in swarm mode it reads the declared
// replica count from the service spec.
func (c *DockerClient) Replicas(ctx context.Context, service string) (int, error) {
	if c.swarm {
		out, err := c.run(ctx, "service", "inspect", "--format", "{{.Spec.Mode.Replicated.Replicas}}", c.swarmTarget(service))
		if err != nil {
			return 0, classify(err, errors.ErrEndpointsUnavailable)
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(out)))
		if err != nil {
			return 0, errors.Wrapf(err, "parse replica count for %s", service)
		}
		return n, nil
	}

	entries, err := c.runningContainers(ctx, service)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// LiveEndpoints returns the resolvable names of the service's running
// replicas, sorted. In swarm mode the routing mesh exposes a single
// virtual name for the whole service.
func (c *DockerClient) LiveEndpoints(ctx context.Context, service string) ([]string, error) {
	if c.swarm {
		return []string{c.swarmTarget(service)}, nil
	}

	entries, err := c.runningContainers(ctx, service)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *DockerClient) runningContainers(ctx context.Context, service string) ([]psEntry, error) {
	out, err := c.run(ctx, c.composeArgs("ps", "--format", "json", service)...)
	if err != nil {
		return nil, classify(err, errors.ErrEndpointsUnavailable)
	}
	entries, err := parsePS(out)
	if err != nil {
		return nil, errors.Wrapf(err, "list containers for %s", service)
	}

	running := entries[:0]
	for _, entry := range entries {
		if strings.EqualFold(entry.State, "running") {
			running = append(running, entry)
		}
	}
	return running, nil
}

// composeArgs prepends the compose subcommand with the manifest and
// project flags.
func (c *DockerClient) composeArgs(args ...string) []string {
	base := []string{"compose", "-f", c.file}
	if c.project != "" {
		base = append(base, "-p", c.project)
	}
	return append(base, args...)
}

// swarmTarget is the fully qualified swarm service name; stack deploys
// prefix services with the project name.
func (c *DockerClient) swarmTarget(service string) string {
	if c.project == "" {
		return service
	}
	return c.project + "_" + service
}

func (c *DockerClient) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.runner.Run(ctx, c.binary, args...)
}

// psEntry is one container row of `docker compose ps --format json`.
type psEntry struct {
	Name    string `json:"Name"`
	Service string `json:"Service"`
	State   string `json:"State"`
}

// parsePS handles both JSON shapes compose has shipped: one object per
// line on current releases, a single array on older ones.
func parsePS(out []byte) ([]psEntry, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var entries []psEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, errors.Wrap(err, "parse container list")
		}
		return entries, nil
	}

	var entries []psEntry
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry psEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, errors.Wrap(err, "parse container list")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stderr fragments that point at the daemon rather than the request.
var transientMarkers = []string{
	"cannot connect to the docker daemon",
	"error during connect",
	"connection refused",
	"i/o timeout",
	"tls handshake timeout",
	"temporary failure",
}

// classify maps a CLI failure onto the error taxonomy so the
// reconciler can tell transient daemon trouble from a hard rejection.
func classify(err error, hard error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(errors.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return errors.Join(errors.ErrCanceled, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return errors.Join(errors.ErrOrchestratorUnavailable, err)
		}
	}
	return errors.Join(hard, err)
}
