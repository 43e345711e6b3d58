package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scaling.max_replicas")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// serviceNameRegex validates compose service names
// Service names start with alphanumeric and can contain alphanumeric, dot, hyphen, underscore
var serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Log config
	errors = append(errors, c.validateLog()...)

	// Validate Compose config
	errors = append(errors, c.validateCompose()...)

	// Validate Docker config
	errors = append(errors, c.validateDocker()...)

	// Validate Scaling config
	errors = append(errors, c.validateScaling()...)

	// Validate Prometheus config
	errors = append(errors, c.validatePrometheus()...)

	// Validate Traefik config
	errors = append(errors, c.validateTraefik()...)

	// Validate API config
	errors = append(errors, c.validateAPI()...)

	return errors
}

// validateLog validates the LogConfig
func (c *Config) validateLog() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Log.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Log.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Log.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Log.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_backups",
			Value:   c.Log.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateCompose validates the ComposeConfig
func (c *Config) validateCompose() []ValidationError {
	var errors []ValidationError

	if c.Compose.File == "" {
		errors = append(errors, ValidationError{
			Field:   "compose.file",
			Value:   c.Compose.File,
			Message: "cannot be empty",
		})
	}

	// Check for null bytes which are invalid in paths
	if strings.ContainsRune(c.Compose.File, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "compose.file",
			Value:   c.Compose.File,
			Message: "path contains invalid null character",
		})
	}

	return errors
}

// validateDocker validates the DockerConfig
func (c *Config) validateDocker() []ValidationError {
	var errors []ValidationError

	if c.Docker.Binary == "" {
		errors = append(errors, ValidationError{
			Field:   "docker.binary",
			Value:   c.Docker.Binary,
			Message: "cannot be empty",
		})
	}

	// Command timeout must be positive
	const minCommandTimeout = 1
	const maxCommandTimeout = 600 // 10 minutes
	if c.Docker.CommandTimeoutSeconds < minCommandTimeout {
		errors = append(errors, ValidationError{
			Field:   "docker.command_timeout_seconds",
			Value:   c.Docker.CommandTimeoutSeconds,
			Message: fmt.Sprintf("must be at least %d", minCommandTimeout),
		})
	}
	if c.Docker.CommandTimeoutSeconds > maxCommandTimeout {
		errors = append(errors, ValidationError{
			Field:   "docker.command_timeout_seconds",
			Value:   c.Docker.CommandTimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxCommandTimeout),
		})
	}

	if c.Docker.Network == "" {
		errors = append(errors, ValidationError{
			Field:   "docker.network",
			Value:   c.Docker.Network,
			Message: "cannot be empty",
		})
	}

	return errors
}

// validateScaling validates the ScalingConfig
func (c *Config) validateScaling() []ValidationError {
	var errors []ValidationError

	// Check interval must be positive
	if c.Scaling.CheckIntervalSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.check_interval_seconds",
			Value:   c.Scaling.CheckIntervalSeconds,
			Message: "must be at least 1",
		})
	}

	// The default rule must hold the same invariants as any resolved rule
	errors = append(errors, c.validateRule("scaling", c.Scaling.DefaultRule())...)

	// Worker pool bounds
	const maxWorkers = 64
	if c.Scaling.SampleWorkers < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.sample_workers",
			Value:   c.Scaling.SampleWorkers,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.SampleWorkers > maxWorkers {
		errors = append(errors, ValidationError{
			Field:   "scaling.sample_workers",
			Value:   c.Scaling.SampleWorkers,
			Message: fmt.Sprintf("exceeds maximum of %d", maxWorkers),
		})
	}
	if c.Scaling.ReconcileWorkers < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.reconcile_workers",
			Value:   c.Scaling.ReconcileWorkers,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.ReconcileWorkers > maxWorkers {
		errors = append(errors, ValidationError{
			Field:   "scaling.reconcile_workers",
			Value:   c.Scaling.ReconcileWorkers,
			Message: fmt.Sprintf("exceeds maximum of %d", maxWorkers),
		})
	}

	// Sample budget must be positive
	if c.Scaling.SampleBudgetSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.sample_budget_seconds",
			Value:   c.Scaling.SampleBudgetSeconds,
			Message: "must be at least 1",
		})
	}

	// Retry settings
	if c.Scaling.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.max_retries",
			Value:   c.Scaling.MaxRetries,
			Message: "must be non-negative (0 disables retries)",
		})
	}
	if c.Scaling.RetryBackoffMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.retry_backoff_ms",
			Value:   c.Scaling.RetryBackoffMs,
			Message: "must be non-negative",
		})
	}
	if c.Scaling.RetryBackoffCapMs < c.Scaling.RetryBackoffMs {
		errors = append(errors, ValidationError{
			Field:   "scaling.retry_backoff_cap_ms",
			Value:   c.Scaling.RetryBackoffCapMs,
			Message: fmt.Sprintf("must be at least retry_backoff_ms (%d)", c.Scaling.RetryBackoffMs),
		})
	}

	// Per-service overrides are validated as the fully-resolved rule the
	// service would actually run with
	for name, override := range c.Scaling.Services {
		if !serviceNameRegex.MatchString(name) {
			errors = append(errors, ValidationError{
				Field:   "scaling.services",
				Value:   name,
				Message: "service name must start with an alphanumeric character and contain only alphanumeric characters, dots, hyphens, or underscores",
			})
			continue
		}

		prefix := fmt.Sprintf("scaling.services.%s", name)
		errors = append(errors, c.validateRule(prefix, c.Scaling.Rule(name))...)

		if override.Priority != nil && !IsValidPriority(*override.Priority) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".priority",
				Value:   *override.Priority,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPriorities(), ", ")),
			})
		}
	}

	return errors
}

// validateRule validates a resolved scaling rule against the invariants
// every rule must hold: low < high, min >= 0, max >= min, step >= 1
func (c *Config) validateRule(fieldPrefix string, rule EffectiveRule) []ValidationError {
	var errors []ValidationError

	if rule.Metric == "" {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".metric",
			Value:   rule.Metric,
			Message: "cannot be empty",
		})
	} else if _, ok := c.Prometheus.Queries[rule.Metric]; !ok {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".metric",
			Value:   rule.Metric,
			Message: "has no matching query template in prometheus.queries",
		})
	}

	// Watermarks must leave a dead band between them
	if rule.Low >= rule.High {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".scale_down_threshold",
			Value:   rule.Low,
			Message: fmt.Sprintf("must be strictly below scale_up_threshold (%v)", rule.High),
		})
	}

	if rule.Min < 0 {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".min_replicas",
			Value:   rule.Min,
			Message: "must be non-negative",
		})
	}

	if rule.Max < rule.Min {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".max_replicas",
			Value:   rule.Max,
			Message: fmt.Sprintf("must be at least min_replicas (%d)", rule.Min),
		})
	}

	if rule.Step < 1 {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".step",
			Value:   rule.Step,
			Message: "must be at least 1",
		})
	}

	if rule.Cooldown < 0 {
		errors = append(errors, ValidationError{
			Field:   fieldPrefix + ".cooldown_seconds",
			Value:   rule.Cooldown.Seconds(),
			Message: "must be non-negative",
		})
	}

	return errors
}

// validatePrometheus validates the PrometheusConfig
func (c *Config) validatePrometheus() []ValidationError {
	var errors []ValidationError

	if c.Prometheus.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "prometheus.url",
			Value:   c.Prometheus.URL,
			Message: "cannot be empty",
		})
	} else {
		u, err := url.Parse(c.Prometheus.URL)
		switch {
		case err != nil || u.Host == "":
			errors = append(errors, ValidationError{
				Field:   "prometheus.url",
				Value:   c.Prometheus.URL,
				Message: "must be a valid URL with scheme and host",
			})
		case u.Scheme != "http" && u.Scheme != "https":
			errors = append(errors, ValidationError{
				Field:   "prometheus.url",
				Value:   c.Prometheus.URL,
				Message: "scheme must be http or https",
			})
		}
	}

	// Query timeout must be positive
	if c.Prometheus.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "prometheus.timeout_seconds",
			Value:   c.Prometheus.TimeoutSeconds,
			Message: "must be at least 1",
		})
	}

	// Query templates cannot be blank
	for name, query := range c.Prometheus.Queries {
		if strings.TrimSpace(query) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("prometheus.queries.%s", name),
				Value:   query,
				Message: "cannot be empty",
			})
		}
	}

	return errors
}

// validateTraefik validates the TraefikConfig
func (c *Config) validateTraefik() []ValidationError {
	var errors []ValidationError

	if c.Traefik.Suffix() == "" {
		errors = append(errors, ValidationError{
			Field:   "traefik.domain_suffix",
			Value:   c.Traefik.DomainSuffix,
			Message: "cannot be empty",
		})
	}

	if c.Traefik.EntryPoint == "" {
		errors = append(errors, ValidationError{
			Field:   "traefik.entrypoint",
			Value:   c.Traefik.EntryPoint,
			Message: "cannot be empty",
		})
	}

	if c.Traefik.OutputPath == "" {
		errors = append(errors, ValidationError{
			Field:   "traefik.output_path",
			Value:   c.Traefik.OutputPath,
			Message: "cannot be empty",
		})
	}

	// Backend port must be a valid TCP port
	if c.Traefik.BackendPort < 1 || c.Traefik.BackendPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "traefik.backend_port",
			Value:   c.Traefik.BackendPort,
			Message: "must be between 1 and 65535",
		})
	}

	return errors
}

// validateAPI validates the APIConfig
func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	// Listen address is only required when the API is enabled
	if !c.API.Enabled {
		return errors
	}

	if c.API.Listen == "" {
		errors = append(errors, ValidationError{
			Field:   "api.listen",
			Value:   c.API.Listen,
			Message: "cannot be empty when the api is enabled",
		})
		return errors
	}

	if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
		errors = append(errors, ValidationError{
			Field:   "api.listen",
			Value:   c.API.Listen,
			Message: "must be a valid host:port address",
		})
	}

	return errors
}
