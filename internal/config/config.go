package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tsm-sh/tsm/internal/util"
)

// Config represents the complete tsm configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Compose    ComposeConfig    `mapstructure:"compose"`
	Docker     DockerConfig     `mapstructure:"docker"`
	Scaling    ScalingConfig    `mapstructure:"scaling"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Traefik    TraefikConfig    `mapstructure:"traefik"`
	API        APIConfig        `mapstructure:"api"`
}

// LogConfig controls structured logging behavior
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// File is the log file path. Empty means log to stderr (default: "")
	File string `mapstructure:"file"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzip-compresses rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// ComposeConfig locates the compose manifest that defines the services
type ComposeConfig struct {
	// File is the path to the compose manifest (default: "docker-compose.yml")
	File string `mapstructure:"file"`
	// Project is the compose project name passed to the orchestrator.
	// Empty means the orchestrator derives it from the manifest directory.
	Project string `mapstructure:"project"`
}

// DockerConfig controls how the orchestrator CLI is invoked
type DockerConfig struct {
	// Binary is the docker CLI binary name or path (default: "docker")
	Binary string `mapstructure:"binary"`
	// SwarmMode uses `docker service scale` instead of compose scaling (default: false)
	SwarmMode bool `mapstructure:"swarm_mode"`
	// CommandTimeoutSeconds bounds a single orchestrator CLI invocation (default: 30)
	CommandTimeoutSeconds int `mapstructure:"command_timeout_seconds"`
	// Network is the external network Traefik shares with the services (default: "traefik")
	Network string `mapstructure:"network"`
}

// CommandTimeout returns the per-invocation timeout as a time.Duration
func (c *DockerConfig) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// ScalingConfig holds the default scaling rule and the loop tuning knobs.
// Per-service entries in Services override individual fields of the default
// rule; compose labels override both.
type ScalingConfig struct {
	// Enabled turns the sampling/deciding/reconciling phases on (default: true).
	// When false the loop only projects the routing document.
	Enabled bool `mapstructure:"enabled"`
	// CheckIntervalSeconds is how often the loop ticks (default: 60)
	CheckIntervalSeconds int `mapstructure:"check_interval_seconds"`
	// Metric is the default metric driving decisions (default: "cpu")
	Metric string `mapstructure:"metric"`
	// ScaleUpThreshold is the high watermark; values strictly above it scale up (default: 80)
	ScaleUpThreshold float64 `mapstructure:"scale_up_threshold"`
	// ScaleDownThreshold is the low watermark; values strictly below it scale down (default: 30)
	ScaleDownThreshold float64 `mapstructure:"scale_down_threshold"`
	// MinReplicas is the default replica floor (default: 1)
	MinReplicas int `mapstructure:"min_replicas"`
	// MaxReplicas is the default replica ceiling (default: 5)
	MaxReplicas int `mapstructure:"max_replicas"`
	// Step is how many replicas a single decision may add or remove (default: 1)
	Step int `mapstructure:"step"`
	// CooldownSeconds blocks same-direction changes after a successful scale (default: 300)
	CooldownSeconds int `mapstructure:"cooldown_seconds"`

	// SampleWorkers bounds concurrent metric probes (default: 4)
	SampleWorkers int `mapstructure:"sample_workers"`
	// SampleBudgetSeconds is the wall-clock budget for one sampling phase (default: 20)
	SampleBudgetSeconds int `mapstructure:"sample_budget_seconds"`
	// ReconcileWorkers bounds concurrent orchestrator calls (default: 2)
	ReconcileWorkers int `mapstructure:"reconcile_workers"`
	// MaxRetries is the retry budget per scaling change for transient failures (default: 3)
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBackoffMs is the initial retry backoff in milliseconds, doubling per attempt (default: 500)
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
	// RetryBackoffCapMs caps the exponential backoff (default: 5000)
	RetryBackoffCapMs int `mapstructure:"retry_backoff_cap_ms"`

	// Services holds per-service overrides of the default rule
	Services map[string]ServiceRuleConfig `mapstructure:"services"`
}

// ServiceRuleConfig overrides individual fields of the default scaling rule
// for one service. Nil fields fall back to the default rule.
type ServiceRuleConfig struct {
	Enabled            *bool    `mapstructure:"enabled"`
	Metric             *string  `mapstructure:"metric"`
	ScaleUpThreshold   *float64 `mapstructure:"scale_up_threshold"`
	ScaleDownThreshold *float64 `mapstructure:"scale_down_threshold"`
	MinReplicas        *int     `mapstructure:"min_replicas"`
	MaxReplicas        *int     `mapstructure:"max_replicas"`
	Step               *int     `mapstructure:"step"`
	CooldownSeconds    *int     `mapstructure:"cooldown_seconds"`
	Priority           *string  `mapstructure:"priority"`
}

// EffectiveRule is a fully-resolved scaling rule for one service:
// the default rule with any per-service config overrides applied.
// Compose labels are applied on top of this during discovery.
type EffectiveRule struct {
	Enabled  bool
	Metric   string
	High     float64
	Low      float64
	Min      int
	Max      int
	Step     int
	Cooldown time.Duration
	Priority string
}

// CheckInterval returns the loop tick interval as a time.Duration
func (c *ScalingConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// SampleBudget returns the sampling phase budget as a time.Duration
func (c *ScalingConfig) SampleBudget() time.Duration {
	return time.Duration(c.SampleBudgetSeconds) * time.Second
}

// Cooldown returns the default cooldown as a time.Duration
func (c *ScalingConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// RetryBackoff returns the initial retry backoff as a time.Duration
func (c *ScalingConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// RetryBackoffCap returns the retry backoff ceiling as a time.Duration
func (c *ScalingConfig) RetryBackoffCap() time.Duration {
	return time.Duration(c.RetryBackoffCapMs) * time.Millisecond
}

// DefaultRule returns the default scaling rule with no overrides applied
func (c *ScalingConfig) DefaultRule() EffectiveRule {
	return EffectiveRule{
		Enabled:  c.Enabled,
		Metric:   c.Metric,
		High:     c.ScaleUpThreshold,
		Low:      c.ScaleDownThreshold,
		Min:      c.MinReplicas,
		Max:      c.MaxReplicas,
		Step:     c.Step,
		Cooldown: c.Cooldown(),
		Priority: PriorityMedium,
	}
}

// Rule returns the effective rule for the named service: the default rule
// with that service's config overrides applied.
func (c *ScalingConfig) Rule(service string) EffectiveRule {
	rule := c.DefaultRule()

	override, ok := c.Services[service]
	if !ok {
		return rule
	}

	if override.Enabled != nil {
		rule.Enabled = *override.Enabled
	}
	if override.Metric != nil {
		rule.Metric = *override.Metric
	}
	if override.ScaleUpThreshold != nil {
		rule.High = *override.ScaleUpThreshold
	}
	if override.ScaleDownThreshold != nil {
		rule.Low = *override.ScaleDownThreshold
	}
	if override.MinReplicas != nil {
		rule.Min = *override.MinReplicas
	}
	if override.MaxReplicas != nil {
		rule.Max = *override.MaxReplicas
	}
	if override.Step != nil {
		rule.Step = *override.Step
	}
	if override.CooldownSeconds != nil {
		rule.Cooldown = time.Duration(*override.CooldownSeconds) * time.Second
	}
	if override.Priority != nil {
		rule.Priority = *override.Priority
	}

	return rule
}

// PrometheusConfig locates the metrics backend and its query templates
type PrometheusConfig struct {
	// URL is the Prometheus base URL (default: "http://localhost:9090")
	URL string `mapstructure:"url"`
	// TimeoutSeconds bounds a single query (default: 10)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// Queries maps metric names to PromQL templates. The literal "{service}"
	// is replaced with the service name before execution.
	Queries map[string]string `mapstructure:"queries"`
}

// Timeout returns the per-query timeout as a time.Duration
func (c *PrometheusConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TraefikConfig controls the projected routing document
type TraefikConfig struct {
	// DomainSuffix is appended to service names in router Host rules.
	// Leading dots are stripped: ".ddev" and "ddev" are equivalent (default: "ddev")
	DomainSuffix string `mapstructure:"domain_suffix"`
	// EntryPoint is the Traefik entry point routers bind to (default: "websecure")
	EntryPoint string `mapstructure:"entrypoint"`
	// OutputPath is where the dynamic routing document is written
	// (default: "config/dynamic/services.yml")
	OutputPath string `mapstructure:"output_path"`
	// DefaultMiddlewares is the middleware chain applied to every router
	// (default: ["secure-headers@file", "compress@file"])
	DefaultMiddlewares []string `mapstructure:"default_middlewares"`
	// BackendPort is the container port used for endpoint URLs when a
	// service does not declare one (default: 80)
	BackendPort int `mapstructure:"backend_port"`
}

// Suffix returns the normalized domain suffix with leading dots stripped.
func (c *TraefikConfig) Suffix() string {
	return util.NormalizeDomainSuffix(c.DomainSuffix)
}

// APIConfig controls the embedded status HTTP server
type APIConfig struct {
	// Enabled starts the status API alongside the monitor loop (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Listen is the address the status API binds to (default: ":8090")
	Listen string `mapstructure:"listen"`
}

// Priority classes order reconciliation within a tick; higher classes
// are applied first.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ValidPriorities returns the list of valid priority class values
func ValidPriorities() []string {
	return []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// IsValidPriority checks if the given priority class is valid
func IsValidPriority(priority string) bool {
	for _, valid := range ValidPriorities() {
		if priority == valid {
			return true
		}
	}
	return false
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		Compose: ComposeConfig{
			File:    "docker-compose.yml",
			Project: "",
		},
		Docker: DockerConfig{
			Binary:                "docker",
			SwarmMode:             false,
			CommandTimeoutSeconds: 30,
			Network:               "traefik",
		},
		Scaling: ScalingConfig{
			Enabled:              true,
			CheckIntervalSeconds: 60,
			Metric:               "cpu",
			ScaleUpThreshold:     80,
			ScaleDownThreshold:   30,
			MinReplicas:          1,
			MaxReplicas:          5,
			Step:                 1,
			CooldownSeconds:      300,
			SampleWorkers:        4,
			SampleBudgetSeconds:  20,
			ReconcileWorkers:     2,
			MaxRetries:           3,
			RetryBackoffMs:       500,
			RetryBackoffCapMs:    5000,
			Services:             map[string]ServiceRuleConfig{},
		},
		Prometheus: PrometheusConfig{
			URL:            "http://localhost:9090",
			TimeoutSeconds: 10,
			Queries:        DefaultQueries(),
		},
		Traefik: TraefikConfig{
			DomainSuffix:       "ddev",
			EntryPoint:         "websecure",
			OutputPath:         filepath.Join("config", "dynamic", "services.yml"),
			DefaultMiddlewares: []string{"secure-headers@file", "compress@file"},
			BackendPort:        80,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  ":8090",
		},
	}
}

// DefaultQueries returns the built-in PromQL templates keyed by metric name.
// The literal "{service}" is replaced with the service name at query time.
func DefaultQueries() map[string]string {
	return map[string]string{
		"cpu":           `rate(container_cpu_usage_seconds_total{name=~".*{service}.*"}[5m]) * 100`,
		"memory":        `(container_memory_usage_bytes{name=~".*{service}.*"} / container_spec_memory_limit_bytes{name=~".*{service}.*"}) * 100`,
		"response_time": `histogram_quantile(0.95, sum(rate(traefik_service_request_duration_seconds_bucket{service=~".*{service}.*"}[5m])) by (le))`,
		"error_rate":    `sum(rate(traefik_service_requests_total{service=~".*{service}.*",code=~"5.."}[5m])) / sum(rate(traefik_service_requests_total{service=~".*{service}.*"}[5m]))`,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Log defaults
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	viper.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	viper.SetDefault("log.compress", defaults.Log.Compress)

	// Compose defaults
	viper.SetDefault("compose.file", defaults.Compose.File)
	viper.SetDefault("compose.project", defaults.Compose.Project)

	// Docker defaults
	viper.SetDefault("docker.binary", defaults.Docker.Binary)
	viper.SetDefault("docker.swarm_mode", defaults.Docker.SwarmMode)
	viper.SetDefault("docker.command_timeout_seconds", defaults.Docker.CommandTimeoutSeconds)
	viper.SetDefault("docker.network", defaults.Docker.Network)

	// Scaling defaults
	viper.SetDefault("scaling.enabled", defaults.Scaling.Enabled)
	viper.SetDefault("scaling.check_interval_seconds", defaults.Scaling.CheckIntervalSeconds)
	viper.SetDefault("scaling.metric", defaults.Scaling.Metric)
	viper.SetDefault("scaling.scale_up_threshold", defaults.Scaling.ScaleUpThreshold)
	viper.SetDefault("scaling.scale_down_threshold", defaults.Scaling.ScaleDownThreshold)
	viper.SetDefault("scaling.min_replicas", defaults.Scaling.MinReplicas)
	viper.SetDefault("scaling.max_replicas", defaults.Scaling.MaxReplicas)
	viper.SetDefault("scaling.step", defaults.Scaling.Step)
	viper.SetDefault("scaling.cooldown_seconds", defaults.Scaling.CooldownSeconds)
	viper.SetDefault("scaling.sample_workers", defaults.Scaling.SampleWorkers)
	viper.SetDefault("scaling.sample_budget_seconds", defaults.Scaling.SampleBudgetSeconds)
	viper.SetDefault("scaling.reconcile_workers", defaults.Scaling.ReconcileWorkers)
	viper.SetDefault("scaling.max_retries", defaults.Scaling.MaxRetries)
	viper.SetDefault("scaling.retry_backoff_ms", defaults.Scaling.RetryBackoffMs)
	viper.SetDefault("scaling.retry_backoff_cap_ms", defaults.Scaling.RetryBackoffCapMs)

	// Prometheus defaults
	viper.SetDefault("prometheus.url", defaults.Prometheus.URL)
	viper.SetDefault("prometheus.timeout_seconds", defaults.Prometheus.TimeoutSeconds)
	viper.SetDefault("prometheus.queries", defaults.Prometheus.Queries)

	// Traefik defaults
	viper.SetDefault("traefik.domain_suffix", defaults.Traefik.DomainSuffix)
	viper.SetDefault("traefik.entrypoint", defaults.Traefik.EntryPoint)
	viper.SetDefault("traefik.output_path", defaults.Traefik.OutputPath)
	viper.SetDefault("traefik.default_middlewares", defaults.Traefik.DefaultMiddlewares)
	viper.SetDefault("traefik.backend_port", defaults.Traefik.BackendPort)

	// API defaults
	viper.SetDefault("api.enabled", defaults.API.Enabled)
	viper.SetDefault("api.listen", defaults.API.Listen)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tsm")
	}
	// Fall back to ~/.config/tsm
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tsm"
	}
	return filepath.Join(home, ".config", "tsm")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
