package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
)

var initconfigCmd = &cobra.Command{
	Use:   "initconfig",
	Short: "Create a default config file",
	Long: `Create a config file at ~/.config/tsm/config.yaml with all
available options and their defaults.`,
	RunE: runInitConfig,
}

var initconfigForce bool

func init() {
	rootCmd.AddCommand(initconfigCmd)

	initconfigCmd.Flags().BoolVar(&initconfigForce, "force", false, "overwrite an existing config file")
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil && !initconfigForce {
		return fmt.Errorf("config file already exists at %s\nUse --force to overwrite it", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# tsm configuration

# Structured logging
log:
  # Log level: debug, info, warn, error
  level: info
  # Log file path; empty logs to stderr
  file: ""
  # Rotate the log file once it exceeds this size
  max_size_mb: 10
  # Number of rotated files to keep
  max_backups: 3
  # gzip-compress rotated files
  compress: false

# Compose project
compose:
  # Path to the compose manifest
  file: docker-compose.yml
  # Compose project name; empty derives it from the manifest directory
  project: ""

# Orchestrator CLI
docker:
  binary: docker
  # Use 'docker service scale' instead of compose scaling
  swarm_mode: false
  # Timeout for a single docker invocation
  command_timeout_seconds: 30
  # External network shared with Traefik
  network: traefik

# Scaling policy defaults; per-service labels and the services map
# below override these
scaling:
  enabled: true
  check_interval_seconds: 60
  # Default metric driving decisions: cpu, memory, response_time, error_rate
  metric: cpu
  scale_up_threshold: 80
  scale_down_threshold: 30
  min_replicas: 1
  max_replicas: 5
  # Replicas added or removed by a single decision
  step: 1
  # Quiet period after a successful scale in the same direction
  cooldown_seconds: 300
  # Concurrent metric probes per tick
  sample_workers: 4
  # Wall-clock budget for one sampling phase
  sample_budget_seconds: 20
  # Concurrent orchestrator calls per tick
  reconcile_workers: 2
  # Retry budget per scaling change
  max_retries: 3
  retry_backoff_ms: 500
  retry_backoff_cap_ms: 5000
  # Per-service overrides, e.g.:
  # services:
  #   web:
  #     metric: response_time
  #     max_replicas: 10
  #     priority: high
  services: {}

# Metrics source
prometheus:
  url: http://localhost:9090
  timeout_seconds: 10
  # PromQL templates per metric; "{service}" is replaced with the
  # service name. Omitted metrics use built-in templates.
  # queries:
  #   cpu: rate(container_cpu_usage_seconds_total{name=~".*{service}.*"}[5m]) * 100

# Routing document projection
traefik:
  # Services are routed as <name>.<domain_suffix>
  domain_suffix: ddev
  entrypoint: websecure
  # Where the dynamic routing document is written
  output_path: config/dynamic/services.yml
  default_middlewares:
    - secure-headers@file
    - compress@file
  # Port used when a service declares none
  backend_port: 80

# Status HTTP API (also enabled by 'tsm monitor --listen')
api:
  enabled: false
  listen: ":8090"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println("Edit this file to customize tsm's behavior.")

	return nil
}
