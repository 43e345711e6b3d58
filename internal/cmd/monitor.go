package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/discovery"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/loop"
	"github.com/tsm-sh/tsm/internal/metrics"
	"github.com/tsm-sh/tsm/internal/orchestrator"
	"github.com/tsm-sh/tsm/internal/proxy"
	"github.com/tsm-sh/tsm/internal/statusapi"
	"github.com/tsm-sh/tsm/internal/tui"
	"github.com/tsm-sh/tsm/internal/watch"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the scaling control loop",
	Long: `Run the scaling control loop against the compose project.

Each tick discovers services from the manifest, samples their metrics
from Prometheus, applies the scaling policy, reconciles replica counts
through the orchestrator, and rewrites Traefik's dynamic routing
document. The manifest is watched for edits between ticks.

With --dashboard, a live terminal dashboard shows loop state and
activity; logs then go to the log file instead of stderr.`,
	RunE: runMonitor,
}

var (
	monitorInterval  time.Duration
	monitorDryRun    bool
	monitorDashboard bool
	monitorListen    string
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "check interval override (e.g. 30s)")
	monitorCmd.Flags().BoolVar(&monitorDryRun, "dry-run", false, "decide but never scale")
	monitorCmd.Flags().BoolVar(&monitorDashboard, "dashboard", false, "show the live dashboard")
	monitorCmd.Flags().StringVar(&monitorListen, "listen", "", "serve the status API on this address")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if monitorListen != "" {
		cfg.API.Enabled = true
		cfg.API.Listen = monitorListen
	}

	logPath := cfg.Log.File
	if monitorDashboard && logPath == "" {
		// stderr writes would corrupt the dashboard
		logPath = defaultLogPath()
	}
	logger, err := logging.NewLoggerWithRotation(logPath, cfg.Log.Level, rotationConfig(cfg))
	if err != nil {
		return err
	}
	defer logger.Close()

	opts := []loop.Option{loop.WithDryRun(monitorDryRun)}
	if monitorInterval > 0 {
		opts = append(opts, loop.WithInterval(monitorInterval))
	}

	watcher, err := watch.New(cfg.Compose.File, watch.DefaultDebounce, logger)
	if err != nil {
		logger.Warn("manifest watch unavailable", "error", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
		opts = append(opts, loop.WithWatch(watcher.Changes()))
	}

	lp, err := buildLoop(cfg, logger, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.API.Enabled {
		srv := statusapi.NewServer(cfg, lp, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("status api stopped", "error", err)
			}
		}()
	}

	if !monitorDashboard {
		return lp.Run(ctx)
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- lp.Run(ctx) }()

	uiErr := tui.New(lp, lp.Bus()).Run(ctx)
	stop()
	if err := <-loopErr; err != nil && uiErr == nil {
		uiErr = err
	}
	return uiErr
}

// buildLoop assembles the control loop from its configured parts.
func buildLoop(cfg *config.Config, logger *logging.Logger, opts ...loop.Option) (*loop.Loop, error) {
	source, err := metrics.NewPrometheusSource(cfg.Prometheus.URL, cfg.Prometheus.Queries, cfg.Prometheus.Timeout(), logger)
	if err != nil {
		return nil, err
	}
	client := orchestrator.NewDockerClient(cfg, logger)
	deps := loop.Deps{
		Scanner: discovery.New(cfg, logger),
		Sampler: metrics.NewSampler(source, cfg.Scaling.SampleWorkers, cfg.Scaling.SampleBudget(), logger),
		Client:  client,
		Reconciler: orchestrator.NewReconciler(client, logger,
			orchestrator.WithWorkers(cfg.Scaling.ReconcileWorkers),
			orchestrator.WithMaxRetries(cfg.Scaling.MaxRetries),
			orchestrator.WithBackoff(cfg.Scaling.RetryBackoff(), cfg.Scaling.RetryBackoffCap())),
		Projector: proxy.NewProjector(cfg, logger),
	}
	return loop.New(cfg, deps, logger, opts...)
}

func rotationConfig(cfg *config.Config) logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}
}

// defaultLogPath is where logs go when no log file is configured but
// stderr is unavailable, and where the logs command looks by default.
func defaultLogPath() string {
	return filepath.Join(config.ConfigDir(), "tsm.log")
}
