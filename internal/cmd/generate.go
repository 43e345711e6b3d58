package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/loop"
	"github.com/tsm-sh/tsm/internal/watch"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Project the routing document from the compose manifest",
	Long: `Generate Traefik's dynamic routing document from the compose
manifest without scaling anything. Replica endpoints are read from the
orchestrator when it is reachable and fall back to declared counts.

With --watch, tsm stays running and regenerates the document whenever
the manifest changes.`,
	RunE: runGenerate,
}

var generateWatch bool

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&generateWatch, "watch", false, "regenerate on manifest changes")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Log.File, cfg.Log.Level, rotationConfig(cfg))
	if err != nil {
		return err
	}
	defer logger.Close()

	opts := []loop.Option{loop.WithProjectionOnly(true), loop.WithInterval(0)}

	if generateWatch {
		watcher, err := watch.New(cfg.Compose.File, watch.DefaultDebounce, logger)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.Compose.File, err)
		}
		watcher.Start()
		defer watcher.Stop()
		opts = append(opts, loop.WithWatch(watcher.Changes()))
	}

	lp, err := buildLoop(cfg, logger, opts...)
	if err != nil {
		return err
	}

	if generateWatch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", cfg.Compose.File)
		lp.Bus().Subscribe("projection.written", func(e event.Event) {
			if ev, ok := e.(event.ProjectionWrittenEvent); ok {
				fmt.Printf("Wrote %s (%d routers)\n", ev.Path, ev.RouterCount)
			}
		})
		return lp.Run(ctx)
	}

	// One-shot: the tick reports its outcome through the bus.
	var written *event.ProjectionWrittenEvent
	var aborted *event.TickAbortedEvent
	lp.Bus().Subscribe("projection.written", func(e event.Event) {
		if ev, ok := e.(event.ProjectionWrittenEvent); ok {
			written = &ev
		}
	})
	lp.Bus().Subscribe("tick.aborted", func(e event.Event) {
		if ev, ok := e.(event.TickAbortedEvent); ok {
			aborted = &ev
		}
	})

	lp.RunOnce(context.Background(), event.TriggerManual)

	if aborted != nil {
		return fmt.Errorf("generation failed during %s: %s", aborted.Phase, aborted.Reason)
	}
	if written == nil {
		return fmt.Errorf("routing document was not written, see logs")
	}
	fmt.Printf("Wrote %s (%d routers, %d bytes)\n", written.Path, written.RouterCount, written.Bytes)
	return nil
}
