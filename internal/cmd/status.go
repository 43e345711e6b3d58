package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/discovery"
	"github.com/tsm-sh/tsm/internal/orchestrator"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live topology of the compose project",
	Long: `Query the orchestrator for the live replica count and running
endpoints of every service in the compose manifest.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	services, err := discovery.New(cfg, nil).ListServices(cfg.Compose.File)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		fmt.Println("No services found.")
		return nil
	}

	client := orchestrator.NewDockerClient(cfg, nil)
	ctx := context.Background()

	fmt.Printf("Manifest: %s\n", cfg.Compose.File)
	fmt.Printf("Services: %d\n\n", len(services))

	for i, svc := range services {
		replicas, err := client.Replicas(ctx, svc.Name)
		if err != nil {
			fmt.Printf("[%d] %s (declared %d replicas, live count unavailable)\n", i+1, svc.Name, svc.Replicas)
			fmt.Printf("    Error: %v\n\n", err)
			continue
		}

		fmt.Printf("[%d] %s (%d replicas)\n", i+1, svc.Name, replicas)
		if endpoints, err := client.LiveEndpoints(ctx, svc.Name); err == nil && len(endpoints) > 0 {
			fmt.Printf("    Endpoints: %s\n", strings.Join(endpoints, ", "))
		}
		if svc.Scalable() {
			r := svc.Rule
			fmt.Printf("    Scaling: %s %.0f/%.0f, bounds %d..%d, priority %s\n",
				r.Metric, r.High, r.Low, r.Min, r.Max, svc.Priority)
		}
		fmt.Println()
	}

	return nil
}
