package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List services discovered in the compose manifest",
	Long: `Parse the compose manifest and show every service with its
resolved routing and scaling configuration, without touching the
orchestrator or Prometheus.`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Found %d services in %s\n\n", len(services), cfg.Compose.File)

	for i, svc := range services {
		fmt.Printf("[%d] %s\n", i+1, svc.Name)
		if svc.Image != "" {
			fmt.Printf("    Image: %s\n", svc.Image)
		}
		fmt.Printf("    Replicas: %d\n", svc.Replicas)
		if svc.Port > 0 {
			fmt.Printf("    Port: %d\n", svc.Port)
		}
		if !svc.TraefikEnabled {
			fmt.Printf("    Routing: disabled\n")
		}
		if svc.Scalable() {
			r := svc.Rule
			fmt.Printf("    Scaling: %s above %.0f scales up, below %.0f scales down\n", r.Metric, r.High, r.Low)
			fmt.Printf("    Bounds: %d..%d step %d, cooldown %s, priority %s\n",
				r.Min, r.Max, r.Step, r.Cooldown, svc.Priority)
		} else {
			fmt.Printf("    Scaling: disabled\n")
		}
		fmt.Println()
	}

	return nil
}
