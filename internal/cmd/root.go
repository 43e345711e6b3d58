package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsm-sh/tsm/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tsm",
	Short: "Metric-driven scaling and Traefik routing for compose projects",
	Long: `tsm watches a compose project, samples service metrics from
Prometheus, scales services between their configured bounds, and keeps
Traefik's dynamic routing document in sync with the resulting topology.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/tsm/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().StringP("file", "f", "", "compose manifest (default is docker-compose.yml)")
	_ = viper.BindPFlag("compose.file", rootCmd.PersistentFlags().Lookup("file"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TSM")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TSM_SCALING_CHECK_INTERVAL_SECONDS for scaling.check_interval_seconds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
