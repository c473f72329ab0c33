package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ElectionWatcher/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "electionwatcher",
	Short:         "electionwatcher polls election result pages and announces new divisions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (defaults to $ELECTION_WATCHER_CONFIG)")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
