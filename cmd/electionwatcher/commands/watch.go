package commands

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"ElectionWatcher/internal/app"
	"ElectionWatcher/internal/logging"
)

var runOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Polls every configured site until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWatcher(cmd.Context(), runOnce)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single poll cycle and exits.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWatcher(cmd.Context(), true)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&runOnce, "once", false, "run one cycle and exit")
	rootCmd.AddCommand(watchCmd, onceCmd)
}

func runWatcher(ctx context.Context, once bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// logs go to stderr so the confirm prompt owns stdout
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger, app.Options{Stdin: os.Stdin, Stdout: os.Stdout})
	if err != nil {
		return err
	}
	defer application.Close()

	if once {
		return application.RunOnce(ctx)
	}

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped", "error", err)
		return err
	}
	logger.Info("application stopped")
	return nil
}
