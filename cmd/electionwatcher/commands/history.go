package commands

import (
	"github.com/spf13/cobra"

	"ElectionWatcher/internal/app"
)

var (
	historySite  string
	historyLimit uint64
)

var historyCmd = &cobra.Command{
	Use:   "history [--site <name>] [--limit <n>]",
	Short: "Prints the latest dispatches from the history database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return app.PrintHistory(cmd.Context(), cfg, historySite, historyLimit, cmd.OutOrStdout())
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySite, "site", "", "only show dispatches of this site")
	historyCmd.Flags().Uint64Var(&historyLimit, "limit", 50, "maximum number of rows, 0 for all")
	rootCmd.AddCommand(historyCmd)
}
