package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crypto-monitor",
	Short: "Personal crypto portfolio tracker",
	Long: `A personal crypto-asset portfolio tracker backend.

Features:
• Historical quote backfill with automatic gap detection
• Signed exchange API access (Bybit)
• Portfolio evolution by month or year
• Allocation and price-history dashboards
• NATS-queued backfill workers with bounded concurrency`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
