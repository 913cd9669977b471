package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	envFile      string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leapscope",
	Short: "LEAPS scanner and portfolio monitor",
	Long: `LEAPScope scans a symbol universe for long-dated option entry
conditions, scores conviction, and monitors held LEAPS positions.

Examples:
  leapscope scan
  leapscope scan --symbols AAPL,MSFT
  leapscope portfolio list
  leapscope history --limit 10
  leapscope track stats
  leapscope serve
  leapscope scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default from SCAN_STRATEGY_FILE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
