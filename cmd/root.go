package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jupiter-swap",
	Short: "A CLI for token swaps on Solana via the Jupiter aggregator",
	Long: `jupiter-swap executes token swaps on Solana through the Jupiter v6
aggregator: it quotes a route, builds the transaction, provisions missing
token accounts, signs, broadcasts and tracks confirmation.

Examples:
  jupiter-swap quote 1 SOL to USDC
  jupiter-swap swap 1 SOL to USDC
  jupiter-swap swap 0.5 SOL to USDC --slippage-bps 100 --legacy
  jupiter-swap status <signature>
  jupiter-swap monitor`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

// configureLogging applies the configured log level unless --verbose already
// raised it.
func configureLogging(level string, verbose bool) {
	if verbose {
		return
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
