package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jupiter-swap/config"
	"jupiter-swap/pkg/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the status of a transaction",
	Long: `Look up a transaction signature on the ledger and report its slot,
fee and execution result.

Examples:
  jupiter-swap status 5Kd3N...sig`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	signature := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	configureLogging(cfg.LogLevel, verbose)

	client := ledger.New(cfg.RPCURL, cfg.Commitment)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Looking up transaction..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := client.TransactionInfo(ctx, signature)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"signature":  info.Signature,
			"slot":       info.Slot,
			"fee":        info.Fee,
			"block_time": info.BlockTime,
		}
		if info.Err != "" {
			output["err"] = info.Err
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("\nTransaction %s\n", info.Signature)
	fmt.Printf("  Slot: %d\n", info.Slot)
	fmt.Printf("  Fee:  %d lamports\n", info.Fee)
	if info.BlockTime > 0 {
		fmt.Printf("  Time: %s\n", time.Unix(info.BlockTime, 0).UTC().Format(time.RFC3339))
	}
	if info.Err != "" {
		color.Red("  Result: failed (%s)\n", info.Err)
	} else {
		color.Green("  Result: success\n")
	}
	fmt.Println()
}
