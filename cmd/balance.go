package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"jupiter-swap/config"
	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/parser"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [token...]",
	Short: "Show the configured wallet's balances",
	Long: `Show the configured wallet's native balance, plus token balances for
any symbols or mint addresses given.

Examples:
  jupiter-swap balance
  jupiter-swap balance USDC JUP`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	configureLogging(cfg.LogLevel, verbose)

	if err := cfg.RequireWallet(); err != nil {
		printError(err)
		os.Exit(1)
	}
	w, err := loadWallet(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := ledger.New(cfg.RPCURL, cfg.Commitment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lamports, err := client.Balance(ctx, w.PublicKey())
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	sol := decimal.New(int64(lamports), -9)

	balances := map[string]string{"SOL": sol.String()}
	for _, arg := range args {
		token, err := parser.ResolveToken(arg)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if token.Mint.Equals(config.NativeMint) {
			continue
		}
		address, _, err := solana.FindAssociatedTokenAddress(w.PublicKey(), token.Mint)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		amount, err := client.TokenAccountBalance(ctx, address)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		balances[token.Symbol] = decimal.New(int64(amount), -token.Decimals).String()
	}

	if jsonOutput {
		output := map[string]interface{}{
			"wallet":   w.PublicKey().String(),
			"balances": balances,
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("\nWallet %s\n", w.PublicKey())
	for symbol, amount := range balances {
		fmt.Printf("  %-6s %s\n", symbol, amount)
	}
	fmt.Println()
}
