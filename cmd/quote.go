package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"jupiter-swap/config"
	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/parser"
)

var quoteSlippageBps uint64

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <input-token> to <output-token>",
	Short: "Fetch a swap quote without executing",
	Long: `Fetch a priced route from the Jupiter aggregator without signing or
broadcasting anything.

Examples:
  jupiter-swap quote 1 SOL to USDC
  jupiter-swap quote 100 USDC to SOL --slippage-bps 100`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Uint64Var(&quoteSlippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default from config)")
}

func runQuote(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	parsed, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	inputToken, err := parser.ResolveToken(parsed.InputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	outputToken, err := parser.ResolveToken(parsed.OutputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	amount, err := parser.AmountToSmallestUnit(parsed.Amount, inputToken.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	configureLogging(cfg.LogLevel, verbose)

	slippage := cfg.SlippageBps
	if quoteSlippageBps > 0 {
		slippage = quoteSlippageBps
	}

	client := jupiter.NewClient(cfg.JupiterAPIURL)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quote, err := client.Quote(ctx, jupiter.QuoteParams{
		InputMint:   inputToken.Mint.String(),
		OutputMint:  outputToken.Mint.String(),
		Amount:      amount,
		SlippageBps: slippage,
	})

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	out, err := quote.OutAmountUint64()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	outFormatted := decimal.New(int64(out), -outputToken.Decimals)

	if jsonOutput {
		output := map[string]interface{}{
			"input_mint":       quote.InputMint,
			"output_mint":      quote.OutputMint,
			"in_amount":        quote.InAmount,
			"out_amount":       quote.OutAmount,
			"out_formatted":    outFormatted.String(),
			"price_impact_pct": quote.PriceImpactPct,
			"slippage_bps":     quote.SlippageBps,
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("\nQuote: %s %s -> %s %s\n", parsed.Amount, inputToken.Symbol, outFormatted, outputToken.Symbol)
	fmt.Printf("  Price impact: %s%%\n", quote.PriceImpactPct)
	fmt.Printf("  Slippage:     %d bps\n", quote.SlippageBps)
	fmt.Println("\nExecute it with:")
	color.Cyan("  jupiter-swap swap %s %s to %s\n", parsed.Amount, inputToken.Symbol, outputToken.Symbol)
}
