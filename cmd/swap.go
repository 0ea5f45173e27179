package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jupiter-swap/config"
	"jupiter-swap/pkg/engine"
	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/observability"
	"jupiter-swap/pkg/parser"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

var (
	swapSlippageBps   uint64
	swapLegacy        bool
	swapNoConfirm     bool
	swapTimeout       time.Duration
	swapSkipPreflight bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <input-token> to <output-token>",
	Short: "Execute a token swap",
	Long: `Execute a token swap through the Jupiter aggregator. Tokens can be
given as known symbols (SOL, USDC, USDT, JUP, BONK) or raw mint addresses;
raw mints take the amount in the asset's smallest unit.

A wallet must be configured via JUPITER_SWAP_WALLET_PRIVATE_KEY (base58) or
JUPITER_SWAP_WALLET_KEYPAIR_FILE (Solana CLI keypair).

Examples:
  jupiter-swap swap 1 SOL to USDC
  jupiter-swap swap 0.5 SOL to USDC --slippage-bps 100
  jupiter-swap swap 25 USDC to SOL --legacy --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Uint64Var(&swapSlippageBps, "slippage-bps", 0, "Slippage tolerance in basis points (default from config)")
	swapCmd.Flags().BoolVar(&swapLegacy, "legacy", false, "Request the legacy transaction format")
	swapCmd.Flags().BoolVarP(&swapNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().DurationVar(&swapTimeout, "timeout", 2*time.Minute, "Overall deadline for the swap")
	swapCmd.Flags().BoolVar(&swapSkipPreflight, "skip-preflight", true, "Skip preflight validation on broadcast")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	req, inputToken, outputToken, err := buildSwapRequest(args)
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

	if err := cfg.RequireWallet(); err != nil {
		printError(err)
		os.Exit(1)
	}
	w, err := loadWallet(cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	req.Signer = w.PublicKey()
	if swapSlippageBps > 0 {
		req.SlippageBps = swapSlippageBps
	} else {
		req.SlippageBps = cfg.SlippageBps
	}
	req.PreferLegacy = swapLegacy

	if !swapNoConfirm && !jsonOutput {
		fmt.Printf("\nSwap %s %s for %s\n", args[0], inputToken.Symbol, outputToken.Symbol)
		fmt.Printf("  Signer:   %s\n", w.PublicKey())
		fmt.Printf("  Slippage: %d bps\n", req.SlippageBps)
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	metrics, _ := observability.Default()
	orch := engine.New(engine.Options{
		Aggregator:          jupiter.NewClient(cfg.JupiterAPIURL),
		Ledger:              ledger.New(cfg.RPCURL, cfg.Commitment),
		Wallet:              w,
		MaxSwapAttempts:     cfg.MaxSwapAttempts,
		BroadcastMaxRetries: cfg.BroadcastMaxRetries,
		SkipPreflight:       swapSkipPreflight,
		Commitment:          ledger.ParseCommitment(cfg.Commitment),
		Metrics:             metrics,
	})

	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	outcome := orch.Execute(ctx, *req)

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		printOutcomeJSON(outcome)
	} else {
		printOutcome(outcome)
	}

	if !outcome.Confirmed {
		os.Exit(1)
	}
}

// buildSwapRequest parses the command phrase and resolves both tokens.
func buildSwapRequest(args []string) (*types.SwapRequest, parser.Token, parser.Token, error) {
	commandStr := strings.Join(args, " ")
	parsed, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		return nil, parser.Token{}, parser.Token{}, err
	}

	inputToken, err := parser.ResolveToken(parsed.InputToken)
	if err != nil {
		return nil, parser.Token{}, parser.Token{}, err
	}
	outputToken, err := parser.ResolveToken(parsed.OutputToken)
	if err != nil {
		return nil, parser.Token{}, parser.Token{}, err
	}

	amount, err := parser.AmountToSmallestUnit(parsed.Amount, inputToken.Decimals)
	if err != nil {
		return nil, parser.Token{}, parser.Token{}, err
	}

	return &types.SwapRequest{
		InputMint:  inputToken.Mint,
		OutputMint: outputToken.Mint,
		Amount:     amount,
	}, inputToken, outputToken, nil
}

func loadWallet(cfg *config.Config) (*wallet.Wallet, error) {
	if cfg.WalletPrivateKey != "" {
		return wallet.FromBase58(cfg.WalletPrivateKey)
	}
	return wallet.FromFile(cfg.WalletKeypairFile)
}

func confirmSwap() bool {
	fmt.Print("\nProceed with the swap? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printOutcome(outcome *types.SwapOutcome) {
	if outcome.Confirmed {
		printSuccess("Swap confirmed.")
		color.Green("  Signature: %s", outcome.Signature)
		fmt.Printf("  Attempts:  %d\n\n", outcome.Attempts)
		fmt.Println("Inspect the transaction with:")
		color.Cyan("  jupiter-swap status %s\n", outcome.Signature)
		return
	}

	color.Red("\nSwap failed at stage %q: %s", outcome.Stage, outcome.ErrKind)
	fmt.Printf("  Detail:   %s\n", outcome.ErrDetail)
	fmt.Printf("  Attempts: %d\n", outcome.Attempts)
	if !outcome.Signature.IsZero() {
		fmt.Printf("  Signature: %s\n", outcome.Signature)
	}
	fmt.Println()
}

func printOutcomeJSON(outcome *types.SwapOutcome) {
	output := map[string]interface{}{
		"request_id": outcome.RequestID,
		"confirmed":  outcome.Confirmed,
		"stage":      string(outcome.Stage),
		"attempts":   outcome.Attempts,
	}
	if !outcome.Signature.IsZero() {
		output["signature"] = outcome.Signature.String()
	}
	if !outcome.Confirmed {
		output["error_kind"] = outcome.ErrKind
		output["error_detail"] = outcome.ErrDetail
		output["retriable"] = outcome.Retriable
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(data))
}
