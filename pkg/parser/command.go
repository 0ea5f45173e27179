// Package parser turns the CLI's swap phrasing into mints and amounts.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapCommand is a parsed swap phrase before resolution against the ledger.
type SwapCommand struct {
	Amount      string
	InputToken  string
	OutputToken string
}

// Token describes a known asset.
type Token struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals int32
}

// knownTokens maps common symbols to their production mints. Unknown
// symbols are accepted as raw mint addresses.
var knownTokens = map[string]Token{
	"SOL":  {Symbol: "SOL", Mint: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"), Decimals: 9},
	"USDC": {Symbol: "USDC", Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6},
	"USDT": {Symbol: "USDT", Mint: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Decimals: 6},
	"JUP":  {Symbol: "JUP", Mint: solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"), Decimals: 6},
	"BONK": {Symbol: "BONK", Mint: solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"), Decimals: 5},
}

var commandPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+(\S+)\s+(?i:TO)\s+(\S+)$`)

// ParseSwapCommand parses a swap phrase.
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 SOL to USDC"
//   - "100 EPjFWdd5...Dt1v to SOL"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.TrimSpace(command)
	if upper := strings.ToUpper(command); strings.HasPrefix(upper, "SWAP ") {
		command = strings.TrimSpace(command[5:])
	}

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 SOL to USDC')")
	}

	return &SwapCommand{
		Amount:      matches[1],
		InputToken:  matches[2],
		OutputToken: matches[3],
	}, nil
}

// ResolveToken maps a symbol or raw mint address to a Token. Raw mints get
// zero decimals; callers passing raw mints supply amounts in smallest units.
func ResolveToken(symbolOrMint string) (Token, error) {
	if token, ok := knownTokens[strings.ToUpper(symbolOrMint)]; ok {
		return token, nil
	}

	mint, err := solana.PublicKeyFromBase58(symbolOrMint)
	if err != nil {
		return Token{}, fmt.Errorf("unknown token %q: not a known symbol or valid mint address", symbolOrMint)
	}
	return Token{Symbol: symbolOrMint, Mint: mint, Decimals: 0}, nil
}

// AmountToSmallestUnit converts a human-readable amount to the asset's
// smallest unit.
func AmountToSmallestUnit(amount string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", amount)
	}

	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return uint64(scaled.IntPart()), nil
}
