// Package engine implements the swap execution and confirmation pipeline:
// quote retrieval, transaction assembly, account provisioning, format-aware
// signing, broadcast with retry, and confirmation tracking.
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/ledger"
)

// Ledger is the slice of the network RPC surface the engine depends on.
// *ledger.Client satisfies it; tests substitute stubs.
type Ledger interface {
	Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
	TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	LatestBlockhash(ctx context.Context) (ledger.BlockhashContext, error)
	BlockHeight(ctx context.Context) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte, opts ledger.SubmitOptions) (solana.Signature, error)
	SignatureStatus(ctx context.Context, sig solana.Signature) (*ledger.SignatureStatus, error)
}

// Aggregator is the slice of the aggregator API the engine depends on.
// *jupiter.Client satisfies it.
type Aggregator interface {
	Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
	SwapTransaction(ctx context.Context, quote *jupiter.Quote, user solana.PublicKey, asLegacy bool) (*jupiter.SwapResponse, error)
}
