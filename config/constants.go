package config

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Aggregator endpoints.
const (
	DefaultJupiterAPIURL = "https://quote-api.jup.ag/v6"
	DefaultRPCURL        = "https://api.mainnet-beta.solana.com"
)

// Quote shaping defaults.
const (
	DefaultSlippageBps = 50 // 0.5%
	OnlyDirectRoutes   = true
	PlatformFeeBps     = 0
	MaxQuoteAccounts   = 8
)

// Transaction and confirmation settings.
const (
	DefaultCommitment             = "confirmed"
	BroadcastMaxRetries           = 3
	RateLimitWait                 = 1 * time.Second
	ConfirmPollInterval           = 1 * time.Second
	ComputeUnitPriceMicroLamports = 0
	SkipPreflightDefault          = true
)

// Whole-swap retry policy. Independent of the broadcast-level budget so the
// two never multiply.
const (
	MaxSwapAttempts  = 3
	SwapRetryBackoff = 1 * time.Second
)

// Balance guards.
const (
	// MinSOLReserveLamports is kept aside for fees when swapping the
	// native asset (0.05 SOL).
	MinSOLReserveLamports = 50_000_000
)

// Market sampler defaults.
const (
	DefaultSampleInterval  = 30 * time.Second
	DefaultSampleRetention = 1 * time.Hour
	SampleAmountLamports   = 1_000_000_000 // 1 SOL
	SampleSlippageBps      = 100
)

// Program identifiers for the production network.
var (
	TokenProgramID           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	JupiterProgramID         = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

	// NativeMint is wrapped SOL; holdings of the native asset need no
	// dedicated token account.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// USDCMint is the quote asset for the market sampler.
	USDCMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)
