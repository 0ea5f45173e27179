package types

import (
	"github.com/gagliardetto/solana-go"
)

// TxFormat identifies the wire encoding of a transaction envelope.
type TxFormat int

const (
	// FormatVersioned is the modern encoding; the blockhash is fixed by the
	// aggregator at assembly time.
	FormatVersioned TxFormat = iota

	// FormatLegacy is the pre-versioned encoding; blockhash and fee payer
	// must be populated by the signer.
	FormatLegacy
)

func (f TxFormat) String() string {
	switch f {
	case FormatVersioned:
		return "versioned"
	case FormatLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// SwapRequest describes one swap attempt. It is immutable once created;
// the engine threads all derived state through the pipeline instead of
// storing it on shared objects.
type SwapRequest struct {
	ID           string
	Signer       solana.PublicKey
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	Amount       uint64 // smallest unit of the input asset
	SlippageBps  uint64
	PreferLegacy bool
}

// TransactionEnvelope is a decoded, ready-to-sign transaction owned
// exclusively by one in-flight swap.
type TransactionEnvelope struct {
	Tx     *solana.Transaction
	Format TxFormat
	Raw    []byte
}

// AccountRecord describes an asset-holding account derived for an owner.
type AccountRecord struct {
	Owner   solana.PublicKey
	Mint    solana.PublicKey
	Address solana.PublicKey
	Exists  bool
	Created bool

	// Native marks the ledger's native asset, which needs no dedicated
	// account.
	Native bool
}

// ConfirmationStatus is the terminal classification of a broadcast
// transaction.
type ConfirmationStatus int

const (
	StatusPending ConfirmationStatus = iota
	StatusConfirmed
	StatusFailed
	StatusExpired
)

func (s ConfirmationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ConfirmationResult is the outcome of tracking one signature.
type ConfirmationResult struct {
	Signature solana.Signature
	Status    ConfirmationStatus
	ErrDetail string
}

// Stage names a step of the swap state machine, used for diagnostics.
type Stage string

const (
	StageInit        Stage = "init"
	StageQuoted      Stage = "quoted"
	StageAssembled   Stage = "assembled"
	StageProvisioned Stage = "provisioned"
	StageSigned      Stage = "signed"
	StageBroadcast   Stage = "broadcast"
	StageConfirmed   Stage = "confirmed"
)

// SwapOutcome is the terminal result of one SwapRequest.
type SwapOutcome struct {
	RequestID string
	Confirmed bool
	Signature solana.Signature

	// Failure context; zero values on success.
	ErrKind   string
	ErrDetail string
	Retriable bool

	// Stage reached and number of whole-swap attempts consumed.
	Stage    Stage
	Attempts int
}
