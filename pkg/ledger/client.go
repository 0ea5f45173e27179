// Package ledger wraps the Solana RPC client behind the narrow surface the
// swap engine needs: account lookups, blockhash context, raw submission and
// signature status polling.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// BlockhashContext ties a recent blockhash to the last ledger height at
// which a transaction referencing it may still land.
type BlockhashContext struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// SignatureStatus is the reported state of a submitted transaction.
type SignatureStatus struct {
	Slot      uint64
	Confirmed bool
	Finalized bool

	// Err carries the on-chain execution error verbatim, empty on success.
	Err string
}

// SubmitOptions controls raw transaction submission.
type SubmitOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// TransactionInfo summarizes a landed transaction.
type TransactionInfo struct {
	Signature string
	Slot      uint64
	Fee       uint64
	Err       string
	BlockTime int64
}

// Client wraps the Solana RPC client.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// New creates a ledger client for the given RPC endpoint.
func New(endpoint, commitment string) *Client {
	return &Client{
		rpc:        rpc.New(endpoint),
		commitment: ParseCommitment(commitment),
	}
}

// ParseCommitment maps a configured commitment name to the RPC type.
func ParseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// Commitment returns the client's configured commitment level.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// Balance returns the native balance of an account in lamports.
func (c *Client) Balance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

// TokenAccountBalance returns the token balance of a token account in the
// asset's smallest unit. A missing account reports zero balance.
func (c *Client) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return amount, nil
}

// AccountExists checks whether an account exists on-chain. The lookup is
// read-only and idempotent.
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	result, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get account info: %w", err)
	}
	return result.Value != nil, nil
}

// LatestBlockhash returns the most recent blockhash and its validity bound.
func (c *Client) LatestBlockhash(ctx context.Context) (BlockhashContext, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return BlockhashContext{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return BlockhashContext{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// BlockHeight returns the current ledger height.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get block height: %w", err)
	}
	return height, nil
}

// SendRawTransaction submits serialized transaction bytes to the network
// entry point. Acceptance does not imply finality.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte, opts SubmitOptions) (solana.Signature, error) {
	commitment := opts.PreflightCommitment
	if commitment == "" {
		commitment = c.commitment
	}
	sig, err := c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// SignatureStatus returns the current status of a signature, or nil if the
// network does not know it yet.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}

	entry := result.Value[0]
	status := &SignatureStatus{
		Slot:      entry.Slot,
		Confirmed: entry.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || entry.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
		Finalized: entry.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
	}
	if entry.Err != nil {
		status.Err = fmt.Sprintf("%v", entry.Err)
	}
	return status, nil
}

// TransactionInfo retrieves slot, fee and error details for a signature.
func (c *Client) TransactionInfo(ctx context.Context, signature string) (*TransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}

	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	info := &TransactionInfo{
		Signature: signature,
		Slot:      result.Slot,
	}
	if result.Meta != nil {
		info.Fee = result.Meta.Fee
		if result.Meta.Err != nil {
			info.Err = fmt.Sprintf("%v", result.Meta.Err)
		}
	}
	if result.BlockTime != nil {
		info.BlockTime = result.BlockTime.Time().Unix()
	}
	return info, nil
}

// IsRateLimited reports whether an RPC error is a rate-limit response.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Too Many Requests") ||
		strings.Contains(strings.ToLower(msg), "rate limit")
}
