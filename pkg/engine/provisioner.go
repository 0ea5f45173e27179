package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/config"
	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/observability"
	"jupiter-swap/pkg/swaperr"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

// Provisioner ensures the signer owns the on-ledger accounts needed to hold
// the swap's input and output assets, creating missing ones.
type Provisioner struct {
	ledger    Ledger
	wallet    *wallet.Wallet
	confirmer *Confirmer
	metrics   *observability.Metrics
}

// NewProvisioner creates an account provisioner.
func NewProvisioner(l Ledger, w *wallet.Wallet, confirmer *Confirmer, metrics *observability.Metrics) *Provisioner {
	return &Provisioner{
		ledger:    l,
		wallet:    w,
		confirmer: confirmer,
		metrics:   metrics,
	}
}

// EnsureAccount makes sure the signer's associated account for the given
// asset exists, creating it when absent. The derivation is deterministic
// and the existence check side-effect free, so calling twice for the same
// asset performs the creation at most once. The native asset needs no
// dedicated account.
func (p *Provisioner) EnsureAccount(ctx context.Context, mint solana.PublicKey) (*types.AccountRecord, error) {
	owner := p.wallet.PublicKey()

	if mint.Equals(config.NativeMint) {
		return &types.AccountRecord{
			Owner:   owner,
			Mint:    mint,
			Address: owner,
			Exists:  true,
			Native:  true,
		}, nil
	}

	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, swaperr.AccountCreationFailed("failed to derive associated token address", err)
	}

	exists, err := p.ledger.AccountExists(ctx, address)
	if err != nil {
		return nil, swaperr.NetworkError("failed to check account existence", err)
	}

	record := &types.AccountRecord{
		Owner:   owner,
		Mint:    mint,
		Address: address,
		Exists:  exists,
	}
	if exists {
		return record, nil
	}

	log.WithFields(log.Fields{
		"owner":   owner.String(),
		"mint":    mint.String(),
		"address": address.String(),
	}).Info("creating associated token account")

	if err := p.createAccount(ctx, mint, address); err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.AccountsCreated.Inc()
	}

	record.Exists = true
	record.Created = true
	return record, nil
}

// createAccount builds, signs, broadcasts and confirms the creation
// instruction. The account must be confirmed live before the swap
// transaction references it.
func (p *Provisioner) createAccount(ctx context.Context, mint, address solana.PublicKey) error {
	owner := p.wallet.PublicKey()

	bhc, err := p.ledger.LatestBlockhash(ctx)
	if err != nil {
		return swaperr.NetworkError("failed to get latest blockhash", err)
	}

	ix := associatedtokenaccount.NewCreateInstruction(
		owner, // payer
		owner, // wallet
		mint,  // mint
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		bhc.Blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return swaperr.AccountCreationFailed("failed to build creation transaction", err)
	}

	if _, err := tx.Sign(p.wallet.Signer()); err != nil {
		return swaperr.AccountCreationFailed("failed to sign creation transaction", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return swaperr.AccountCreationFailed("failed to serialize creation transaction", err)
	}

	sig, err := p.ledger.SendRawTransaction(ctx, raw, ledger.SubmitOptions{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if ledger.IsRateLimited(err) {
			return swaperr.RateLimited("account creation broadcast rate limited", err)
		}
		return swaperr.AccountCreationFailed("failed to broadcast creation transaction", err)
	}

	result := p.confirmer.Await(ctx, sig, bhc)
	if result.Status != types.StatusConfirmed {
		return swaperr.AccountCreationFailed(
			fmt.Sprintf("account creation %s for %s: %s", result.Status, address.String(), result.ErrDetail), nil)
	}
	return nil
}

// EnsureSwapAccounts ensures both legs of a swap concurrently. The two
// derived addresses are distinct, so the calls never race on the same
// account.
func (p *Provisioner) EnsureSwapAccounts(ctx context.Context, inputMint, outputMint solana.PublicKey) (*types.AccountRecord, *types.AccountRecord, error) {
	var (
		wg                  sync.WaitGroup
		input, output       *types.AccountRecord
		inputErr, outputErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		input, inputErr = p.EnsureAccount(ctx, inputMint)
	}()
	go func() {
		defer wg.Done()
		output, outputErr = p.EnsureAccount(ctx, outputMint)
	}()
	wg.Wait()

	if inputErr != nil {
		return nil, nil, inputErr
	}
	if outputErr != nil {
		return nil, nil, outputErr
	}
	return input, output, nil
}
