package engine

import (
	"context"

	log "github.com/sirupsen/logrus"

	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/swaperr"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

// Signer produces a signed, serialized transaction from an envelope. The
// behavior is identical at the interface but diverges per format: a legacy
// envelope needs a fresh blockhash and the signer as fee payer attached
// before signing, while a versioned envelope is signed over the message
// bytes exactly as the aggregator fixed them.
type Signer struct {
	ledger Ledger
}

// NewSigner creates a signing dispatcher.
func NewSigner(l Ledger) *Signer {
	return &Signer{ledger: l}
}

// Sign signs the envelope with the wallet and returns the raw transaction
// bytes together with the blockhash context used to bound confirmation.
func (s *Signer) Sign(ctx context.Context, env *types.TransactionEnvelope, w *wallet.Wallet) ([]byte, ledger.BlockhashContext, error) {
	// The validity window for confirmation tracking is anchored here for
	// both formats, matching when the signature becomes submittable.
	bhc, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return nil, ledger.BlockhashContext{}, swaperr.NetworkError("failed to get latest blockhash", err)
	}

	switch env.Format {
	case types.FormatVersioned:
		// Blockhash and fee payer were fixed by the aggregator at assembly
		// time; they must not be mutated locally.

	case types.FormatLegacy:
		msg := &env.Tx.Message
		if len(msg.AccountKeys) == 0 {
			return nil, ledger.BlockhashContext{}, swaperr.SigningFailed("legacy transaction has no account keys", nil)
		}
		msg.RecentBlockhash = bhc.Blockhash
		// The aggregator leaves the fee payer slot for the signer.
		if !msg.AccountKeys[0].Equals(w.PublicKey()) {
			msg.AccountKeys[0] = w.PublicKey()
		}

	default:
		return nil, ledger.BlockhashContext{}, swaperr.SigningFailed("unknown transaction format", nil)
	}

	// Drop placeholder signatures carried in the aggregator payload.
	env.Tx.Signatures = nil
	if _, err := env.Tx.Sign(w.Signer()); err != nil {
		return nil, ledger.BlockhashContext{}, swaperr.SigningFailed("signer rejected the transaction", err)
	}

	raw, err := env.Tx.MarshalBinary()
	if err != nil {
		return nil, ledger.BlockhashContext{}, swaperr.SigningFailed("failed to serialize signed transaction", err)
	}

	log.WithFields(log.Fields{
		"format":               env.Format.String(),
		"lastValidBlockHeight": bhc.LastValidBlockHeight,
	}).Debug("transaction signed")

	return raw, bhc, nil
}
