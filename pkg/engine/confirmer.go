package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/observability"
	"jupiter-swap/pkg/types"
)

// Confirmer polls network state for a broadcast signature until it reaches
// a terminal state or its blockhash validity window expires.
type Confirmer struct {
	ledger       Ledger
	pollInterval time.Duration
	metrics      *observability.Metrics
}

// NewConfirmer creates a confirmation tracker.
func NewConfirmer(l Ledger, pollInterval time.Duration, metrics *observability.Metrics) *Confirmer {
	return &Confirmer{
		ledger:       l,
		pollInterval: pollInterval,
		metrics:      metrics,
	}
}

// Await polls until the signature is confirmed, reported failed, or the
// ledger height passes the blockhash validity bound. The result is always
// terminal: a deadline firing mid-poll yields Expired, never a hang. Once
// Expired or Failed is returned the caller must stop polling this signature.
func (c *Confirmer) Await(ctx context.Context, sig solana.Signature, bhc ledger.BlockhashContext) *types.ConfirmationResult {
	entry := log.WithFields(log.Fields{
		"signature":            sig.String(),
		"lastValidBlockHeight": bhc.LastValidBlockHeight,
	})

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if c.metrics != nil {
			c.metrics.ConfirmationsPoll.Inc()
		}

		status, err := c.ledger.SignatureStatus(ctx, sig)
		if err != nil {
			// Transient poll failures are tolerated; the validity window
			// bounds the loop.
			entry.WithError(err).Warn("signature status poll failed")
		}
		if status != nil {
			if status.Err != "" {
				entry.WithField("err", status.Err).Warn("transaction failed on-chain")
				return &types.ConfirmationResult{Signature: sig, Status: types.StatusFailed, ErrDetail: status.Err}
			}
			if status.Confirmed {
				entry.WithField("slot", status.Slot).Info("transaction confirmed")
				return &types.ConfirmationResult{Signature: sig, Status: types.StatusConfirmed}
			}
		}

		height, err := c.ledger.BlockHeight(ctx)
		if err != nil {
			entry.WithError(err).Warn("block height poll failed")
		} else if height > bhc.LastValidBlockHeight {
			entry.WithField("blockHeight", height).Warn("blockhash validity window elapsed")
			return &types.ConfirmationResult{
				Signature: sig,
				Status:    types.StatusExpired,
				ErrDetail: "ledger height passed lastValidBlockHeight",
			}
		}

		select {
		case <-ctx.Done():
			return &types.ConfirmationResult{
				Signature: sig,
				Status:    types.StatusExpired,
				ErrDetail: "confirmation deadline elapsed: " + ctx.Err().Error(),
			}
		case <-ticker.C:
		}
	}
}
