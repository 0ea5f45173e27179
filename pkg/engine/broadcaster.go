package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/observability"
	"jupiter-swap/pkg/swaperr"
)

// Broadcaster submits signed transactions to the network entry point. Only
// rate-limit responses are retried here, on a fixed backoff; every other
// submission error fails immediately. Re-quoting on broader failures is the
// orchestrator's decision, so the two retry budgets never multiply.
type Broadcaster struct {
	ledger        Ledger
	maxRetries    int
	backoff       time.Duration
	skipPreflight bool
	commitment    rpc.CommitmentType
	metrics       *observability.Metrics
}

// BroadcasterOptions configures a Broadcaster.
type BroadcasterOptions struct {
	MaxRetries    int
	Backoff       time.Duration
	SkipPreflight bool
	Commitment    rpc.CommitmentType
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster(l Ledger, opts BroadcasterOptions, metrics *observability.Metrics) *Broadcaster {
	return &Broadcaster{
		ledger:        l,
		maxRetries:    opts.MaxRetries,
		backoff:       opts.Backoff,
		skipPreflight: opts.SkipPreflight,
		commitment:    opts.Commitment,
		metrics:       metrics,
	}
}

// Submit broadcasts raw transaction bytes. It returns the signature as soon
// as the entry point accepts the transaction; acceptance does not imply
// finality.
func (b *Broadcaster) Submit(ctx context.Context, raw []byte) (solana.Signature, error) {
	opts := ledger.SubmitOptions{
		SkipPreflight:       b.skipPreflight,
		PreflightCommitment: b.commitment,
	}

	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			if b.metrics != nil {
				b.metrics.BroadcastRetries.Inc()
			}
			log.WithFields(log.Fields{
				"attempt": attempt,
				"backoff": b.backoff,
			}).Warn("broadcast rate limited, backing off")

			select {
			case <-ctx.Done():
				return solana.Signature{}, swaperr.BroadcastFailed("broadcast cancelled", ctx.Err())
			case <-time.After(b.backoff):
			}
		}

		sig, err := b.ledger.SendRawTransaction(ctx, raw, opts)
		if err == nil {
			return sig, nil
		}
		if !ledger.IsRateLimited(err) {
			return solana.Signature{}, swaperr.BroadcastFailed("network entry point rejected the transaction", err)
		}
		lastErr = err
	}

	return solana.Signature{}, swaperr.RateLimited(
		fmt.Sprintf("broadcast rate limited after %d retries", b.maxRetries), lastErr)
}
