package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/config"
	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/observability"
	"jupiter-swap/pkg/swaperr"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

// Orchestrator sequences one swap through quote, assembly, provisioning,
// signing, broadcast and confirmation. It holds only immutable
// collaborators; all per-swap state lives in a request-scoped value, so
// concurrent Execute calls never share mutable data.
type Orchestrator struct {
	agg         Aggregator
	ledger      Ledger
	wallet      *wallet.Wallet
	provisioner *Provisioner
	signer      *Signer
	broadcaster *Broadcaster
	confirmer   *Confirmer

	maxAttempts int
	backoff     time.Duration
	metrics     *observability.Metrics
}

// Options configures an Orchestrator. Zero values fall back to the
// configured defaults.
type Options struct {
	Aggregator Aggregator
	Ledger     Ledger
	Wallet     *wallet.Wallet

	// Whole-swap retry budget, independent of the broadcast budget.
	MaxSwapAttempts  int
	SwapRetryBackoff time.Duration

	BroadcastMaxRetries int
	BroadcastBackoff    time.Duration
	SkipPreflight       bool
	Commitment          rpc.CommitmentType

	ConfirmPollInterval time.Duration

	Metrics *observability.Metrics
}

// New creates an Orchestrator and its pipeline components.
func New(opts Options) *Orchestrator {
	if opts.MaxSwapAttempts <= 0 {
		opts.MaxSwapAttempts = config.MaxSwapAttempts
	}
	if opts.SwapRetryBackoff <= 0 {
		opts.SwapRetryBackoff = config.SwapRetryBackoff
	}
	if opts.BroadcastBackoff <= 0 {
		opts.BroadcastBackoff = config.RateLimitWait
	}
	if opts.ConfirmPollInterval <= 0 {
		opts.ConfirmPollInterval = config.ConfirmPollInterval
	}
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}

	confirmer := NewConfirmer(opts.Ledger, opts.ConfirmPollInterval, opts.Metrics)

	return &Orchestrator{
		agg:         opts.Aggregator,
		ledger:      opts.Ledger,
		wallet:      opts.Wallet,
		provisioner: NewProvisioner(opts.Ledger, opts.Wallet, confirmer, opts.Metrics),
		signer:      NewSigner(opts.Ledger),
		broadcaster: NewBroadcaster(opts.Ledger, BroadcasterOptions{
			MaxRetries:    opts.BroadcastMaxRetries,
			Backoff:       opts.BroadcastBackoff,
			SkipPreflight: opts.SkipPreflight,
			Commitment:    opts.Commitment,
		}, opts.Metrics),
		confirmer:   confirmer,
		maxAttempts: opts.MaxSwapAttempts,
		backoff:     opts.SwapRetryBackoff,
		metrics:     opts.Metrics,
	}
}

// swapState is the request-scoped working state of one attempt. It is
// created inside Execute and discarded with it; nothing here survives the
// call or leaks onto the Orchestrator.
type swapState struct {
	req       types.SwapRequest
	stage     types.Stage
	quote     *jupiter.Quote
	envelope  *types.TransactionEnvelope
	signature solana.Signature
}

// Execute runs the swap to a terminal outcome: a confirmed signature or a
// classified failure. Retriable failures (stale quote, expired blockhash,
// transient network errors) restart the whole pipeline from a fresh quote
// up to the configured attempt budget, because neither a quote nor a
// blockhash can be repaired in place.
func (o *Orchestrator) Execute(ctx context.Context, req types.SwapRequest) *types.SwapOutcome {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Signer.IsZero() {
		req.Signer = o.wallet.PublicKey()
	}
	if req.SlippageBps == 0 {
		req.SlippageBps = config.DefaultSlippageBps
	}

	if o.metrics != nil {
		o.metrics.SwapsStarted.Inc()
	}

	entry := log.WithFields(log.Fields{
		"requestID":  req.ID,
		"inputMint":  req.InputMint.String(),
		"outputMint": req.OutputMint.String(),
		"amount":     req.Amount,
	})
	entry.Info("starting swap")

	var outcome *types.SwapOutcome
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		outcome = o.runAttempt(ctx, req)
		outcome.Attempts = attempt
		if outcome.Confirmed || !outcome.Retriable {
			break
		}
		if attempt == o.maxAttempts {
			break
		}

		entry.WithFields(log.Fields{
			"attempt": attempt,
			"stage":   outcome.Stage,
			"errKind": outcome.ErrKind,
		}).Warn("swap attempt failed, restarting from a fresh quote")

		select {
		case <-ctx.Done():
			return outcome
		case <-time.After(o.backoff):
		}
	}

	if o.metrics != nil {
		o.metrics.SwapAttempts.Observe(float64(outcome.Attempts))
		if outcome.Confirmed {
			o.metrics.SwapsConfirmed.Inc()
		} else {
			o.metrics.SwapsFailed.WithLabelValues(outcome.ErrKind).Inc()
		}
	}

	if outcome.Confirmed {
		entry.WithField("signature", outcome.Signature.String()).Info("swap confirmed")
	} else {
		entry.WithFields(log.Fields{
			"stage":     outcome.Stage,
			"errKind":   outcome.ErrKind,
			"errDetail": outcome.ErrDetail,
		}).Error("swap failed")
	}
	return outcome
}

// runAttempt drives one pass of the state machine:
// Init -> Quoted -> Assembled -> Provisioned -> Signed -> Broadcast ->
// {Confirmed | Failed | Expired}.
func (o *Orchestrator) runAttempt(ctx context.Context, req types.SwapRequest) *types.SwapOutcome {
	state := &swapState{req: req, stage: types.StageInit}

	quoteStart := time.Now()
	quote, err := o.agg.Quote(ctx, jupiter.QuoteParams{
		InputMint:   req.InputMint.String(),
		OutputMint:  req.OutputMint.String(),
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
	})
	if o.metrics != nil {
		o.metrics.QuoteLatency.Observe(time.Since(quoteStart).Seconds())
	}
	if err != nil {
		return o.failure(state, err)
	}
	state.quote = quote
	state.stage = types.StageQuoted

	if err := o.checkBalance(ctx, req); err != nil {
		return o.failure(state, err)
	}

	swapResp, err := o.agg.SwapTransaction(ctx, quote, req.Signer, req.PreferLegacy)
	if err != nil {
		return o.failure(state, err)
	}
	envelope, err := DecodeEnvelope(swapResp.SwapTransaction)
	if err != nil {
		return o.failure(state, err)
	}
	state.envelope = envelope
	state.stage = types.StageAssembled

	// Both accounts must be confirmed live before the signed transaction
	// references them.
	if _, _, err := o.provisioner.EnsureSwapAccounts(ctx, req.InputMint, req.OutputMint); err != nil {
		return o.failure(state, err)
	}
	state.stage = types.StageProvisioned

	raw, bhc, err := o.signer.Sign(ctx, envelope, o.wallet)
	if err != nil {
		return o.failure(state, err)
	}
	state.stage = types.StageSigned

	sig, err := o.broadcaster.Submit(ctx, raw)
	if err != nil {
		return o.failure(state, err)
	}
	state.signature = sig
	state.stage = types.StageBroadcast

	result := o.confirmer.Await(ctx, sig, bhc)
	switch result.Status {
	case types.StatusConfirmed:
		state.stage = types.StageConfirmed
		return &types.SwapOutcome{
			RequestID: req.ID,
			Confirmed: true,
			Signature: sig,
			Stage:     types.StageConfirmed,
		}
	case types.StatusFailed:
		return o.failure(state, swaperr.ExecutionFailed(result.ErrDetail))
	default:
		return o.failure(state, swaperr.Expired(result.ErrDetail))
	}
}

// checkBalance verifies the signer can fund the input leg before any state
// is mutated on-chain. Native swaps keep a fee reserve aside; token swaps
// read the associated account balance, which reports zero for a missing
// account.
func (o *Orchestrator) checkBalance(ctx context.Context, req types.SwapRequest) error {
	if req.InputMint.Equals(config.NativeMint) {
		balance, err := o.ledger.Balance(ctx, req.Signer)
		if err != nil {
			return swaperr.NetworkError("failed to get balance", err)
		}
		required := req.Amount + config.MinSOLReserveLamports
		if balance < required {
			return swaperr.InsufficientBalance(fmt.Sprintf(
				"insufficient balance: have %d lamports, need %d (including fee reserve)", balance, required))
		}
		return nil
	}

	address, _, err := solana.FindAssociatedTokenAddress(req.Signer, req.InputMint)
	if err != nil {
		return swaperr.InsufficientBalance("failed to derive input token account: " + err.Error())
	}
	balance, err := o.ledger.TokenAccountBalance(ctx, address)
	if err != nil {
		return swaperr.NetworkError("failed to get token balance", err)
	}
	if balance < req.Amount {
		return swaperr.InsufficientBalance(fmt.Sprintf(
			"insufficient token balance: have %d, need %d", balance, req.Amount))
	}
	return nil
}

// failure builds the terminal outcome for a classified error, carrying the
// stage reached and the signature when one was obtained.
func (o *Orchestrator) failure(state *swapState, err error) *types.SwapOutcome {
	kind := swaperr.CodeOf(err)
	if kind == "" {
		kind = swaperr.CodeNetworkError
	}
	return &types.SwapOutcome{
		RequestID: state.req.ID,
		Signature: state.signature,
		Stage:     state.stage,
		ErrKind:   kind,
		ErrDetail: err.Error(),
		Retriable: swaperr.IsRetriable(err),
	}
}
