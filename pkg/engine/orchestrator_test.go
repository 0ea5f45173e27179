package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter-swap/config"
	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/swaperr"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

func newTestOrchestrator(l *stubLedger, a *stubAggregator, w *wallet.Wallet, maxAttempts int) *Orchestrator {
	return New(Options{
		Aggregator:          a,
		Ledger:              l,
		Wallet:              w,
		MaxSwapAttempts:     maxAttempts,
		SwapRetryBackoff:    time.Millisecond,
		BroadcastMaxRetries: 3,
		BroadcastBackoff:    time.Millisecond,
		ConfirmPollInterval: time.Millisecond,
	})
}

// markOutputAccount registers the signer's USDC associated account as live.
func markOutputAccount(t *testing.T, l *stubLedger, w *wallet.Wallet) solana.PublicKey {
	t.Helper()
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey(), config.USDCMint)
	require.NoError(t, err)
	l.accounts[ata.String()] = true
	return ata
}

func solToUSDCRequest() types.SwapRequest {
	return types.SwapRequest{
		InputMint:  config.NativeMint,
		OutputMint: config.USDCMint,
		Amount:     1_000_000_000,
	}
}

func TestExecuteHappyPathVersioned(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.True(t, outcome.Confirmed)
	assert.False(t, outcome.Signature.IsZero())
	assert.Equal(t, types.StageConfirmed, outcome.Stage)
	assert.Equal(t, 1, outcome.Attempts)
	assert.NotEmpty(t, outcome.RequestID)
	assert.Equal(t, 1, a.quoteCalls)
	assert.Equal(t, 1, l.sendCalls)
}

func TestExecuteHappyPathLegacy(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatLegacy),
	}

	req := solToUSDCRequest()
	req.PreferLegacy = true

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), req)

	assert.True(t, outcome.Confirmed)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestExecuteProvisionsMissingAccount(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey(), config.USDCMint)
	require.NoError(t, err)
	l.onSend = func([]byte) { l.accounts[ata.String()] = true }

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.True(t, outcome.Confirmed)
	// One creation transaction, then the swap itself.
	assert.Equal(t, 2, l.sendCalls)
}

func TestExecuteRateLimitExhaustionSurfaces(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)
	l.sendErrs = []error{errTooManyRequests, errTooManyRequests, errTooManyRequests, errTooManyRequests}

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 1).Execute(context.Background(), solToUSDCRequest())

	assert.False(t, outcome.Confirmed)
	assert.Equal(t, swaperr.CodeRateLimited, outcome.ErrKind)
	assert.True(t, outcome.Retriable)
	assert.Equal(t, types.StageSigned, outcome.Stage)
	assert.Equal(t, 4, l.sendCalls)
}

func TestExecuteRestartsFromFreshQuoteOnExpiry(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)

	// First attempt expires past the validity window; the second confirms.
	l.useSeq = true
	l.statusSeq = []*ledger.SignatureStatus{nil, {Confirmed: true}}
	l.heightSeq = []uint64{1_001}
	l.height = 100

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.True(t, outcome.Confirmed)
	assert.Equal(t, 2, outcome.Attempts)
	// The retry re-enters at the quote, never reuses the stale transaction.
	assert.Equal(t, 2, a.quoteCalls)
	assert.Equal(t, 2, a.swapCalls)
	assert.Equal(t, 2, l.sendCalls)
}

func TestExecuteFatalErrorAbortsImmediately(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()

	a := &stubAggregator{quoteErr: swaperr.InvalidRoute("no route between mints")}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.False(t, outcome.Confirmed)
	assert.Equal(t, swaperr.CodeInvalidRoute, outcome.ErrKind)
	assert.False(t, outcome.Retriable)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 1, a.quoteCalls)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	l.balance = 1_000 // nowhere near the amount plus fee reserve

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.False(t, outcome.Confirmed)
	assert.Equal(t, swaperr.CodeInsufficientBalance, outcome.ErrKind)
	assert.Equal(t, types.StageQuoted, outcome.Stage)
	assert.Equal(t, 0, a.swapCalls)
	assert.Equal(t, 0, l.sendCalls)
}

func TestExecuteOnChainFailureIsFatal(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)
	l.status = &ledger.SignatureStatus{Err: `{"InstructionError":[4,{"Custom":6024}]}`}

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}

	outcome := newTestOrchestrator(l, a, w, 3).Execute(context.Background(), solToUSDCRequest())

	assert.False(t, outcome.Confirmed)
	assert.Equal(t, swaperr.CodeExecutionFailed, outcome.ErrKind)
	assert.False(t, outcome.Retriable)
	assert.Equal(t, 1, outcome.Attempts)
	assert.False(t, outcome.Signature.IsZero())
}

func TestExecuteConcurrentRequestsAreIsolated(t *testing.T) {
	w := wallet.New()
	l := newStubLedger()
	markOutputAccount(t, l, w)

	a := &stubAggregator{
		quote:   testQuote(t, "1000000000", "150000000"),
		payload: buildPayload(t, w, types.FormatVersioned),
	}
	o := newTestOrchestrator(l, a, w, 3)

	var wg sync.WaitGroup
	outcomes := make([]*types.SwapOutcome, 2)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = o.Execute(context.Background(), solToUSDCRequest())
		}(i)
	}
	wg.Wait()

	require.True(t, outcomes[0].Confirmed)
	require.True(t, outcomes[1].Confirmed)
	assert.NotEqual(t, outcomes[0].RequestID, outcomes[1].RequestID)
}
