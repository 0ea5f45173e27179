package engine

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/types"
)

func testBlockhashContext(lastValid uint64) ledger.BlockhashContext {
	return ledger.BlockhashContext{Blockhash: solana.Hash{0x01}, LastValidBlockHeight: lastValid}
}

func TestAwaitConfirmed(t *testing.T) {
	l := newStubLedger()
	l.useSeq = true
	l.statusSeq = []*ledger.SignatureStatus{
		nil,
		{Slot: 123, Confirmed: true},
	}

	result := NewConfirmer(l, time.Millisecond, nil).Await(
		context.Background(), solana.Signature{0x01}, testBlockhashContext(1_000))

	require.NotNil(t, result)
	assert.Equal(t, types.StatusConfirmed, result.Status)
	assert.Empty(t, result.ErrDetail)
}

func TestAwaitFailedOnChain(t *testing.T) {
	l := newStubLedger()
	l.status = &ledger.SignatureStatus{Slot: 456, Err: `{"InstructionError":[3,{"Custom":6001}]}`}

	result := NewConfirmer(l, time.Millisecond, nil).Await(
		context.Background(), solana.Signature{0x01}, testBlockhashContext(1_000))

	assert.Equal(t, types.StatusFailed, result.Status)
	assert.Contains(t, result.ErrDetail, "6001")
}

func TestAwaitExpiresPastValidityWindow(t *testing.T) {
	l := newStubLedger()
	l.useSeq = true // every poll sees no status
	l.height = 1_001

	result := NewConfirmer(l, time.Millisecond, nil).Await(
		context.Background(), solana.Signature{0x01}, testBlockhashContext(1_000))

	assert.Equal(t, types.StatusExpired, result.Status)
	assert.Contains(t, result.ErrDetail, "lastValidBlockHeight")
}

func TestAwaitHeightAtBoundStillPending(t *testing.T) {
	l := newStubLedger()
	l.useSeq = true
	l.statusSeq = []*ledger.SignatureStatus{nil, nil, {Confirmed: true}}
	// The bound is inclusive; only a height strictly past it expires.
	l.heightSeq = []uint64{1_000, 1_000, 1_000}

	result := NewConfirmer(l, time.Millisecond, nil).Await(
		context.Background(), solana.Signature{0x01}, testBlockhashContext(1_000))

	assert.Equal(t, types.StatusConfirmed, result.Status)
}

func TestAwaitDeadlineYieldsExpired(t *testing.T) {
	l := newStubLedger()
	l.useSeq = true
	l.height = 10 // well within the window

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := NewConfirmer(l, time.Hour, nil).Await(ctx, solana.Signature{0x01}, testBlockhashContext(1_000))

	assert.Equal(t, types.StatusExpired, result.Status)
	assert.Contains(t, result.ErrDetail, "deadline")
}
