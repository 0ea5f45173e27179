package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
)

func TestParseCommitment(t *testing.T) {
	assert.Equal(t, rpc.CommitmentFinalized, ParseCommitment("finalized"))
	assert.Equal(t, rpc.CommitmentConfirmed, ParseCommitment("confirmed"))
	assert.Equal(t, rpc.CommitmentProcessed, ParseCommitment("processed"))
	assert.Equal(t, rpc.CommitmentConfirmed, ParseCommitment("Confirmed"))
	assert.Equal(t, rpc.CommitmentConfirmed, ParseCommitment(""))
	assert.Equal(t, rpc.CommitmentConfirmed, ParseCommitment("bogus"))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(errors.New("429 Too Many Requests")))
	assert.True(t, IsRateLimited(errors.New("server responded with Too Many Requests")))
	assert.True(t, IsRateLimited(errors.New("Rate Limit exceeded, retry later")))
	assert.True(t, IsRateLimited(fmt.Errorf("failed to send transaction: %w", errors.New("HTTP 429"))))

	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(errors.New("connection refused")))
	assert.False(t, IsRateLimited(errors.New("Transaction simulation failed")))
}
