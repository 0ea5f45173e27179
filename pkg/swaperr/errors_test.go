package swaperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := InvalidRoute("no route between mints")
	assert.Equal(t, "INVALID_ROUTE: no route between mints", err.Error())

	wrapped := NetworkError("rpc call failed", errors.New("connection refused"))
	assert.Equal(t, "NETWORK_ERROR: rpc call failed: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := UpstreamUnavailable("quote request failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("attempt 2: %w", RateLimited("too many requests", nil))

	assert.ErrorIs(t, err, New(CodeRateLimited, "", true))
	assert.NotErrorIs(t, err, New(CodeExpired, "", true))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInsufficientBalance, CodeOf(InsufficientBalance("broke")))
	assert.Equal(t, CodeExpired, CodeOf(fmt.Errorf("wrapped: %w", Expired("window elapsed"))))
	assert.Empty(t, CodeOf(errors.New("plain error")))
	assert.Empty(t, CodeOf(nil))
}

func TestRetriableClassification(t *testing.T) {
	retriable := []*Error{
		UpstreamUnavailable("", nil),
		RateLimited("", nil),
		NetworkError("", nil),
		Expired(""),
	}
	for _, err := range retriable {
		assert.True(t, IsRetriable(err), err.Code)
	}

	fatal := []*Error{
		InvalidRoute(""),
		InsufficientBalance(""),
		AccountCreationFailed("", nil),
		AssemblyFailed("", nil),
		SigningFailed("", nil),
		BroadcastFailed("", nil),
		ExecutionFailed(""),
	}
	for _, err := range fatal {
		assert.False(t, IsRetriable(err), err.Code)
	}

	assert.False(t, IsRetriable(errors.New("unclassified")))
}
