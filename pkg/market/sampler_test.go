package market

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter-swap/pkg/jupiter"
)

type stubSource struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int
}

func (s *stubSource) Quote(_ context.Context, _ jupiter.QuoteParams) (*jupiter.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var q jupiter.Quote
	if err := json.Unmarshal([]byte(s.body), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func quoteJSON(outAmount string) string {
	return `{"inputMint":"a","outputMint":"b","inAmount":"1000000000","outAmount":"` +
		outAmount + `","priceImpactPct":"0.02"}`
}

func TestSampleOncePricesWholeUnits(t *testing.T) {
	src := &stubSource{body: quoteJSON("150000000")} // 150 USDC for 1 SOL
	s := NewSampler(src, DefaultPair(), time.Minute, time.Hour, nil)

	s.sampleOnce(context.Background())

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "150", latest.Price.String())
	assert.Equal(t, "0.02", latest.PriceImpactPct)
}

func TestSampleOnceSkipsFailedQuotes(t *testing.T) {
	src := &stubSource{err: errors.New("aggregator down")}
	s := NewSampler(src, DefaultPair(), time.Minute, time.Hour, nil)

	s.sampleOnce(context.Background())

	_, ok := s.Latest()
	assert.False(t, ok)
	assert.Empty(t, s.History())
}

func TestEvictionKeepsWindow(t *testing.T) {
	src := &stubSource{body: quoteJSON("150000000")}
	s := NewSampler(src, DefaultPair(), time.Minute, time.Hour, nil)

	now := time.Now()
	s.samples = []Sample{
		{Timestamp: now.Add(-2 * time.Hour)},
		{Timestamp: now.Add(-90 * time.Minute)},
		{Timestamp: now.Add(-30 * time.Minute)},
	}

	s.sampleOnce(context.Background())

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, now.Add(-30*time.Minute), history[0].Timestamp)
}

func TestStartStop(t *testing.T) {
	src := &stubSource{body: quoteJSON("150000000")}
	s := NewSampler(src, DefaultPair(), time.Hour, time.Hour, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsActive())
	assert.Error(t, s.Start(context.Background()))

	// The first sample lands immediately, before the first tick.
	require.Eventually(t, func() bool {
		_, ok := s.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsActive())

	// Retained samples survive a stop.
	_, ok := s.Latest()
	assert.True(t, ok)
}
