// Package market implements the periodic price sampler: a time-windowed
// in-memory series fed by aggregator quotes.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/config"
	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/observability"
)

// QuoteSource is the read-only slice of the aggregator the sampler uses.
type QuoteSource interface {
	Quote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
}

// Sample is one observed price point.
type Sample struct {
	Timestamp      time.Time
	Price          decimal.Decimal
	PriceImpactPct string
}

// Pair describes the sampled asset pair.
type Pair struct {
	InputMint     string
	OutputMint    string
	Amount        uint64 // smallest unit of the input asset
	SlippageBps   uint64
	InputDecimals int32
	OutputDecimal int32
}

// DefaultPair samples SOL/USDC with 1 SOL at 1% slippage.
func DefaultPair() Pair {
	return Pair{
		InputMint:     config.NativeMint.String(),
		OutputMint:    config.USDCMint.String(),
		Amount:        config.SampleAmountLamports,
		SlippageBps:   config.SampleSlippageBps,
		InputDecimals: 9,
		OutputDecimal: 6,
	}
}

// Sampler periodically quotes a pair and retains the observed prices for a
// bounded window, evicting older entries on each tick.
type Sampler struct {
	source    QuoteSource
	pair      Pair
	interval  time.Duration
	retention time.Duration
	metrics   *observability.Metrics

	mu       sync.RWMutex
	samples  []Sample
	running  bool
	stopChan chan struct{}
}

// NewSampler creates a sampler.
func NewSampler(source QuoteSource, pair Pair, interval, retention time.Duration, metrics *observability.Metrics) *Sampler {
	if interval <= 0 {
		interval = config.DefaultSampleInterval
	}
	if retention <= 0 {
		retention = config.DefaultSampleRetention
	}
	return &Sampler{
		source:    source,
		pair:      pair,
		interval:  interval,
		retention: retention,
		metrics:   metrics,
	}
}

// Start begins sampling in the background.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sampler is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"interval":  s.interval,
		"retention": s.retention,
		"pair":      s.pair.InputMint + "/" + s.pair.OutputMint,
	}).Info("starting market sampler")

	go s.run(ctx, stop)
	return nil
}

// Stop halts sampling. Retained samples stay readable.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
	log.Info("market sampler stopped")
}

// IsActive reports whether the sampler is running.
func (s *Sampler) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Sampler) run(ctx context.Context, stop <-chan struct{}) {
	s.sampleOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce(ctx)
		}
	}
}

// sampleOnce fetches one quote and records the observed price, then evicts
// entries older than the retention window.
func (s *Sampler) sampleOnce(ctx context.Context) {
	quote, err := s.source.Quote(ctx, jupiter.QuoteParams{
		InputMint:   s.pair.InputMint,
		OutputMint:  s.pair.OutputMint,
		Amount:      s.pair.Amount,
		SlippageBps: s.pair.SlippageBps,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.SamplerErrors.Inc()
		}
		log.WithError(err).Error("failed to sample price")
		return
	}

	out, err := quote.OutAmountUint64()
	if err != nil {
		if s.metrics != nil {
			s.metrics.SamplerErrors.Inc()
		}
		log.WithError(err).Error("failed to parse sampled quote")
		return
	}

	// Price of one whole input unit in whole output units.
	outAmount := decimal.New(int64(out), -s.pair.OutputDecimal)
	inAmount := decimal.New(int64(s.pair.Amount), -s.pair.InputDecimals)
	price := outAmount.Div(inAmount)

	sample := Sample{
		Timestamp:      time.Now(),
		Price:          price,
		PriceImpactPct: quote.PriceImpactPct,
	}

	s.mu.Lock()
	s.samples = append(s.samples, sample)
	s.evictLocked(sample.Timestamp)
	size := len(s.samples)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SamplerSeriesSize.Set(float64(size))
	}

	log.WithFields(log.Fields{
		"price":       price.String(),
		"priceImpact": sample.PriceImpactPct,
	}).Debug("recorded price sample")
}

// evictLocked drops samples older than the retention window. Callers hold
// the write lock.
func (s *Sampler) evictLocked(now time.Time) {
	cutoff := now.Add(-s.retention)
	keep := 0
	for ; keep < len(s.samples); keep++ {
		if s.samples[keep].Timestamp.After(cutoff) {
			break
		}
	}
	if keep > 0 {
		s.samples = append([]Sample(nil), s.samples[keep:]...)
		log.WithField("evicted", keep).Debug("evicted old price samples")
	}
}

// Latest returns the most recent sample.
func (s *Sampler) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// History returns the retained samples, oldest first.
func (s *Sampler) History() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}
