// Package jupiter is a client for the Jupiter v6 aggregator REST API: the
// quote endpoint and the transaction-build endpoint.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"

	"jupiter-swap/config"
	"jupiter-swap/pkg/swaperr"
)

// DefaultTimeout bounds a single aggregator round-trip.
const DefaultTimeout = 30 * time.Second

// Client talks to the Jupiter aggregator. It performs no retries; retry
// policy belongs to the orchestrator.
type Client struct {
	apiURL string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient creates an aggregator client for the given API base URL.
func NewClient(apiURL string, opts ...Option) *Client {
	c := &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		http:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote requests a priced route for an asset pair and amount. It fails with
// UpstreamUnavailable on transport or non-2xx failure and InvalidRoute when
// the aggregator reports no viable route.
func (c *Client) Quote(ctx context.Context, p QuoteParams) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", strconv.FormatUint(p.Amount, 10))
	q.Set("slippageBps", strconv.FormatUint(p.SlippageBps, 10))
	q.Set("onlyDirectRoutes", strconv.FormatBool(config.OnlyDirectRoutes))
	q.Set("platformFeeBps", strconv.Itoa(config.PlatformFeeBps))
	q.Set("maxAccounts", strconv.Itoa(config.MaxQuoteAccounts))

	quoteURL := c.apiURL + "/quote?" + q.Encode()
	log.WithFields(log.Fields{"url": quoteURL}).Debug("jupiter quote request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("failed to build quote request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("quote request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("failed to read quote response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyQuoteError(resp.StatusCode, body)
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, swaperr.UpstreamUnavailable("failed to decode quote response", err)
	}

	out, err := quote.OutAmountUint64()
	if err != nil || out == 0 {
		return nil, swaperr.InvalidRoute(fmt.Sprintf("aggregator quoted no output for %s -> %s", p.InputMint, p.OutputMint))
	}

	log.WithFields(log.Fields{
		"inputMint":   quote.InputMint,
		"outputMint":  quote.OutputMint,
		"inAmount":    quote.InAmount,
		"outAmount":   quote.OutAmount,
		"priceImpact": quote.PriceImpactPct,
	}).Debug("jupiter quote response")

	return &quote, nil
}

// SwapTransaction requests a serialized, ready-to-sign transaction for a
// quote. The quote body is forwarded verbatim.
func (c *Client) SwapTransaction(ctx context.Context, quote *Quote, user solana.PublicKey, asLegacy bool) (*SwapResponse, error) {
	reqBody := map[string]interface{}{
		"quoteResponse":                 quote.Raw(),
		"userPublicKey":                 user.String(),
		"wrapAndUnwrapSol":              true,
		"asLegacyTransaction":           asLegacy,
		"computeUnitPriceMicroLamports": config.ComputeUnitPriceMicroLamports,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, swaperr.AssemblyFailed("failed to encode swap request", err)
	}

	swapURL := c.apiURL + "/swap"
	log.WithFields(log.Fields{
		"url":           swapURL,
		"userPublicKey": user.String(),
		"asLegacy":      asLegacy,
	}).Debug("jupiter swap request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, swapURL, bytes.NewReader(payload))
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("failed to build swap request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("swap request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, swaperr.UpstreamUnavailable("failed to read swap response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, swaperr.RateLimited(fmt.Sprintf("swap endpoint rate limited (status %d)", resp.StatusCode), nil)
		}
		return nil, swaperr.UpstreamUnavailable(fmt.Sprintf("swap endpoint returned status %d: %s", resp.StatusCode, errorMessage(body)), nil)
	}

	var swap SwapResponse
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, swaperr.AssemblyFailed("failed to decode swap response", err)
	}
	if swap.SwapTransaction == "" {
		return nil, swaperr.AssemblyFailed("swap response contains no transaction payload", nil)
	}

	return &swap, nil
}

// classifyQuoteError maps a non-2xx quote response to the taxonomy.
func classifyQuoteError(status int, body []byte) error {
	if status == http.StatusTooManyRequests {
		return swaperr.RateLimited(fmt.Sprintf("quote endpoint rate limited (status %d)", status), nil)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if strings.Contains(apiErr.ErrorCode, "ROUTE") || strings.Contains(strings.ToLower(msg), "route") {
			return swaperr.InvalidRoute(msg)
		}
	}

	return swaperr.UpstreamUnavailable(fmt.Sprintf("quote endpoint returned status %d: %s", status, errorMessage(body)), nil)
}

// errorMessage extracts a readable message from an error body.
func errorMessage(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return apiErr.Error
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}
