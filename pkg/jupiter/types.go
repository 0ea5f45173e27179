package jupiter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// QuoteParams shapes a quote request.
type QuoteParams struct {
	InputMint   string
	OutputMint  string
	Amount      uint64 // smallest unit of the input asset
	SlippageBps uint64
}

// Quote is a priced route snapshot from the aggregator. The raw response
// body is retained verbatim so it can be forwarded to the swap endpoint
// without re-encoding.
type Quote struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SwapMode             string `json:"swapMode"`
	SlippageBps          uint64 `json:"slippageBps"`
	PriceImpactPct       string `json:"priceImpactPct"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the quote and keeps the original bytes.
func (q *Quote) UnmarshalJSON(data []byte) error {
	type alias Quote
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*q = Quote(a)
	q.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the quote response exactly as the aggregator produced it.
func (q *Quote) Raw() json.RawMessage {
	return q.raw
}

// OutAmountUint64 parses the quoted output amount.
func (q *Quote) OutAmountUint64() (uint64, error) {
	n, err := strconv.ParseUint(q.OutAmount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid outAmount %q: %w", q.OutAmount, err)
	}
	return n, nil
}

// InAmountUint64 parses the quoted input amount.
func (q *Quote) InAmountUint64() (uint64, error) {
	n, err := strconv.ParseUint(q.InAmount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid inAmount %q: %w", q.InAmount, err)
	}
	return n, nil
}

// SwapResponse is the transaction-build endpoint's reply.
type SwapResponse struct {
	// SwapTransaction is the base64-encoded, ready-to-sign payload.
	SwapTransaction string `json:"swapTransaction"`

	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// apiError is the aggregator's error body.
type apiError struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}
