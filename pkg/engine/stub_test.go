package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/require"

	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/ledger"
	"jupiter-swap/pkg/types"
	"jupiter-swap/pkg/wallet"
)

// stubLedger implements Ledger for tests.
type stubLedger struct {
	mu sync.Mutex

	balance      uint64
	tokenBalance map[string]uint64
	accounts     map[string]bool

	blockhash solana.Hash
	lastValid uint64

	height    uint64
	heightSeq []uint64

	sendErrs  []error
	sendCalls int
	sent      [][]byte
	onSend    func(raw []byte)

	status    *ledger.SignatureStatus
	statusSeq []*ledger.SignatureStatus
	useSeq    bool
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		balance:      10_000_000_000,
		tokenBalance: make(map[string]uint64),
		accounts:     make(map[string]bool),
		blockhash:    solana.Hash{0xaa, 0xbb},
		lastValid:    1_000,
		height:       100,
		status:       &ledger.SignatureStatus{Confirmed: true},
	}
}

func (s *stubLedger) Balance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *stubLedger) TokenAccountBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenBalance[account.String()], nil
}

func (s *stubLedger) AccountExists(_ context.Context, account solana.PublicKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[account.String()], nil
}

func (s *stubLedger) LatestBlockhash(_ context.Context) (ledger.BlockhashContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.BlockhashContext{Blockhash: s.blockhash, LastValidBlockHeight: s.lastValid}, nil
}

func (s *stubLedger) BlockHeight(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heightSeq) > 0 {
		h := s.heightSeq[0]
		s.heightSeq = s.heightSeq[1:]
		return h, nil
	}
	return s.height, nil
}

func (s *stubLedger) SendRawTransaction(_ context.Context, raw []byte, _ ledger.SubmitOptions) (solana.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.sendCalls
	s.sendCalls++
	if call < len(s.sendErrs) && s.sendErrs[call] != nil {
		return solana.Signature{}, s.sendErrs[call]
	}
	s.sent = append(s.sent, raw)
	if s.onSend != nil {
		s.onSend(raw)
	}
	var sig solana.Signature
	sig[0] = byte(call + 1)
	return sig, nil
}

func (s *stubLedger) SignatureStatus(_ context.Context, _ solana.Signature) (*ledger.SignatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.useSeq {
		if len(s.statusSeq) == 0 {
			return nil, nil
		}
		st := s.statusSeq[0]
		s.statusSeq = s.statusSeq[1:]
		return st, nil
	}
	return s.status, nil
}

// stubAggregator implements Aggregator for tests, serving a fixed quote and
// a decodable transaction payload.
type stubAggregator struct {
	mu         sync.Mutex
	quote      *jupiter.Quote
	quoteErr   error
	payload    string
	swapErr    error
	quoteCalls int
	swapCalls  int
}

func (a *stubAggregator) Quote(_ context.Context, _ jupiter.QuoteParams) (*jupiter.Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quoteCalls++
	if a.quoteErr != nil {
		return nil, a.quoteErr
	}
	return a.quote, nil
}

func (a *stubAggregator) SwapTransaction(_ context.Context, _ *jupiter.Quote, _ solana.PublicKey, _ bool) (*jupiter.SwapResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.swapCalls++
	if a.swapErr != nil {
		return nil, a.swapErr
	}
	return &jupiter.SwapResponse{SwapTransaction: a.payload, LastValidBlockHeight: 1_000}, nil
}

// testQuote builds a Quote through its JSON decoder so the raw body is set.
func testQuote(t *testing.T, inAmount, outAmount string) *jupiter.Quote {
	t.Helper()
	body := `{"inputMint":"So11111111111111111111111111111111111111112",` +
		`"inAmount":"` + inAmount + `",` +
		`"outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",` +
		`"outAmount":"` + outAmount + `",` +
		`"swapMode":"ExactIn","slippageBps":50,"priceImpactPct":"0.01"}`
	var q jupiter.Quote
	require.NoError(t, json.Unmarshal([]byte(body), &q))
	return &q
}

// buildPayload serializes a transfer transaction paid by the wallet, in the
// requested format, as the aggregator would return it.
func buildPayload(t *testing.T, w *wallet.Wallet, format types.TxFormat) string {
	t.Helper()

	recipient := solana.NewWallet().PublicKey()
	ix := system.NewTransferInstruction(1_000, w.PublicKey(), recipient).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		solana.Hash{0x01, 0x02},
		solana.TransactionPayer(w.PublicKey()),
	)
	require.NoError(t, err)

	if format == types.FormatVersioned {
		tx.Message.SetVersion(solana.MessageVersionV0)
	}

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}
