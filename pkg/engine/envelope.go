package engine

import (
	"encoding/base64"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"jupiter-swap/pkg/swaperr"
	"jupiter-swap/pkg/types"
)

// DecodeEnvelope decodes the aggregator's base64 transaction payload and
// tags its format once. The tag drives the signing dispatch; it is never
// re-negotiated downstream.
func DecodeEnvelope(payload string) (*types.TransactionEnvelope, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, swaperr.AssemblyFailed("transaction payload is not valid base64", err)
	}

	tx, err := decodeVersioned(raw)
	if err == nil {
		return &types.TransactionEnvelope{Tx: tx, Format: types.FormatVersioned, Raw: raw}, nil
	}

	tx, legacyErr := decodeLegacy(raw)
	if legacyErr != nil {
		return nil, swaperr.AssemblyFailed("transaction payload decodes as neither versioned nor legacy", legacyErr)
	}
	return &types.TransactionEnvelope{Tx: tx, Format: types.FormatLegacy, Raw: raw}, nil
}

// decodeVersioned decodes raw bytes as a versioned transaction, rejecting
// legacy encodings.
func decodeVersioned(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, err
	}
	if tx.Message.GetVersion() == solana.MessageVersionLegacy {
		return nil, errNotVersioned
	}
	return tx, nil
}

// decodeLegacy decodes raw bytes as a legacy transaction.
func decodeLegacy(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, err
	}
	if tx.Message.GetVersion() != solana.MessageVersionLegacy {
		return nil, errNotLegacy
	}
	return tx, nil
}

var (
	errNotVersioned = decodeError("message is not versioned")
	errNotLegacy    = decodeError("message is not legacy")
)

type decodeError string

func (e decodeError) Error() string { return string(e) }
