// Package wallet loads and holds the signer's keypair.
package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// Wallet holds the signer identity and private key.
type Wallet struct {
	privateKey solana.PrivateKey
}

// FromBase58 creates a wallet from a base58-encoded private key.
func FromBase58(key string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Wallet{privateKey: pk}, nil
}

// FromFile loads a wallet from a JSON keypair file (Solana CLI format).
func FromFile(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	var keypair []byte
	if err := json.Unmarshal(data, &keypair); err != nil {
		return nil, fmt.Errorf("failed to parse keypair: %w", err)
	}

	if len(keypair) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size: expected %d, got %d", ed25519.PrivateKeySize, len(keypair))
	}

	return &Wallet{privateKey: solana.PrivateKey(keypair)}, nil
}

// New generates a random wallet, used by tests.
func New() *Wallet {
	account := solana.NewWallet()
	return &Wallet{privateKey: account.PrivateKey}
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

// Signer returns a key getter usable with transaction signing.
func (w *Wallet) Signer() func(key solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey()) {
			return &w.privateKey
		}
		return nil
	}
}

// String returns the public key as a string.
func (w *Wallet) String() string {
	return w.PublicKey().String()
}
