package clients

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PrivateKeySigner signs with an in-memory key. Meant for scripts and tests;
// interactive front-ends should hand in a wallet-backed Signer instead.
type PrivateKeySigner struct {
	key solana.PrivateKey
}

var _ Signer = (*PrivateKeySigner)(nil)

func NewPrivateKeySigner(key solana.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key}
}

// NewPrivateKeySignerFromBase58 parses a base-58 encoded 64-byte secret key.
func NewPrivateKeySignerFromBase58(secret string) (*PrivateKeySigner, error) {
	key, err := solana.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewPrivateKeySigner(key), nil
}

func (s *PrivateKeySigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *PrivateKeySigner) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	pub := s.key.PublicKey()
	_, err := tx.Sign(func(k solana.PublicKey) *solana.PrivateKey {
		if k.Equals(pub) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SignerFunc adapts a public key and a signing function to Signer, which is
// the shape wallet adapters usually expose.
type SignerFunc struct {
	Key  solana.PublicKey
	Sign func(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

func (f SignerFunc) PublicKey() solana.PublicKey { return f.Key }

func (f SignerFunc) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return f.Sign(ctx, tx)
}
