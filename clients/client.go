// Package clients talks to the outside world: the Solana cluster that carries
// payments and the facilitators that verify and settle them.
package clients

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Chain is the slice of a Solana cluster the builder and submitter depend on.
// RPCChain implements it over JSON-RPC.
type Chain interface {
	// AccountExists reports whether an account is allocated at addr.
	AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error)

	// MintDecimals reads the decimal count declared by an SPL mint.
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)

	// LatestBlockhash returns a recent blockhash and the last block height at
	// which a transaction referencing it is still accepted.
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)

	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// SignatureStatus returns nil when the cluster has not seen sig yet.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	BlockHeight(ctx context.Context) (uint64, error)
}

// SignatureStatus is the cluster's view of a submitted transaction.
type SignatureStatus struct {
	// Confirmation is "processed", "confirmed" or "finalized".
	Confirmation string
	Slot         uint64
	// Err is the on-chain execution error, nil on success.
	Err any
}

// Confirmed reports whether the status reached the confirmed commitment level.
func (s *SignatureStatus) Confirmed() bool {
	return s.Confirmation == "confirmed" || s.Confirmation == "finalized"
}

// Signer is the wallet capability: it knows its public key and signs
// transactions it is handed. Keys never pass through this package.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}
