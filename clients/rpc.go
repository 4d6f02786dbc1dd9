package clients

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/vitwit/x402pay/types"
)

// DefaultCommitment is the level a payment must reach before it counts.
const DefaultCommitment = rpc.CommitmentConfirmed

// RPCChain implements Chain on top of a solana-go JSON-RPC client.
type RPCChain struct {
	rpc *rpc.Client
}

var _ Chain = (*RPCChain)(nil)

// NewRPCChain dials nothing; requests are issued lazily against rpcURL.
func NewRPCChain(rpcURL string) *RPCChain {
	return &RPCChain{rpc: rpc.New(rpcURL)}
}

// WrapRPC reuses a caller-owned client.
func WrapRPC(c *rpc.Client) *RPCChain {
	return &RPCChain{rpc: c}
}

func (c *RPCChain) AccountExists(ctx context.Context, addr solana.PublicKey) (bool, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: DefaultCommitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out != nil && out.Value != nil, nil
}

func (c *RPCChain) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
		Commitment: DefaultCommitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return 0, types.NewError(types.ErrInvalidAddress, fmt.Sprintf("mint %s does not exist", mint), nil)
	}
	if err != nil {
		return 0, err
	}

	if out.Value.Owner != solana.TokenProgramID {
		return 0, types.NewError(
			types.ErrInvalidAddress,
			fmt.Sprintf("account %s is not owned by the SPL token program", mint),
			nil,
		)
	}

	return decodeMintDecimals(out.Value.Data.GetBinary())
}

// decodeMintDecimals reads the decimals field of an SPL mint account.
func decodeMintDecimals(data []byte) (uint8, error) {
	var mint token.Mint
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return 0, fmt.Errorf("failed to decode mint data: %w", err)
	}
	if !mint.IsInitialized {
		return 0, errors.New("mint account is not initialized")
	}
	return mint.Decimals, nil
}

func (c *RPCChain) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, err
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

func (c *RPCChain) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: DefaultCommitment,
	})
}

func (c *RPCChain) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}

	v := out.Value[0]
	return &SignatureStatus{
		Confirmation: string(v.ConfirmationStatus),
		Slot:         v.Slot,
		Err:          v.Err,
	}, nil
}

func (c *RPCChain) BlockHeight(ctx context.Context) (uint64, error) {
	return c.rpc.GetBlockHeight(ctx, DefaultCommitment)
}

func (c *RPCChain) Close() error {
	return c.rpc.Close()
}
