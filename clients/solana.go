package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/vitwit/x402pay/logger"
	"github.com/vitwit/x402pay/metrics"
	"github.com/vitwit/x402pay/retry"
	"github.com/vitwit/x402pay/types"
	"github.com/vitwit/x402pay/utils"
)

// NativeDecimals is the number of decimals of SOL (1 SOL = 10^9 lamports).
const NativeDecimals = 9

// PaymentIDPrefix is prepended to the signature to form a PaymentResult id.
const PaymentIDPrefix = "sol_"

// SolanaConfig tunes a SolanaClient. Zero values fall back to defaults.
type SolanaConfig struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	// Retry applies to broadcasting only. Chain rejections are never retried.
	Retry   retry.Policy
	Logger  logger.Logger
	Metrics metrics.Recorder
}

// SolanaClient builds, submits and confirms payment transactions.
type SolanaClient struct {
	chain          Chain
	confirmTimeout time.Duration
	pollInterval   time.Duration
	retry          retry.Policy
	log            logger.Logger
	metrics        metrics.Recorder
}

func NewSolanaClient(chain Chain, cfg SolanaConfig) *SolanaClient {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.None
	}

	return &SolanaClient{
		chain:          chain,
		confirmTimeout: cfg.ConfirmTimeout,
		pollInterval:   cfg.PollInterval,
		retry:          cfg.Retry,
		log:            logger.OrNoop(cfg.Logger),
		metrics:        metrics.OrNoop(cfg.Metrics),
	}
}

// Chain exposes the underlying cluster handle.
func (c *SolanaClient) Chain() Chain { return c.chain }

// TransferParams describes one payment from Payer to Recipient.
type TransferParams struct {
	Payer     solana.PublicKey
	Recipient string
	// Amount in human units, e.g. "2.5".
	Amount string
	// Mint of the SPL token to send. Empty sends native SOL.
	Mint string
}

// BuiltTransfer is an unsigned transaction plus what was learned building it.
type BuiltTransfer struct {
	Transaction *solana.Transaction
	BaseUnits   uint64
	Decimals    uint8
	// CreatesRecipientAccount is set when the transaction also allocates the
	// recipient's associated token account, paid for by the payer.
	CreatesRecipientAccount bool
	LastValidBlockHeight    uint64
}

// BuildTransfer assembles an unsigned native or SPL transfer.
func (c *SolanaClient) BuildTransfer(ctx context.Context, p TransferParams) (*BuiltTransfer, error) {
	recipient, err := solana.PublicKeyFromBase58(p.Recipient)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, fmt.Sprintf("invalid recipient address: %s", p.Recipient), err)
	}
	if p.Payer.IsZero() {
		return nil, types.NewError(types.ErrInvalidRequest, "payer public key is required", nil)
	}
	if _, err := utils.ValidateAmount(p.Amount); err != nil {
		return nil, err
	}

	built := &BuiltTransfer{}
	var instructions []solana.Instruction

	if p.Mint == "" {
		lamports, err := utils.ParseBaseUnits(p.Amount, NativeDecimals)
		if err != nil {
			return nil, err
		}

		ix, err := system.NewTransferInstruction(lamports, p.Payer, recipient).ValidateAndBuild()
		if err != nil {
			return nil, err
		}

		instructions = append(instructions, ix)
		built.BaseUnits = lamports
		built.Decimals = NativeDecimals
	} else {
		ixs, err := c.splInstructions(ctx, p, recipient, built)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ixs...)
	}

	blockhash, lastValid, err := c.chain.LatestBlockhash(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError, "failed to fetch latest blockhash", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(p.Payer))
	if err != nil {
		return nil, err
	}

	built.Transaction = tx
	built.LastValidBlockHeight = lastValid

	c.metrics.IncCounter(metrics.EventBuild, map[string]string{metrics.LabelChain: types.ChainIDSolana})
	c.log.Debug("built transfer", map[string]any{
		"recipient":      recipient.String(),
		"mint":           p.Mint,
		"baseUnits":      built.BaseUnits,
		"decimals":       built.Decimals,
		"createsATA":     built.CreatesRecipientAccount,
		"lastValidBlock": lastValid,
	})

	return built, nil
}

func (c *SolanaClient) splInstructions(
	ctx context.Context,
	p TransferParams,
	recipient solana.PublicKey,
	built *BuiltTransfer,
) ([]solana.Instruction, error) {
	mint, err := solana.PublicKeyFromBase58(p.Mint)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, fmt.Sprintf("invalid token mint: %s", p.Mint), err)
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(p.Payer, mint)
	if err != nil {
		return nil, err
	}
	destinationATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction

	exists, err := c.chain.AccountExists(ctx, destinationATA)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError, "failed to look up recipient token account", err)
	}
	if !exists {
		createIx, err := associatedtokenaccount.NewCreateInstruction(p.Payer, recipient, mint).ValidateAndBuild()
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, createIx)
		built.CreatesRecipientAccount = true
	}

	// Decimals always come from the mint itself.
	decimals, err := c.chain.MintDecimals(ctx, mint)
	if err != nil {
		var xe *types.X402Error
		if errors.As(err, &xe) {
			return nil, xe
		}
		return nil, types.NewError(types.ErrNetworkError, fmt.Sprintf("failed to read mint %s", mint), err)
	}

	amount, err := utils.ParseBaseUnits(p.Amount, int(decimals))
	if err != nil {
		return nil, err
	}

	transferIx, err := token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(decimals).
		SetSourceAccount(sourceATA).
		SetMintAccount(mint).
		SetDestinationAccount(destinationATA).
		SetOwnerAccount(p.Payer).
		ValidateAndBuild()
	if err != nil {
		return nil, err
	}

	built.BaseUnits = amount
	built.Decimals = decimals
	return append(instructions, transferIx), nil
}

// Submit signs built with signer, broadcasts it and waits for the confirmed
// commitment level. The returned result is never nil. On failure it carries
// Success=false plus the same *types.X402Error that is returned as err.
func (c *SolanaClient) Submit(ctx context.Context, built *BuiltTransfer, signer Signer) (*types.PaymentResult, error) {
	if signer == nil {
		return c.fail("", types.NewError(types.ErrMissingSigner, "no signer configured", nil))
	}
	if built == nil || built.Transaction == nil {
		return c.fail("", types.NewError(types.ErrInvalidRequest, "nothing to submit", nil))
	}

	tx, err := signer.SignTransaction(ctx, built.Transaction)
	if err != nil {
		return c.fail("", types.NewError(types.ErrSignerRejected, "signer rejected the transaction", err))
	}
	if tx == nil || len(tx.Signatures) == 0 {
		return c.fail("", types.NewError(types.ErrSignerRejected, "signer returned an unsigned transaction", nil))
	}

	labels := map[string]string{metrics.LabelChain: types.ChainIDSolana}
	start := time.Now()

	var sig solana.Signature
	err = c.retry.Do(ctx, isNetworkError, func(attempt int, err error) {
		c.metrics.IncCounter(metrics.EventRetry, labels)
		c.log.Warn("broadcast failed, retrying", map[string]any{"attempt": attempt, "error": err})
	}, func() error {
		s, err := c.chain.SendTransaction(ctx, tx)
		if err != nil {
			return classifySendError(err)
		}
		sig = s
		return nil
	})
	if err != nil {
		return c.fail("", err)
	}

	c.metrics.IncCounter(metrics.EventBroadcast, labels)
	c.log.Info("transaction broadcast", map[string]any{"txHash": sig.String()})

	status, err := c.awaitConfirmation(ctx, sig, built.LastValidBlockHeight)
	if err != nil {
		return c.fail(sig.String(), err)
	}

	c.metrics.ObserveLatency(metrics.EventConfirm, time.Since(start), labels)
	c.log.Info("transaction confirmed", map[string]any{
		"txHash": sig.String(),
		"slot":   status.Slot,
		"status": status.Confirmation,
	})

	return &types.PaymentResult{
		Success:   true,
		TxHash:    sig.String(),
		PaymentID: PaymentIDPrefix + sig.String(),
		Slot:      status.Slot,
	}, nil
}

// Send builds a transfer paid by signer and submits it. A transaction whose
// blockhash expired never landed, so it is rebuilt and re-signed under the
// retry policy. Every other failure is returned to the caller.
func (c *SolanaClient) Send(ctx context.Context, p TransferParams, signer Signer) (*types.PaymentResult, error) {
	if signer == nil {
		return c.fail("", types.NewError(types.ErrMissingSigner, "no signer configured", nil))
	}
	p.Payer = signer.PublicKey()

	var result *types.PaymentResult
	err := c.retry.Do(ctx, isBlockhashExpired, func(attempt int, err error) {
		c.log.Warn("blockhash expired, rebuilding transaction", map[string]any{"attempt": attempt})
	}, func() error {
		built, err := c.BuildTransfer(ctx, p)
		if err != nil {
			result, err = c.fail("", err)
			return err
		}
		result, err = c.Submit(ctx, built, signer)
		return err
	})
	return result, err
}

// awaitConfirmation polls the signature status until it is confirmed, fails
// on chain, its blockhash expires, or the confirm timeout elapses.
func (c *SolanaClient) awaitConfirmation(ctx context.Context, sig solana.Signature, lastValid uint64) (*SignatureStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.chain.SignatureStatus(ctx, sig)
		switch {
		case err != nil:
			c.log.Debug("signature status lookup failed", map[string]any{"txHash": sig.String(), "error": err})
		case status != nil && status.Err != nil:
			return nil, classifyExecutionError(status.Err)
		case status != nil && status.Confirmed():
			return status, nil
		case lastValid > 0:
			if height, err := c.chain.BlockHeight(ctx); err == nil && height > lastValid {
				return nil, types.NewError(
					types.ErrBlockhashExpired,
					fmt.Sprintf("block height %d passed last valid height %d", height, lastValid),
					nil,
				)
			}
		}

		select {
		case <-ctx.Done():
			return nil, types.NewError(
				types.ErrConfirmationTimeout,
				fmt.Sprintf("transaction %s not confirmed in time", sig),
				ctx.Err(),
			)
		case <-ticker.C:
		}
	}
}

func (c *SolanaClient) fail(txHash string, err error) (*types.PaymentResult, error) {
	c.metrics.IncCounter(metrics.EventFailure, map[string]string{metrics.LabelChain: types.ChainIDSolana})
	c.log.Error("payment failed", map[string]any{"txHash": txHash, "code": types.CodeOf(err), "error": err})
	return failedResult(txHash, err), err
}

func failedResult(txHash string, err error) *types.PaymentResult {
	return &types.PaymentResult{
		Success:   false,
		TxHash:    txHash,
		Error:     err.Error(),
		ErrorCode: types.CodeOf(err),
	}
}

func isNetworkError(err error) bool {
	return types.IsCode(err, types.ErrNetworkError)
}

func isBlockhashExpired(err error) bool {
	return types.IsCode(err, types.ErrBlockhashExpired)
}
