// Package x402pay sends Solana payments and runs them through the x402
// facilitator lifecycle: build, sign, confirm, verify, settle. It also
// produces and parses shareable payment links.
package x402pay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitwit/x402pay/clients"
	"github.com/vitwit/x402pay/facilitators"
	"github.com/vitwit/x402pay/links"
	"github.com/vitwit/x402pay/logger"
	"github.com/vitwit/x402pay/metrics"
	"github.com/vitwit/x402pay/retry"
	"github.com/vitwit/x402pay/settlement"
	"github.com/vitwit/x402pay/tokens"
	"github.com/vitwit/x402pay/types"
	"github.com/vitwit/x402pay/utils"
	"github.com/vitwit/x402pay/verification"
)

// Client is the main entry point. It holds no per-payment state and is safe
// for concurrent use.
type Client struct {
	cfg      types.Config
	registry *facilitators.Registry

	solana   *clients.SolanaClient
	verifier verification.Verifier
	settler  settlement.Settler

	logger     logger.Logger
	metrics    metrics.Recorder
	timeout    time.Duration
	httpClient *http.Client
	chain      clients.Chain
	registerer prometheus.Registerer

	closers []func() error
}

// New creates a Client from cfg. Zero config fields take their defaults.
func New(cfg types.Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := utils.ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		timeout: cfg.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		l, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		c.logger = l
	}

	if c.metrics == nil {
		if cfg.EnableMetrics {
			rec, err := metrics.NewPrometheusRecorder(c.registerer)
			if err != nil {
				return nil, fmt.Errorf("failed to register metrics: %w", err)
			}
			c.metrics = rec
		} else {
			c.metrics = metrics.NoopRecorder{}
		}
	}

	if c.registry == nil {
		if len(cfg.Facilitators) > 0 {
			c.registry = facilitators.NewRegistry(cfg.Facilitators...)
		} else {
			c.registry = facilitators.Default()
		}
	}

	if c.chain == nil {
		rpcChain := clients.NewRPCChain(cfg.SolanaRPCURL)
		c.chain = rpcChain
		c.closers = append(c.closers, rpcChain.Close)
	}

	policy := retry.FromConfig(cfg.Retry)

	c.solana = clients.NewSolanaClient(c.chain, clients.SolanaConfig{
		ConfirmTimeout: cfg.ConfirmTimeout,
		PollInterval:   cfg.PollInterval,
		Retry:          policy,
		Logger:         c.logger,
		Metrics:        c.metrics,
	})

	transport := clients.NewFacilitatorClient(clients.FacilitatorConfig{
		HTTPClient:        c.httpClient,
		Timeout:           c.timeout,
		RequestsPerSecond: cfg.FacilitatorRPS,
		Retry:             policy,
		Logger:            c.logger,
		Metrics:           c.metrics,
	})
	c.verifier = verification.NewService(c.registry, transport, c.logger, c.metrics)
	c.settler = settlement.NewService(c.registry, transport, c.logger, c.metrics)

	return c, nil
}

// NewWithDefaults creates a Client against Solana mainnet with default settings.
func NewWithDefaults(opts ...Option) (*Client, error) {
	return New(types.Config{}, opts...)
}

// CreatePaymentRequest builds a shareable payment link. Nothing is sent over
// the network.
func (c *Client) CreatePaymentRequest(req types.PaymentRequest) (*types.PaymentRequestLink, error) {
	f, err := c.registry.Require(req.Facilitator, req.Chain)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateRequest(&req); err != nil {
		return nil, err
	}

	id := links.NewPaymentID()
	url, err := links.Encode(f, id, req)
	if err != nil {
		return nil, err
	}

	c.metrics.IncCounter(metrics.EventLink, map[string]string{
		metrics.LabelChain:       req.Chain,
		metrics.LabelFacilitator: f.ID,
	})
	c.logger.Info("payment link created", map[string]any{
		"paymentId":   id,
		"facilitator": f.ID,
		"chain":       req.Chain,
	})

	return &types.PaymentRequestLink{PaymentID: id, PaymentURL: url}, nil
}

// ParsePaymentLink decodes a link produced by CreatePaymentRequest or by a
// facilitator. It returns nil for anything that is not a complete link.
func (c *Client) ParsePaymentLink(raw string) *types.PaymentRequest {
	l := links.Parse(c.registry, raw)
	if l == nil {
		return nil
	}
	return &l.Request
}

// Send submits req on chain through signer and waits for confirmation. The
// result is never nil; on failure it mirrors the returned error.
func (c *Client) Send(ctx context.Context, req types.PaymentRequest, signer clients.Signer) (*types.PaymentResult, error) {
	if _, err := c.registry.Require(req.Facilitator, req.Chain); err != nil {
		return failed(err)
	}
	if types.FamilyOf(req.Chain) != types.ChainSolana {
		return failed(types.NewError(
			types.ErrUnsupportedChain,
			fmt.Sprintf("on-chain submission is only implemented for solana, not %s", req.Chain),
			nil,
		))
	}
	if err := utils.ValidateRequest(&req); err != nil {
		return failed(err)
	}

	mint, err := tokens.MintFor(req)
	if err != nil {
		return failed(err)
	}

	return c.solana.Send(ctx, clients.TransferParams{
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Mint:      mint,
	}, signer)
}

// Verify asks the facilitator to verify a submitted payment. A txHash that
// is malformed for chain is rejected before any request is made.
func (c *Client) Verify(ctx context.Context, facilitatorID, paymentID, txHash, chain string) (*types.VerificationResult, error) {
	if err := utils.ValidateTransactionHash(txHash, chain); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid transaction hash", err)
	}
	return c.verifier.Verify(ctx, facilitatorID, paymentID, txHash, chain)
}

// Settle asks the facilitator to settle a payment. Use Pay to get the
// verify-before-settle ordering for free.
func (c *Client) Settle(ctx context.Context, facilitatorID, paymentID, txHash string) (*types.SettlementResult, error) {
	return c.settler.Settle(ctx, facilitatorID, paymentID, txHash)
}

// Pay runs the full lifecycle: send, then verify, then settle. Settle is
// only attempted after the facilitator verified the payment.
func (c *Client) Pay(ctx context.Context, req types.PaymentRequest, signer clients.Signer) (*types.PayOutcome, error) {
	out := &types.PayOutcome{}

	res, err := c.Send(ctx, req, signer)
	out.Payment = res
	if err != nil {
		return out, err
	}

	v, err := c.Verify(ctx, req.Facilitator, res.PaymentID, res.TxHash, req.Chain)
	out.Verification = v
	if err != nil {
		return out, err
	}
	if !v.Verified {
		c.logger.Warn("payment not verified, skipping settlement", map[string]any{
			"paymentId": res.PaymentID,
			"txHash":    res.TxHash,
			"reason":    v.Error,
		})
		return out, nil
	}

	s, err := c.Settle(ctx, req.Facilitator, res.PaymentID, res.TxHash)
	out.Settlement = s
	return out, err
}

// Facilitators lists the facilitators usable on chain. An empty chain lists
// all of them.
func (c *Client) Facilitators(chain string) []types.Facilitator {
	if chain == "" {
		return c.registry.All()
	}
	return c.registry.ForChain(chain)
}

// Registry returns the facilitator registry in use.
func (c *Client) Registry() *facilitators.Registry { return c.registry }

// Config returns the effective configuration.
func (c *Client) Config() types.Config { return c.cfg }

// Close releases connections owned by the client.
func (c *Client) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if s, ok := c.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return errors.Join(errs...)
}

func failed(err error) (*types.PaymentResult, error) {
	return &types.PaymentResult{
		Success:   false,
		Error:     err.Error(),
		ErrorCode: types.CodeOf(err),
	}, err
}

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)

// GetVersion returns version information
func GetVersion() map[string]any {
	return map[string]any{
		"library_version":  Version,
		"protocol_version": ProtocolVersion,
		"submission_chains": []string{
			types.ChainIDSolana,
		},
		"facilitators": []string{
			"payai", "coinbase", "x402rs",
		},
		"supported_standards": []string{
			"spl", "native",
		},
	}
}
