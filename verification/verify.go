// Package verification asks facilitators whether a submitted payment is valid.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/vitwit/x402pay/clients"
	"github.com/vitwit/x402pay/facilitators"
	"github.com/vitwit/x402pay/logger"
	"github.com/vitwit/x402pay/metrics"
	"github.com/vitwit/x402pay/types"
)

// Verifier is implemented by Service and by test doubles.
type Verifier interface {
	Verify(ctx context.Context, facilitatorID, paymentID, txHash, chain string) (*types.VerificationResult, error)
}

// Request is the verify body sent to facilitators.
type Request struct {
	PaymentID string `json:"paymentId"`
	TxHash    string `json:"txHash"`
	Chain     string `json:"chain"`
	Protocol  string `json:"protocol"`
}

// Service verifies payments against the facilitators of a registry.
type Service struct {
	registry  *facilitators.Registry
	transport *clients.FacilitatorClient
	log       logger.Logger
	metrics   metrics.Recorder
}

var _ Verifier = (*Service)(nil)

func NewService(
	registry *facilitators.Registry,
	transport *clients.FacilitatorClient,
	log logger.Logger,
	rec metrics.Recorder,
) *Service {
	return &Service{
		registry:  registry,
		transport: transport,
		log:       logger.OrNoop(log),
		metrics:   metrics.OrNoop(rec),
	}
}

// Verify POSTs the payment tuple to the facilitator's verify endpoint. Only
// configuration problems are returned as errors. HTTP, transport and body
// problems come back as Verified=false with a message.
func (s *Service) Verify(ctx context.Context, facilitatorID, paymentID, txHash, chain string) (*types.VerificationResult, error) {
	f, err := s.registry.Require(facilitatorID, chain)
	if err != nil {
		return nil, err
	}

	labels := map[string]string{metrics.LabelChain: chain, metrics.LabelFacilitator: f.ID}
	start := time.Now()
	defer func() { s.metrics.ObserveLatency(metrics.EventVerify, time.Since(start), labels) }()

	verdict, err := s.transport.PostVerdict(ctx, f.VerifyEndpoint, Request{
		PaymentID: paymentID,
		TxHash:    txHash,
		Chain:     chain,
		Protocol:  types.Protocol,
	}, "verified")
	if err != nil {
		if types.IsCode(err, types.ErrConfigError) {
			return nil, err
		}
		s.metrics.IncCounter(metrics.EventFailure, labels)
		s.log.Warn("verification request failed", map[string]any{
			"facilitator": f.ID,
			"paymentId":   paymentID,
			"error":       err,
		})
		return &types.VerificationResult{Verified: false, Error: fmt.Sprintf("verification with %s failed: %v", f.Name, err)}, nil
	}

	s.metrics.IncCounter(metrics.EventVerify, labels)
	result := &types.VerificationResult{Verified: verdict.Value}
	switch {
	case !verdict.Present:
		result.Error = fmt.Sprintf("%s returned no boolean verified field", f.Name)
	case !verdict.Value:
		result.Error = verdict.Message
		if result.Error == "" {
			result.Error = fmt.Sprintf("%s did not verify the payment", f.Name)
		}
	}

	s.log.Info("payment verification", map[string]any{
		"facilitator": f.ID,
		"paymentId":   paymentID,
		"txHash":      txHash,
		"verified":    result.Verified,
	})

	return result, nil
}
