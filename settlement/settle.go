// Package settlement asks facilitators to settle verified payments.
package settlement

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

type Settler interface {
	Settle(ctx context.Context, facilitatorID, paymentID, txHash string) (*types.SettlementResult, error)
}

// Request is the settle body sent to facilitators.
type Request struct {
	PaymentID string `json:"paymentId"`
	TxHash    string `json:"txHash"`
	Protocol  string `json:"protocol"`
}

type Service struct {
	registry  *facilitators.Registry
	transport *clients.FacilitatorClient
	log       logger.Logger
	metrics   metrics.Recorder
}

var _ Settler = (*Service)(nil)

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

// Settle has the same contract as verification.Service.Verify, against the
// settle endpoint. Callers must only settle verified payments.
func (s *Service) Settle(ctx context.Context, facilitatorID, paymentID, txHash string) (*types.SettlementResult, error) {
	f, err := s.registry.Lookup(facilitatorID)
	if err != nil {
		return nil, err
	}

	labels := map[string]string{metrics.LabelFacilitator: f.ID}
	start := time.Now()
	defer func() { s.metrics.ObserveLatency(metrics.EventSettle, time.Since(start), labels) }()

	verdict, err := s.transport.PostVerdict(ctx, f.SettleEndpoint, Request{
		PaymentID: paymentID,
		TxHash:    txHash,
		Protocol:  types.Protocol,
	}, "settled")
	if err != nil {
		if types.IsCode(err, types.ErrConfigError) {
			return nil, err
		}
		s.metrics.IncCounter(metrics.EventFailure, labels)
		s.log.Warn("settlement request failed", map[string]any{
			"facilitator": f.ID,
			"paymentId":   paymentID,
			"error":       err,
		})
		return &types.SettlementResult{
			Settled: false,
			Error:   fmt.Sprintf("settlement with %s failed: %v", f.Name, err),
		}, nil
	}

	s.metrics.IncCounter(metrics.EventSettle, labels)
	result := &types.SettlementResult{Settled: verdict.Value}
	switch {
	case !verdict.Present:
		result.Error = fmt.Sprintf("%s returned no boolean settled field", f.Name)
	case !verdict.Value:
		result.Error = verdict.Message
		if result.Error == "" {
			result.Error = fmt.Sprintf("%s did not settle the payment", f.Name)
		}
	}

	s.log.Info("payment settlement", map[string]any{
		"facilitator": f.ID,
		"paymentId":   paymentID,
		"txHash":      txHash,
		"settled":     result.Settled,
	})

	return result, nil
}
