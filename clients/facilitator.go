package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/vitwit/x402pay/logger"
	"github.com/vitwit/x402pay/metrics"
	"github.com/vitwit/x402pay/retry"
	"github.com/vitwit/x402pay/types"
	"golang.org/x/time/rate"
)

// maxResponseBytes caps how much of a facilitator response is read.
const maxResponseBytes = 1 << 20

// FacilitatorConfig tunes a FacilitatorClient. Zero values fall back to defaults.
type FacilitatorConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
	Retry             retry.Policy
	Logger            logger.Logger
	Metrics           metrics.Recorder
}

// FacilitatorClient posts JSON to facilitator endpoints and reads back a
// single boolean verdict.
type FacilitatorClient struct {
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	retry   retry.Policy
	log     logger.Logger
	metrics metrics.Recorder
}

func NewFacilitatorClient(cfg FacilitatorConfig) *FacilitatorClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.None
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &FacilitatorClient{
		http:    cfg.HTTPClient,
		timeout: cfg.Timeout,
		limiter: limiter,
		retry:   cfg.Retry,
		log:     logger.OrNoop(cfg.Logger),
		metrics: metrics.OrNoop(cfg.Metrics),
	}
}

// Verdict is the interpreted facilitator answer.
type Verdict struct {
	// Value is the boolean field, false when it was missing or malformed.
	Value bool
	// Present is false when the field was missing or not a JSON boolean.
	Present bool
	// Message carries any error or message text the facilitator sent.
	Message string
}

// PostVerdict POSTs body to endpoint and extracts the boolean named field.
// Transport failures, 429 and 5xx are retried per policy. Any other non-2xx
// status is a FACILITATOR_REJECTED error.
func (c *FacilitatorClient) PostVerdict(ctx context.Context, endpoint string, body any, field string) (*Verdict, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var raw []byte
	err = c.retry.Do(ctx, nil, func(attempt int, err error) {
		c.metrics.IncCounter(metrics.EventRetry, nil)
		c.log.Warn("facilitator call failed, retrying", map[string]any{
			"endpoint": endpoint,
			"attempt":  attempt,
			"error":    err,
		})
	}, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.NewError(types.ErrNetworkError, "rate limiter wait aborted", err)
		}
		resp, err := c.post(ctx, endpoint, payload)
		if err != nil {
			return err
		}
		raw = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseVerdict(raw, field), nil
}

func (c *FacilitatorClient) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrConfigError, fmt.Sprintf("invalid facilitator endpoint %s", endpoint), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError, fmt.Sprintf("request to %s failed", endpoint), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, types.NewError(types.ErrNetworkError, "failed to read facilitator response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, types.NewError(
			types.ErrNetworkError,
			fmt.Sprintf("facilitator returned HTTP %d", resp.StatusCode),
			nil,
		)
	default:
		msg := fmt.Sprintf("facilitator returned HTTP %d", resp.StatusCode)
		if detail := parseVerdict(raw, "").Message; detail != "" {
			msg += ": " + detail
		}
		return nil, types.NewError(types.ErrFacilitatorRejected, msg, nil)
	}
}

// parseVerdict never fails: a body that is not a JSON object, or a field that
// is not a boolean, yields Present=false.
func parseVerdict(raw []byte, field string) *Verdict {
	v := &Verdict{}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return v
	}

	if b, ok := obj[field]; ok && field != "" && string(bytes.TrimSpace(b)) != "null" {
		var flag bool
		if err := json.Unmarshal(b, &flag); err == nil {
			v.Value = flag
			v.Present = true
		}
	}

	for _, key := range []string{"error", "message", "invalidReason", "errorReason"} {
		var s string
		if b, ok := obj[key]; ok && json.Unmarshal(b, &s) == nil && s != "" {
			v.Message = s
			break
		}
	}

	return v
}
