package x402pay

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitwit/x402pay/clients"
	"github.com/vitwit/x402pay/facilitators"
	"github.com/vitwit/x402pay/logger"
	"github.com/vitwit/x402pay/metrics"
)

type Option func(*Client)

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithPrometheusRegisterer sets where collectors are registered when
// metrics are enabled in the config.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

// WithTimeout bounds each facilitator call, overriding Config.DefaultTimeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.timeout = t
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithRegistry replaces the facilitator registry.
func WithRegistry(r *facilitators.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithChain supplies the Solana cluster handle. The caller keeps ownership.
func WithChain(ch clients.Chain) Option {
	return func(c *Client) {
		c.chain = ch
	}
}
