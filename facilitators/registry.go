// Package facilitators holds the static registry of x402 facilitators.
package facilitators

import (
	"fmt"
	"strings"

	"github.com/vitwit/x402pay/types"
)

// Registry maps facilitator identifiers to their configuration. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	order []string
	byID  map[string]types.Facilitator
}

// NewRegistry builds a registry from list, preserving its order. A later
// entry with the same id replaces an earlier one.
func NewRegistry(list ...types.Facilitator) *Registry {
	r := &Registry{byID: make(map[string]types.Facilitator, len(list))}
	for _, f := range list {
		if _, seen := r.byID[f.ID]; !seen {
			r.order = append(r.order, f.ID)
		}
		f.Chains = append([]string(nil), f.Chains...)
		r.byID[f.ID] = f
	}
	return r
}

var defaultRegistry = NewRegistry(
	types.Facilitator{
		ID:             "payai",
		Name:           "PayAI",
		Endpoint:       "https://facilitator.payai.io",
		VerifyEndpoint: "https://facilitator.payai.io/verify",
		SettleEndpoint: "https://facilitator.payai.io/settle",
		Chains:         []string{"solana", "base", "polygon", "avalanche", "sei", "peaq", "iotex"},
		Domain:         "payai.io",
	},
	types.Facilitator{
		ID:             "coinbase",
		Name:           "Coinbase CDP",
		Endpoint:       "https://facilitator.cdp.coinbase.com",
		VerifyEndpoint: "https://facilitator.cdp.coinbase.com/verify",
		SettleEndpoint: "https://facilitator.cdp.coinbase.com/settle",
		Chains:         []string{"base"},
		Domain:         "cdp.coinbase.com",
	},
	types.Facilitator{
		ID:             "x402rs",
		Name:           "x402.rs",
		Endpoint:       "https://facilitator.x402.rs",
		VerifyEndpoint: "https://facilitator.x402.rs/verify",
		SettleEndpoint: "https://facilitator.x402.rs/settle",
		Chains:         []string{"base", "xdc"},
		Domain:         "x402.rs",
	},
)

// Default returns the built-in registry (payai, coinbase, x402rs).
func Default() *Registry { return defaultRegistry }

// Lookup returns the facilitator registered under id.
func (r *Registry) Lookup(id string) (types.Facilitator, error) {
	f, ok := r.byID[id]
	if !ok {
		return types.Facilitator{}, types.NewError(
			types.ErrUnknownFacilitator,
			fmt.Sprintf("unknown facilitator: %s", id),
			nil,
		)
	}
	return f, nil
}

// Supports reports whether facilitator id can be used on chain. Unknown ids
// are not an error, they simply support nothing.
func (r *Registry) Supports(id, chain string) bool {
	f, ok := r.byID[id]
	return ok && f.SupportsChain(chain)
}

// Require is Lookup plus the chain check, returning the configuration error
// a caller must surface before attempting a submission.
func (r *Registry) Require(id, chain string) (types.Facilitator, error) {
	f, err := r.Lookup(id)
	if err != nil {
		return types.Facilitator{}, err
	}
	if !f.SupportsChain(chain) {
		return types.Facilitator{}, types.NewError(
			types.ErrUnsupportedChain,
			fmt.Sprintf("facilitator %s does not support chain %s", f.Name, chain),
			nil,
		)
	}
	return f, nil
}

// ForChain lists facilitators usable on chain, in registry order.
func (r *Registry) ForChain(chain string) []types.Facilitator {
	var out []types.Facilitator
	for _, id := range r.order {
		if f := r.byID[id]; f.SupportsChain(chain) {
			out = append(out, f)
		}
	}
	return out
}

// All returns every registered facilitator in registry order.
func (r *Registry) All() []types.Facilitator {
	out := make([]types.Facilitator, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ByHost attributes a URL host to a facilitator. The host must equal the
// facilitator's domain or be a subdomain of it.
func (r *Registry) ByHost(host string) (types.Facilitator, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, id := range r.order {
		f := r.byID[id]
		if f.Domain == "" {
			continue
		}
		d := strings.ToLower(f.Domain)
		if host == d || strings.HasSuffix(host, "."+d) {
			return f, true
		}
	}
	return types.Facilitator{}, false
}
