// Package links encodes payment requests into shareable URLs and back.
package links

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitwit/x402pay/facilitators"
	"github.com/vitwit/x402pay/types"
	"github.com/vitwit/x402pay/utils"
)

// PayPath is appended to the facilitator endpoint.
const PayPath = "/pay"

// NewPaymentID returns a client-side correlation id of the form
// x402_<unix millis>_<32 hex chars>. The suffix is a random UUIDv4.
func NewPaymentID() string {
	return newPaymentID(time.Now(), uuid.New())
}

func newPaymentID(now time.Time, id uuid.UUID) string {
	return fmt.Sprintf("x402_%d_%s", now.UnixMilli(), strings.ReplaceAll(id.String(), "-", ""))
}

// Encode builds <endpoint>/pay?id=&chain=&token=&amount=&recipient=&protocol=x402.
// The token parameter carries the custom token address when one is set.
func Encode(f types.Facilitator, paymentID string, req types.PaymentRequest) (string, error) {
	base, err := url.Parse(f.Endpoint)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", types.NewError(types.ErrConfigError, fmt.Sprintf("facilitator %s has an invalid endpoint %q", f.ID, f.Endpoint), err)
	}

	params := [][2]string{
		{"id", paymentID},
		{"chain", req.Chain},
		{"token", req.TokenOrAddress()},
		{"amount", req.Amount},
		{"recipient", req.Recipient},
		{"protocol", types.Protocol},
	}

	var q strings.Builder
	for i, kv := range params {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString(kv[0])
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(kv[1]))
	}

	return strings.TrimSuffix(f.Endpoint, "/") + PayPath + "?" + q.String(), nil
}

// Link is a decoded payment link.
type Link struct {
	PaymentID string
	Request   types.PaymentRequest
}

// Decode parses raw against the default registry. It returns nil when raw is
// not a URL or lacks chain, token, amount or recipient.
func Decode(raw string) *types.PaymentRequest {
	l := Parse(facilitators.Default(), raw)
	if l == nil {
		return nil
	}
	return &l.Request
}

// Parse is Decode with an explicit registry, also returning the payment id.
// The issuing facilitator is attributed from the URL host; a host no
// facilitator claims yields types.FacilitatorUnknown.
func Parse(reg *facilitators.Registry, raw string) *Link {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil
	}

	q := u.Query()
	chain, token := q.Get("chain"), q.Get("token")
	amount, recipient := q.Get("amount"), q.Get("recipient")
	if chain == "" || token == "" || amount == "" || recipient == "" {
		return nil
	}

	facilitator := types.FacilitatorUnknown
	if f, ok := reg.ByHost(u.Hostname()); ok {
		facilitator = f.ID
	}

	req := types.PaymentRequest{
		Chain:       chain,
		Token:       token,
		Amount:      amount,
		Recipient:   recipient,
		Facilitator: facilitator,
	}
	if utils.ValidateAddress(token, chain) {
		req.CustomTokenAddress = token
	}

	return &Link{PaymentID: q.Get("id"), Request: req}
}
