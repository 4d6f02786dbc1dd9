package verification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402pay/clients"
	"github.com/vitwit/x402pay/facilitators"
	"github.com/vitwit/x402pay/types"
)

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := facilitators.NewRegistry(types.Facilitator{
		ID:             "local",
		Name:           "Local",
		Endpoint:       srv.URL,
		VerifyEndpoint: srv.URL + "/verify",
		SettleEndpoint: srv.URL + "/settle",
		Chains:         []string{"solana"},
	})
	return NewService(reg, clients.NewFacilitatorClient(clients.FacilitatorConfig{}), nil, nil)
}

func TestVerifySendsPaymentTuple(t *testing.T) {
	var got Request
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"verified":true}`))
	})

	res, err := svc.Verify(context.Background(), "local", "x402_1", "sig", "solana")
	require.NoError(t, err)

	assert.True(t, res.Verified)
	assert.Empty(t, res.Error)
	assert.Equal(t, Request{PaymentID: "x402_1", TxHash: "sig", Chain: "solana", Protocol: "x402"}, got)
}

func TestVerifyNonSuccessStatus(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := svc.Verify(context.Background(), "local", "x402_1", "sig", "solana")
	require.NoError(t, err)

	assert.False(t, res.Verified)
	assert.Equal(t, "verification with Local failed: facilitator returned HTTP 404", res.Error)
}

func TestVerifyMissingField(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	res, err := svc.Verify(context.Background(), "local", "x402_1", "sig", "solana")
	require.NoError(t, err)

	assert.False(t, res.Verified)
	assert.NotEmpty(t, res.Error)
}

func TestVerifyRejectedWithReason(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"verified":false,"error":"tx not found"}`))
	})

	res, err := svc.Verify(context.Background(), "local", "x402_1", "sig", "solana")
	require.NoError(t, err)

	assert.False(t, res.Verified)
	assert.Equal(t, "tx not found", res.Error)
}

func TestVerifyConfigurationErrors(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := svc.Verify(context.Background(), "nope", "x402_1", "sig", "solana")
	assert.True(t, types.IsCode(err, types.ErrUnknownFacilitator))

	_, err = svc.Verify(context.Background(), "local", "x402_1", "sig", "base")
	assert.True(t, types.IsCode(err, types.ErrUnsupportedChain))
}
