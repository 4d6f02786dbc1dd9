package settlement

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

func TestSettle(t *testing.T) {
	var got map[string]any
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/settle", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"settled":true}`))
	})

	res, err := svc.Settle(context.Background(), "local", "x402_1", "sig")
	require.NoError(t, err)

	assert.True(t, res.Settled)
	assert.Equal(t, map[string]any{"paymentId": "x402_1", "txHash": "sig", "protocol": "x402"}, got)
}

func TestSettleFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		errPart string
	}{
		{"server error", http.StatusBadGateway, "", "settlement with Local failed: facilitator returned HTTP 502"},
		{"malformed field", http.StatusOK, `{"settled":"yes"}`, "no boolean settled field"},
		{"declined", http.StatusOK, `{"settled":false}`, "did not settle"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			res, err := svc.Settle(context.Background(), "local", "x402_1", "sig")
			require.NoError(t, err)
			assert.False(t, res.Settled)
			assert.Contains(t, res.Error, tc.errPart)
		})
	}
}

func TestSettleUnknownFacilitator(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := svc.Settle(context.Background(), "ghost", "x402_1", "sig")
	assert.True(t, types.IsCode(err, types.ErrUnknownFacilitator))
}
