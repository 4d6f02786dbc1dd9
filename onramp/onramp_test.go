package onramp

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402pay/types"
)

const wallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func query(t *testing.T, raw string) (string, url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Scheme + "://" + u.Host, u.Query()
}

func TestMoonPay(t *testing.T) {
	raw, err := BuildURL("moonpay", Order{Crypto: "SOL", Fiat: "EUR", Amount: "100", WalletAddress: wallet, APIKey: "pk_live"})
	require.NoError(t, err)

	base, q := query(t, raw)
	assert.Equal(t, "https://buy.moonpay.com", base)
	assert.Equal(t, "pk_live", q.Get("apiKey"))
	assert.Equal(t, "sol", q.Get("currencyCode"))
	assert.Equal(t, "eur", q.Get("baseCurrencyCode"))
	assert.Equal(t, "100", q.Get("baseCurrencyAmount"))
	assert.Equal(t, wallet, q.Get("walletAddress"))
	assert.Equal(t, "#6366f1", q.Get("colorCode"))
}

func TestTransak(t *testing.T) {
	raw, err := BuildURL("transak", Order{Crypto: "usdc", Fiat: "USD", WalletAddress: wallet})
	require.NoError(t, err)

	base, q := query(t, raw)
	assert.Equal(t, "https://global.transak.com", base)
	assert.Equal(t, "USDC", q.Get("cryptoCurrencyCode"))
	assert.Equal(t, "solana", q.Get("network"))
	assert.Equal(t, "USD", q.Get("fiatCurrency"))
	assert.False(t, q.Has("fiatAmount"))
}

func TestRamp(t *testing.T) {
	t.Setenv("X402_RAMP_API_KEY", "ramp_env_key")
	raw, err := BuildURL("ramp", Order{
		Crypto:        "ETH",
		Amount:        "50",
		WalletAddress: "0x000000000000000000000000000000000000dEaD",
	})
	require.NoError(t, err)

	base, q := query(t, raw)
	assert.Equal(t, "https://buy.ramp.network", base)
	assert.Equal(t, "ramp_env_key", q.Get("hostApiKey"))
	assert.Equal(t, "ETHEREUM_ETH", q.Get("swapAsset"))
	assert.Equal(t, "USD", q.Get("fiatCurrency"))
	assert.Equal(t, "50", q.Get("fiatValue"))
}

func TestBuildURLRejects(t *testing.T) {
	_, err := BuildURL("moonpay", Order{Crypto: "SOL"})
	assert.True(t, types.IsCode(err, types.ErrInvalidAddress))

	_, err = BuildURL("moonpay", Order{Crypto: "DOGE", WalletAddress: wallet})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	_, err = BuildURL("moonpay", Order{Crypto: "SOL", Fiat: "CHF", WalletAddress: wallet})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	_, err = BuildURL("moonpay", Order{Crypto: "ETH", WalletAddress: wallet})
	assert.True(t, types.IsCode(err, types.ErrInvalidAddress))

	_, err = BuildURL("coinbase-pay", Order{Crypto: "SOL", WalletAddress: wallet})
	assert.True(t, types.IsCode(err, types.ErrConfigError))
}

func TestLookup(t *testing.T) {
	p, ok := Lookup("transak")
	assert.True(t, ok)
	assert.Equal(t, "Transak", p.Name)
}
