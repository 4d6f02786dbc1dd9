// Package onramp builds redirect URLs for fiat-to-crypto purchase providers.
package onramp

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/vitwit/x402pay/types"
	"github.com/vitwit/x402pay/utils"
)

// Provider describes a hosted onramp checkout.
type Provider struct {
	ID      string
	Name    string
	BaseURL string
	// APIKeyEnv names the environment variable holding the public API key.
	APIKeyEnv string
	// DemoKey is used when neither the order nor the environment has a key.
	DemoKey string
}

var providers = map[string]Provider{
	"moonpay": {ID: "moonpay", Name: "MoonPay", BaseURL: "https://buy.moonpay.com", APIKeyEnv: "X402_MOONPAY_API_KEY", DemoKey: "pk_test_demo"},
	"transak": {ID: "transak", Name: "Transak", BaseURL: "https://global.transak.com", APIKeyEnv: "X402_TRANSAK_API_KEY", DemoKey: "demo-api-key"},
	"ramp":    {ID: "ramp", Name: "Ramp Network", BaseURL: "https://buy.ramp.network", APIKeyEnv: "X402_RAMP_API_KEY", DemoKey: "demo_public"},
}

// Cryptos maps purchasable symbols to the network they are delivered on.
var Cryptos = map[string]string{
	"SOL":   types.ChainIDSolana,
	"USDC":  types.ChainIDSolana,
	"USDT":  types.ChainIDSolana,
	"ETH":   types.ChainIDEthereum,
	"MATIC": types.ChainIDPolygon,
	"AVAX":  types.ChainIDAvalanche,
	"BNB":   types.ChainIDBSC,
}

// Fiats lists the accepted fiat currency codes.
var Fiats = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD"}

const themeColor = "6366f1"

// Order is what the user wants to buy.
type Order struct {
	Crypto string
	Fiat   string
	// Amount of fiat to spend; empty lets the provider ask.
	Amount        string
	WalletAddress string
	APIKey        string
}

// Lookup returns the provider registered under id.
func Lookup(id string) (Provider, bool) {
	p, ok := providers[id]
	return p, ok
}

// BuildURL returns the checkout URL of provider for o.
func BuildURL(providerID string, o Order) (string, error) {
	p, ok := providers[providerID]
	if !ok {
		return "", types.NewError(types.ErrConfigError, fmt.Sprintf("unknown onramp provider: %s", providerID), nil)
	}

	crypto := strings.ToUpper(o.Crypto)
	network, ok := Cryptos[crypto]
	if !ok {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unsupported crypto: %s", o.Crypto), nil)
	}
	if o.WalletAddress == "" {
		return "", types.NewError(types.ErrInvalidAddress, "wallet address is required", nil)
	}
	if !utils.ValidateAddress(o.WalletAddress, network) {
		return "", types.NewError(types.ErrInvalidAddress, fmt.Sprintf("invalid %s address: %s", network, o.WalletAddress), nil)
	}

	fiat := strings.ToUpper(o.Fiat)
	if fiat == "" {
		fiat = "USD"
	}
	if !contains(Fiats, fiat) {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unsupported fiat currency: %s", o.Fiat), nil)
	}
	if o.Amount != "" {
		if _, err := utils.ValidateAmount(o.Amount); err != nil {
			return "", err
		}
	}

	key := o.APIKey
	if key == "" {
		key = os.Getenv(p.APIKeyEnv)
	}
	if key == "" {
		key = p.DemoKey
	}

	q := url.Values{}
	switch p.ID {
	case "moonpay":
		q.Set("apiKey", key)
		q.Set("currencyCode", strings.ToLower(crypto))
		q.Set("walletAddress", o.WalletAddress)
		q.Set("baseCurrencyCode", strings.ToLower(fiat))
		setIf(q, "baseCurrencyAmount", o.Amount)
		q.Set("colorCode", "#"+themeColor)
	case "transak":
		q.Set("apiKey", key)
		q.Set("cryptoCurrencyCode", crypto)
		q.Set("walletAddress", o.WalletAddress)
		q.Set("fiatCurrency", fiat)
		setIf(q, "fiatAmount", o.Amount)
		q.Set("network", network)
		q.Set("themeColor", themeColor)
	case "ramp":
		q.Set("hostApiKey", key)
		q.Set("swapAsset", strings.ToUpper(network)+"_"+crypto)
		q.Set("userAddress", o.WalletAddress)
		q.Set("fiatCurrency", fiat)
		setIf(q, "fiatValue", o.Amount)
	}

	return p.BaseURL + "?" + q.Encode(), nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
