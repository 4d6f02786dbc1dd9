// Package tokens lists the tokens the wallet offers per chain.
package tokens

import (
	"fmt"
	"strings"

	"github.com/vitwit/x402pay/types"
	"github.com/vitwit/x402pay/utils"
)

// Decimals here are display hints. Solana transfers always read decimals
// from the mint account.
var catalog = map[string][]types.Token{
	types.ChainIDSolana: {
		{Symbol: "SOL", Decimals: 9},
		{Symbol: "USDC", Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
		{Symbol: "USDT", Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
		{Symbol: "SOLANICA", Address: "Ev6Wo8e1jLgwuG2vK7cvDEYqp9vCH61s1fkf5mfbonk", Decimals: 9},
	},
	types.ChainIDBase: {
		{Symbol: "ETH", Decimals: 18},
		{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
	},
	types.ChainIDPolygon: {
		{Symbol: "MATIC", Decimals: 18},
		{Symbol: "USDC", Address: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", Decimals: 6},
	},
	types.ChainIDAvalanche: {
		{Symbol: "AVAX", Decimals: 18},
		{Symbol: "USDC", Address: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6},
	},
	types.ChainIDEthereum: {
		{Symbol: "ETH", Decimals: 18},
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
	},
	types.ChainIDBSC: {
		{Symbol: "BNB", Decimals: 18},
		{Symbol: "USDT", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
	},
	types.ChainIDArbitrum: {
		{Symbol: "ETH", Decimals: 18},
		{Symbol: "USDC", Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6},
	},
	types.ChainIDOptimism: {
		{Symbol: "ETH", Decimals: 18},
		{Symbol: "USDC", Address: "0x7F5c764cBc14f9669B88837ca1490cCa17c31607", Decimals: 6},
	},
}

// ForChain returns the known tokens of chain, native asset first.
func ForChain(chain string) []types.Token {
	return append([]types.Token(nil), catalog[chain]...)
}

// Chains lists every chain with a token list.
func Chains() []string {
	out := make([]string, 0, len(catalog))
	for c := range catalog {
		out = append(out, c)
	}
	return out
}

// Resolve finds a token by symbol (case-insensitive) or by address. A valid
// address that is not in the catalog is returned as a custom token with
// unknown decimals (-1).
func Resolve(chain, symbolOrAddress string) (types.Token, error) {
	for _, t := range catalog[chain] {
		if strings.EqualFold(t.Symbol, symbolOrAddress) {
			return t, nil
		}
		if t.Address != "" && strings.EqualFold(t.Address, symbolOrAddress) {
			return t, nil
		}
	}

	if utils.ValidateAddress(symbolOrAddress, chain) {
		return types.Token{Address: symbolOrAddress, Decimals: -1}, nil
	}

	return types.Token{}, types.NewError(
		types.ErrInvalidRequest,
		fmt.Sprintf("unknown token %q on chain %s", symbolOrAddress, chain),
		nil,
	)
}

// MintFor returns the SPL mint to transfer for req, or "" for native SOL.
func MintFor(req types.PaymentRequest) (string, error) {
	t, err := Resolve(req.Chain, req.TokenOrAddress())
	if err != nil {
		return "", err
	}
	return t.Address, nil
}
