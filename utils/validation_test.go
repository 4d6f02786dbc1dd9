package utils

import (
	"math/big"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402pay/types"
)

func TestValidateAddressSolana(t *testing.T) {
	for i := 0; i < 5; i++ {
		key := solana.NewWallet().PublicKey().String()
		assert.True(t, ValidateAddress(key, "solana"), key)
	}
	assert.True(t, ValidateAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "solana"))
	assert.True(t, ValidateAddress(solana.SystemProgramID.String(), "solana"))

	bad := []string{
		"",
		"EPjFWdd5AufqSSqeM2qN1xzy",                       // too short
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1vvv", // too long
		"0OIlEPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyT",   // invalid alphabet
		"0x000000000000000000000000000000000000dEaD",
	}
	for _, addr := range bad {
		assert.False(t, ValidateAddress(addr, "solana"), addr)
	}
}

func TestValidateAddressEVM(t *testing.T) {
	assert.True(t, ValidateAddress("0x000000000000000000000000000000000000dEaD", "base"))
	assert.True(t, ValidateAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "polygon"))
	// checksum is deliberately not enforced
	assert.True(t, ValidateAddress("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "ethereum"))

	bad := []string{
		"0xZZZ",
		"0x0000000000000000000000000000000000dEaD", // 38 hex digits
		"000000000000000000000000000000000000dEaD", // no prefix
		"0X000000000000000000000000000000000000dEaD",
		"0x000000000000000000000000000000000000dEaDbe",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	}
	for _, addr := range bad {
		assert.False(t, ValidateAddress(addr, "base"), addr)
	}
}

func TestValidateAddressUnknownChain(t *testing.T) {
	assert.False(t, ValidateAddress("0x000000000000000000000000000000000000dEaD", "dogecoin"))
}

func TestFormatAmount(t *testing.T) {
	s, err := FormatAmount("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "1.500000", s)

	s, err = FormatAmount("2", 0)
	require.NoError(t, err)
	assert.Equal(t, "2", s)

	_, err = FormatAmount("abc", 6)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidAmount))

	assert.Equal(t, "0", FormatAmountOrZero("abc", 6))
	assert.Equal(t, "0.25", FormatAmountOrZero("0.25", 2))
}

func TestParseAmountWithDecimals(t *testing.T) {
	v, err := ParseAmountWithDecimals("2.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2500000), v)

	v, err = ParseAmountWithDecimals("1.5", 9)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500000000), v)

	_, err = ParseAmountWithDecimals("0.0000001", 6)
	assert.True(t, types.IsCode(err, types.ErrInvalidAmount))

	_, err = ParseAmountWithDecimals("-1", 6)
	assert.True(t, types.IsCode(err, types.ErrInvalidAmount))

	_, err = ParseAmountWithDecimals("", 6)
	assert.True(t, types.IsCode(err, types.ErrInvalidAmount))
}

func TestParseBaseUnits(t *testing.T) {
	v, err := ParseBaseUnits("2.5", 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(2500000), v)

	_, err = ParseBaseUnits("0", 6)
	assert.Error(t, err)

	_, err = ParseBaseUnits("100000000000000000000", 9)
	assert.Error(t, err)
}

func TestFormatAmountFromBigInt(t *testing.T) {
	assert.Equal(t, "2.5", FormatAmountFromBigInt(big.NewInt(2500000), 6))
}

func TestValidateTransactionHash(t *testing.T) {
	sig := solana.Signature{1, 2, 3}
	assert.NoError(t, ValidateTransactionHash(sig.String(), "solana"))
	assert.Error(t, ValidateTransactionHash("abc", "solana"))
	assert.Error(t, ValidateTransactionHash("", "solana"))

	evmHash := "0x" + strings.Repeat("abcd", 16)
	assert.NoError(t, ValidateTransactionHash(evmHash, "base"))
	assert.Error(t, ValidateTransactionHash("0x1234", "base"))
	assert.Error(t, ValidateTransactionHash(evmHash, "dogecoin"))
}

func TestValidateRequest(t *testing.T) {
	req := &types.PaymentRequest{
		Chain:       "solana",
		Token:       "SOL",
		Amount:      "1.5",
		Recipient:   solana.NewWallet().PublicKey().String(),
		Facilitator: "payai",
	}
	require.NoError(t, ValidateRequest(req))

	bad := *req
	bad.Recipient = "not-an-address"
	assert.True(t, types.IsCode(ValidateRequest(&bad), types.ErrInvalidAddress))

	bad = *req
	bad.Amount = "lots"
	assert.True(t, types.IsCode(ValidateRequest(&bad), types.ErrInvalidAmount))

	bad = *req
	bad.Facilitator = ""
	assert.True(t, types.IsCode(ValidateRequest(&bad), types.ErrInvalidRequest))
}
