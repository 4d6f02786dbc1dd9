package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/vitwit/x402pay/types"
)

var hexPattern = regexp.MustCompile("^[0-9a-fA-F]+$")

// ValidateAddress reports whether address is well formed for chain.
//
// Solana addresses must decode as a 32-byte base-58 public key. EVM addresses
// must be "0x" followed by 40 hex digits; the checksum is not verified, so a
// true result says nothing about whether the account exists or is funded.
func ValidateAddress(address, chain string) bool {
	switch types.FamilyOf(chain) {
	case types.ChainSolana:
		_, err := solana.PublicKeyFromBase58(address)
		return err == nil
	case types.ChainEVM:
		return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
	default:
		return false
	}
}

// ValidateAmount checks if an amount string is a valid non-negative decimal
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, types.NewError(types.ErrInvalidAmount, "amount cannot be empty", nil)
	}

	dec, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidAmount, fmt.Sprintf("invalid amount %q", amount), err)
	}

	if dec.IsNegative() {
		return nil, types.NewError(types.ErrInvalidAmount, "amount cannot be negative", nil)
	}

	return &dec, nil
}

// FormatAmount renders amount with exactly decimals fractional digits.
// Unparseable input is an error rather than a silent "0".
func FormatAmount(amount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", types.NewError(types.ErrInvalidAmount, "decimals cannot be negative", nil)
	}
	dec, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", types.NewError(types.ErrInvalidAmount, fmt.Sprintf("invalid amount %q", amount), err)
	}
	return dec.StringFixed(int32(decimals)), nil
}

// FormatAmountOrZero is FormatAmount for display-only callers: unparseable
// input renders as "0".
func FormatAmountOrZero(amount string, decimals int) string {
	s, err := FormatAmount(amount, decimals)
	if err != nil {
		return "0"
	}
	return s
}

// ParseAmountWithDecimals converts a human-readable amount to base units.
// Amounts with more fractional digits than decimals are rejected instead of
// being truncated.
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, types.NewError(types.ErrInvalidAmount, "decimals cannot be negative", nil)
	}

	dec, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}

	scaled := dec.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, types.NewError(
			types.ErrInvalidAmount,
			fmt.Sprintf("amount %s has more than %d decimal places", amount, decimals),
			nil,
		)
	}

	return scaled.BigInt(), nil
}

// ParseBaseUnits is ParseAmountWithDecimals for amounts that must fit a u64,
// which is what Solana transfer instructions carry.
func ParseBaseUnits(amount string, decimals int) (uint64, error) {
	v, err := ParseAmountWithDecimals(amount, decimals)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, types.NewError(types.ErrInvalidAmount, fmt.Sprintf("amount %s overflows u64 base units", amount), nil)
	}
	if v.Sign() == 0 {
		return 0, types.NewError(types.ErrInvalidAmount, "amount must be greater than zero", nil)
	}
	return v.Uint64(), nil
}

// FormatAmountFromBigInt formats a big.Int amount to decimal string with specified decimals
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	dec := decimal.NewFromBigInt(amount, -int32(decimals))
	return dec.String()
}

// ValidateTransactionHash validates a transaction reference for chain
func ValidateTransactionHash(hash string, chain string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	switch types.FamilyOf(chain) {
	case types.ChainEVM:
		// 0x + 64 hex
		if !strings.HasPrefix(hash, "0x") || len(hash) != 66 || !hexPattern.MatchString(hash[2:]) {
			return fmt.Errorf("EVM transaction hash must be 0x followed by 64 hex digits")
		}

	case types.ChainSolana:
		if _, err := solana.SignatureFromBase58(hash); err != nil {
			return fmt.Errorf("invalid Solana transaction signature: %w", err)
		}

	default:
		return fmt.Errorf("unsupported chain for transaction hash validation: %s", chain)
	}

	return nil
}
