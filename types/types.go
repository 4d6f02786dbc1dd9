package types

import (
	"errors"
	"time"
)

// Protocol is the fixed tag carried in payment links and facilitator bodies.
const Protocol = "x402"

// FacilitatorUnknown marks a payment link whose issuer could not be attributed.
const FacilitatorUnknown = "unknown"

// PaymentRequest describes a payment a user wants to send or receive.
type PaymentRequest struct {
	// Chain identifier (e.g. "solana", "base").
	Chain string `json:"chain" validate:"required"`

	// Token symbol ("SOL", "USDC") or contract/mint address.
	Token string `json:"token" validate:"required"`

	// Human-readable decimal amount, e.g. "1.5".
	Amount string `json:"amount" validate:"required"`

	// Recipient address in the chain's native format.
	Recipient string `json:"recipient" validate:"required"`

	// Facilitator identifier from the registry.
	Facilitator string `json:"facilitator" validate:"required"`

	// Optional custom token contract/mint; takes precedence over Token.
	CustomTokenAddress string `json:"customTokenAddress,omitempty"`
}

// TokenOrAddress returns the custom token address when set, the token otherwise.
func (r PaymentRequest) TokenOrAddress() string {
	if r.CustomTokenAddress != "" {
		return r.CustomTokenAddress
	}
	return r.Token
}

// Facilitator is a third-party service that verifies and settles payments.
type Facilitator struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name"`
	Endpoint       string   `json:"endpoint" validate:"required,url"`
	VerifyEndpoint string   `json:"verifyEndpoint" validate:"required,url"`
	SettleEndpoint string   `json:"settleEndpoint" validate:"required,url"`
	Chains         []string `json:"chains" validate:"required,min=1"`

	// Domain is the host suffix used to attribute payment links to this facilitator.
	Domain string `json:"domain,omitempty"`
}

// SupportsChain reports whether chain is in the facilitator's chain list.
func (f Facilitator) SupportsChain(chain string) bool {
	for _, c := range f.Chains {
		if c == chain {
			return true
		}
	}
	return false
}

// PaymentRequestLink is the output of the receive flow.
type PaymentRequestLink struct {
	PaymentID  string `json:"paymentId"`
	PaymentURL string `json:"paymentUrl"`
}

// PaymentResult is produced once per submission attempt.
type PaymentResult struct {
	Success   bool   `json:"success"`
	TxHash    string `json:"txHash,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Slot      uint64 `json:"slot,omitempty"`
}

// VerificationResult is the outcome of one facilitator verify round trip.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// SettlementResult is the outcome of one facilitator settle round trip.
type SettlementResult struct {
	Settled bool   `json:"settled"`
	Error   string `json:"error,omitempty"`
}

// PayOutcome aggregates the three steps of a full payment.
type PayOutcome struct {
	Payment      *PaymentResult      `json:"payment"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Settlement   *SettlementResult   `json:"settlement,omitempty"`
}

// Token describes a token known to the catalog.
type Token struct {
	Symbol string `json:"symbol"`
	// Address is the mint/contract address; empty for the chain's native asset.
	Address  string `json:"address,omitempty"`
	Decimals int    `json:"decimals"`
}

// IsNative reports whether the token is the chain's native asset.
func (t Token) IsNative() bool { return t.Address == "" }

// RetryConfig bounds automatic retries at the submission and facilitator boundaries.
type RetryConfig struct {
	MaxAttempts     int           `json:"maxAttempts" validate:"gte=0,lte=10"`
	InitialInterval time.Duration `json:"initialInterval"`
	MaxInterval     time.Duration `json:"maxInterval"`
}

// Config contains global configuration for the library
type Config struct {
	SolanaRPCURL   string        `json:"solanaRpcUrl" validate:"omitempty,url"`
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`
	ConfirmTimeout time.Duration `json:"confirmTimeout,omitempty"`
	PollInterval   time.Duration `json:"pollInterval,omitempty"`
	Retry          RetryConfig   `json:"retry"`
	FacilitatorRPS float64       `json:"facilitatorRps,omitempty" validate:"gte=0"`
	LogLevel       string        `json:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics  bool          `json:"enableMetrics,omitempty"`
	Facilitators   []Facilitator `json:"facilitators,omitempty" validate:"dive"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.SolanaRPCURL == "" {
		c.SolanaRPCURL = "https://api.mainnet-beta.solana.com"
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = 500 * time.Millisecond
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// X402Error is the error type returned across the library.
type X402Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Err       error  `json:"-"`
}

func (e *X402Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *X402Error) Unwrap() error { return e.Err }

// NewError builds an X402Error; retryability follows the code.
func NewError(code, message string, cause error) *X402Error {
	return &X402Error{
		Code:      code,
		Message:   message,
		Retryable: retryableCodes[code],
		Err:       cause,
	}
}

// Error codes
const (
	// input validation
	ErrInvalidAddress = "INVALID_ADDRESS"
	ErrInvalidAmount  = "INVALID_AMOUNT"
	ErrInvalidRequest = "INVALID_REQUEST"

	// configuration
	ErrUnknownFacilitator = "UNKNOWN_FACILITATOR"
	ErrUnsupportedChain   = "UNSUPPORTED_CHAIN"
	ErrMissingSigner      = "MISSING_SIGNER"
	ErrConfigError        = "CONFIG_ERROR"

	// transient
	ErrNetworkError        = "NETWORK_ERROR"
	ErrConfirmationTimeout = "CONFIRMATION_TIMEOUT"

	// chain-level rejection
	ErrBlockhashExpired  = "BLOCKHASH_EXPIRED"
	ErrInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrChainRejected     = "CHAIN_REJECTED"

	// the signer refused or returned an unsigned transaction
	ErrSignerRejected = "SIGNER_REJECTED"

	// facilitator answered with a non-retryable HTTP status
	ErrFacilitatorRejected = "FACILITATOR_REJECTED"
)

var retryableCodes = map[string]bool{
	ErrNetworkError:        true,
	ErrConfirmationTimeout: true,
	ErrBlockhashExpired:    true,
}

// CodeOf extracts the X402Error code from err, or "" when err carries none.
func CodeOf(err error) string {
	var xe *X402Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}

// IsCode reports whether err carries the given X402Error code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether err is an X402Error marked retryable.
func IsRetryable(err error) bool {
	var xe *X402Error
	return errors.As(err, &xe) && xe.Retryable
}
