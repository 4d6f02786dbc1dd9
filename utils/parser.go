package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/vitwit/x402pay/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateRequest checks the required fields of a payment request and that
// the recipient is well formed for its chain.
func ValidateRequest(req *types.PaymentRequest) error {
	if err := validate.Struct(req); err != nil {
		return types.NewError(types.ErrInvalidRequest, "invalid payment request", err)
	}

	if _, err := ValidateAmount(req.Amount); err != nil {
		return err
	}

	if !ValidateAddress(req.Recipient, req.Chain) {
		return types.NewError(
			types.ErrInvalidAddress,
			fmt.Sprintf("invalid %s address: %s", req.Chain, req.Recipient),
			nil,
		)
	}

	return nil
}

// ParseConfig parses and validates Config from JSON. Durations are given as
// Go duration strings ("30s") or as integer nanoseconds.
func ParseConfig(data []byte) (*types.Config, error) {
	var raw struct {
		types.Config
		DefaultTimeout flexDuration `json:"defaultTimeout"`
		ConfirmTimeout flexDuration `json:"confirmTimeout"`
		PollInterval   flexDuration `json:"pollInterval"`
		Retry          struct {
			MaxAttempts     int          `json:"maxAttempts"`
			InitialInterval flexDuration `json:"initialInterval"`
			MaxInterval     flexDuration `json:"maxInterval"`
		} `json:"retry"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.NewError(types.ErrConfigError, "failed to parse config", err)
	}

	cfg := raw.Config
	cfg.DefaultTimeout = time.Duration(raw.DefaultTimeout)
	cfg.ConfirmTimeout = time.Duration(raw.ConfirmTimeout)
	cfg.PollInterval = time.Duration(raw.PollInterval)
	cfg.Retry = types.RetryConfig{
		MaxAttempts:     raw.Retry.MaxAttempts,
		InitialInterval: time.Duration(raw.Retry.InitialInterval),
		MaxInterval:     time.Duration(raw.Retry.MaxInterval),
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig runs the struct-tag validation on cfg.
func ValidateConfig(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return types.NewError(types.ErrConfigError, "config validation failed", err)
	}
	return nil
}

// ConfigFromEnv builds a Config from X402_* environment variables. Unset
// variables leave the zero value, to be filled by Config.WithDefaults.
func ConfigFromEnv() (*types.Config, error) {
	var cfg types.Config
	var err error

	cfg.SolanaRPCURL = os.Getenv("X402_SOLANA_RPC_URL")
	cfg.LogLevel = os.Getenv("X402_LOG_LEVEL")

	if cfg.DefaultTimeout, err = envDuration("X402_DEFAULT_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ConfirmTimeout, err = envDuration("X402_CONFIRM_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = envDuration("X402_POLL_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.Retry.InitialInterval, err = envDuration("X402_RETRY_INITIAL_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxInterval, err = envDuration("X402_RETRY_MAX_INTERVAL"); err != nil {
		return nil, err
	}

	if v := os.Getenv("X402_RETRY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, types.NewError(types.ErrConfigError, "X402_RETRY_MAX_ATTEMPTS must be an integer", err)
		}
		cfg.Retry.MaxAttempts = n
	}

	if v := os.Getenv("X402_FACILITATOR_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, types.NewError(types.ErrConfigError, "X402_FACILITATOR_RPS must be a number", err)
		}
		cfg.FacilitatorRPS = f
	}

	if v := os.Getenv("X402_ENABLE_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, types.NewError(types.ErrConfigError, "X402_ENABLE_METRICS must be a boolean", err)
		}
		cfg.EnableMetrics = b
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, types.NewError(types.ErrConfigError, fmt.Sprintf("%s must be a duration", key), err)
	}
	return d, nil
}

type flexDuration time.Duration

func (d *flexDuration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = flexDuration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer nanoseconds")
	}
	*d = flexDuration(n)
	return nil
}
