// Package swap abstracts the embedded token-swap widget behind a pluggable
// provider with scoped acquisition.
package swap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/vitwit/x402pay/types"
)

// Display modes understood by widget providers.
const (
	DisplayIntegrated = "integrated"
	DisplayModal      = "modal"
	DisplayWidget     = "widget"
)

// Swap modes.
const (
	SwapExactIn      = "ExactIn"
	SwapExactOut     = "ExactOut"
	SwapExactInOrOut = "ExactInOrOut"
)

const wrappedSOL = "So11111111111111111111111111111111111111112"

// Config mirrors the knobs a swap widget accepts on init.
type Config struct {
	DisplayMode       string   `json:"displayMode" validate:"required,oneof=integrated modal widget"`
	TargetID          string   `json:"integratedTargetId" validate:"required_if=DisplayMode integrated"`
	Endpoint          string   `json:"endpoint" validate:"required,url"`
	InitialInputMint  string   `json:"initialInputMint,omitempty"`
	InitialOutputMint string   `json:"initialOutputMint,omitempty"`
	FixedMint         string   `json:"fixedMint,omitempty"`
	SwapMode          string   `json:"swapMode" validate:"oneof=ExactIn ExactOut ExactInOrOut"`
	ReferralAccount   string   `json:"referralAccount,omitempty"`
	ReferralFeeBps    int      `json:"referralFee,omitempty" validate:"gte=0,lte=10000"`
	Branding          Branding `json:"branding"`
}

type Branding struct {
	Name    string `json:"name,omitempty"`
	LogoURI string `json:"logoUri,omitempty" validate:"omitempty,url"`
}

// DefaultConfig returns an integrated widget swapping out of SOL.
func DefaultConfig() Config {
	return Config{
		DisplayMode:      DisplayIntegrated,
		TargetID:         "swap-container",
		Endpoint:         EndpointFromEnv(),
		InitialInputMint: wrappedSOL,
		SwapMode:         SwapExactInOrOut,
	}
}

// EndpointFromEnv returns a Helius RPC URL when X402_HELIUS_API_KEY is set,
// the public mainnet endpoint otherwise.
func EndpointFromEnv() string {
	if key := os.Getenv("X402_HELIUS_API_KEY"); key != "" {
		return "https://mainnet.helius-rpc.com/?api-key=" + key
	}
	return "https://api.mainnet-beta.solana.com"
}

var validate = validator.New()

// Validate checks c before it reaches a provider.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return types.NewError(types.ErrConfigError, "invalid swap widget config", err)
	}
	return nil
}

// Provider is a concrete swap widget. Implementations live outside this
// module and are swapped in by the host application.
type Provider interface {
	Initialize(ctx context.Context, cfg Config) error
	UpdateConfig(ctx context.Context, cfg Config) error
	Teardown(ctx context.Context) error
}

// Readier is implemented by providers that load asynchronously.
type Readier interface {
	Ready() bool
}

// Readiness polling bounds, matching a script that loads within a few seconds.
var (
	ReadyPollInterval = 200 * time.Millisecond
	ReadyMaxPolls     = 30
)

// ErrNotReady is returned when a Readier never became ready.
var ErrNotReady = errors.New("swap provider not ready")

// ErrReleased is returned by Session methods after Release.
var ErrReleased = errors.New("swap session released")

// Session is a handle on an initialized provider. Release tears the
// provider down once; later calls are no-ops.
type Session struct {
	provider Provider

	mu       sync.Mutex
	cfg      Config
	released bool
	once     sync.Once
	err      error
}

// Acquire waits for p to be ready, validates cfg and initializes p.
func Acquire(ctx context.Context, p Provider, cfg Config) (*Session, error) {
	if p == nil {
		return nil, types.NewError(types.ErrConfigError, "no swap provider configured", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if r, ok := p.(Readier); ok {
		b := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(ReadyPollInterval), uint64(ReadyMaxPolls)),
			ctx,
		)
		err := backoff.Retry(func() error {
			if !r.Ready() {
				return ErrNotReady
			}
			return nil
		}, b)
		if err != nil {
			return nil, fmt.Errorf("waiting for swap provider: %w", err)
		}
	}

	if err := p.Initialize(ctx, cfg); err != nil {
		return nil, fmt.Errorf("initialize swap provider: %w", err)
	}
	return &Session{provider: p, cfg: cfg}, nil
}

// Config returns the configuration currently applied.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Update validates and pushes a new configuration to the provider.
func (s *Session) Update(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrReleased
	}
	if err := s.provider.UpdateConfig(ctx, cfg); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Release tears the provider down exactly once and returns that result.
func (s *Session) Release(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		s.mu.Unlock()
		s.err = s.provider.Teardown(ctx)
	})
	return s.err
}

// With runs fn inside a session and always releases it. fn's error wins
// over a teardown error.
func With(ctx context.Context, p Provider, cfg Config, fn func(*Session) error) (err error) {
	s, err := Acquire(ctx, p, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := s.Release(ctx); err == nil {
			err = rerr
		}
	}()
	return fn(s)
}
