package swap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402pay/types"
)

type fakeProvider struct {
	ready     bool
	initErr   error
	inits     int
	updates   []Config
	teardowns int
}

func (f *fakeProvider) Initialize(context.Context, Config) error {
	f.inits++
	return f.initErr
}

func (f *fakeProvider) UpdateConfig(_ context.Context, cfg Config) error {
	f.updates = append(f.updates, cfg)
	return nil
}

func (f *fakeProvider) Teardown(context.Context) error {
	f.teardowns++
	return nil
}

type lazyProvider struct {
	fakeProvider
	polls int
}

func (l *lazyProvider) Ready() bool {
	l.polls++
	return l.polls >= 3
}

func TestAcquireAndReleaseOnce(t *testing.T) {
	p := &fakeProvider{}
	s, err := Acquire(context.Background(), p, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, p.inits)

	cfg := DefaultConfig()
	cfg.DisplayMode = DisplayModal
	require.NoError(t, s.Update(context.Background(), cfg))
	assert.Equal(t, DisplayModal, s.Config().DisplayMode)

	assert.NoError(t, s.Release(context.Background()))
	assert.NoError(t, s.Release(context.Background()))
	assert.Equal(t, 1, p.teardowns)

	assert.ErrorIs(t, s.Update(context.Background(), cfg), ErrReleased)
}

func TestWithTearsDownOnError(t *testing.T) {
	p := &fakeProvider{}
	boom := errors.New("boom")

	err := With(context.Background(), p, DefaultConfig(), func(*Session) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.teardowns)
}

func TestAcquireRejectsInvalidConfig(t *testing.T) {
	p := &fakeProvider{}
	cfg := DefaultConfig()
	cfg.ReferralFeeBps = 20000

	_, err := Acquire(context.Background(), p, cfg)
	assert.True(t, types.IsCode(err, types.ErrConfigError))
	assert.Equal(t, 0, p.inits)

	cfg = DefaultConfig()
	cfg.TargetID = ""
	_, err = Acquire(context.Background(), p, cfg)
	assert.Error(t, err)

	_, err = Acquire(context.Background(), nil, DefaultConfig())
	assert.True(t, types.IsCode(err, types.ErrConfigError))
}

func TestAcquireWaitsForReadiness(t *testing.T) {
	ReadyPollInterval = time.Millisecond
	t.Cleanup(func() { ReadyPollInterval = 200 * time.Millisecond })

	p := &lazyProvider{}
	_, err := Acquire(context.Background(), p, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, p.polls)
	assert.Equal(t, 1, p.inits)
}

func TestAcquireNeverReady(t *testing.T) {
	ReadyPollInterval = time.Millisecond
	t.Cleanup(func() { ReadyPollInterval = 200 * time.Millisecond })

	p := &lazyProvider{polls: -1000}
	_, err := Acquire(context.Background(), p, DefaultConfig())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 0, p.inits)
}

func TestAcquireInitFailure(t *testing.T) {
	p := &fakeProvider{initErr: errors.New("script blocked")}
	_, err := Acquire(context.Background(), p, DefaultConfig())
	assert.ErrorContains(t, err, "script blocked")
}

func TestEndpointFromEnv(t *testing.T) {
	t.Setenv("X402_HELIUS_API_KEY", "abc")
	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=abc", EndpointFromEnv())
}
