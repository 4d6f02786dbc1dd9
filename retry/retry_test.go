package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitwit/x402pay/types"
)

var fast = Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	var retried []int
	err := fast.Do(context.Background(), nil, func(attempt int, _ error) {
		retried = append(retried, attempt)
	}, func() error {
		calls++
		if calls < 3 {
			return types.NewError(types.ErrNetworkError, "flaky", nil)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := fast.Do(context.Background(), nil, nil, func() error {
		calls++
		return types.NewError(types.ErrInsufficientFunds, "broke", nil)
	})

	assert.Equal(t, 1, calls)
	assert.True(t, types.IsCode(err, types.ErrInsufficientFunds))
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := fast.Do(context.Background(), nil, nil, func() error {
		calls++
		return types.NewError(types.ErrNetworkError, "down", nil)
	})

	assert.Equal(t, 3, calls)
	assert.True(t, types.IsCode(err, types.ErrNetworkError))
}

func TestNoneRunsOnce(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := None.Do(context.Background(), func(error) bool { return true }, nil, func() error {
		calls++
		return boom
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, boom)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := Policy{MaxAttempts: 5, InitialInterval: time.Hour, MaxInterval: time.Hour}
	calls := 0
	err := slow.Do(ctx, nil, nil, func() error {
		calls++
		return types.NewError(types.ErrNetworkError, "down", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoKeepsLastErrorWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	slow := Policy{MaxAttempts: 3, InitialInterval: time.Second, MaxInterval: time.Second}
	calls := 0
	err := slow.Do(ctx, nil, nil, func() error {
		calls++
		return types.NewError(types.ErrNetworkError, "connection refused", nil)
	})

	assert.Equal(t, 1, calls)
	assert.True(t, types.IsCode(err, types.ErrNetworkError))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDoKeepsUncodedErrorWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	boom := errors.New("boom")
	slow := Policy{MaxAttempts: 3, InitialInterval: time.Second, MaxInterval: time.Second}
	err := slow.Do(ctx, func(error) bool { return true }, nil, func() error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
