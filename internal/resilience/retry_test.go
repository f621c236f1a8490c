package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayGrowsExponentiallyAndCaps(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2,
	}

	assert.Equal(t, 100*time.Millisecond, policy.Delay(1))
	assert.Equal(t, 200*time.Millisecond, policy.Delay(2))
	assert.Equal(t, 400*time.Millisecond, policy.Delay(3))
	assert.Equal(t, 800*time.Millisecond, policy.Delay(4))
	assert.Equal(t, 1*time.Second, policy.Delay(5))
	assert.Equal(t, 1*time.Second, policy.Delay(10))
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	transient := errors.New("transient")

	calls := 0
	err := Do(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsOnFirstSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := Do(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoAbortsOnTerminalError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	terminal := errors.New("bad request")

	calls := 0
	err := Do(context.Background(), policy, func(err error) bool { return false }, func(ctx context.Context) error {
		calls++
		return terminal
	})

	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, calls, "terminal errors must not be retried")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, policy, func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestJitterNeverExceedsComputedDelay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, InitialDelay: 20 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, Jitter: true}

	// Total un-jittered wait for 3 retries is 20+40+80 = 140ms. With downward
	// jitter the loop can only be faster.
	start := time.Now()
	_ = Do(context.Background(), policy, func(error) bool { return true }, func(ctx context.Context) error {
		return errors.New("transient")
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 250*time.Millisecond)
}
