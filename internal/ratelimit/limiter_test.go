package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstCallDoesNotWait(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	l := New(time.Second, clock)

	waited, err := l.Wait(context.Background())

	require.NoError(t, err)
	assert.Zero(t, waited)
}

func TestLimiter_SecondCallWaitsForInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	l := New(time.Second, clock)

	_, err := l.Wait(context.Background())
	require.NoError(t, err)

	type result struct {
		waited time.Duration
		err    error
	}
	done := make(chan result, 1)
	go func() {
		waited, err := l.Wait(context.Background())
		done <- result{waited, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(999 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second call started before the interval elapsed")
	default:
	}

	clock.Advance(time.Millisecond)
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, time.Second, r.waited)
	case <-time.After(2 * time.Second):
		t.Fatal("second call never started")
	}
}

func TestLimiter_ElapsedTimeCountsTowardsInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	l := New(time.Second, clock)

	_, err := l.Wait(context.Background())
	require.NoError(t, err)

	// The call itself took longer than the interval.
	clock.Advance(1500 * time.Millisecond)

	waited, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, waited)
}

func TestLimiter_CancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	l := New(time.Second, clock)

	_, err := l.Wait(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Wait(ctx)
		errCh <- err
	}()

	blockCtx, blockCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not observe cancellation")
	}

	// The cancelled waiter did not take the slot.
	clock.Advance(time.Second)
	waited, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, waited)
}

func TestLimiter_AlreadyCancelled(t *testing.T) {
	l := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLimiter_RealClockSpacing(t *testing.T) {
	const interval = 30 * time.Millisecond
	l := New(interval, nil)

	var starts []time.Time
	for range 4 {
		_, err := l.Wait(context.Background())
		require.NoError(t, err)
		starts = append(starts, time.Now())
	}

	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), interval-5*time.Millisecond, "gap %d", i)
	}
	assert.Equal(t, interval, l.Interval())
}
