package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := System{}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSystemSleepElapses(t *testing.T) {
	start := time.Now()
	require.NoError(t, System{}.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestFakeAdvancesVirtualTime(t *testing.T) {
	start := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	require.NoError(t, f.Sleep(context.Background(), 10*time.Minute))
	require.NoError(t, f.Sleep(context.Background(), 10*time.Second))

	assert.Equal(t, start.Add(10*time.Minute+10*time.Second), f.Now())
	assert.Equal(t, []time.Duration{10 * time.Minute, 10 * time.Second}, f.Sleeps())
}

func TestFakeOnSleepCanCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFake(time.Time{})
	f.OnSleep = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	require.NoError(t, f.Sleep(ctx, time.Second))
	require.ErrorIs(t, f.Sleep(ctx, time.Second), context.Canceled)
	require.ErrorIs(t, f.Sleep(ctx, time.Second), context.Canceled)
	assert.Len(t, f.Sleeps(), 2)
}
