package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestNextDaily(t *testing.T) {
	dubai, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)

	// 02:00 UTC is 06:00 in Dubai: today's 07:00 slot is still ahead.
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	next := NextDaily(now, 7, 0, dubai)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 0, 0, 0, dubai), next)

	// exactly on the slot moves to tomorrow
	now = time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	next = NextDaily(now, 7, 0, dubai)
	assert.Equal(t, time.Date(2026, 3, 2, 7, 0, 0, 0, dubai), next)
}

func TestEveryRunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, 10*time.Millisecond, "test", func(context.Context) error {
			if n.Add(1) == 3 {
				cancel()
			}
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	assert.GreaterOrEqual(t, n.Load(), int32(3))
}

func TestDailyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Daily(ctx, "07:00", time.UTC, "test", func(context.Context) error { return nil })
	assert.NoError(t, err)

	assert.Error(t, Daily(context.Background(), "25:00", time.UTC, "test", nil))
}
