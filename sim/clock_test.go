package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_SleepAdvancesAndRecords(t *testing.T) {
	c := NewManualClock(epoch)

	assert.NoError(t, c.Sleep(context.Background(), 2*time.Second))
	assert.NoError(t, c.Sleep(context.Background(), 0))
	c.Advance(time.Second)

	assert.Equal(t, epoch.Add(3*time.Second), c.Now())
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, c.Sleeps())
}

func TestManualClock_SleepHonoursCancelledContext(t *testing.T) {
	c := NewManualClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Sleep(ctx, time.Second), context.Canceled)
	assert.Equal(t, epoch, c.Now())
	assert.Empty(t, c.Sleeps())
}

func TestRealClock_SleepInterruptedByContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := RealClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestManualClock_SleepPausesBriefly(t *testing.T) {
	c := NewManualClock(epoch)

	start := time.Now()
	assert.NoError(t, c.Sleep(context.Background(), time.Hour))

	// THEN an hour of manual time costs only the short real pause
	assert.Equal(t, epoch.Add(time.Hour), c.Now())
	took := time.Since(start)
	assert.GreaterOrEqual(t, took, manualSleepYield)
	assert.Less(t, took, time.Second)
}
