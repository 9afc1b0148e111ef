package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeClock_FiresWhenDue(t *testing.T) {
	clock := NewFakeClock(epoch)
	var fired int
	clock.AfterFunc(time.Minute, func() { fired++ })

	clock.Advance(59 * time.Second)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, fired, "timer must fire once")
}

func TestFakeClock_Stop(t *testing.T) {
	clock := NewFakeClock(epoch)
	var fired bool
	timer := clock.AfterFunc(time.Minute, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	clock.Advance(time.Hour)
	assert.False(t, fired)
}

func TestFakeClock_OrderAndNow(t *testing.T) {
	clock := NewFakeClock(epoch)
	var order []string
	var at []time.Time
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b"); at = append(at, clock.Now()) })
	clock.AfterFunc(time.Second, func() { order = append(order, "a"); at = append(at, clock.Now()) })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(2 * time.Second)}, at)
	assert.Equal(t, epoch.Add(5*time.Second), clock.Now())
}

func TestFakeClock_CallbackSchedulesTimer(t *testing.T) {
	clock := NewFakeClock(epoch)
	var fired []time.Duration
	clock.AfterFunc(time.Second, func() {
		fired = append(fired, clock.Now().Sub(epoch))
		clock.AfterFunc(time.Second, func() {
			fired = append(fired, clock.Now().Sub(epoch))
		})
	})

	clock.Advance(3 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, fired)
}
