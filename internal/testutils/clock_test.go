package testutils_test

import (
	"testing"
	"time"

	"github.com/aretw0/umlpad/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestFakeClock_FiresInOrder(t *testing.T) {
	clock := testutils.NewFakeClock()
	var fired []string

	clock.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "b") })
	clock.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "c") })

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestFakeClock_StopAndNested(t *testing.T) {
	clock := testutils.NewFakeClock()
	start := clock.Now()
	var at []time.Duration

	stopped := clock.AfterFunc(50*time.Millisecond, func() { t.Error("stopped timer fired") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clock.AfterFunc(100*time.Millisecond, func() {
		at = append(at, clock.Now().Sub(start))
		clock.AfterFunc(100*time.Millisecond, func() {
			at = append(at, clock.Now().Sub(start))
		})
	})

	clock.Advance(250 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, at)
	assert.Equal(t, 250*time.Millisecond, clock.Now().Sub(start))
}
