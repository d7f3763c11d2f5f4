package clock_test

import (
	"testing"
	"time"

	"github.com/robalyx/keeper/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestFakeAfterFunc(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Unix(0, 0))

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "second") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "first") })
	stopped := c.AfterFunc(time.Second, func() { fired = append(fired, "stopped") })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(500 * time.Millisecond)
	assert.Empty(t, fired)
	assert.Equal(t, 2, c.Pending())

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeTick(t *testing.T) {
	t.Parallel()

	start := time.Unix(100, 0)
	c := clock.NewFake(start)

	ch, stop := c.Tick(time.Minute)
	defer stop()

	c.Advance(time.Minute)

	select {
	case got := <-ch:
		assert.Equal(t, start.Add(time.Minute), got)
	default:
		t.Fatal("expected a tick")
	}
}
