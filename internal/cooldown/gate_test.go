package cooldown_test

import (
	"testing"
	"time"

	"github.com/robalyx/keeper/internal/cooldown"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTryConsume(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name   string
		second time.Duration
		want   bool
	}{
		{name: "immediately after", second: 0, want: false},
		{name: "just before cooldown ends", second: 59_999 * time.Millisecond, want: false},
		{name: "exactly at cooldown end", second: 60 * time.Second, want: true},
		{name: "long after", second: time.Hour, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate := cooldown.New(60*time.Second, 0, zap.NewNop())

			assert.True(t, gate.TryConsume("g-u", start), "first call always allows")
			assert.Equal(t, tt.want, gate.TryConsume("g-u", start.Add(tt.second)))
		})
	}
}

func TestDeniedCallDoesNotResetWindow(t *testing.T) {
	t.Parallel()

	gate := cooldown.New(time.Minute, 0, zap.NewNop())
	start := time.Unix(0, 0)

	assert.True(t, gate.TryConsume("k", start))
	assert.False(t, gate.TryConsume("k", start.Add(30*time.Second)))
	assert.True(t, gate.TryConsume("k", start.Add(time.Minute)))
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	gate := cooldown.New(time.Minute, 0, zap.NewNop())
	now := time.Unix(0, 0)

	assert.True(t, gate.TryConsume("1-1", now))
	assert.True(t, gate.TryConsume("2-1", now))
	assert.True(t, gate.TryConsume("1-2", now))
	assert.False(t, gate.TryConsume("1-1", now))
}

func TestSweep(t *testing.T) {
	t.Parallel()

	gate := cooldown.New(time.Minute, 0, zap.NewNop())
	start := time.Unix(0, 0)

	gate.TryConsume("old", start)
	gate.TryConsume("new", start.Add(50*time.Second))

	assert.Equal(t, 1, gate.Sweep(start.Add(time.Minute)))
	assert.Equal(t, 1, gate.Len())

	// The surviving entry still gates.
	assert.False(t, gate.TryConsume("new", start.Add(time.Minute)))
}

func TestMaxEntriesBound(t *testing.T) {
	t.Parallel()

	gate := cooldown.New(time.Minute, 2, zap.NewNop())
	start := time.Unix(0, 0)

	gate.TryConsume("a", start)
	gate.TryConsume("b", start.Add(time.Second))
	gate.TryConsume("c", start.Add(2*time.Second))

	assert.Equal(t, 2, gate.Len())
	assert.True(t, gate.TryConsume("a", start.Add(3*time.Second)), "oldest entry was evicted")
}
