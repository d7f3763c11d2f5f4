package moderation_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/moderation"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildID     snowflake.ID = 10
	moderatorID snowflake.ID = 99
)

func newLedger(t *testing.T) (*moderation.Ledger, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	store := storage.NewMemory(filepath.Join(t.TempDir(), "database.json"), zap.NewNop())

	return moderation.NewLedger(store, clk, zap.NewNop()), clk
}

func TestAddWarningCounts(t *testing.T) {
	t.Parallel()

	ledger, clk := newLedger(t)

	reasons := []string{"spam", "rude", ""}
	for i, reason := range reasons {
		count, warning, err := ledger.AddWarning(1, guildID, moderatorID, reason)
		require.NoError(t, err)
		assert.Equal(t, i+1, count)
		assert.Equal(t, moderatorID, warning.ModeratorID)
		clk.Advance(time.Second)
	}

	warnings := ledger.ListWarnings(1, guildID)
	require.Len(t, warnings, 3)
	assert.Equal(t, "spam", warnings[0].Reason)
	assert.Equal(t, "rude", warnings[1].Reason)
	assert.Equal(t, moderation.DefaultReason, warnings[2].Reason)

	assert.Empty(t, ledger.ListWarnings(2, guildID))
	assert.Empty(t, ledger.ListWarnings(1, guildID+1))
}

func TestWarningIDsStayUnique(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedger(t)

	_, first, err := ledger.AddWarning(1, guildID, moderatorID, "a")
	require.NoError(t, err)

	_, second, err := ledger.AddWarning(1, guildID, moderatorID, "b")
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1_700_000_000, 0).UnixMilli(), first.ID)
	assert.Equal(t, first.ID+1, second.ID)
}

func TestClearWarnings(t *testing.T) {
	t.Parallel()

	ledger, _ := newLedger(t)

	removed, err := ledger.ClearWarnings(1, guildID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	for range 2 {
		_, _, err := ledger.AddWarning(1, guildID, moderatorID, "x")
		require.NoError(t, err)
	}

	removed, err = ledger.ClearWarnings(1, guildID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Empty(t, ledger.ListWarnings(1, guildID))

	count, _, err := ledger.AddWarning(1, guildID, moderatorID, "again")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
