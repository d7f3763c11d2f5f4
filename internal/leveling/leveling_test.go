package leveling_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/cooldown"
	"github.com/robalyx/keeper/internal/leveling"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildA snowflake.ID = 100
	guildB snowflake.ID = 200
)

func maxRand(n int) int { return n - 1 }

func newStore(t *testing.T, opts ...leveling.Option) (*leveling.Store, *clock.Fake, *storage.Store) {
	t.Helper()

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	doc := storage.NewMemory(filepath.Join(t.TempDir(), "database.json"), zap.NewNop())
	gate := cooldown.New(time.Minute, 0, zap.NewNop())

	return leveling.NewStore(doc, gate, clk, zap.NewNop(), opts...), clk, doc
}

func TestXPNeededStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(155), leveling.XPNeeded(1))
	assert.Equal(t, uint64(220), leveling.XPNeeded(2))

	for level := uint64(1); level < 500; level++ {
		require.Less(t, leveling.XPNeeded(level), leveling.XPNeeded(level+1))
	}
}

func TestRegisterActivityCooldown(t *testing.T) {
	t.Parallel()

	store, clk, _ := newStore(t, leveling.WithRand(maxRand))

	_, _, err := store.RegisterActivity(1, guildA)
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	_, _, err = store.RegisterActivity(1, guildA)
	require.NoError(t, err)

	record := store.GetRecord(1, guildA)
	assert.Equal(t, uint64(1), record.Messages, "second message inside cooldown is ignored")
	assert.Equal(t, uint64(25), record.TotalXP)

	clk.Advance(30 * time.Second)
	_, _, err = store.RegisterActivity(1, guildA)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), store.GetRecord(1, guildA).Messages)
}

func TestRegisterActivityLevelUp(t *testing.T) {
	t.Parallel()

	store, clk, _ := newStore(t, leveling.WithRand(maxRand))

	for range 6 {
		_, leveled, err := store.RegisterActivity(1, guildA)
		require.NoError(t, err)
		require.False(t, leveled)
		clk.Advance(time.Minute)
	}

	level, leveled, err := store.RegisterActivity(1, guildA)
	require.NoError(t, err)
	assert.True(t, leveled)
	assert.Equal(t, uint64(2), level)

	record := store.GetRecord(1, guildA)
	assert.Equal(t, types.ProgressionRecord{XP: 20, Level: 2, Messages: 7, TotalXP: 175}, record)
}

func TestRegisterActivityGainsOneLevelPerMessage(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t, leveling.WithXPRange(1000, 1000))

	level, leveled, err := store.RegisterActivity(1, guildA)
	require.NoError(t, err)
	assert.True(t, leveled)
	assert.Equal(t, uint64(2), level)

	record := store.GetRecord(1, guildA)
	assert.Equal(t, uint64(1000-155), record.XP, "remainder kept above the next threshold")
	assert.Equal(t, uint64(1000), record.TotalXP)
}

func TestRegisterActivityGainWithinRange(t *testing.T) {
	t.Parallel()

	store, clk, _ := newStore(t)

	var previous uint64
	for range 50 {
		_, _, err := store.RegisterActivity(1, guildA)
		require.NoError(t, err)

		total := store.GetRecord(1, guildA).TotalXP
		gain := total - previous
		assert.GreaterOrEqual(t, gain, uint64(leveling.DefaultMinXP))
		assert.LessOrEqual(t, gain, uint64(leveling.DefaultMaxXP))

		previous = total
		clk.Advance(time.Minute)
	}
}

func TestGetRecordDefault(t *testing.T) {
	t.Parallel()

	store, _, doc := newStore(t)

	assert.Equal(t, types.ProgressionRecord{Level: 1}, store.GetRecord(5, guildA))

	doc.View(func(d *types.Document) {
		assert.Equal(t, 0, d.Levels.Len(), "reads never create records")
	})
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	store, _, doc := newStore(t)

	require.NoError(t, doc.Update(func(d *types.Document) error {
		d.Levels.Set(types.MemberKey(guildA, 1), &types.ProgressionRecord{Level: 1, TotalXP: 50})
		d.Levels.Set(types.MemberKey(guildA, 2), &types.ProgressionRecord{Level: 2, TotalXP: 300})
		d.Levels.Set(types.MemberKey(guildB, 9), &types.ProgressionRecord{Level: 9, TotalXP: 9000})
		d.Levels.Set(types.MemberKey(guildA, 3), &types.ProgressionRecord{Level: 1, TotalXP: 50})
		d.Levels.Set(types.MemberKey(guildA, 4), &types.ProgressionRecord{Level: 1, TotalXP: 10})
		return nil
	}))

	tests := []struct {
		name  string
		limit int
		want  []snowflake.ID
	}{
		{name: "all", limit: 10, want: []snowflake.ID{2, 1, 3, 4}},
		{name: "truncated", limit: 2, want: []snowflake.ID{2, 1}},
		{name: "zero", limit: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []snowflake.ID
			for _, entry := range store.GetLeaderboard(guildA, tt.limit) {
				got = append(got, entry.UserID)
			}

			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 1, store.Rank(2, guildA))
	assert.Equal(t, 3, store.Rank(3, guildA))
	assert.Equal(t, 0, store.Rank(9, guildA), "other guilds are not ranked")
	assert.Equal(t, 1, store.Rank(9, guildB))
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t, leveling.WithRand(maxRand))

	_, err := store.SetLevel(1, guildA, 0)
	require.ErrorIs(t, err, leveling.ErrInvalidLevel)

	_, _, err = store.RegisterActivity(1, guildA)
	require.NoError(t, err)

	record, err := store.SetLevel(1, guildA, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), record.Level)
	assert.Equal(t, uint64(0), record.XP)
	assert.Equal(t, uint64(25), record.TotalXP)
}

func TestRewardRole(t *testing.T) {
	t.Parallel()

	store, _, _ := newStore(t)

	name, ok := store.RewardRole(5)
	assert.True(t, ok)
	assert.Equal(t, "Level 5", name)

	_, ok = store.RewardRole(6)
	assert.False(t, ok)
}
