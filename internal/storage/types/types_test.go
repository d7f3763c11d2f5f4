package types_test

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/storage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberKey(t *testing.T) {
	t.Parallel()

	key := types.MemberKey(snowflake.ID(10), snowflake.ID(20))
	assert.Equal(t, "10-20", key)
	assert.Equal(t, "10-", types.GuildKeyPrefix(snowflake.ID(10)))

	guildID, userID, err := types.ParseMemberKey(key)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(10), guildID)
	assert.Equal(t, snowflake.ID(20), userID)

	_, _, err = types.ParseMemberKey("nokey")
	require.ErrorIs(t, err, types.ErrMalformedKey)

	_, _, err = types.ParseMemberKey("abc-20")
	require.ErrorIs(t, err, types.ErrMalformedKey)
}

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	m := types.NewOrderedMap[*types.ProgressionRecord]()
	m.Set("3-1", &types.ProgressionRecord{Level: 1, TotalXP: 5})
	m.Set("1-1", &types.ProgressionRecord{Level: 2, TotalXP: 9})
	m.Set("2-1", &types.ProgressionRecord{Level: 1})
	m.Set("3-1", &types.ProgressionRecord{Level: 4, TotalXP: 7})

	data, err := sonic.Marshal(m)
	require.NoError(t, err)

	var decoded types.OrderedMap[*types.ProgressionRecord]
	require.NoError(t, sonic.Unmarshal(data, &decoded))

	var keys []string
	decoded.Each(func(key string, _ *types.ProgressionRecord) bool {
		keys = append(keys, key)
		return true
	})

	assert.Equal(t, []string{"3-1", "1-1", "2-1"}, keys)
	assert.Equal(t, 3, decoded.Len())

	rec, ok := decoded.Get("3-1")
	require.True(t, ok)
	assert.Equal(t, uint64(4), rec.Level)
	assert.Equal(t, uint64(7), rec.TotalXP)
}

func TestOrderedMapNull(t *testing.T) {
	t.Parallel()

	var m types.OrderedMap[int]
	require.NoError(t, m.UnmarshalJSON([]byte("null")))
	assert.Equal(t, 0, m.Len())

	require.Error(t, m.UnmarshalJSON([]byte("[1,2]")))
}

func TestDocumentNormalize(t *testing.T) {
	t.Parallel()

	doc := &types.Document{}
	doc.Normalize()

	assert.NotNil(t, doc.Prefixes)
	assert.NotNil(t, doc.Warnings)
	assert.NotNil(t, doc.Economy)
	assert.NotNil(t, doc.Tickets)
	assert.NotNil(t, doc.TicketCounters)
	assert.NotNil(t, doc.LevelRoles)
	assert.Len(t, types.NewDocument().LevelRoles, 6)
}
