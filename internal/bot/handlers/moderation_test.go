package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarnRequiresCapability(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, member, "!warn "+mention(moderator), moderator)

	var denied *command.DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, platform.CapabilityModerateMembers, denied.Capability)
	assert.Empty(t, h.warns.ListWarnings(moderator, testGuild))
}

func TestWarnLogsAndCounts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityModerateMembers)

	logChannel, ok, err := h.fake.FindChannelByName(context.Background(), testGuild, h.config.Moderation.LogChannel)
	require.NoError(t, err)
	require.True(t, ok)

	sent, err := h.run(t, moderator, "!warn "+mention(member)+" spamming links", member)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, logChannel, sent[0].ChannelID)
	assert.Equal(t, testChannel, sent[1].ChannelID)
	assert.Equal(t, "spamming links", sent[1].Embeds[0].Fields[3].Value)

	sent, err = h.run(t, moderator, "!warn "+mention(member), member)
	require.NoError(t, err)
	assert.Equal(t, "2", last(t, sent).Embeds[0].Fields[2].Value)

	warnings := h.warns.ListWarnings(member, testGuild)
	require.Len(t, warnings, 2)
	assert.Equal(t, "No reason provided", warnings[1].Reason)

	sent, err = h.run(t, moderator, "!clearwarns "+mention(member), member)
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Content, "Cleared 2 warnings")
}

func TestMute(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityModerateMembers)
	now := h.clock.Now()

	_, err := h.run(t, moderator, "!mute "+mention(member)+" 1h being loud", member)
	require.NoError(t, err)

	until, ok := h.fake.TimeoutOf(member)
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), until)

	sent, err := h.run(t, moderator, "!mute "+mention(member)+" 30d", member)
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Content, "28 days")

	_, err = h.run(t, moderator, "!unmute "+mention(member), member)
	require.NoError(t, err)

	_, ok = h.fake.TimeoutOf(member)
	assert.False(t, ok)
}

func TestMuteDefaultDuration(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityAdministrator)
	now := h.clock.Now()

	_, err := h.run(t, moderator, "!mute "+mention(member), member)
	require.NoError(t, err)

	until, ok := h.fake.TimeoutOf(member)
	require.True(t, ok)
	assert.Equal(t, now.Add(10*time.Minute), until)
}

func TestKick(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityKickMembers)

	_, err := h.run(t, moderator, "!kick "+mention(member), member)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{member}, h.fake.Kicked())
}

func TestClearDeletesNoticeLater(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityManageMessages)

	sent, err := h.run(t, moderator, "!clear 5")
	require.NoError(t, err)
	notice := last(t, sent)
	assert.Equal(t, "✅ Deleted **5** messages!", notice.Content)
	assert.NotContains(t, h.fake.Deleted(), notice.ID)

	h.clock.Advance(5 * time.Second)
	assert.Contains(t, h.fake.Deleted(), notice.ID)

	sent, err = h.run(t, moderator, "!clear 500")
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Content, "between 1 and 100")
}
