package handlers_test

import (
	"errors"
	"testing"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpListsEveryCategory(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	sent, err := h.run(t, member, "!help")
	require.NoError(t, err)

	embed := last(t, sent).Embeds[0]
	require.Len(t, embed.Fields, len(command.Categories))
	assert.Equal(t, string(command.CategoryLeveling), embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "`rank`")
}

func TestPing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	sent, err := h.run(t, member, "!ping")
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Contains(t, h.fake.Deleted(), sent[0].ID)
	assert.Equal(t, "42ms", sent[1].Embeds[0].Fields[1].Value)
}

func TestSetPrefix(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityAdministrator)

	_, err := h.run(t, member, "!setprefix ?")
	var denied *command.DeniedError
	require.True(t, errors.As(err, &denied))

	sent, err := h.run(t, moderator, "!setprefix toolong")
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Content, "1-3 characters")

	_, err = h.run(t, moderator, "!setprefix ?")
	require.NoError(t, err)
	assert.Equal(t, "?", h.settings.Prefix(testGuild))
}

func TestCustomCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityAdministrator)

	_, err := h.run(t, moderator, "!addcmd Rules Be nice to everyone")
	require.NoError(t, err)

	response, ok := h.settings.CustomResponse(testGuild, "rules")
	require.True(t, ok)
	assert.Equal(t, "Be nice to everyone", response)

	_, err = h.run(t, moderator, "!delcmd rules")
	require.NoError(t, err)
	_, ok = h.settings.CustomResponse(testGuild, "rules")
	assert.False(t, ok)

	sent, err := h.run(t, moderator, "!delcmd rules")
	require.NoError(t, err)
	assert.Equal(t, "❌ No custom command `rules`.", last(t, sent).Content)
}

func TestMissingArguments(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, member, "!poll")

	var usage *command.UsageError
	require.True(t, errors.As(err, &usage))
	assert.Equal(t, "poll <question>", usage.Usage)
}

func TestPollAddsReactions(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, err := h.run(t, member, "!poll Pizza tonight?")
	require.NoError(t, err)
	assert.Equal(t, constants.PollReactions, h.fake.Reactions())
}

func TestFunCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	sent, err := h.run(t, member, "!8ball will it rain")
	require.NoError(t, err)
	fields := last(t, sent).Embeds[0].Fields
	assert.Equal(t, "will it rain", fields[0].Value)
	assert.Equal(t, constants.EightBallAnswers[0], fields[1].Value)

	sent, err = h.run(t, member, "!coinflip")
	require.NoError(t, err)
	assert.Equal(t, "🪙 Heads!", last(t, sent).Content)

	sent, err = h.run(t, member, "!roll 20")
	require.NoError(t, err)
	assert.Equal(t, "🎲 You rolled **1** (1-20)", last(t, sent).Content)

	sent, err = h.run(t, member, "!roll 1")
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Content, "❌")
}

func TestRankAndLeaderboard(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Grant(moderator, platform.CapabilityAdministrator)

	_, err := h.run(t, moderator, "!setlevel "+mention(member)+" 5", member)
	require.NoError(t, err)

	sent, err := h.run(t, member, "!rank")
	require.NoError(t, err)
	assert.Contains(t, last(t, sent).Embeds[0].Description, "**Level:** 5")
	assert.Contains(t, last(t, sent).Embeds[0].Description, "**Rank:** #1")

	sent, err = h.run(t, member, "!leaderboard")
	require.NoError(t, err)
	embed := last(t, sent).Embeds[0]
	assert.Contains(t, embed.Description, "alice")
	assert.Equal(t, "Total 1 users tracked", embed.Footer)
}
