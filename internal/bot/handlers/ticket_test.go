package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	sent, err := h.run(t, member, "!ticket billing question")
	require.NoError(t, err)
	require.Len(t, sent, 2)

	channelID, ok, err := h.fake.FindChannelByName(ctx, testGuild, "ticket-1")
	require.NoError(t, err)
	require.True(t, ok)

	welcome := sent[0]
	assert.Equal(t, channelID, welcome.ChannelID)
	assert.Equal(t, "Ticket #1", welcome.Embeds[0].Title)
	assert.Contains(t, welcome.Embeds[0].Description, "billing question")
	require.Len(t, welcome.Buttons, 1)
	assert.Equal(t, constants.CloseTicketButtonCustomID, welcome.Buttons[0].CustomID)
	assert.Equal(t, "✅ Ticket created: <#"+channelID.String()+">", sent[1].Content)

	closer := platform.User{ID: moderator, Username: "mod"}
	require.NoError(t, h.handlers.CloseTicket(ctx, channelID, closer))

	closed := last(t, h.fake.Sent())
	assert.Equal(t, "Ticket #1 Closed", closed.Embeds[0].Title)
	assert.Empty(t, h.fake.RemovedChannels())

	err = h.handlers.CloseTicket(ctx, channelID, closer)
	assert.True(t, errors.Is(err, ticket.ErrAlreadyClosed))

	h.clock.Advance(time.Duration(h.config.Tickets.DeleteDelaySeconds) * time.Second)
	assert.Equal(t, channelID, h.fake.RemovedChannels()[0])

	_, err = h.run(t, member, "!ticket")
	require.NoError(t, err)
	_, ok, err = h.fake.FindChannelByName(ctx, testGuild, "ticket-2")
	require.NoError(t, err)
	assert.True(t, ok, "numbers keep increasing per guild")
}

func TestTicketProvisionFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.CreateChannelErr = platform.ErrUnavailable

	sent, err := h.run(t, member, "!ticket")
	require.NoError(t, err)
	assert.Equal(t, "❌ Failed to create ticket.", last(t, sent).Content)
	assert.Empty(t, h.tickets.OpenTickets(testGuild))
}

func TestCloseOutsideTicket(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	sent, err := h.run(t, member, "!close")
	require.NoError(t, err)
	assert.Equal(t, "❌ This channel is not a ticket!", last(t, sent).Content)
}
