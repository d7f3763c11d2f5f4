package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/setup/config"
	"github.com/robalyx/keeper/internal/ticket"
	"go.uber.org/zap"
)

func (h *Handlers) openTicket(c *command.Context) error {
	reason := c.Rest(0)

	record, err := h.tickets.Open(c, c.GuildID, c.Author.ID, reason, func(ctx context.Context, number uint64) (snowflake.ID, error) {
		return c.Adapter.CreateTicketChannel(ctx, platform.TicketChannel{
			GuildID:   c.GuildID,
			OwnerID:   c.Author.ID,
			Name:      fmt.Sprintf("ticket-%d", number),
			Category:  h.config.Tickets.Category,
			StaffRole: h.config.Tickets.StaffRole,
		})
	})
	if err != nil {
		if record.ChannelID == 0 {
			h.logger.Error("Failed to create ticket", zap.Uint64("guildID", uint64(c.GuildID)), zap.Error(err))
			return c.Reply("❌ Failed to create ticket.")
		}
		return err
	}

	_, err = c.Adapter.SendMessage(c, record.ChannelID, platform.Message{
		Content: c.Author.Mention() + ", welcome to your ticket!",
		Embeds: []platform.Embed{{
			Title:       fmt.Sprintf("Ticket #%d", record.Number),
			Description: "Thank you for creating a ticket! Support will be with you shortly.\n\n**Reason:** " + record.Reason,
			Color:       constants.ColorBlurple,
			Fields: []platform.Field{
				{Name: "User", Value: fmt.Sprintf("%s (%s)", c.Author.Username, c.Author.ID), Inline: true},
				{Name: "Created", Value: utils.RelativeTimestamp(record.CreatedAt), Inline: true},
			},
			Footer: "Use " + c.Prefix + "close to close this ticket",
		}},
		Buttons: []platform.Button{{
			CustomID: constants.CloseTicketButtonCustomID,
			Label:    "Close Ticket",
			Emoji:    "🔒",
			Style:    platform.ButtonDanger,
		}},
	})
	if err != nil {
		h.logger.Warn("Failed to send ticket welcome", zap.Uint64("channelID", uint64(record.ChannelID)), zap.Error(err))
	}

	return c.Reply(fmt.Sprintf("✅ Ticket created: <#%s>", record.ChannelID))
}

func (h *Handlers) closeTicket(c *command.Context) error {
	err := h.CloseTicket(c, c.ChannelID, c.Author)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return c.Reply("❌ This channel is not a ticket!")
	case errors.Is(err, ticket.ErrAlreadyClosed):
		return c.Reply("❌ This ticket is already closed!")
	default:
		return err
	}
}

// CloseTicket closes the ticket bound to channelID, announces it and schedules
// the channel for deletion.
func (h *Handlers) CloseTicket(ctx context.Context, channelID snowflake.ID, closer platform.User) error {
	record, err := h.tickets.Close(channelID, closer.ID)
	if err != nil {
		return err
	}

	closedAt := h.clock.Now()
	if record.ClosedAt != nil {
		closedAt = *record.ClosedAt
	}

	_, err = h.adapter.SendMessage(ctx, channelID, platform.Message{Embeds: []platform.Embed{{
		Title:       fmt.Sprintf("Ticket #%d Closed", record.Number),
		Description: fmt.Sprintf("This ticket has been closed by %s.", closer.Mention()),
		Color:       constants.ColorRed,
		Fields: []platform.Field{
			{Name: "Reason", Value: record.Reason, Inline: true},
			{Name: "Created", Value: utils.RelativeTimestamp(record.CreatedAt), Inline: true},
			{Name: "Closed", Value: utils.RelativeTimestamp(closedAt), Inline: true},
		},
	}}})
	if err != nil {
		h.logger.Warn("Failed to announce ticket close", zap.Uint64("channelID", uint64(channelID)), zap.Error(err))
	}

	h.clock.AfterFunc(config.Seconds(h.config.Tickets.DeleteDelaySeconds), func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.PlatformCallTimeout)
		defer cancel()

		if err := h.adapter.DeleteChannel(ctx, channelID); err != nil {
			h.logger.Warn("Failed to delete ticket channel", zap.Uint64("channelID", uint64(channelID)), zap.Error(err))
		}
	})

	return nil
}
