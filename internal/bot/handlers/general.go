package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/guild"
	"github.com/robalyx/keeper/internal/platform"
	"go.uber.org/zap"
)

func (h *Handlers) help(c *command.Context) error {
	byCategory := make(map[command.Category][]string)
	for _, cmd := range h.registry.Commands() {
		byCategory[cmd.Category] = append(byCategory[cmd.Category], "`"+cmd.Name+"`")
	}

	embed := platform.Embed{
		Title:       "🤖 Keeper - All Commands",
		Description: fmt.Sprintf("Prefix: **%s**", c.Prefix),
		Color:       constants.ColorBlurple,
		Footer:      fmt.Sprintf("Total: %d commands available", len(h.registry.Commands())),
	}

	for _, category := range command.Categories {
		names := byCategory[category]
		if len(names) == 0 {
			continue
		}
		embed.Fields = append(embed.Fields, platform.Field{
			Name:   string(category),
			Value:  strings.Join(names, ", "),
			Inline: true,
		})
	}

	return c.SendEmbed(embed)
}

func (h *Handlers) ping(c *command.Context) error {
	start := h.clock.Now()

	id, err := c.Send(platform.Message{Content: "🏓 Pinging...", ReplyTo: c.MessageID})
	if err != nil {
		return err
	}

	roundTrip := h.clock.Now().Sub(start)

	if err := c.Adapter.DeleteMessage(c, c.ChannelID, id); err != nil {
		h.logger.Debug("Failed to delete ping message", zap.Error(err))
	}

	return c.SendEmbed(platform.Embed{
		Title: "🏓 Pong!",
		Color: constants.ColorGreen,
		Fields: []platform.Field{
			{Name: "📡 Bot Latency", Value: fmt.Sprintf("%dms", roundTrip.Milliseconds()), Inline: true},
			{Name: "🌐 API Latency", Value: fmt.Sprintf("%dms", c.Adapter.Latency().Milliseconds()), Inline: true},
		},
	})
}

func (h *Handlers) setPrefix(c *command.Context) error {
	prefix := c.Args[0]

	if err := h.settings.SetPrefix(c.GuildID, prefix); err != nil {
		if errors.Is(err, guild.ErrInvalidPrefix) {
			return c.Reply(fmt.Sprintf("❌ Prefix must be 1-%d characters!", guild.MaxPrefixLength))
		}
		return err
	}

	return c.SendEmbed(platform.Embed{
		Title:       "✅ Prefix Updated",
		Description: fmt.Sprintf("The prefix for this server is now: **%s**", prefix),
		Color:       constants.ColorGreen,
		Timestamp:   h.clock.Now(),
	})
}

func (h *Handlers) addCommand(c *command.Context) error {
	trigger := c.Args[0]
	response := c.Rest(1)

	if err := h.settings.SetCustomCommand(c.GuildID, trigger, response); err != nil {
		if errors.Is(err, guild.ErrInvalidTrigger) {
			return c.Reply("❌ Usage: `" + c.Prefix + "addcmd <trigger> <response>`")
		}
		return err
	}

	return c.Reply(fmt.Sprintf("✅ Custom command `%s` saved.", strings.ToLower(trigger)))
}

func (h *Handlers) deleteCommand(c *command.Context) error {
	trigger := c.Args[0]

	if err := h.settings.DeleteCustomCommand(c.GuildID, trigger); err != nil {
		if errors.Is(err, guild.ErrCommandNotFound) {
			return c.Reply(fmt.Sprintf("❌ No custom command `%s`.", strings.ToLower(trigger)))
		}
		return err
	}

	return c.Reply(fmt.Sprintf("✅ Custom command `%s` deleted.", strings.ToLower(trigger)))
}

func (h *Handlers) reactionRole(c *command.Context) error {
	messageID, ok := utils.ParseID(c.Args[0])
	if !ok {
		return c.Reply("❌ Usage: `" + c.Prefix + "reactionrole <messageID> <emoji> @role`")
	}

	emoji := c.Args[1]

	roleID, ok := roleArgument(c, 2)
	if !ok {
		return c.Reply("❌ Usage: `" + c.Prefix + "reactionrole <messageID> <emoji> @role`")
	}

	if err := c.Adapter.AddReaction(c, c.ChannelID, messageID, emoji); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return c.Reply("❌ Message not found or invalid emoji!")
		}
		return err
	}

	if err := h.settings.SetReactionRole(messageID, emoji, roleID); err != nil {
		return err
	}

	return c.Reply(fmt.Sprintf("✅ Reaction role set up!\n%s = <@&%s>", emoji, roleID))
}

func (h *Handlers) say(c *command.Context) error {
	if err := c.Adapter.DeleteMessage(c, c.ChannelID, c.MessageID); err != nil {
		h.logger.Debug("Failed to delete say command", zap.Error(err))
	}

	_, err := c.Send(platform.Message{Content: c.Rest(0)})
	return err
}

func (h *Handlers) poll(c *command.Context) error {
	id, err := c.Send(platform.Message{Embeds: []platform.Embed{{
		Title:       "📊 Poll",
		Description: c.Rest(0),
		Color:       constants.ColorBlurple,
		Footer:      "Poll by " + c.Author.Username,
		Timestamp:   h.clock.Now(),
	}}})
	if err != nil {
		return err
	}

	for _, emoji := range constants.PollReactions {
		if err := c.Adapter.AddReaction(c, c.ChannelID, id, emoji); err != nil {
			return fmt.Errorf("failed to add poll reaction: %w", err)
		}
	}

	return nil
}

// roleArgument resolves a role from the mentions or from the argument at index i.
func roleArgument(c *command.Context, i int) (roleID snowflake.ID, ok bool) {
	if len(c.MentionedRoles) > 0 {
		return c.MentionedRoles[0], true
	}
	if i < len(c.Args) {
		return utils.ParseRoleMention(c.Args[i])
	}
	return 0, false
}
