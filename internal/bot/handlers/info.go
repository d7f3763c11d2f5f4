package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/platform"
)

func (h *Handlers) serverInfo(c *command.Context) error {
	g, err := c.Adapter.FetchGuild(c, c.GuildID)
	if err != nil {
		return err
	}

	return c.SendEmbed(platform.Embed{
		Title:     fmt.Sprintf("📊 %s - Server Information", g.Name),
		Thumbnail: g.IconURL,
		Color:     constants.ColorBlurple,
		Fields: []platform.Field{
			{Name: "👑 Owner", Value: "<@" + g.OwnerID.String() + ">", Inline: true},
			{Name: "🆔 ID", Value: g.ID.String(), Inline: true},
			{Name: "📅 Created", Value: utils.RelativeTimestamp(g.CreatedAt()), Inline: true},
			{Name: "👥 Members", Value: strconv.Itoa(g.MemberCount), Inline: true},
			{Name: "💬 Channels", Value: strconv.Itoa(g.ChannelCount), Inline: true},
			{Name: "🎭 Roles", Value: strconv.Itoa(g.RoleCount), Inline: true},
			{Name: "✨ Boosts", Value: strconv.Itoa(g.BoostCount), Inline: true},
		},
		Footer:    "Server ID: " + g.ID.String(),
		Timestamp: h.clock.Now(),
	})
}

func (h *Handlers) userInfo(c *command.Context) error {
	userID, _ := target(c, true)

	member, err := c.Adapter.FetchMember(c, c.GuildID, userID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return c.Reply("❌ User not found in this server!")
		}
		return err
	}

	highest := constants.NotApplicable
	if len(member.RoleIDs) > 0 {
		roles, err := c.Adapter.Roles(c, c.GuildID)
		if err != nil {
			return err
		}
		if role, ok := highestRole(roles, member.RoleIDs); ok {
			highest = role.Mention()
		}
	}

	joined := constants.NotApplicable
	if !member.JoinedAt.IsZero() {
		joined = utils.RelativeTimestamp(member.JoinedAt)
	}

	return c.SendEmbed(platform.Embed{
		Title:     fmt.Sprintf("👤 %s - User Information", member.Username),
		Thumbnail: member.AvatarURL,
		Color:     constants.ColorBlurple,
		Fields: []platform.Field{
			{Name: "🆔 ID", Value: member.ID.String(), Inline: true},
			{Name: "📅 Account Created", Value: utils.RelativeTimestamp(member.CreatedAt()), Inline: true},
			{Name: "📥 Joined Server", Value: joined, Inline: true},
			{Name: "🤖 Bot", Value: utils.YesNo(member.Bot), Inline: true},
			{Name: "🎭 Roles", Value: strconv.Itoa(len(member.RoleIDs)), Inline: true},
			{Name: "🚀 Highest Role", Value: highest, Inline: true},
		},
		Footer:    "User ID: " + member.ID.String(),
		Timestamp: h.clock.Now(),
	})
}

func highestRole(roles []platform.Role, held []snowflake.ID) (platform.Role, bool) {
	var (
		best  platform.Role
		found bool
	)

	for _, role := range roles {
		for _, id := range held {
			if role.ID == id && (!found || role.Position > best.Position) {
				best, found = role, true
			}
		}
	}

	return best, found
}

func (h *Handlers) avatar(c *command.Context) error {
	userID, _ := target(c, true)
	user := h.user(c, userID)

	return c.SendEmbed(platform.Embed{
		Title:     fmt.Sprintf("🖼️ %s's Avatar", user.Username),
		Image:     user.AvatarURL,
		Color:     constants.ColorBlurple,
		Footer:    "Requested by " + c.Author.Username,
		Timestamp: h.clock.Now(),
	})
}

func (h *Handlers) roleInfo(c *command.Context) error {
	roles, err := c.Adapter.Roles(c, c.GuildID)
	if err != nil {
		return err
	}

	role, ok := findRole(roles, c)
	if !ok {
		return c.Reply("❌ Role not found! Mention a role or give its name or ID.")
	}

	color := role.Color
	if color == 0 {
		color = constants.ColorBlurple
	}

	return c.SendEmbed(platform.Embed{
		Title: "🎭 Role Info: " + role.Name,
		Color: color,
		Fields: []platform.Field{
			{Name: "🆔 ID", Value: role.ID.String(), Inline: true},
			{Name: "🎨 Color", Value: fmt.Sprintf("#%06X", role.Color), Inline: true},
			{Name: "📅 Created", Value: utils.RelativeTimestamp(role.ID.Time()), Inline: true},
			{Name: "💎 Position", Value: strconv.Itoa(role.Position), Inline: true},
			{Name: "🔒 Hoisted", Value: utils.YesNo(role.Hoist), Inline: true},
			{Name: "💬 Mentionable", Value: utils.YesNo(role.Mentionable), Inline: true},
			{Name: "🤖 Managed", Value: utils.YesNo(role.Managed), Inline: true},
		},
		Footer:    "Role ID: " + role.ID.String(),
		Timestamp: h.clock.Now(),
	})
}

// findRole matches a role mention, a role ID or a case-insensitive name.
func findRole(roles []platform.Role, c *command.Context) (platform.Role, bool) {
	id, byID := roleArgument(c, 0)
	name := c.Rest(0)

	for _, role := range roles {
		if byID && role.ID == id {
			return role, true
		}
	}

	for _, role := range roles {
		if strings.EqualFold(role.Name, name) {
			return role, true
		}
	}

	return platform.Role{}, false
}
