package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/moderation"
	"github.com/robalyx/keeper/internal/platform"
	pkgUtils "github.com/robalyx/keeper/pkg/utils"
	"go.uber.org/zap"
)

var (
	adminRoleWords     = []string{"admin", "owner"}
	moderatorRoleWords = []string{"mod", "staff"}
)

func (h *Handlers) adminCheck(c *command.Context) error {
	userID, _ := target(c, true)

	member, err := c.Adapter.FetchMember(c, c.GuildID, userID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return c.Reply("❌ User not found in this server!")
		}
		return err
	}

	has := make(map[platform.Capability]bool)
	for _, capability := range []platform.Capability{
		platform.CapabilityAdministrator,
		platform.CapabilityManageGuild,
		platform.CapabilityManageRoles,
		platform.CapabilityManageMessages,
		platform.CapabilityKickMembers,
		platform.CapabilityBanMembers,
	} {
		if has[capability], err = c.Adapter.HasCapability(c, c.GuildID, userID, capability); err != nil {
			return err
		}
	}

	adminRoles, moderatorRoles, err := h.staffRoles(c, member)
	if err != nil {
		return err
	}

	isAdmin := has[platform.CapabilityAdministrator]
	isModerator := has[platform.CapabilityManageMessages] || has[platform.CapabilityKickMembers] ||
		has[platform.CapabilityBanMembers] || len(moderatorRoles) > 0

	color := constants.ColorRed
	switch {
	case isAdmin:
		color = constants.ColorGreen
	case isModerator:
		color = constants.ColorOrange
	}

	var permissions strings.Builder
	for _, capability := range []platform.Capability{
		platform.CapabilityManageGuild,
		platform.CapabilityManageRoles,
		platform.CapabilityManageMessages,
		platform.CapabilityKickMembers,
		platform.CapabilityBanMembers,
	} {
		mark := "❌"
		if has[capability] {
			mark = "✅"
		}
		fmt.Fprintf(&permissions, "%s %s\n", mark, capability)
	}

	return c.SendEmbed(platform.Embed{
		Title:     "👑 Admin Check - " + member.Username,
		Thumbnail: member.AvatarURL,
		Color:     color,
		Fields: []platform.Field{
			{Name: "⚡ Administrator", Value: utils.YesNo(isAdmin), Inline: true},
			{Name: "🛡️ Moderator", Value: utils.YesNo(isModerator), Inline: true},
			{Name: "👑 Admin Roles", Value: joinRoles(adminRoles)},
			{Name: "🛡️ Moderator Roles", Value: joinRoles(moderatorRoles)},
			{Name: "📊 Key Permissions", Value: strings.TrimSuffix(permissions.String(), "\n")},
		},
		Footer:    "ID: " + userID.String(),
		Timestamp: h.clock.Now(),
	})
}

// staffRoles splits the member's roles by name into admin-like and moderator-like ones.
func (h *Handlers) staffRoles(c *command.Context, member platform.Member) (admin, moderator []platform.Role, err error) {
	roles, err := c.Adapter.Roles(c, c.GuildID)
	if err != nil {
		return nil, nil, err
	}

	held := make(map[string]bool, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		held[id.String()] = true
	}

	for _, role := range roles {
		if !held[role.ID.String()] {
			continue
		}

		name := strings.ToLower(role.Name)
		switch {
		case containsAny(name, adminRoleWords):
			admin = append(admin, role)
		case containsAny(name, moderatorRoleWords):
			moderator = append(moderator, role)
		}
	}

	return admin, moderator, nil
}

func containsAny(s string, words []string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}

func joinRoles(roles []platform.Role) string {
	if len(roles) == 0 {
		return "❌ None"
	}

	mentions := make([]string, len(roles))
	for i, role := range roles {
		mentions[i] = role.Mention()
	}

	return strings.Join(mentions, ", ")
}

func (h *Handlers) warn(c *command.Context) error {
	userID, err := target(c, false)
	if err != nil {
		return c.Reply("❌ Mention the user you want to warn!")
	}

	reason := c.Rest(1)
	if reason == "" {
		reason = moderation.DefaultReason
	}

	count, _, err := h.moderation.AddWarning(userID, c.GuildID, c.Author.ID, reason)
	if err != nil {
		return err
	}

	embed := platform.Embed{
		Title: "⚠️ Warning Issued",
		Color: constants.ColorOrange,
		Fields: []platform.Field{
			{Name: "User", Value: "<@" + userID.String() + ">", Inline: true},
			{Name: "Moderator", Value: c.Author.Mention(), Inline: true},
			{Name: "Total Warnings", Value: strconv.Itoa(count), Inline: true},
			{Name: "Reason", Value: reason},
		},
		Timestamp: h.clock.Now(),
	}

	h.LogModeration(c, c.GuildID, embed)

	return c.SendEmbed(embed)
}

func (h *Handlers) warnings(c *command.Context) error {
	userID, _ := target(c, true)
	user := h.user(c, userID)

	warnings := h.moderation.ListWarnings(userID, c.GuildID)
	if len(warnings) == 0 {
		return c.Reply(fmt.Sprintf("✅ %s has no warnings.", user.Username))
	}

	var b strings.Builder
	for i, warning := range warnings {
		fmt.Fprintf(&b, "**%d.** %s\n👮 By: <@%s> | 📅 %s\n\n",
			i+1, utils.NormalizeString(warning.Reason), warning.ModeratorID, utils.RelativeTimestamp(warning.Timestamp))
	}

	return c.SendEmbed(platform.Embed{
		Title:       "⚠️ Warnings - " + user.Username,
		Description: utils.TruncateString(b.String(), 4096),
		Color:       constants.ColorRed,
		Footer:      fmt.Sprintf("Total: %d warnings", len(warnings)),
		Timestamp:   h.clock.Now(),
	})
}

func (h *Handlers) clearWarnings(c *command.Context) error {
	userID, err := target(c, false)
	if err != nil {
		return c.Reply("❌ Mention the user whose warnings you want to clear!")
	}

	removed, err := h.moderation.ClearWarnings(userID, c.GuildID)
	if err != nil {
		return err
	}

	return c.Reply(fmt.Sprintf("✅ Cleared %d warnings for <@%s>.", removed, userID))
}

func (h *Handlers) kick(c *command.Context) error {
	userID, err := target(c, false)
	if err != nil {
		return c.Reply("❌ Mention the user you want to kick!")
	}

	reason := c.Rest(1)
	if reason == "" {
		reason = moderation.DefaultReason
	}

	if err := c.Adapter.Kick(c, c.GuildID, userID, reason); err != nil {
		h.logger.Warn("Failed to kick member", zap.Uint64("userID", uint64(userID)), zap.Error(err))
		return c.Reply("❌ Failed to kick this user!")
	}

	embed := platform.Embed{
		Title: "👢 Member Kicked",
		Color: constants.ColorCoral,
		Fields: []platform.Field{
			{Name: "User", Value: "<@" + userID.String() + ">", Inline: true},
			{Name: "Moderator", Value: c.Author.Mention(), Inline: true},
			{Name: "Reason", Value: reason},
		},
		Timestamp: h.clock.Now(),
	}

	h.LogModeration(c, c.GuildID, embed)

	return c.SendEmbed(embed)
}

func (h *Handlers) mute(c *command.Context) error {
	userID, err := target(c, false)
	if err != nil {
		return c.Reply("❌ Mention the user you want to mute!")
	}

	raw := h.config.Moderation.DefaultMute
	if len(c.Args) > 1 {
		raw = c.Args[1]
	}

	duration, err := pkgUtils.ParseTimeoutDuration(raw)
	switch {
	case errors.Is(err, pkgUtils.ErrDurationTooLong):
		return c.Reply("❌ A mute cannot be longer than 28 days!")
	case err != nil:
		return c.Reply("❌ Invalid duration! Use: `10m`, `1h`, `1d`")
	}

	reason := c.Rest(2)
	if reason == "" {
		reason = moderation.DefaultReason
	}

	if err := c.Adapter.Timeout(c, c.GuildID, userID, h.clock.Now().Add(duration)); err != nil {
		h.logger.Warn("Failed to mute member", zap.Uint64("userID", uint64(userID)), zap.Error(err))
		return c.Reply("❌ Failed to mute this user!")
	}

	embed := platform.Embed{
		Title: "🔇 Member Muted",
		Color: constants.ColorOrange,
		Fields: []platform.Field{
			{Name: "User", Value: "<@" + userID.String() + ">", Inline: true},
			{Name: "Moderator", Value: c.Author.Mention(), Inline: true},
			{Name: "Duration", Value: pkgUtils.FormatDuration(duration), Inline: true},
			{Name: "Reason", Value: reason},
		},
		Timestamp: h.clock.Now(),
	}

	h.LogModeration(c, c.GuildID, embed)

	return c.SendEmbed(embed)
}

func (h *Handlers) unmute(c *command.Context) error {
	userID, err := target(c, false)
	if err != nil {
		return c.Reply("❌ Mention the user you want to unmute!")
	}

	if err := c.Adapter.Timeout(c, c.GuildID, userID, time.Time{}); err != nil {
		h.logger.Warn("Failed to unmute member", zap.Uint64("userID", uint64(userID)), zap.Error(err))
		return c.Reply("❌ Failed to unmute this user!")
	}

	return c.SendEmbed(platform.Embed{
		Title: "🔊 Member Unmuted",
		Color: constants.ColorGreen,
		Fields: []platform.Field{
			{Name: "User", Value: "<@" + userID.String() + ">", Inline: true},
			{Name: "Moderator", Value: c.Author.Mention(), Inline: true},
		},
		Timestamp: h.clock.Now(),
	})
}

func (h *Handlers) clear(c *command.Context) error {
	amount, err := strconv.Atoi(c.Args[0])
	if err != nil || amount < 1 || amount > constants.MaxPurge {
		return c.Reply(fmt.Sprintf("❌ Enter a number between 1 and %d!", constants.MaxPurge))
	}

	// The invoking message is deleted along with the requested ones.
	deleted, err := c.Adapter.BulkDelete(c, c.ChannelID, amount+1)
	if err != nil {
		h.logger.Warn("Failed to bulk delete", zap.Uint64("channelID", uint64(c.ChannelID)), zap.Error(err))
		return c.Reply("❌ Failed to delete messages!")
	}

	return h.SendNotice(c, c.ChannelID, fmt.Sprintf("✅ Deleted **%d** messages!", max(deleted-1, 0)))
}
