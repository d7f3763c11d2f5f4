package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// bulkDeleteMaxAge is the oldest message the platform accepts in a bulk delete.
const bulkDeleteMaxAge = 14 * 24 * time.Hour

// maxBulkDelete is the largest batch accepted by the platform.
const maxBulkDelete = 100

// Disgo implements Adapter on top of a disgo client.
type Disgo struct {
	client bot.Client
	logger *zap.Logger
}

// NewDisgo wraps client.
func NewDisgo(client bot.Client, logger *zap.Logger) *Disgo {
	return &Disgo{
		client: client,
		logger: logger.Named("platform"),
	}
}

// HasCapability checks the member's effective permissions from the cache, falling
// back to REST for members that are not cached. Administrators have every capability.
func (d *Disgo) HasCapability(
	ctx context.Context, guildID, userID snowflake.ID, capability Capability,
) (bool, error) {
	member, ok := d.client.Caches().Member(guildID, userID)
	if !ok {
		fetched, err := d.client.Rest().GetMember(guildID, userID, rest.WithCtx(ctx))
		if err != nil {
			return false, wrapRestError(err)
		}
		member = *fetched
	}

	permissions := d.client.Caches().MemberPermissions(member)
	if permissions.Has(discord.PermissionAdministrator) {
		return true, nil
	}

	return permissions.Has(toPermission(capability)), nil
}

// SendMessage posts message to the channel and returns the new message ID.
func (d *Disgo) SendMessage(ctx context.Context, channelID snowflake.ID, message Message) (snowflake.ID, error) {
	builder := discord.NewMessageCreateBuilder().
		SetContent(message.Content).
		SetAllowedMentions(&discord.AllowedMentions{
			Parse: []discord.AllowedMentionType{discord.AllowedMentionTypeUsers, discord.AllowedMentionTypeRoles},
		})

	for _, embed := range message.Embeds {
		builder.AddEmbeds(toEmbed(embed))
	}

	if len(message.Buttons) > 0 {
		components := make([]discord.InteractiveComponent, 0, len(message.Buttons))
		for _, button := range message.Buttons {
			components = append(components, toButton(button))
		}
		builder.AddActionRow(components...)
	}

	if message.ReplyTo != 0 {
		builder.SetMessageReferenceByID(message.ReplyTo)
	}

	sent, err := d.client.Rest().CreateMessage(channelID, builder.Build(), rest.WithCtx(ctx))
	if err != nil {
		return 0, wrapRestError(err)
	}

	return sent.ID, nil
}

// DeleteMessage removes a single message.
func (d *Disgo) DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) error {
	return wrapRestError(d.client.Rest().DeleteMessage(channelID, messageID, rest.WithCtx(ctx)))
}

// BulkDelete removes up to count of the most recent messages that are young enough
// to be bulk deleted.
func (d *Disgo) BulkDelete(ctx context.Context, channelID snowflake.ID, count int) (int, error) {
	count = min(count, maxBulkDelete)
	if count <= 0 {
		return 0, nil
	}

	messages, err := d.client.Rest().GetMessages(channelID, 0, 0, 0, count, rest.WithCtx(ctx))
	if err != nil {
		return 0, wrapRestError(err)
	}

	cutoff := time.Now().Add(-bulkDeleteMaxAge)
	ids := make([]snowflake.ID, 0, len(messages))

	for _, message := range messages {
		if message.ID.Time().After(cutoff) {
			ids = append(ids, message.ID)
		}
	}

	switch len(ids) {
	case 0:
		return 0, nil
	case 1:
		if err := d.DeleteMessage(ctx, channelID, ids[0]); err != nil {
			return 0, err
		}
	default:
		if err := d.client.Rest().BulkDeleteMessages(channelID, ids, rest.WithCtx(ctx)); err != nil {
			return 0, wrapRestError(err)
		}
	}

	return len(ids), nil
}

// AddReaction reacts to a message with a unicode emoji or a "name:id" custom emoji.
func (d *Disgo) AddReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error {
	return wrapRestError(d.client.Rest().AddReaction(channelID, messageID, emoji, rest.WithCtx(ctx)))
}

// CreateTicketChannel creates a text channel visible only to the owner, the bot
// and the staff role. The parent category is created when missing.
func (d *Disgo) CreateTicketChannel(ctx context.Context, req TicketChannel) (snowflake.ID, error) {
	channels, err := d.client.Rest().GetGuildChannels(req.GuildID, rest.WithCtx(ctx))
	if err != nil {
		return 0, wrapRestError(err)
	}

	var categoryID snowflake.ID
	for _, channel := range channels {
		if channel.Type() == discord.ChannelTypeGuildCategory && channel.Name() == req.Category {
			categoryID = channel.ID()
			break
		}
	}

	if categoryID == 0 && req.Category != "" {
		category, err := d.client.Rest().CreateGuildChannel(req.GuildID, discord.GuildCategoryChannelCreate{
			Name: req.Category,
		}, rest.WithCtx(ctx))
		if err != nil {
			return 0, fmt.Errorf("failed to create ticket category: %w", wrapRestError(err))
		}
		categoryID = category.ID()
	}

	access := discord.PermissionViewChannel | discord.PermissionSendMessages | discord.PermissionReadMessageHistory
	overwrites := []discord.PermissionOverwrite{
		discord.RolePermissionOverwrite{RoleID: req.GuildID, Deny: discord.PermissionViewChannel},
		discord.MemberPermissionOverwrite{UserID: req.OwnerID, Allow: access},
		discord.MemberPermissionOverwrite{UserID: d.client.ID(), Allow: access | discord.PermissionManageChannels},
	}

	if req.StaffRole != "" {
		role, ok, err := d.FindRoleByName(ctx, req.GuildID, req.StaffRole)
		if err != nil {
			return 0, err
		}
		if ok {
			overwrites = append(overwrites, discord.RolePermissionOverwrite{RoleID: role.ID, Allow: access})
		}
	}

	channel, err := d.client.Rest().CreateGuildChannel(req.GuildID, discord.GuildTextChannelCreate{
		Name:                 req.Name,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	}, rest.WithCtx(ctx))
	if err != nil {
		return 0, wrapRestError(err)
	}

	return channel.ID(), nil
}

// DeleteChannel removes a channel.
func (d *Disgo) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	return wrapRestError(d.client.Rest().DeleteChannel(channelID, rest.WithCtx(ctx)))
}

// FindChannelByName returns the first text channel of the guild with the given name.
func (d *Disgo) FindChannelByName(ctx context.Context, guildID snowflake.ID, name string) (snowflake.ID, bool, error) {
	if name == "" {
		return 0, false, nil
	}

	channels, err := d.client.Rest().GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return 0, false, wrapRestError(err)
	}

	for _, channel := range channels {
		if channel.Type() == discord.ChannelTypeGuildText && channel.Name() == name {
			return channel.ID(), true, nil
		}
	}

	return 0, false, nil
}

// AddRole grants a role.
func (d *Disgo) AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	return wrapRestError(d.client.Rest().AddMemberRole(guildID, userID, roleID, rest.WithCtx(ctx)))
}

// RemoveRole revokes a role.
func (d *Disgo) RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error {
	return wrapRestError(d.client.Rest().RemoveMemberRole(guildID, userID, roleID, rest.WithCtx(ctx)))
}

// FindRoleByName looks a role up by exact name.
func (d *Disgo) FindRoleByName(ctx context.Context, guildID snowflake.ID, name string) (Role, bool, error) {
	roles, err := d.Roles(ctx, guildID)
	if err != nil {
		return Role{}, false, err
	}

	for _, role := range roles {
		if role.Name == name {
			return role, true, nil
		}
	}

	return Role{}, false, nil
}

// Roles lists the guild's roles.
func (d *Disgo) Roles(ctx context.Context, guildID snowflake.ID) ([]Role, error) {
	roles, err := d.client.Rest().GetRoles(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, wrapRestError(err)
	}

	result := make([]Role, 0, len(roles))
	for _, role := range roles {
		result = append(result, Role{
			ID:          role.ID,
			Name:        role.Name,
			Color:       role.Color,
			Position:    role.Position,
			Hoist:       role.Hoist,
			Managed:     role.Managed,
			Mentionable: role.Mentionable,
		})
	}

	return result, nil
}

// Kick removes the member from the guild.
func (d *Disgo) Kick(ctx context.Context, guildID, userID snowflake.ID, reason string) error {
	return wrapRestError(d.client.Rest().RemoveMember(guildID, userID, rest.WithCtx(ctx), rest.WithReason(reason)))
}

// Timeout sets or clears the member's communication timeout.
func (d *Disgo) Timeout(ctx context.Context, guildID, userID snowflake.ID, until time.Time) error {
	update := discord.MemberUpdate{CommunicationDisabledUntil: json.NullPtr[time.Time]()}
	if !until.IsZero() {
		update.CommunicationDisabledUntil = json.NewNullablePtr(until)
	}

	_, err := d.client.Rest().UpdateMember(guildID, userID, update, rest.WithCtx(ctx))

	return wrapRestError(err)
}

// FetchUser loads a user from the cache or REST.
func (d *Disgo) FetchUser(ctx context.Context, userID snowflake.ID) (User, error) {
	user, err := d.client.Rest().GetUser(userID, rest.WithCtx(ctx))
	if err != nil {
		return User{}, wrapRestError(err)
	}

	return FromUser(*user), nil
}

// FetchMember loads a guild member.
func (d *Disgo) FetchMember(ctx context.Context, guildID, userID snowflake.ID) (Member, error) {
	member, ok := d.client.Caches().Member(guildID, userID)
	if !ok {
		fetched, err := d.client.Rest().GetMember(guildID, userID, rest.WithCtx(ctx))
		if err != nil {
			return Member{}, wrapRestError(err)
		}
		member = *fetched
	}

	result := FromMember(member)
	result.GuildID = guildID

	return result, nil
}

// FetchGuild loads guild details including approximate member counts.
func (d *Disgo) FetchGuild(ctx context.Context, guildID snowflake.ID) (Guild, error) {
	guild, err := d.client.Rest().GetGuild(guildID, true, rest.WithCtx(ctx))
	if err != nil {
		return Guild{}, wrapRestError(err)
	}

	result := Guild{
		ID:          guild.ID,
		Name:        guild.Name,
		OwnerID:     guild.OwnerID,
		MemberCount: guild.ApproximateMemberCount,
		RoleCount:   len(guild.Roles),
		BoostCount:  guild.PremiumSubscriptionCount,
	}
	if icon := guild.IconURL(); icon != nil {
		result.IconURL = *icon
	}

	channels, err := d.client.Rest().GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		d.logger.Warn("Failed to count guild channels", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
	} else {
		result.ChannelCount = len(channels)
	}

	return result, nil
}

// Latency returns the gateway heartbeat latency.
func (d *Disgo) Latency() time.Duration {
	if d.client.Gateway() == nil {
		return 0
	}
	return d.client.Gateway().Latency()
}

// FromUser converts a disgo user.
func FromUser(user discord.User) User {
	result := User{
		ID:        user.ID,
		Username:  user.Username,
		Bot:       user.Bot,
		AvatarURL: user.EffectiveAvatarURL(),
	}
	if user.GlobalName != nil {
		result.GlobalName = *user.GlobalName
	}
	return result
}

// FromMember converts a disgo member.
func FromMember(member discord.Member) Member {
	result := Member{
		User:     FromUser(member.User),
		GuildID:  member.GuildID,
		JoinedAt: member.JoinedAt,
		RoleIDs:  member.RoleIDs,
	}
	if member.Nick != nil {
		result.Nickname = *member.Nick
	}
	return result
}

func toEmbed(embed Embed) discord.Embed {
	builder := discord.NewEmbedBuilder().
		SetTitle(embed.Title).
		SetDescription(embed.Description).
		SetColor(embed.Color)

	if embed.AuthorName != "" {
		builder.SetAuthor(embed.AuthorName, "", embed.AuthorIcon)
	}
	if embed.Thumbnail != "" {
		builder.SetThumbnail(embed.Thumbnail)
	}
	if embed.Image != "" {
		builder.SetImage(embed.Image)
	}
	if embed.Footer != "" {
		builder.SetFooterText(embed.Footer)
	}
	if !embed.Timestamp.IsZero() {
		builder.SetTimestamp(embed.Timestamp)
	}
	for _, field := range embed.Fields {
		builder.AddField(field.Name, field.Value, field.Inline)
	}

	return builder.Build()
}

func toButton(button Button) discord.ButtonComponent {
	var component discord.ButtonComponent

	switch button.Style {
	case ButtonDanger:
		component = discord.NewDangerButton(button.Label, button.CustomID)
	case ButtonSecondary:
		component = discord.NewSecondaryButton(button.Label, button.CustomID)
	default:
		component = discord.NewPrimaryButton(button.Label, button.CustomID)
	}

	if button.Emoji != "" {
		component = component.WithEmoji(discord.ComponentEmoji{Name: button.Emoji})
	}

	return component
}

func toPermission(capability Capability) discord.Permissions {
	switch capability {
	case CapabilityAdministrator:
		return discord.PermissionAdministrator
	case CapabilityManageGuild:
		return discord.PermissionManageGuild
	case CapabilityManageRoles:
		return discord.PermissionManageRoles
	case CapabilityManageChannels:
		return discord.PermissionManageChannels
	case CapabilityManageMessages:
		return discord.PermissionManageMessages
	case CapabilityModerateMembers:
		return discord.PermissionModerateMembers
	case CapabilityKickMembers:
		return discord.PermissionKickMembers
	case CapabilityBanMembers:
		return discord.PermissionBanMembers
	default:
		return discord.PermissionAdministrator
	}
}

// wrapRestError maps REST failures onto the package's sentinel errors.
func wrapRestError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch {
		case restErr.Response.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case restErr.Response.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}
