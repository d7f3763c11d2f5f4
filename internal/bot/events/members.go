package events

import (
	"context"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/platform"
	"go.uber.org/zap"
)

// OnMemberJoin grants the auto role and posts the welcome embed.
func (r *Router) OnMemberJoin(ctx context.Context, member platform.Member) {
	if name := r.config.Members.AutoRole; name != "" && !member.Bot {
		role, ok, err := r.adapter.FindRoleByName(ctx, member.GuildID, name)
		switch {
		case err != nil:
			r.logger.Warn("Failed to look up auto role", zap.String("role", name), zap.Error(err))
		case ok:
			if err := r.adapter.AddRole(ctx, member.GuildID, member.ID, role.ID); err != nil {
				r.logger.Warn("Failed to grant auto role", zap.Uint64("userID", uint64(member.ID)), zap.Error(err))
			}
		}
	}

	channelID, ok := r.memberChannel(ctx, member.GuildID, r.config.Members.WelcomeChannel)
	if !ok {
		return
	}

	guildName, count := r.guildSummary(ctx, member.GuildID)
	joinedAt := member.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = member.CreatedAt()
	}

	r.send(ctx, channelID, platform.Embed{
		Title:       "🎉 Welcome!",
		Description: "Hello " + member.Mention() + "! Welcome to **" + guildName + "**!",
		Thumbnail:   member.AvatarURL,
		Color:       constants.ColorGreen,
		Fields: []platform.Field{
			{Name: "👥 Member", Value: "You are member #" + count, Inline: true},
			{Name: "📅 Joined", Value: utils.RelativeTimestamp(joinedAt), Inline: true},
		},
		Footer: "ID: " + member.ID.String(),
	})
}

// OnMemberLeave posts the goodbye embed.
func (r *Router) OnMemberLeave(ctx context.Context, guildID snowflake.ID, user platform.User) {
	channelID, ok := r.memberChannel(ctx, guildID, r.config.Members.GoodbyeChannel)
	if !ok {
		return
	}

	_, count := r.guildSummary(ctx, guildID)

	r.send(ctx, channelID, platform.Embed{
		Title:       "👋 Goodbye!",
		Description: "**" + user.Username + "** has left the server.",
		Thumbnail:   user.AvatarURL,
		Color:       constants.ColorRed,
		Fields: []platform.Field{
			{Name: "📊 Total Members", Value: count, Inline: true},
		},
	})
}

func (r *Router) memberChannel(ctx context.Context, guildID snowflake.ID, name string) (snowflake.ID, bool) {
	if name == "" {
		return 0, false
	}

	id, ok, err := r.adapter.FindChannelByName(ctx, guildID, name)
	if err != nil {
		r.logger.Warn("Failed to look up channel", zap.String("channel", name), zap.Error(err))
		return 0, false
	}

	return id, ok
}

func (r *Router) guildSummary(ctx context.Context, guildID snowflake.ID) (name, memberCount string) {
	g, err := r.adapter.FetchGuild(ctx, guildID)
	if err != nil {
		r.logger.Debug("Failed to fetch guild", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		return "this server", constants.NotApplicable
	}

	return g.Name, strconv.Itoa(g.MemberCount)
}

func (r *Router) send(ctx context.Context, channelID snowflake.ID, embed platform.Embed) {
	if _, err := r.adapter.SendMessage(ctx, channelID, platform.Message{Embeds: []platform.Embed{embed}}); err != nil {
		r.logger.Warn("Failed to send event message", zap.Uint64("channelID", uint64(channelID)), zap.Error(err))
	}
}
