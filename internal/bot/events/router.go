// Package events turns platform events into calls on the bot's services.
// Messages flow through automod, then leveling, then custom commands and
// finally the command registry; the first stage that consumes a message stops it.
package events

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/automod"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/handlers"
	"github.com/robalyx/keeper/internal/guild"
	"github.com/robalyx/keeper/internal/leveling"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/setup/config"
	"go.uber.org/zap"
)

// Message is an inbound guild message.
type Message struct {
	ID             snowflake.ID
	GuildID        snowflake.ID
	ChannelID      snowflake.ID
	Author         platform.User
	Content        string
	MentionedUsers []snowflake.ID
	MentionedRoles []snowflake.ID
}

// Deps are the collaborators of the router.
type Deps struct {
	Adapter   platform.Adapter
	Registry  *command.Registry
	Handlers  *handlers.Handlers
	Evaluator *automod.Evaluator
	Policies  *automod.Policies
	Leveling  *leveling.Store
	Settings  *guild.Settings
	Config    *config.BotConfig
	Logger    *zap.Logger
}

// Router routes platform events.
type Router struct {
	adapter   platform.Adapter
	registry  *command.Registry
	handlers  *handlers.Handlers
	evaluator *automod.Evaluator
	policies  *automod.Policies
	leveling  *leveling.Store
	settings  *guild.Settings
	config    *config.BotConfig
	logger    *zap.Logger
}

// NewRouter creates a router.
func NewRouter(deps Deps) *Router {
	return &Router{
		adapter:   deps.Adapter,
		registry:  deps.Registry,
		handlers:  deps.Handlers,
		evaluator: deps.Evaluator,
		policies:  deps.Policies,
		leveling:  deps.Leveling,
		settings:  deps.Settings,
		config:    deps.Config,
		logger:    deps.Logger.Named("events"),
	}
}

// OnMessage runs the message pipeline. Messages from bots are ignored.
func (r *Router) OnMessage(ctx context.Context, msg Message) {
	if msg.Author.Bot || msg.GuildID == 0 {
		return
	}

	if r.moderate(ctx, msg) {
		return
	}

	r.progress(ctx, msg)

	if response, ok := r.settings.CustomResponse(msg.GuildID, msg.Content); ok {
		if _, err := r.adapter.SendMessage(ctx, msg.ChannelID, platform.Message{Content: response}); err != nil {
			r.logger.Warn("Failed to send custom command response", zap.Error(err))
		}
		return
	}

	r.dispatch(ctx, msg)
}

// moderate applies automod and reports whether the message was flagged.
// A failed evaluation lets the message through. A flagged message stops the
// pipeline even when it could not be deleted.
func (r *Router) moderate(ctx context.Context, msg Message) bool {
	verdict, err := r.evaluator.Evaluate(ctx, automod.Message{
		GuildID:        msg.GuildID,
		ChannelID:      msg.ChannelID,
		AuthorID:       msg.Author.ID,
		Content:        msg.Content,
		MentionedUsers: msg.MentionedUsers,
		MentionedRoles: msg.MentionedRoles,
	}, r.policies.For(msg.GuildID))
	if err != nil {
		r.logger.Warn("Automod evaluation failed", zap.Uint64("guildID", uint64(msg.GuildID)), zap.Error(err))
		return false
	}
	if !verdict.Violation {
		return false
	}

	if err := r.adapter.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		r.logger.Warn("Failed to delete violating message",
			zap.Uint64("messageID", uint64(msg.ID)),
			zap.String("rule", string(verdict.Rule)),
			zap.Error(err))
		return true
	}

	r.logger.Info("Automod removed message",
		zap.Uint64("guildID", uint64(msg.GuildID)),
		zap.Uint64("userID", uint64(msg.Author.ID)),
		zap.String("rule", string(verdict.Rule)))

	if err := r.handlers.SendNotice(ctx, msg.ChannelID, "⚠️ "+msg.Author.Mention()+", "+verdict.Reason+"!"); err != nil {
		r.logger.Warn("Failed to send automod notice", zap.Error(err))
	}

	r.handlers.LogModeration(ctx, msg.GuildID, platform.Embed{
		Title: "🛡️ Auto-Mod Action",
		Color: constants.ColorRed,
		Fields: []platform.Field{
			{Name: "User", Value: msg.Author.Username, Inline: true},
			{Name: "Channel", Value: "<#" + msg.ChannelID.String() + ">", Inline: true},
			{Name: "Reason", Value: verdict.Reason, Inline: true},
		},
	})

	return true
}

// progress grants XP and announces level-ups with their reward roles.
func (r *Router) progress(ctx context.Context, msg Message) {
	level, leveled, err := r.leveling.RegisterActivity(msg.Author.ID, msg.GuildID)
	if err != nil {
		r.logger.Error("Failed to register activity", zap.Uint64("userID", uint64(msg.Author.ID)), zap.Error(err))
		return
	}
	if !leveled {
		return
	}

	announceChannel := msg.ChannelID
	if name := r.config.Leveling.AnnounceChannel; name != "" {
		id, ok, err := r.adapter.FindChannelByName(ctx, msg.GuildID, name)
		if err != nil || !ok {
			r.logger.Debug("Level-up channel unavailable", zap.String("channel", name), zap.Error(err))
			announceChannel = 0
		} else {
			announceChannel = id
		}
	}

	if announceChannel != 0 {
		text := strings.NewReplacer(
			"{user}", msg.Author.Mention(),
			"{level}", strconv.FormatUint(level, 10),
		).Replace(r.config.Leveling.LevelUpMessage)

		_, err := r.adapter.SendMessage(ctx, announceChannel, platform.Message{Embeds: []platform.Embed{{
			Description: text,
			Color:       constants.ColorGold,
		}}})
		if err != nil {
			r.logger.Warn("Failed to announce level-up", zap.Error(err))
		}
	}

	if !r.config.Leveling.RewardRoles {
		return
	}

	roleName, ok := r.leveling.RewardRole(level)
	if !ok {
		return
	}

	role, found, err := r.adapter.FindRoleByName(ctx, msg.GuildID, roleName)
	if err != nil || !found {
		r.logger.Debug("Reward role unavailable", zap.String("role", roleName), zap.Error(err))
		return
	}

	if err := r.adapter.AddRole(ctx, msg.GuildID, msg.Author.ID, role.ID); err != nil {
		r.logger.Warn("Failed to grant reward role", zap.String("role", roleName), zap.Error(err))
		return
	}

	_, err = r.adapter.SendMessage(ctx, msg.ChannelID, platform.Message{
		Content: "🎊 " + msg.Author.Mention() + ", you earned the **" + roleName + "** role!",
	})
	if err != nil {
		r.logger.Warn("Failed to announce reward role", zap.Error(err))
	}
}

// dispatch parses a prefixed message and runs the command.
func (r *Router) dispatch(ctx context.Context, msg Message) {
	prefix := r.settings.Prefix(msg.GuildID)

	name, args, ok := command.Parse(msg.Content, prefix)
	if !ok {
		return
	}

	c := &command.Context{
		Context:        ctx,
		Adapter:        r.adapter,
		GuildID:        msg.GuildID,
		ChannelID:      msg.ChannelID,
		MessageID:      msg.ID,
		Author:         msg.Author,
		Prefix:         prefix,
		Name:           name,
		Args:           args,
		MentionedUsers: msg.MentionedUsers,
		MentionedRoles: msg.MentionedRoles,
	}

	err := r.registry.Dispatch(c)
	if err == nil {
		return
	}

	var (
		denied *command.DeniedError
		usage  *command.UsageError
		reply  string
	)

	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		reply = "❓ Unknown command. Type `" + prefix + "help` to see all commands."
	case errors.As(err, &denied):
		reply = "❌ You need the **" + denied.Capability.String() + "** permission to use this command!"
	case errors.As(err, &usage):
		reply = "❌ Usage: `" + prefix + usage.Usage + "`"
	default:
		r.logger.Error("Command failed",
			zap.String("command", name),
			zap.Uint64("guildID", uint64(msg.GuildID)),
			zap.Uint64("userID", uint64(msg.Author.ID)),
			zap.Error(err))
		reply = constants.GenericErrorMessage
	}

	if err := c.Reply(reply); err != nil {
		r.logger.Warn("Failed to reply to command", zap.String("command", name), zap.Error(err))
	}
}
