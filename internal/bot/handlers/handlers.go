// Package handlers implements the prefix commands. Every platform effect goes
// through platform.Adapter so the handlers run unchanged against the fake.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/economy"
	"github.com/robalyx/keeper/internal/guild"
	"github.com/robalyx/keeper/internal/leveling"
	"github.com/robalyx/keeper/internal/moderation"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/setup/config"
	"github.com/robalyx/keeper/internal/ticket"
	"go.uber.org/zap"
)

// ErrNoTarget is returned when a command needs a member and none was given.
var ErrNoTarget = errors.New("no target member")

// Deps are the services the handlers act on.
type Deps struct {
	Adapter    platform.Adapter
	Leveling   *leveling.Store
	Economy    *economy.Ledger
	Moderation *moderation.Ledger
	Tickets    *ticket.Manager
	Settings   *guild.Settings
	Clock      clock.Clock
	Config     *config.BotConfig
	Logger     *zap.Logger
	// IntN picks random numbers for the fun commands; nil uses math/rand.
	IntN func(n int) int
}

// Handlers owns the command implementations.
type Handlers struct {
	adapter    platform.Adapter
	leveling   *leveling.Store
	economy    *economy.Ledger
	moderation *moderation.Ledger
	tickets    *ticket.Manager
	settings   *guild.Settings
	clock      clock.Clock
	config     *config.BotConfig
	logger     *zap.Logger
	intN       func(n int) int
	registry   *command.Registry
}

// New creates the handlers.
func New(deps Deps) *Handlers {
	intN := deps.IntN
	if intN == nil {
		intN = rand.IntN
	}

	return &Handlers{
		adapter:    deps.Adapter,
		leveling:   deps.Leveling,
		economy:    deps.Economy,
		moderation: deps.Moderation,
		tickets:    deps.Tickets,
		settings:   deps.Settings,
		clock:      deps.Clock,
		config:     deps.Config,
		logger:     deps.Logger.Named("handlers"),
		intN:       intN,
	}
}

// Register adds every command to registry. The registry is kept for help.
func (h *Handlers) Register(registry *command.Registry) error {
	h.registry = registry

	return registry.Register(
		// Utility
		&command.Command{Name: "help", Category: command.CategoryUtility, Description: "Show all commands", Usage: "help", Handler: h.help},
		&command.Command{Name: "ping", Category: command.CategoryUtility, Description: "Show bot latency", Usage: "ping", Handler: h.ping},
		&command.Command{Name: "userinfo", Aliases: []string{"user"}, Category: command.CategoryUtility, Description: "Show member information", Usage: "userinfo [@user]", Handler: h.userInfo},
		&command.Command{Name: "avatar", Aliases: []string{"av"}, Category: command.CategoryUtility, Description: "Show a user's avatar", Usage: "avatar [@user]", Handler: h.avatar},
		&command.Command{Name: "poll", Category: command.CategoryUtility, Description: "Start a reaction poll", Usage: "poll <question>", MinArgs: 1, Handler: h.poll},

		// Leveling
		&command.Command{Name: "rank", Aliases: []string{"level"}, Category: command.CategoryLeveling, Description: "Show level and rank", Usage: "rank [@user]", Handler: h.rank},
		&command.Command{Name: "leaderboard", Aliases: []string{"lb"}, Category: command.CategoryLeveling, Description: "Show the top members", Usage: "leaderboard", Handler: h.leaderboard},
		&command.Command{
			Name: "setlevel", Category: command.CategoryLeveling, Description: "Set a member's level", Usage: "setlevel @user <level>",
			Requires: []platform.Capability{platform.CapabilityAdministrator}, MinArgs: 2, Handler: h.setLevel,
		},

		// Economy
		&command.Command{Name: "balance", Aliases: []string{"bal"}, Category: command.CategoryEconomy, Description: "Show wallet and bank", Usage: "balance [@user]", Handler: h.balance},
		&command.Command{Name: "daily", Category: command.CategoryEconomy, Description: "Claim the daily reward", Usage: "daily", Handler: h.claim(economy.ClaimDaily)},
		&command.Command{Name: "weekly", Category: command.CategoryEconomy, Description: "Claim the weekly reward", Usage: "weekly", Handler: h.claim(economy.ClaimWeekly)},
		&command.Command{Name: "work", Category: command.CategoryEconomy, Description: "Work a random job", Usage: "work", Handler: h.work},
		&command.Command{Name: "pay", Category: command.CategoryEconomy, Description: "Send coins to a member", Usage: "pay @user <amount>", MinArgs: 2, Handler: h.pay},
		&command.Command{Name: "deposit", Aliases: []string{"dep"}, Category: command.CategoryEconomy, Description: "Move coins to the bank", Usage: "deposit <amount|all>", MinArgs: 1, Handler: h.deposit},
		&command.Command{Name: "withdraw", Aliases: []string{"with"}, Category: command.CategoryEconomy, Description: "Move coins to the wallet", Usage: "withdraw <amount|all>", MinArgs: 1, Handler: h.withdraw},

		// Moderation
		&command.Command{
			Name: "warn", Category: command.CategoryModeration, Description: "Warn a member", Usage: "warn @user [reason]",
			Requires: []platform.Capability{platform.CapabilityModerateMembers}, MinArgs: 1, Handler: h.warn,
		},
		&command.Command{Name: "warnings", Aliases: []string{"warns"}, Category: command.CategoryModeration, Description: "List a member's warnings", Usage: "warnings [@user]", Handler: h.warnings},
		&command.Command{
			Name: "clearwarns", Category: command.CategoryModeration, Description: "Clear a member's warnings", Usage: "clearwarns @user",
			Requires: []platform.Capability{platform.CapabilityModerateMembers}, MinArgs: 1, Handler: h.clearWarnings,
		},
		&command.Command{
			Name: "kick", Category: command.CategoryModeration, Description: "Kick a member", Usage: "kick @user [reason]",
			Requires: []platform.Capability{platform.CapabilityKickMembers}, MinArgs: 1, Handler: h.kick,
		},
		&command.Command{
			Name: "mute", Category: command.CategoryModeration, Description: "Time out a member", Usage: "mute @user [duration] [reason]",
			Requires: []platform.Capability{platform.CapabilityModerateMembers}, MinArgs: 1, Handler: h.mute,
		},
		&command.Command{
			Name: "unmute", Category: command.CategoryModeration, Description: "Lift a timeout", Usage: "unmute @user",
			Requires: []platform.Capability{platform.CapabilityModerateMembers}, MinArgs: 1, Handler: h.unmute,
		},
		&command.Command{
			Name: "clear", Aliases: []string{"purge"}, Category: command.CategoryModeration, Description: "Delete recent messages", Usage: "clear <1-100>",
			Requires: []platform.Capability{platform.CapabilityManageMessages}, MinArgs: 1, Handler: h.clear,
		},

		// Admin
		&command.Command{
			Name: "setprefix", Category: command.CategoryAdmin, Description: "Change the command prefix", Usage: "setprefix <prefix>",
			Requires: []platform.Capability{platform.CapabilityAdministrator}, MinArgs: 1, Handler: h.setPrefix,
		},
		&command.Command{Name: "admincheck", Aliases: []string{"checkadmin"}, Category: command.CategoryAdmin, Description: "Show a member's staff permissions", Usage: "admincheck [@user]", Handler: h.adminCheck},
		&command.Command{
			Name: "reactionrole", Aliases: []string{"rr"}, Category: command.CategoryAdmin, Description: "Bind a reaction to a role", Usage: "reactionrole <messageID> <emoji> @role",
			Requires: []platform.Capability{platform.CapabilityAdministrator}, MinArgs: 3, Handler: h.reactionRole,
		},
		&command.Command{
			Name: "addcmd", Category: command.CategoryAdmin, Description: "Add a custom command", Usage: "addcmd <trigger> <response>",
			Requires: []platform.Capability{platform.CapabilityAdministrator}, MinArgs: 2, Handler: h.addCommand,
		},
		&command.Command{
			Name: "delcmd", Category: command.CategoryAdmin, Description: "Delete a custom command", Usage: "delcmd <trigger>",
			Requires: []platform.Capability{platform.CapabilityAdministrator}, MinArgs: 1, Handler: h.deleteCommand,
		},
		&command.Command{Name: "serverinfo", Aliases: []string{"server"}, Category: command.CategoryAdmin, Description: "Show server information", Usage: "serverinfo", Handler: h.serverInfo},
		&command.Command{Name: "roleinfo", Category: command.CategoryAdmin, Description: "Show role information", Usage: "roleinfo <@role|id|name>", MinArgs: 1, Handler: h.roleInfo},
		&command.Command{
			Name: "say", Category: command.CategoryAdmin, Description: "Repeat a message as the bot", Usage: "say <text>",
			Requires: []platform.Capability{platform.CapabilityManageMessages}, MinArgs: 1, Handler: h.say,
		},

		// Tickets
		&command.Command{Name: "ticket", Category: command.CategoryTickets, Description: "Open a support ticket", Usage: "ticket [reason]", Handler: h.openTicket},
		&command.Command{Name: "close", Category: command.CategoryTickets, Description: "Close this ticket", Usage: "close", Handler: h.closeTicket},

		// Fun
		&command.Command{Name: "8ball", Category: command.CategoryFun, Description: "Ask the magic 8ball", Usage: "8ball <question>", MinArgs: 1, Handler: h.eightBall},
		&command.Command{Name: "coinflip", Category: command.CategoryFun, Description: "Flip a coin", Usage: "coinflip", Handler: h.coinFlip},
		&command.Command{Name: "roll", Category: command.CategoryFun, Description: "Roll a die", Usage: "roll [sides]", Handler: h.roll},
	)
}

// target resolves the member a command acts on: the first user mention, or
// the first argument as a mention or ID. With fallback the author is used
// when neither is present.
func target(c *command.Context, fallback bool) (snowflake.ID, error) {
	if len(c.MentionedUsers) > 0 {
		return c.MentionedUsers[0], nil
	}

	if len(c.Args) > 0 {
		if id, ok := utils.ParseUserMention(c.Args[0]); ok {
			return id, nil
		}
	}

	if fallback {
		return c.Author.ID, nil
	}

	return 0, ErrNoTarget
}

// user fetches a user, degrading to a placeholder when the platform cannot find it.
func (h *Handlers) user(ctx context.Context, userID snowflake.ID) platform.User {
	user, err := h.adapter.FetchUser(ctx, userID)
	if err != nil {
		h.logger.Debug("Failed to fetch user", zap.Uint64("userID", uint64(userID)), zap.Error(err))
		return platform.User{ID: userID, Username: constants.UnknownUser}
	}

	return user
}

// deleteLater removes a message after delay. The deletion runs detached from
// the command context since the command has returned by then.
func (h *Handlers) deleteLater(channelID, messageID snowflake.ID, delay time.Duration) {
	h.clock.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.PlatformCallTimeout)
		defer cancel()

		if err := h.adapter.DeleteMessage(ctx, channelID, messageID); err != nil {
			h.logger.Debug("Failed to delete transient message",
				zap.Uint64("channelID", uint64(channelID)),
				zap.Uint64("messageID", uint64(messageID)),
				zap.Error(err))
		}
	})
}

// SendNotice posts content and deletes it after the notice lifetime.
func (h *Handlers) SendNotice(ctx context.Context, channelID snowflake.ID, content string) error {
	id, err := h.adapter.SendMessage(ctx, channelID, platform.Message{Content: content})
	if err != nil {
		return fmt.Errorf("failed to send notice: %w", err)
	}

	h.deleteLater(channelID, id, constants.NoticeLifetime)

	return nil
}

// LogModeration posts embed to the guild's moderation log channel if it exists.
func (h *Handlers) LogModeration(ctx context.Context, guildID snowflake.ID, embed platform.Embed) {
	if h.config.Moderation.LogChannel == "" {
		return
	}

	channelID, ok, err := h.adapter.FindChannelByName(ctx, guildID, h.config.Moderation.LogChannel)
	if err != nil {
		h.logger.Warn("Failed to find moderation log channel", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		return
	}
	if !ok {
		return
	}

	if _, err := h.adapter.SendMessage(ctx, channelID, platform.Message{Embeds: []platform.Embed{embed}}); err != nil {
		h.logger.Warn("Failed to send moderation log", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
	}
}
