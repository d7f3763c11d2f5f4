// Package bot connects the Discord gateway to the keeper services.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/robalyx/keeper/internal/automod"
	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	botEvents "github.com/robalyx/keeper/internal/bot/events"
	"github.com/robalyx/keeper/internal/bot/handlers"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/cooldown"
	"github.com/robalyx/keeper/internal/economy"
	"github.com/robalyx/keeper/internal/guild"
	"github.com/robalyx/keeper/internal/leveling"
	"github.com/robalyx/keeper/internal/moderation"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/setup/config"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/ticket"
)

// Options are the long-lived collaborators the bot is built on.
type Options struct {
	Token  string
	Config *config.BotConfig
	Store  *storage.Store
	Gate   *cooldown.Gate
	Window *automod.Window
	Clock  clock.Clock
	Logger *zap.Logger
}

// Bot owns the gateway client and routes its events.
type Bot struct {
	client bot.Client
	router *botEvents.Router
	logger *zap.Logger
}

// New builds the services, registers the commands and configures the client
// with the intents the message pipeline needs.
func New(opts Options) (*Bot, error) {
	cfg := opts.Config
	logger := opts.Logger.Named("bot")

	overrides, err := cfg.AutoMod.GuildOverrides()
	if err != nil {
		return nil, err
	}

	b := &Bot{logger: logger}

	client, err := disgo.New(opts.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
				gateway.IntentGuildMembers,
				gateway.IntentGuildMessageReactions,
			),
			gateway.WithPresenceOpts(gateway.WithPlayingActivity(cfg.Discord.Activity)),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagRoles, cache.FlagChannels),
		),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnReady:                      b.handleReady,
			OnGuildMessageCreate:         b.handleMessage,
			OnGuildMemberJoin:            b.handleMemberJoin,
			OnGuildMemberLeave:           b.handleMemberLeave,
			OnGuildMessageReactionAdd:    b.handleReactionAdd,
			OnGuildMessageReactionRemove: b.handleReactionRemove,
			OnComponentInteraction:       b.handleComponentInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	adapter := platform.NewDisgo(client, opts.Logger)

	levels := leveling.NewStore(opts.Store, opts.Gate, opts.Clock, opts.Logger,
		leveling.WithXPRange(cfg.Leveling.MinXP, cfg.Leveling.MaxXP))
	ledger := economy.NewLedger(opts.Store, opts.Clock, opts.Logger,
		economy.WithReward(economy.ClaimDaily, economy.Reward{
			Cooldown: config.Hours(cfg.Economy.DailyHours),
			Amount:   cfg.Economy.DailyReward,
		}),
		economy.WithReward(economy.ClaimWeekly, economy.Reward{
			Cooldown: config.Hours(cfg.Economy.WeeklyHours),
			Amount:   cfg.Economy.WeeklyReward,
		}))
	settings := guild.NewSettings(opts.Store, cfg.Discord.Prefix)

	h := handlers.New(handlers.Deps{
		Adapter:    adapter,
		Leveling:   levels,
		Economy:    ledger,
		Moderation: moderation.NewLedger(opts.Store, opts.Clock, opts.Logger),
		Tickets:    ticket.NewManager(opts.Store, opts.Clock, opts.Logger),
		Settings:   settings,
		Clock:      opts.Clock,
		Config:     cfg,
		Logger:     opts.Logger,
	})

	registry := command.NewRegistry()
	if err := h.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	b.client = client
	b.router = botEvents.NewRouter(botEvents.Deps{
		Adapter:   adapter,
		Registry:  registry,
		Handlers:  h,
		Evaluator: automod.NewEvaluator(adapter, opts.Window, opts.Clock, opts.Logger),
		Policies:  automod.NewPolicies(opts.Store, cfg.AutoMod.AutoModPolicy, overrides),
		Leveling:  levels,
		Settings:  settings,
		Config:    cfg,
		Logger:    opts.Logger,
	})

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")
	return b.client.OpenGateway(ctx)
}

// Close shuts down the gateway connection.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
}

func (b *Bot) handleReady(event *events.Ready) {
	b.logger.Info("Bot is ready",
		zap.String("user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

// handleMessage runs the message pipeline in its own goroutine so that slow
// platform calls do not hold up the gateway.
func (b *Bot) handleMessage(event *events.GuildMessageCreate) {
	msg := event.Message

	mentions := make([]snowflake.ID, 0, len(msg.Mentions))
	for _, user := range msg.Mentions {
		mentions = append(mentions, user.ID)
	}

	b.run("message", func(ctx context.Context) {
		b.router.OnMessage(ctx, botEvents.Message{
			ID:             msg.ID,
			GuildID:        event.GuildID,
			ChannelID:      msg.ChannelID,
			Author:         platform.FromUser(msg.Author),
			Content:        msg.Content,
			MentionedUsers: mentions,
			MentionedRoles: msg.MentionRoles,
		})
	})
}

func (b *Bot) handleMemberJoin(event *events.GuildMemberJoin) {
	member := platform.FromMember(event.Member)
	member.GuildID = event.GuildID

	b.run("member_join", func(ctx context.Context) {
		b.router.OnMemberJoin(ctx, member)
	})
}

func (b *Bot) handleMemberLeave(event *events.GuildMemberLeave) {
	user := platform.FromUser(event.User)

	b.run("member_leave", func(ctx context.Context) {
		b.router.OnMemberLeave(ctx, event.GuildID, user)
	})
}

func (b *Bot) handleReactionAdd(event *events.GuildMessageReactionAdd) {
	reaction := botEvents.Reaction{
		GuildID:   event.GuildID,
		MessageID: event.MessageID,
		UserID:    event.UserID,
		Emoji:     emojiString(event.Emoji),
		Bot:       event.Member.User.Bot,
	}

	b.run("reaction_add", func(ctx context.Context) {
		b.router.OnReactionAdd(ctx, reaction)
	})
}

func (b *Bot) handleReactionRemove(event *events.GuildMessageReactionRemove) {
	reaction := botEvents.Reaction{
		GuildID:   event.GuildID,
		MessageID: event.MessageID,
		UserID:    event.UserID,
		Emoji:     emojiString(event.Emoji),
	}
	if member, ok := event.Client().Caches().Member(event.GuildID, event.UserID); ok {
		reaction.Bot = member.User.Bot
	}

	b.run("reaction_remove", func(ctx context.Context) {
		b.router.OnReactionRemove(ctx, reaction)
	})
}

// handleComponentInteraction answers button clicks with an ephemeral message.
func (b *Bot) handleComponentInteraction(event *events.ComponentInteractionCreate) {
	customID := event.Data.CustomID()
	channelID := event.Message.ChannelID
	user := platform.FromUser(event.User())

	b.run("component", func(ctx context.Context) {
		reply, ok := b.router.OnButton(ctx, customID, channelID, user)
		if !ok {
			return
		}

		err := event.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent(reply).
			SetEphemeral(true).
			Build())
		if err != nil {
			b.logger.Error("Failed to respond to interaction", zap.String("customID", customID), zap.Error(err))
		}
	})
}

// run executes fn in a goroutine with a bounded context, recovering and
// logging panics.
func (b *Bot) run(kind string, fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*constants.PlatformCallTimeout)
		defer cancel()

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in event handler", zap.String("event", kind), zap.Any("panic", r))
			}
			b.logger.Debug("Event handled",
				zap.String("event", kind),
				zap.Duration("duration", time.Since(start)))
		}()

		fn(ctx)
	}()
}

// emojiString renders an emoji the way members type it in a command.
func emojiString(emoji discord.PartialEmoji) string {
	name := ""
	if emoji.Name != nil {
		name = *emoji.Name
	}

	if emoji.ID == nil {
		return name
	}

	prefix := "<:"
	if emoji.Animated {
		prefix = "<a:"
	}

	return prefix + name + ":" + emoji.ID.String() + ">"
}
