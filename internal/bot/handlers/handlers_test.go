package handlers_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/core/command"
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
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testGuild   snowflake.ID = 10
	testChannel snowflake.ID = 20
	moderator   snowflake.ID = 30
	member      snowflake.ID = 40
)

type harness struct {
	handlers *handlers.Handlers
	registry *command.Registry
	fake     *platform.Fake
	clock    *clock.Fake
	store    *storage.Store
	config   *config.BotConfig
	economy  *economy.Ledger
	leveling *leveling.Store
	warns    *moderation.Ledger
	tickets  *ticket.Manager
	settings *guild.Settings
	nextID   snowflake.ID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default().Bot
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	store := storage.NewMemory(filepath.Join(t.TempDir(), "database.json"), zap.NewNop())
	fake := platform.NewFake()
	fake.AddUser(platform.User{ID: moderator, Username: "mod"})
	fake.AddUser(platform.User{ID: member, Username: "alice"})
	fake.AddChannel(testGuild, cfg.Moderation.LogChannel)

	first := func(int) int { return 0 }

	h := &harness{
		fake:     fake,
		clock:    clk,
		store:    store,
		config:   &cfg,
		economy:  economy.NewLedger(store, clk, zap.NewNop(), economy.WithRand(first)),
		leveling: leveling.NewStore(store, cooldown.New(time.Minute, 0, zap.NewNop()), clk, zap.NewNop()),
		warns:    moderation.NewLedger(store, clk, zap.NewNop()),
		tickets:  ticket.NewManager(store, clk, zap.NewNop()),
		settings: guild.NewSettings(store, cfg.Discord.Prefix),
		registry: command.NewRegistry(),
		nextID:   5_000,
	}

	h.handlers = handlers.New(handlers.Deps{
		Adapter:    fake,
		Leveling:   h.leveling,
		Economy:    h.economy,
		Moderation: h.warns,
		Tickets:    h.tickets,
		Settings:   h.settings,
		Clock:      clk,
		Config:     h.config,
		Logger:     zap.NewNop(),
		IntN:       first,
	})
	require.NoError(t, h.handlers.Register(h.registry))

	return h
}

// run dispatches content as if author typed it in the test channel and
// returns the messages it produced.
func (h *harness) run(t *testing.T, author snowflake.ID, content string, mentions ...snowflake.ID) ([]platform.SentMessage, error) {
	t.Helper()

	name, args, ok := command.Parse(content, "!")
	require.True(t, ok, "content must start with the prefix")

	before := len(h.fake.Sent())
	h.nextID++

	err := h.registry.Dispatch(&command.Context{
		Context:        context.Background(),
		Adapter:        h.fake,
		GuildID:        testGuild,
		ChannelID:      testChannel,
		MessageID:      h.nextID,
		Author:         platform.User{ID: author, Username: "author"},
		Prefix:         "!",
		Name:           name,
		Args:           args,
		MentionedUsers: mentions,
	})

	return h.fake.Sent()[before:], err
}

// last returns the final message of a run, failing when there is none.
func last(t *testing.T, sent []platform.SentMessage) platform.SentMessage {
	t.Helper()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func mention(id snowflake.ID) string {
	return "<@" + id.String() + ">"
}
