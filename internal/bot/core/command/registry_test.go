package command_test

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		prefix   string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{name: "simple", content: "!ping", prefix: "!", wantName: "ping", wantArgs: []string{}, wantOK: true},
		{name: "arguments", content: "!warn <@1>  being   rude", prefix: "!", wantName: "warn", wantArgs: []string{"<@1>", "being", "rude"}, wantOK: true},
		{name: "upper case name", content: "!PING", prefix: "!", wantName: "ping", wantArgs: []string{}, wantOK: true},
		{name: "multi character prefix", content: "k!rank", prefix: "k!", wantName: "rank", wantArgs: []string{}, wantOK: true},
		{name: "space after prefix", content: "! ping", prefix: "!", wantName: "ping", wantArgs: []string{}, wantOK: true},
		{name: "no prefix", content: "ping", prefix: "!", wantOK: false},
		{name: "prefix only", content: "!", prefix: "!", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name, args, ok := command.Parse(tt.content, tt.prefix)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, name)
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func newRegistry(t *testing.T, calls *int) *command.Registry {
	t.Helper()

	registry := command.NewRegistry()
	require.NoError(t, registry.Register(
		&command.Command{
			Name:    "rank",
			Aliases: []string{"level"},
			Handler: func(*command.Context) error { *calls++; return nil },
		},
		&command.Command{
			Name:     "kick",
			Usage:    "kick @user [reason]",
			Requires: []platform.Capability{platform.CapabilityKickMembers},
			MinArgs:  1,
			Handler:  func(*command.Context) error { *calls++; return nil },
		},
	))

	return registry
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	var calls int
	registry := newRegistry(t, &calls)

	err := registry.Register(&command.Command{Name: "LEVEL"})
	require.ErrorIs(t, err, command.ErrDuplicateCommand)

	_, ok := registry.Lookup("Level")
	assert.True(t, ok)
	assert.Len(t, registry.Commands(), 2)
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	fake := platform.NewFake()
	fake.Grant(2, platform.CapabilityKickMembers)
	fake.Grant(3, platform.CapabilityAdministrator)

	tests := []struct {
		name      string
		cmd       string
		author    snowflake.ID
		args      []string
		wantCalls int
		check     func(t *testing.T, err error)
	}{
		{
			name: "alias", cmd: "level", author: 1, wantCalls: 1,
			check: func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			name: "unknown", cmd: "dance", author: 1,
			check: func(t *testing.T, err error) { require.ErrorIs(t, err, command.ErrUnknownCommand) },
		},
		{
			name: "missing capability", cmd: "kick", author: 1, args: []string{"<@5>"},
			check: func(t *testing.T, err error) {
				var denied *command.DeniedError
				require.ErrorAs(t, err, &denied)
				assert.Equal(t, platform.CapabilityKickMembers, denied.Capability)
			},
		},
		{
			name: "missing arguments", cmd: "kick", author: 2,
			check: func(t *testing.T, err error) {
				var usage *command.UsageError
				require.ErrorAs(t, err, &usage)
				assert.Equal(t, "kick @user [reason]", usage.Usage)
			},
		},
		{
			name: "granted", cmd: "kick", author: 2, args: []string{"<@5>"}, wantCalls: 1,
			check: func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			name: "administrator", cmd: "kick", author: 3, args: []string{"<@5>"}, wantCalls: 1,
			check: func(t *testing.T, err error) { require.NoError(t, err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls int
			registry := newRegistry(t, &calls)

			err := registry.Dispatch(&command.Context{
				Context: context.Background(),
				Adapter: fake,
				GuildID: 10,
				Author:  platform.User{ID: tt.author},
				Name:    tt.cmd,
				Args:    tt.args,
			})
			tt.check(t, err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestContextRest(t *testing.T) {
	t.Parallel()

	c := &command.Context{Args: []string{"<@1>", "spamming", "links"}}
	assert.Equal(t, "spamming links", c.Rest(1))
	assert.Empty(t, c.Rest(3))
}
