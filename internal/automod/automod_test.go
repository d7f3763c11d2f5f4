package automod_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/automod"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	guildID  snowflake.ID = 1
	authorID snowflake.ID = 2
	adminID  snowflake.ID = 3
)

type failingChecker struct{}

func (failingChecker) HasCapability(context.Context, snowflake.ID, snowflake.ID, platform.Capability) (bool, error) {
	return false, errors.New("gateway down")
}

func newEvaluator(t *testing.T) (*automod.Evaluator, *clock.Fake, *automod.Window) {
	t.Helper()

	fake := platform.NewFake()
	fake.Grant(adminID, platform.CapabilityAdministrator)

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	window := automod.NewWindow(5*time.Second, zap.NewNop())

	return automod.NewEvaluator(fake, window, clk, zap.NewNop()), clk, window
}

func quietPolicy() types.AutoModPolicy {
	policy := types.DefaultAutoModPolicy()
	policy.AntiSpam = false
	return policy
}

func TestEvaluateRules(t *testing.T) {
	t.Parallel()

	withLinks := quietPolicy()
	withLinks.AntiLink = true

	disabled := types.DefaultAutoModPolicy()
	disabled.Enabled = false

	mentions := func(n int) []snowflake.ID {
		ids := make([]snowflake.ID, n)
		for i := range ids {
			ids[i] = snowflake.ID(100 + i)
		}
		return ids
	}

	tests := []struct {
		name   string
		policy types.AutoModPolicy
		msg    automod.Message
		rule   automod.Rule
		reason string
	}{
		{
			name:   "clean message",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "hello there"},
		},
		{
			name:   "banned word in any case",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "that was ToXiC"},
			rule:   automod.RuleBadWord,
			reason: "banned word: toxic",
		},
		{
			name:   "invite link",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "join https://discord.com/invite/abc"},
			rule:   automod.RuleInvite,
			reason: "invite link detected",
		},
		{
			name:   "links ignored when anti-link is off",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "see https://example.com"},
		},
		{
			name:   "whitelisted link",
			policy: withLinks,
			msg:    automod.Message{Content: "watch https://www.youtube.com/watch?v=1"},
		},
		{
			name:   "external link",
			policy: withLinks,
			msg:    automod.Message{Content: "see https://example.com/page"},
			rule:   automod.RuleLink,
			reason: "external link not allowed",
		},
		{
			name:   "one external among whitelisted",
			policy: withLinks,
			msg:    automod.Message{Content: "https://github.com/x and http://evil.test"},
			rule:   automod.RuleLink,
			reason: "external link not allowed",
		},
		{
			name:   "whitelist matched against host only",
			policy: withLinks,
			msg:    automod.Message{Content: "https://evil.test/?r=youtube.com"},
			rule:   automod.RuleLink,
			reason: "external link not allowed",
		},
		{
			name:   "too many mentions",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "hi", MentionedUsers: mentions(4), MentionedRoles: mentions(2)},
			rule:   automod.RuleMentions,
			reason: "too many mentions (6)",
		},
		{
			name:   "mentions at the limit",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "hi", MentionedUsers: mentions(5)},
		},
		{
			name:   "repeated mentions count once",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "hi", MentionedUsers: []snowflake.ID{7, 7, 7, 7, 7, 7}},
		},
		{
			name:   "disabled policy",
			policy: disabled,
			msg:    automod.Message{Content: "toxic"},
		},
		{
			name:   "banned word checked before invite",
			policy: quietPolicy(),
			msg:    automod.Message{Content: "hate discord.gg/x"},
			rule:   automod.RuleBadWord,
			reason: "banned word: hate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			evaluator, _, _ := newEvaluator(t)

			msg := tt.msg
			msg.GuildID = guildID
			msg.AuthorID = authorID

			verdict, err := evaluator.Evaluate(context.Background(), msg, tt.policy)
			require.NoError(t, err)

			assert.Equal(t, tt.rule != automod.RuleNone, verdict.Violation)
			assert.Equal(t, tt.rule, verdict.Rule)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestAdministratorsAreExempt(t *testing.T) {
	t.Parallel()

	evaluator, _, _ := newEvaluator(t)

	verdict, err := evaluator.Evaluate(context.Background(), automod.Message{
		GuildID:  guildID,
		AuthorID: adminID,
		Content:  "toxic discord.gg/abc",
	}, types.DefaultAutoModPolicy())
	require.NoError(t, err)
	assert.False(t, verdict.Violation)
}

func TestSpamDetection(t *testing.T) {
	t.Parallel()

	evaluator, clk, window := newEvaluator(t)
	policy := types.DefaultAutoModPolicy()
	msg := automod.Message{GuildID: guildID, AuthorID: authorID, Content: "hey"}

	for i := range 5 {
		verdict, err := evaluator.Evaluate(context.Background(), msg, policy)
		require.NoError(t, err)
		require.False(t, verdict.Violation, "message %d", i+1)
		clk.Advance(500 * time.Millisecond)
	}

	verdict, err := evaluator.Evaluate(context.Background(), msg, policy)
	require.NoError(t, err)
	assert.Equal(t, automod.RuleSpam, verdict.Rule)
	assert.Equal(t, "spam detected", verdict.Reason)

	// Once the window passes, the user starts fresh.
	clk.Advance(5 * time.Second)
	verdict, err = evaluator.Evaluate(context.Background(), msg, policy)
	require.NoError(t, err)
	assert.False(t, verdict.Violation)

	assert.Equal(t, 1, window.Len())
}

func TestCapabilityErrorIsReturned(t *testing.T) {
	t.Parallel()

	evaluator := automod.NewEvaluator(failingChecker{}, automod.NewWindow(time.Second, zap.NewNop()),
		clock.NewFake(time.Unix(0, 0)), zap.NewNop())

	_, err := evaluator.Evaluate(context.Background(), automod.Message{Content: "toxic"}, types.DefaultAutoModPolicy())
	require.Error(t, err)
}

func TestWindowSweep(t *testing.T) {
	t.Parallel()

	window := automod.NewWindow(5*time.Second, zap.NewNop())
	start := time.Unix(0, 0)

	window.Record(1, start, 5*time.Second)
	window.Record(2, start.Add(3*time.Second), 5*time.Second)

	assert.Equal(t, 1, window.Sweep(start.Add(5*time.Second)))
	assert.Equal(t, 1, window.Len())
	assert.Equal(t, 2, window.Record(2, start.Add(6*time.Second), 5*time.Second))
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory(filepath.Join(t.TempDir(), "database.json"), zap.NewNop())

	fallback := types.DefaultAutoModPolicy()
	override := types.DefaultAutoModPolicy()
	override.MaxMentions = 1
	override.TimeWindowMS = 60_000

	policies := automod.NewPolicies(store, fallback, map[snowflake.ID]types.AutoModPolicy{9: override})

	assert.Equal(t, 5, policies.For(1).MaxMentions)
	assert.Equal(t, 1, policies.For(9).MaxMentions)
	assert.Equal(t, time.Minute, policies.MaxWindow())

	stored := types.DefaultAutoModPolicy()
	stored.MaxMentions = 3
	require.NoError(t, store.Update(func(doc *types.Document) error {
		doc.AutoMod = &stored
		return nil
	}))

	assert.Equal(t, 3, policies.For(1).MaxMentions, "document policy replaces the default")
	assert.Equal(t, 1, policies.For(9).MaxMentions)
}
