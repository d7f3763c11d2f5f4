// Package automod decides whether an incoming message breaks the guild's
// automatic moderation rules.
package automod

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Rule names the check that produced a violation.
type Rule string

const (
	RuleNone     Rule = ""
	RuleSpam     Rule = "spam"
	RuleBadWord  Rule = "bad_word"
	RuleInvite   Rule = "invite"
	RuleLink     Rule = "link"
	RuleMentions Rule = "mentions"
)

var (
	linkPattern    = regexp.MustCompile(`https?://\S+`)
	invitePatterns = []string{"discord.gg/", "discord.com/invite/"}
)

// CapabilityChecker reports whether a member holds a capability.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, guildID, userID snowflake.ID, capability platform.Capability) (bool, error)
}

// Message is the part of an incoming message the rules look at.
type Message struct {
	GuildID        snowflake.ID
	ChannelID      snowflake.ID
	AuthorID       snowflake.ID
	Content        string
	MentionedUsers []snowflake.ID
	MentionedRoles []snowflake.ID
}

// Verdict is the outcome of an evaluation.
type Verdict struct {
	Violation bool
	Rule      Rule
	Reason    string
}

func violation(rule Rule, reason string) Verdict {
	return Verdict{Violation: true, Rule: rule, Reason: reason}
}

// Evaluator applies a policy to messages. The spam rule keeps per-user state
// in its Window; all other rules are stateless.
type Evaluator struct {
	checker CapabilityChecker
	window  *Window
	clock   clock.Clock
	logger  *zap.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(checker CapabilityChecker, window *Window, clk clock.Clock, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		checker: checker,
		window:  window,
		clock:   clk,
		logger:  logger.Named("automod"),
	}
}

// Evaluate runs the rules in order and returns the first violation. Messages
// are exempt when the policy is disabled or the author is an administrator.
// An error from the capability check is returned with an empty verdict.
func (e *Evaluator) Evaluate(ctx context.Context, msg Message, policy types.AutoModPolicy) (Verdict, error) {
	if !policy.Enabled {
		return Verdict{}, nil
	}

	admin, err := e.checker.HasCapability(ctx, msg.GuildID, msg.AuthorID, platform.CapabilityAdministrator)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to check author capability: %w", err)
	}
	if admin {
		return Verdict{}, nil
	}

	if policy.AntiSpam {
		count := e.window.Record(msg.AuthorID, e.clock.Now(), TimeWindow(policy))
		if count > policy.MaxMessages {
			return violation(RuleSpam, "spam detected"), nil
		}
	}

	content := cases.Fold().String(msg.Content)

	for _, word := range policy.BadWords {
		if word != "" && strings.Contains(content, cases.Fold().String(word)) {
			return violation(RuleBadWord, "banned word: "+word), nil
		}
	}

	if policy.AntiInvite {
		for _, pattern := range invitePatterns {
			if strings.Contains(content, pattern) {
				return violation(RuleInvite, "invite link detected"), nil
			}
		}
	}

	if policy.AntiLink {
		if links := linkPattern.FindAllString(content, -1); len(links) > 0 && !allWhitelisted(links, policy.WhitelistedLinks) {
			return violation(RuleLink, "external link not allowed"), nil
		}
	}

	if mentions := countDistinct(msg.MentionedUsers) + countDistinct(msg.MentionedRoles); mentions > policy.MaxMentions {
		return violation(RuleMentions, fmt.Sprintf("too many mentions (%d)", mentions)), nil
	}

	return Verdict{}, nil
}

// allWhitelisted reports whether every link's host contains a whitelisted domain.
func allWhitelisted(links, domains []string) bool {
	for _, link := range links {
		host := link
		if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
			host = u.Hostname()
		}

		allowed := false
		for _, domain := range domains {
			if domain != "" && strings.Contains(host, strings.ToLower(domain)) {
				allowed = true
				break
			}
		}

		if !allowed {
			return false
		}
	}

	return true
}

func countDistinct(ids []snowflake.ID) int {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	return len(seen)
}
