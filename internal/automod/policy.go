package automod

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
)

// Policies resolves the policy that applies to a guild. A policy stored in the
// document replaces the configured default; per-guild overrides win over both.
type Policies struct {
	store     *storage.Store
	fallback  types.AutoModPolicy
	overrides map[snowflake.ID]types.AutoModPolicy
}

// NewPolicies creates a resolver. store may be nil.
func NewPolicies(
	store *storage.Store, fallback types.AutoModPolicy, overrides map[snowflake.ID]types.AutoModPolicy,
) *Policies {
	return &Policies{
		store:     store,
		fallback:  fallback,
		overrides: overrides,
	}
}

// For returns the policy of the guild.
func (p *Policies) For(guildID snowflake.ID) types.AutoModPolicy {
	if policy, ok := p.overrides[guildID]; ok {
		return policy
	}

	policy := p.fallback
	if p.store != nil {
		p.store.View(func(doc *types.Document) {
			if doc.AutoMod != nil {
				policy = *doc.AutoMod
			}
		})
	}

	return policy
}

// MaxWindow returns the longest spam window among all known policies.
func (p *Policies) MaxWindow() time.Duration {
	longest := TimeWindow(p.For(0))
	for _, policy := range p.overrides {
		longest = max(longest, TimeWindow(policy))
	}

	return longest
}

// TimeWindow converts the policy's window to a duration.
func TimeWindow(policy types.AutoModPolicy) time.Duration {
	return time.Duration(policy.TimeWindowMS) * time.Millisecond
}
