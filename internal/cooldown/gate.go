// Package cooldown limits how often a member can earn XP.
package cooldown

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robalyx/keeper/internal/clock"
	"go.uber.org/zap"
)

// DefaultCooldown is the minimum time between two XP grants for one member.
const DefaultCooldown = 60 * time.Second

// DefaultMaxEntries caps the number of tracked members.
const DefaultMaxEntries = 100_000

// Gate remembers the last grant per key. Entries only matter while their
// cooldown is running, so expired ones are swept away to bound memory.
type Gate struct {
	last       map[string]time.Time
	cooldown   time.Duration
	maxEntries int
	logger     *zap.Logger
	mu         sync.Mutex
}

// New creates a Gate. Non-positive arguments fall back to the defaults.
func New(cooldown time.Duration, maxEntries int, logger *zap.Logger) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &Gate{
		last:       make(map[string]time.Time),
		cooldown:   cooldown,
		maxEntries: maxEntries,
		logger:     logger.Named("cooldown"),
	}
}

// TryConsume reports whether key may be granted at now, and if so records now
// as its latest grant. The first call for a key always succeeds.
func (g *Gate) TryConsume(key string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[key]; ok && now.Before(last.Add(g.cooldown)) {
		return false
	}

	if _, ok := g.last[key]; !ok && len(g.last) >= g.maxEntries {
		g.sweepLocked(now)
		g.evictLocked()
	}

	g.last[key] = now

	return true
}

// Len returns the number of tracked keys.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.last)
}

// Sweep drops keys whose cooldown has elapsed at now and returns how many were removed.
// Removing them does not change any TryConsume outcome.
func (g *Gate) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sweepLocked(now)
}

// Run sweeps every interval until ctx is done.
func (g *Gate) Run(ctx context.Context, clk clock.Clock, interval time.Duration) error {
	ticks, stop := clk.Tick(interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticks:
			if removed := g.Sweep(now); removed > 0 {
				g.logger.Debug("Swept cooldown entries", zap.Int("removed", removed))
			}
		}
	}
}

func (g *Gate) sweepLocked(now time.Time) int {
	removed := 0

	for key, last := range g.last {
		if !now.Before(last.Add(g.cooldown)) {
			delete(g.last, key)
			removed++
		}
	}

	return removed
}

// evictLocked makes room for one new key by dropping the oldest grants.
// An evicted member may earn XP before their cooldown would have ended.
func (g *Gate) evictLocked() {
	excess := len(g.last) - g.maxEntries + 1
	if excess <= 0 {
		return
	}

	type entry struct {
		key  string
		last time.Time
	}

	entries := make([]entry, 0, len(g.last))
	for key, last := range g.last {
		entries = append(entries, entry{key: key, last: last})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].last.Before(entries[j].last) })

	for _, e := range entries[:excess] {
		delete(g.last, e.key)
	}

	g.logger.Warn("Cooldown gate full, evicted oldest entries", zap.Int("evicted", excess))
}
