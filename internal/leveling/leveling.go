// Package leveling tracks member XP and levels per guild.
package leveling

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/cooldown"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
)

const (
	// DefaultMinXP is the smallest XP grant per qualifying message.
	DefaultMinXP = 15
	// DefaultMaxXP is the largest XP grant per qualifying message.
	DefaultMaxXP = 25
)

// ErrInvalidLevel is returned when a level below 1 is requested.
var ErrInvalidLevel = errors.New("level must be at least 1")

// XPNeeded returns the XP required to advance from level to level+1.
func XPNeeded(level uint64) uint64 {
	return 5*level*level + 50*level + 100
}

// Entry is one line of a guild leaderboard.
type Entry struct {
	UserID snowflake.ID
	types.ProgressionRecord
}

// Store grants XP and answers progression queries.
type Store struct {
	store  *storage.Store
	gate   *cooldown.Gate
	clock  clock.Clock
	logger *zap.Logger
	minXP  int
	maxXP  int
	intN   func(n int) int
}

// Option customizes a Store.
type Option func(*Store)

// WithXPRange sets the inclusive range of XP granted per message.
func WithXPRange(minXP, maxXP int) Option {
	return func(s *Store) {
		if minXP > 0 && maxXP >= minXP {
			s.minXP = minXP
			s.maxXP = maxXP
		}
	}
}

// WithRand replaces the random source. intN must return a value in [0, n).
func WithRand(intN func(n int) int) Option {
	return func(s *Store) {
		s.intN = intN
	}
}

// NewStore creates a progression store on top of the document store.
func NewStore(store *storage.Store, gate *cooldown.Gate, clk clock.Clock, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		store:  store,
		gate:   gate,
		clock:  clk,
		logger: logger.Named("leveling"),
		minXP:  DefaultMinXP,
		maxXP:  DefaultMaxXP,
		intN:   rand.IntN,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RegisterActivity grants XP for a message unless the member is on cooldown.
// At most one level is gained per call; leftover XP is kept even when it
// already exceeds the next threshold. The in-memory change is kept when
// persisting fails.
func (s *Store) RegisterActivity(userID, guildID snowflake.ID) (uint64, bool, error) {
	key := types.MemberKey(guildID, userID)

	if !s.gate.TryConsume(key, s.clock.Now()) {
		return 0, false, nil
	}

	gain := uint64(s.minXP + s.intN(s.maxXP-s.minXP+1))

	var (
		newLevel uint64
		leveled  bool
	)

	err := s.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, key)

		record.XP += gain
		record.TotalXP += gain
		record.Messages++

		if needed := XPNeeded(record.Level); record.XP >= needed {
			record.XP -= needed
			record.Level++
			newLevel = record.Level
			leveled = true
		}

		return nil
	})
	if err != nil {
		return newLevel, leveled, err
	}

	if leveled {
		s.logger.Debug("Member leveled up",
			zap.Uint64("guildID", uint64(guildID)),
			zap.Uint64("userID", uint64(userID)),
			zap.Uint64("level", newLevel))
	}

	return newLevel, leveled, nil
}

// GetRecord returns the member's record, or the default record when none exists.
func (s *Store) GetRecord(userID, guildID snowflake.ID) types.ProgressionRecord {
	record := types.NewProgressionRecord()

	s.store.View(func(doc *types.Document) {
		if r, ok := doc.Levels.Get(types.MemberKey(guildID, userID)); ok && r != nil {
			record = *r
		}
	})

	return record
}

// GetLeaderboard returns up to limit members of the guild ordered by total XP.
// Ties keep the order in which members first earned XP.
func (s *Store) GetLeaderboard(guildID snowflake.ID, limit int) []Entry {
	entries := s.guildEntries(guildID)

	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries
}

// Rank returns the member's 1-based leaderboard position, or 0 when the member has no record.
func (s *Store) Rank(userID, guildID snowflake.ID) int {
	for i, entry := range s.guildEntries(guildID) {
		if entry.UserID == userID {
			return i + 1
		}
	}

	return 0
}

// SetLevel overrides a member's level and resets their in-level XP.
func (s *Store) SetLevel(userID, guildID snowflake.ID, level uint64) (types.ProgressionRecord, error) {
	if level < 1 {
		return types.ProgressionRecord{}, ErrInvalidLevel
	}

	var result types.ProgressionRecord

	err := s.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, types.MemberKey(guildID, userID))
		record.Level = level
		record.XP = 0
		result = *record

		return nil
	})

	return result, err
}

// RewardRole returns the name of the role granted on reaching level.
func (s *Store) RewardRole(level uint64) (string, bool) {
	var (
		name string
		ok   bool
	)

	s.store.View(func(doc *types.Document) {
		name, ok = doc.LevelRoles[strconv.FormatUint(level, 10)]
	})

	return name, ok
}

func (s *Store) guildEntries(guildID snowflake.ID) []Entry {
	var entries []Entry

	s.store.View(func(doc *types.Document) {
		doc.Levels.Each(func(key string, record *types.ProgressionRecord) bool {
			keyGuild, userID, err := types.ParseMemberKey(key)
			if err != nil || keyGuild != guildID || record == nil {
				return true
			}

			entries = append(entries, Entry{UserID: userID, ProgressionRecord: *record})

			return true
		})
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalXP > entries[j].TotalXP
	})

	return entries
}

// recordFor returns the member's record, creating it when absent.
func recordFor(doc *types.Document, key string) *types.ProgressionRecord {
	if record, ok := doc.Levels.Get(key); ok && record != nil {
		return record
	}

	record := types.NewProgressionRecord()
	doc.Levels.Set(key, &record)

	return &record
}
