// Package moderation keeps the per-member warning history.
package moderation

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
)

// DefaultReason is used when a moderator gives no reason.
const DefaultReason = "No reason provided"

// Ledger records warnings against members.
type Ledger struct {
	store  *storage.Store
	clock  clock.Clock
	logger *zap.Logger
}

// NewLedger creates a moderation ledger on top of the document store.
func NewLedger(store *storage.Store, clk clock.Clock, logger *zap.Logger) *Ledger {
	return &Ledger{
		store:  store,
		clock:  clk,
		logger: logger.Named("moderation"),
	}
}

// AddWarning appends a warning and returns the member's new warning count.
// Warning IDs are millisecond timestamps, bumped when needed so they stay
// unique and increasing for the member.
func (l *Ledger) AddWarning(
	userID, guildID, moderatorID snowflake.ID, reason string,
) (int, types.Warning, error) {
	if reason == "" {
		reason = DefaultReason
	}

	now := l.clock.Now()
	key := types.MemberKey(guildID, userID)

	var (
		count   int
		warning types.Warning
	)

	err := l.store.Update(func(doc *types.Document) error {
		warnings := doc.Warnings[key]

		id := now.UnixMilli()
		if n := len(warnings); n > 0 && warnings[n-1].ID >= id {
			id = warnings[n-1].ID + 1
		}

		warning = types.Warning{
			ID:          id,
			ModeratorID: moderatorID,
			Reason:      reason,
			Timestamp:   now,
		}

		doc.Warnings[key] = append(warnings, warning)
		count = len(doc.Warnings[key])

		return nil
	})
	if err != nil {
		return count, warning, err
	}

	l.logger.Info("Warning issued",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.Uint64("moderatorID", uint64(moderatorID)),
		zap.Int("count", count))

	return count, warning, nil
}

// ListWarnings returns the member's warnings, oldest first.
func (l *Ledger) ListWarnings(userID, guildID snowflake.ID) []types.Warning {
	var warnings []types.Warning

	l.store.View(func(doc *types.Document) {
		warnings = append(warnings, doc.Warnings[types.MemberKey(guildID, userID)]...)
	})

	return warnings
}

// ClearWarnings removes every warning of the member and returns how many were removed.
// Clearing a member without warnings is not an error and writes nothing.
func (l *Ledger) ClearWarnings(userID, guildID snowflake.ID) (int, error) {
	key := types.MemberKey(guildID, userID)

	var existing int
	l.store.View(func(doc *types.Document) {
		existing = len(doc.Warnings[key])
	})

	if existing == 0 {
		return 0, nil
	}

	var removed int

	err := l.store.Update(func(doc *types.Document) error {
		removed = len(doc.Warnings[key])
		delete(doc.Warnings, key)

		return nil
	})

	return removed, err
}
