// Package ticket implements the support ticket lifecycle: open, then close.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
)

// DefaultReason is used when a ticket is opened without a reason.
const DefaultReason = "No reason provided"

var (
	// ErrNotFound is returned when no ticket is bound to the channel.
	ErrNotFound = errors.New("no ticket in this channel")
	// ErrAlreadyClosed is returned when closing a closed ticket.
	ErrAlreadyClosed = errors.New("ticket already closed")
)

// ProvisionFunc creates the platform channel for a ticket number and returns its ID.
type ProvisionFunc func(ctx context.Context, number uint64) (snowflake.ID, error)

// Manager opens and closes tickets. Opens are serialized so that each guild's
// numbers increase by exactly one per successful open.
type Manager struct {
	store  *storage.Store
	clock  clock.Clock
	logger *zap.Logger
	openMu sync.Mutex
}

// NewManager creates a ticket manager on top of the document store.
func NewManager(store *storage.Store, clk clock.Clock, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		clock:  clk,
		logger: logger.Named("ticket"),
	}
}

// Open reserves the next number, asks provision for a channel and then records
// the ticket together with the new counter. Nothing is recorded when provision fails.
func (m *Manager) Open(
	ctx context.Context, guildID, ownerID snowflake.ID, reason string, provision ProvisionFunc,
) (types.TicketRecord, error) {
	if reason == "" {
		reason = DefaultReason
	}

	m.openMu.Lock()
	defer m.openMu.Unlock()

	counterKey := guildID.String()

	var number uint64
	m.store.View(func(doc *types.Document) {
		number = doc.TicketCounters[counterKey] + 1
	})

	channelID, err := provision(ctx, number)
	if err != nil {
		return types.TicketRecord{}, fmt.Errorf("failed to provision ticket channel: %w", err)
	}

	record := types.TicketRecord{
		Number:    number,
		OwnerID:   ownerID,
		GuildID:   guildID,
		ChannelID: channelID,
		Reason:    reason,
		CreatedAt: m.clock.Now(),
	}

	err = m.store.Update(func(doc *types.Document) error {
		doc.TicketCounters[counterKey] = number
		stored := record
		doc.Tickets[channelID.String()] = &stored

		return nil
	})
	if err != nil {
		return record, err
	}

	m.logger.Info("Ticket opened",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("ownerID", uint64(ownerID)),
		zap.Uint64("number", number))

	return record, nil
}

// Close marks the channel's ticket closed. Closing is terminal.
func (m *Manager) Close(channelID, closerID snowflake.ID) (types.TicketRecord, error) {
	now := m.clock.Now()

	var result types.TicketRecord

	err := m.store.Update(func(doc *types.Document) error {
		record, ok := doc.Tickets[channelID.String()]
		if !ok || record == nil {
			return ErrNotFound
		}
		if record.Closed {
			return ErrAlreadyClosed
		}

		closedBy := closerID
		closedAt := now

		record.Closed = true
		record.ClosedBy = &closedBy
		record.ClosedAt = &closedAt
		result = *record

		return nil
	})
	if err != nil {
		return result, err
	}

	m.logger.Info("Ticket closed",
		zap.Uint64("guildID", uint64(result.GuildID)),
		zap.Uint64("number", result.Number),
		zap.Uint64("closedBy", uint64(closerID)))

	return result, nil
}

// Get returns the ticket bound to the channel.
func (m *Manager) Get(channelID snowflake.ID) (types.TicketRecord, bool) {
	var (
		result types.TicketRecord
		ok     bool
	)

	m.store.View(func(doc *types.Document) {
		var record *types.TicketRecord
		if record, ok = doc.Tickets[channelID.String()]; ok && record != nil {
			result = *record
		}
	})

	return result, ok
}

// OpenTickets lists the guild's open tickets ordered by number.
func (m *Manager) OpenTickets(guildID snowflake.ID) []types.TicketRecord {
	var tickets []types.TicketRecord

	m.store.View(func(doc *types.Document) {
		for _, record := range doc.Tickets {
			if record != nil && record.GuildID == guildID && !record.Closed {
				tickets = append(tickets, *record)
			}
		}
	})

	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })

	return tickets
}
