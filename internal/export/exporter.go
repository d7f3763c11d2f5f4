// Package export flattens the persisted document into tabular files for
// offline inspection.
package export

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/robalyx/keeper/internal/export/csv"
	"github.com/robalyx/keeper/internal/export/sqlite"
	exportTypes "github.com/robalyx/keeper/internal/export/types"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format represents a supported export format.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCSV    Format = "csv"
)

// Exporter writes the document held by a store to disk.
type Exporter struct {
	store   *storage.Store
	outDir  string
	formats []Format
	logger  *zap.Logger
}

// New creates a new exporter instance. Without formats it writes SQLite only.
func New(store *storage.Store, outDir string, logger *zap.Logger, formats ...Format) *Exporter {
	if len(formats) == 0 {
		formats = []Format{FormatSQLite}
	}

	return &Exporter{
		store:   store,
		outDir:  outDir,
		formats: formats,
		logger:  logger.Named("export"),
	}
}

// ExportAll writes every configured format into the output directory.
func (e *Exporter) ExportAll() error {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var rows *exportTypes.Rows
	e.store.View(func(doc *types.Document) {
		rows = Flatten(doc, e.logger)
	})

	e.logger.Info("Exporting document",
		zap.String("outDir", e.outDir),
		zap.Int("levels", len(rows.Levels)),
		zap.Int("economy", len(rows.Economy)),
		zap.Int("transactions", len(rows.Transactions)),
		zap.Int("warnings", len(rows.Warnings)),
		zap.Int("tickets", len(rows.Tickets)))

	for _, format := range e.formats {
		if err := e.export(format, rows); err != nil {
			return fmt.Errorf("failed to export %s format: %w", format, err)
		}
		e.logger.Info("Wrote export", zap.String("format", string(format)))
	}

	return nil
}

func (e *Exporter) export(format Format, rows *exportTypes.Rows) error {
	var exporter interface {
		Export(rows *exportTypes.Rows) error
	}

	switch format {
	case FormatSQLite:
		exporter = sqlite.New(e.outDir)
	case FormatCSV:
		exporter = csv.New(e.outDir)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return exporter.Export(rows)
}

// Flatten converts the document into rows. Entries whose key is not a valid
// member key are skipped and logged. Rows are sorted by guild then user.
func Flatten(doc *types.Document, logger *zap.Logger) *exportTypes.Rows {
	rows := &exportTypes.Rows{}

	doc.Levels.Each(func(key string, record *types.ProgressionRecord) bool {
		guildID, userID, err := types.ParseMemberKey(key)
		if err != nil {
			logger.Warn("Skipping level entry", zap.Error(err))
			return true
		}

		rows.Levels = append(rows.Levels, exportTypes.LevelRow{
			GuildID:  guildID.String(),
			UserID:   userID.String(),
			Level:    record.Level,
			XP:       record.XP,
			TotalXP:  record.TotalXP,
			Messages: record.Messages,
		})
		return true
	})

	for key, record := range doc.Economy {
		guildID, userID, err := types.ParseMemberKey(key)
		if err != nil {
			logger.Warn("Skipping economy entry", zap.Error(err))
			continue
		}

		rows.Economy = append(rows.Economy, exportTypes.EconomyRow{
			GuildID:    guildID.String(),
			UserID:     userID.String(),
			Wallet:     record.Wallet,
			Bank:       record.Bank,
			LastDaily:  record.LastDaily,
			LastWeekly: record.LastWeekly,
		})

		for i, tx := range record.Transactions {
			rows.Transactions = append(rows.Transactions, exportTypes.TransactionRow{
				GuildID:   guildID.String(),
				UserID:    userID.String(),
				Seq:       i,
				Amount:    tx.Amount,
				Kind:      string(tx.Kind),
				Note:      tx.Note,
				Timestamp: tx.Timestamp,
			})
		}
	}

	for key, warnings := range doc.Warnings {
		guildID, userID, err := types.ParseMemberKey(key)
		if err != nil {
			logger.Warn("Skipping warning entry", zap.Error(err))
			continue
		}

		for _, w := range warnings {
			rows.Warnings = append(rows.Warnings, exportTypes.WarningRow{
				GuildID:     guildID.String(),
				UserID:      userID.String(),
				ID:          w.ID,
				ModeratorID: w.ModeratorID.String(),
				Reason:      w.Reason,
				Timestamp:   w.Timestamp,
			})
		}
	}

	for _, ticket := range doc.Tickets {
		row := exportTypes.TicketRow{
			GuildID:   ticket.GuildID.String(),
			Number:    ticket.Number,
			ChannelID: ticket.ChannelID.String(),
			OwnerID:   ticket.OwnerID.String(),
			Reason:    ticket.Reason,
			CreatedAt: ticket.CreatedAt,
			Closed:    ticket.Closed,
		}
		if ticket.ClosedBy != nil {
			row.ClosedBy = ticket.ClosedBy.String()
		}
		if ticket.ClosedAt != nil {
			row.ClosedAt = *ticket.ClosedAt
		}
		rows.Tickets = append(rows.Tickets, row)
	}

	slices.SortStableFunc(rows.Economy, func(a, b exportTypes.EconomyRow) int {
		return cmp.Or(cmp.Compare(a.GuildID, b.GuildID), cmp.Compare(a.UserID, b.UserID))
	})
	slices.SortStableFunc(rows.Transactions, func(a, b exportTypes.TransactionRow) int {
		return cmp.Or(cmp.Compare(a.GuildID, b.GuildID), cmp.Compare(a.UserID, b.UserID), cmp.Compare(a.Seq, b.Seq))
	})
	slices.SortStableFunc(rows.Warnings, func(a, b exportTypes.WarningRow) int {
		return cmp.Or(cmp.Compare(a.GuildID, b.GuildID), cmp.Compare(a.UserID, b.UserID), cmp.Compare(a.ID, b.ID))
	})
	slices.SortStableFunc(rows.Tickets, func(a, b exportTypes.TicketRow) int {
		return cmp.Or(cmp.Compare(a.GuildID, b.GuildID), cmp.Compare(a.Number, b.Number))
	})

	return rows
}
