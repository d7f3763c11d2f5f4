package export_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/export"
	"github.com/robalyx/keeper/internal/export/sqlite"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleDocument() *types.Document {
	doc := types.NewDocument()
	now := time.UnixMilli(1_700_000_000_000)
	closer := snowflake.ID(99)

	doc.Levels.Set("2-20", &types.ProgressionRecord{Level: 1, XP: 10, TotalXP: 10, Messages: 1})
	doc.Levels.Set("1-10", &types.ProgressionRecord{Level: 2, XP: 5, TotalXP: 105, Messages: 6})
	doc.Levels.Set("garbage", &types.ProgressionRecord{Level: 1})

	doc.Economy["1-11"] = &types.EconomyRecord{Wallet: 50}
	doc.Economy["1-10"] = &types.EconomyRecord{
		Wallet: 1000,
		Bank:   200,
		Transactions: []types.Transaction{
			{Amount: 200, Kind: types.TransactionIncome, Timestamp: now, Note: "daily"},
			{Amount: -50, Kind: types.TransactionExpense, Timestamp: now, Note: "transfer"},
		},
	}

	doc.Warnings["1-10"] = []types.Warning{
		{ID: 2, ModeratorID: 99, Reason: "second", Timestamp: now},
		{ID: 1, ModeratorID: 99, Reason: "first", Timestamp: now},
	}

	doc.Tickets["501"] = &types.TicketRecord{Number: 2, GuildID: 1, OwnerID: 10, ChannelID: 501, CreatedAt: now}
	doc.Tickets["500"] = &types.TicketRecord{
		Number: 1, GuildID: 1, OwnerID: 10, ChannelID: 500, CreatedAt: now,
		Closed: true, ClosedBy: &closer, ClosedAt: &now,
	}

	return doc
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	rows := export.Flatten(sampleDocument(), zap.NewNop())

	require.Len(t, rows.Levels, 2, "malformed keys are skipped")
	assert.Equal(t, "2", rows.Levels[0].GuildID, "levels keep document order")
	assert.Equal(t, "10", rows.Levels[1].UserID)

	require.Len(t, rows.Economy, 2)
	assert.Equal(t, "10", rows.Economy[0].UserID)
	assert.Equal(t, "11", rows.Economy[1].UserID)

	require.Len(t, rows.Transactions, 2)
	assert.Equal(t, 0, rows.Transactions[0].Seq)
	assert.Equal(t, "income", rows.Transactions[0].Kind)
	assert.Equal(t, int64(-50), rows.Transactions[1].Amount)

	require.Len(t, rows.Warnings, 2)
	assert.Equal(t, int64(1), rows.Warnings[0].ID)

	require.Len(t, rows.Tickets, 2)
	assert.Equal(t, uint64(1), rows.Tickets[0].Number)
	assert.Equal(t, "99", rows.Tickets[0].ClosedBy)
	assert.Empty(t, rows.Tickets[1].ClosedBy)
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := storage.NewMemory(filepath.Join(dir, "database.json"), zap.NewNop())
	require.NoError(t, store.Update(func(doc *types.Document) error {
		*doc = *sampleDocument()
		return nil
	}))

	outDir := filepath.Join(dir, "out")
	exporter := export.New(store, outDir, zap.NewNop(), export.FormatSQLite, export.FormatCSV)
	require.NoError(t, exporter.ExportAll())

	for _, name := range []string{sqlite.FileName, "levels.csv", "economy.csv", "warnings.csv", "tickets.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestExportAllUnsupportedFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := storage.NewMemory(filepath.Join(dir, "database.json"), zap.NewNop())

	err := export.New(store, dir, zap.NewNop(), "xml").ExportAll()
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
