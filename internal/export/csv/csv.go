package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robalyx/keeper/internal/export/types"
)

// Exporter writes the flattened document to one csv file per table.
type Exporter struct {
	outDir string
}

// New creates a new csv exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export writes levels.csv, economy.csv, warnings.csv and tickets.csv.
func (e *Exporter) Export(rows *types.Rows) error {
	files := map[string][][]string{
		"levels.csv":   levelRecords(rows.Levels),
		"economy.csv":  economyRecords(rows.Economy),
		"warnings.csv": warningRecords(rows.Warnings),
		"tickets.csv":  ticketRecords(rows.Tickets),
	}

	for name, records := range files {
		if err := e.writeFile(name, records); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}

	return nil
}

// writeFile truncates the file and writes header plus records.
func (e *Exporter) writeFile(filename string, records [][]string) error {
	file, err := os.Create(filepath.Join(e.outDir, filename))
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	return nil
}

func levelRecords(rows []types.LevelRow) [][]string {
	records := [][]string{{"guild_id", "user_id", "level", "xp", "total_xp", "messages"}}
	for _, r := range rows {
		records = append(records, []string{
			r.GuildID, r.UserID,
			strconv.FormatUint(r.Level, 10),
			strconv.FormatUint(r.XP, 10),
			strconv.FormatUint(r.TotalXP, 10),
			strconv.FormatUint(r.Messages, 10),
		})
	}
	return records
}

func economyRecords(rows []types.EconomyRow) [][]string {
	records := [][]string{{"guild_id", "user_id", "wallet", "bank", "last_daily", "last_weekly"}}
	for _, r := range rows {
		records = append(records, []string{
			r.GuildID, r.UserID,
			strconv.FormatInt(r.Wallet, 10),
			strconv.FormatInt(r.Bank, 10),
			formatTime(r.LastDaily),
			formatTime(r.LastWeekly),
		})
	}
	return records
}

func warningRecords(rows []types.WarningRow) [][]string {
	records := [][]string{{"guild_id", "user_id", "id", "moderator_id", "reason", "timestamp"}}
	for _, r := range rows {
		records = append(records, []string{
			r.GuildID, r.UserID,
			strconv.FormatInt(r.ID, 10),
			r.ModeratorID, r.Reason,
			formatTime(r.Timestamp),
		})
	}
	return records
}

func ticketRecords(rows []types.TicketRow) [][]string {
	records := [][]string{{
		"guild_id", "number", "channel_id", "owner_id", "reason", "created_at", "closed", "closed_by", "closed_at",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.GuildID,
			strconv.FormatUint(r.Number, 10),
			r.ChannelID, r.OwnerID, r.Reason,
			formatTime(r.CreatedAt),
			strconv.FormatBool(r.Closed),
			r.ClosedBy,
			formatTime(r.ClosedAt),
		})
	}
	return records
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
