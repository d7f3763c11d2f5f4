package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robalyx/keeper/internal/export/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FileName is the name of the database written into the output directory.
const FileName = "keeper.db"

const batchSize = 1000

// table describes one exported table and how its rows are bound.
type table struct {
	name   string
	schema string
	insert string
	rows   [][]any
}

// Exporter writes the flattened document to a SQLite database.
type Exporter struct {
	outDir string
}

// New creates a new SQLite exporter instance.
func New(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// Export replaces any previous database and writes every table.
func (e *Exporter) Export(rows *types.Rows) error {
	path := filepath.Join(e.outDir, FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", FileName, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	for _, t := range tables(rows) {
		if err := writeTable(conn, t); err != nil {
			return fmt.Errorf("failed to export %s: %w", t.name, err)
		}
	}

	return nil
}

func tables(rows *types.Rows) []table {
	levels := make([][]any, 0, len(rows.Levels))
	for _, r := range rows.Levels {
		levels = append(levels, []any{r.GuildID, r.UserID, r.Level, r.XP, r.TotalXP, r.Messages})
	}

	economy := make([][]any, 0, len(rows.Economy))
	for _, r := range rows.Economy {
		economy = append(economy, []any{
			r.GuildID, r.UserID, r.Wallet, r.Bank, unixMilli(r.LastDaily), unixMilli(r.LastWeekly),
		})
	}

	transactions := make([][]any, 0, len(rows.Transactions))
	for _, r := range rows.Transactions {
		transactions = append(transactions, []any{
			r.GuildID, r.UserID, r.Seq, r.Amount, r.Kind, r.Note, unixMilli(r.Timestamp),
		})
	}

	warnings := make([][]any, 0, len(rows.Warnings))
	for _, r := range rows.Warnings {
		warnings = append(warnings, []any{
			r.GuildID, r.UserID, r.ID, r.ModeratorID, r.Reason, unixMilli(r.Timestamp),
		})
	}

	tickets := make([][]any, 0, len(rows.Tickets))
	for _, r := range rows.Tickets {
		var closedBy any
		if r.ClosedBy != "" {
			closedBy = r.ClosedBy
		}

		tickets = append(tickets, []any{
			r.GuildID, r.Number, r.ChannelID, r.OwnerID, r.Reason,
			unixMilli(r.CreatedAt), r.Closed, closedBy, unixMilli(r.ClosedAt),
		})
	}

	return []table{
		{
			name: "levels",
			schema: `CREATE TABLE levels (
				guild_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				level INTEGER NOT NULL,
				xp INTEGER NOT NULL,
				total_xp INTEGER NOT NULL,
				messages INTEGER NOT NULL,
				PRIMARY KEY (guild_id, user_id)
			)`,
			insert: "INSERT INTO levels (guild_id, user_id, level, xp, total_xp, messages) VALUES (?, ?, ?, ?, ?, ?)",
			rows:   levels,
		},
		{
			name: "economy",
			schema: `CREATE TABLE economy (
				guild_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				wallet INTEGER NOT NULL,
				bank INTEGER NOT NULL,
				last_daily INTEGER,
				last_weekly INTEGER,
				PRIMARY KEY (guild_id, user_id)
			)`,
			insert: "INSERT INTO economy (guild_id, user_id, wallet, bank, last_daily, last_weekly) VALUES (?, ?, ?, ?, ?, ?)",
			rows:   economy,
		},
		{
			name: "transactions",
			schema: `CREATE TABLE transactions (
				guild_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				amount INTEGER NOT NULL,
				kind TEXT NOT NULL,
				note TEXT NOT NULL,
				created_at INTEGER,
				PRIMARY KEY (guild_id, user_id, seq)
			)`,
			insert: "INSERT INTO transactions (guild_id, user_id, seq, amount, kind, note, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			rows:   transactions,
		},
		{
			name: "warnings",
			schema: `CREATE TABLE warnings (
				guild_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				id INTEGER NOT NULL,
				moderator_id TEXT NOT NULL,
				reason TEXT NOT NULL,
				created_at INTEGER,
				PRIMARY KEY (guild_id, user_id, id)
			)`,
			insert: "INSERT INTO warnings (guild_id, user_id, id, moderator_id, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			rows:   warnings,
		},
		{
			name: "tickets",
			schema: `CREATE TABLE tickets (
				guild_id TEXT NOT NULL,
				number INTEGER NOT NULL,
				channel_id TEXT NOT NULL,
				owner_id TEXT NOT NULL,
				reason TEXT NOT NULL,
				created_at INTEGER,
				closed INTEGER NOT NULL,
				closed_by TEXT,
				closed_at INTEGER,
				PRIMARY KEY (guild_id, number)
			)`,
			insert: "INSERT INTO tickets (guild_id, number, channel_id, owner_id, reason, created_at, closed, closed_by, closed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			rows:   tickets,
		},
	}
}

// writeTable creates the table and inserts its rows in batched transactions.
func writeTable(conn *sqlite.Conn, t table) error {
	if err := sqlitex.ExecuteTransient(conn, t.schema, nil); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	for i := 0; i < len(t.rows); i += batchSize {
		end := min(i+batchSize, len(t.rows))

		if err := sqlitex.Execute(conn, "BEGIN TRANSACTION", nil); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, args := range t.rows[i:end] {
			if err := sqlitex.Execute(conn, t.insert, &sqlitex.ExecOptions{Args: args}); err != nil {
				_ = sqlitex.Execute(conn, "ROLLBACK", nil)
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}

		if err := sqlitex.Execute(conn, "COMMIT", nil); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}

	return nil
}

// unixMilli maps the zero time to NULL.
func unixMilli(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}
