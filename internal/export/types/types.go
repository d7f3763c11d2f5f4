package types

import "time"

// LevelRow is one member's progression.
type LevelRow struct {
	GuildID  string
	UserID   string
	Level    uint64
	XP       uint64
	TotalXP  uint64
	Messages uint64
}

// EconomyRow is one member's balances.
type EconomyRow struct {
	GuildID    string
	UserID     string
	Wallet     int64
	Bank       int64
	LastDaily  time.Time
	LastWeekly time.Time
}

// TransactionRow is one entry of a member's transaction log.
type TransactionRow struct {
	GuildID   string
	UserID    string
	Seq       int
	Amount    int64
	Kind      string
	Note      string
	Timestamp time.Time
}

// WarningRow is one warning issued against a member.
type WarningRow struct {
	GuildID     string
	UserID      string
	ID          int64
	ModeratorID string
	Reason      string
	Timestamp   time.Time
}

// TicketRow is one ticket, open or closed.
type TicketRow struct {
	GuildID   string
	Number    uint64
	ChannelID string
	OwnerID   string
	Reason    string
	CreatedAt time.Time
	Closed    bool
	ClosedBy  string
	ClosedAt  time.Time
}

// Rows is the flattened content of the document.
type Rows struct {
	Levels       []LevelRow
	Economy      []EconomyRow
	Transactions []TransactionRow
	Warnings     []WarningRow
	Tickets      []TicketRow
}
