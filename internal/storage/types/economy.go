package types

import "time"

// TransactionKind classifies a wallet or bank movement.
type TransactionKind string

const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

// Transaction is one entry of a member's append-only audit log.
type Transaction struct {
	Amount    int64           `json:"amount"`
	Kind      TransactionKind `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Note      string          `json:"description"`
}

// Item is an inventory entry.
type Item struct {
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// EconomyRecord holds a member's balances, claim timestamps and history.
type EconomyRecord struct {
	Wallet       int64         `json:"wallet"`
	Bank         int64         `json:"bank"`
	LastDaily    time.Time     `json:"lastDaily"`
	LastWeekly   time.Time     `json:"lastWeekly"`
	Inventory    []Item        `json:"inventory"`
	Transactions []Transaction `json:"transactions"`
}

// Total returns wallet plus bank.
func (r *EconomyRecord) Total() int64 {
	return r.Wallet + r.Bank
}
