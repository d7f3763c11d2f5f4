// Package economy manages member wallets, bank balances and timed rewards.
package economy

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
	"go.uber.org/zap"
)

// StartingWallet is the wallet balance of a newly created record.
const StartingWallet int64 = 1000

var (
	// ErrOnCooldown is matched by every *CooldownError.
	ErrOnCooldown = errors.New("reward already claimed")
	// ErrInsufficientFunds is returned when the source balance cannot cover an amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrSelfTransfer is returned when a member pays themselves.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")
)

// CooldownError reports how long until a reward can be claimed again.
type CooldownError struct {
	Kind      ClaimKind
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s reward on cooldown for %s", e.Kind, e.Remaining)
}

// Is makes errors.Is(err, ErrOnCooldown) match.
func (e *CooldownError) Is(target error) bool {
	return target == ErrOnCooldown
}

// Target selects the balance an adjustment applies to.
type Target string

const (
	Wallet Target = "wallet"
	Bank   Target = "bank"
)

// ClaimKind identifies a timed reward.
type ClaimKind string

const (
	ClaimDaily  ClaimKind = "daily"
	ClaimWeekly ClaimKind = "weekly"
)

// Reward configures one timed reward.
type Reward struct {
	Cooldown time.Duration
	Amount   int64
}

// Job is an entry of the work table.
type Job struct {
	Name string
	Min  int64
	Max  int64
}

// DefaultJobs is the work table used when none is configured.
var DefaultJobs = []Job{
	{Name: "👨‍💻 Programmer", Min: 50, Max: 100},
	{Name: "🎨 Designer", Min: 40, Max: 80},
	{Name: "👨‍🍳 Chef", Min: 30, Max: 70},
	{Name: "📹 YouTuber", Min: 60, Max: 120},
	{Name: "🎵 Musician", Min: 45, Max: 90},
}

// Ledger applies balance changes and records them in each member's history.
type Ledger struct {
	store   *storage.Store
	clock   clock.Clock
	logger  *zap.Logger
	rewards map[ClaimKind]Reward
	jobs    []Job
	intN    func(n int) int
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithReward overrides the cooldown and amount of a timed reward.
func WithReward(kind ClaimKind, reward Reward) Option {
	return func(l *Ledger) {
		if reward.Cooldown > 0 && reward.Amount > 0 {
			l.rewards[kind] = reward
		}
	}
}

// WithJobs replaces the work table.
func WithJobs(jobs []Job) Option {
	return func(l *Ledger) {
		if len(jobs) > 0 {
			l.jobs = jobs
		}
	}
}

// WithRand replaces the random source. intN must return a value in [0, n).
func WithRand(intN func(n int) int) Option {
	return func(l *Ledger) {
		l.intN = intN
	}
}

// NewLedger creates an economy ledger on top of the document store.
func NewLedger(store *storage.Store, clk clock.Clock, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		clock:  clk,
		logger: logger.Named("economy"),
		rewards: map[ClaimKind]Reward{
			ClaimDaily:  {Cooldown: 24 * time.Hour, Amount: 100},
			ClaimWeekly: {Cooldown: 7 * 24 * time.Hour, Amount: 500},
		},
		jobs: DefaultJobs,
		intN: rand.IntN,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// GetOrCreate returns the member's record, creating and persisting the default one when absent.
func (l *Ledger) GetOrCreate(userID, guildID snowflake.ID) (types.EconomyRecord, error) {
	key := types.MemberKey(guildID, userID)

	var (
		result  types.EconomyRecord
		created bool
	)

	l.store.View(func(doc *types.Document) {
		if record, ok := doc.Economy[key]; ok && record != nil {
			result = copyRecord(record)
			return
		}
		created = true
	})

	if !created {
		return result, nil
	}

	err := l.store.Update(func(doc *types.Document) error {
		result = copyRecord(recordFor(doc, key))
		return nil
	})

	return result, err
}

// Adjust adds amount to the target balance and appends a transaction.
// Balances are not floored, so the result may be negative.
func (l *Ledger) Adjust(userID, guildID snowflake.ID, amount int64, target Target) (types.EconomyRecord, error) {
	var result types.EconomyRecord

	err := l.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, types.MemberKey(guildID, userID))
		l.apply(record, amount, target, string(target))
		result = copyRecord(record)

		return nil
	})

	return result, err
}

// Claim grants a timed reward when its cooldown has elapsed.
// The check and the grant happen in one store update.
func (l *Ledger) Claim(userID, guildID snowflake.ID, kind ClaimKind) (types.EconomyRecord, int64, error) {
	reward, ok := l.rewards[kind]
	if !ok {
		return types.EconomyRecord{}, 0, fmt.Errorf("unknown reward %q", kind)
	}

	now := l.clock.Now()

	var result types.EconomyRecord

	err := l.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, types.MemberKey(guildID, userID))

		last := &record.LastDaily
		if kind == ClaimWeekly {
			last = &record.LastWeekly
		}

		if !last.IsZero() {
			if elapsed := now.Sub(*last); elapsed < reward.Cooldown {
				return &CooldownError{Kind: kind, Remaining: reward.Cooldown - elapsed}
			}
		}

		l.apply(record, reward.Amount, Wallet, string(kind))
		*last = now
		result = copyRecord(record)

		return nil
	})
	if err != nil {
		return types.EconomyRecord{}, 0, err
	}

	l.logger.Info("Reward claimed",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.String("kind", string(kind)),
		zap.Int64("amount", reward.Amount))

	return result, reward.Amount, nil
}

// Work pays the member for a randomly chosen job.
func (l *Ledger) Work(userID, guildID snowflake.ID) (Job, int64, error) {
	job := l.jobs[l.intN(len(l.jobs))]
	amount := job.Min + int64(l.intN(int(job.Max-job.Min+1)))

	err := l.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, types.MemberKey(guildID, userID))
		l.apply(record, amount, Wallet, "work")

		return nil
	})
	if err != nil {
		return job, amount, err
	}

	l.logger.Debug("Work paid",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.String("job", job.Name),
		zap.Int64("amount", amount))

	return job, amount, nil
}

// Transfer moves amount from one member's wallet to another's.
func (l *Ledger) Transfer(fromID, toID, guildID snowflake.ID, amount int64) (types.EconomyRecord, error) {
	if amount <= 0 {
		return types.EconomyRecord{}, ErrInvalidAmount
	}
	if fromID == toID {
		return types.EconomyRecord{}, ErrSelfTransfer
	}

	var result types.EconomyRecord

	err := l.store.Update(func(doc *types.Document) error {
		from := recordFor(doc, types.MemberKey(guildID, fromID))
		if from.Wallet < amount {
			return fmt.Errorf("%w: wallet has %d", ErrInsufficientFunds, from.Wallet)
		}

		to := recordFor(doc, types.MemberKey(guildID, toID))

		l.apply(from, -amount, Wallet, "transfer to "+toID.String())
		l.apply(to, amount, Wallet, "transfer from "+fromID.String())
		result = copyRecord(from)

		return nil
	})
	if err != nil {
		return types.EconomyRecord{}, err
	}

	l.logger.Info("Transfer completed",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("fromID", uint64(fromID)),
		zap.Uint64("toID", uint64(toID)),
		zap.Int64("amount", amount))

	return result, nil
}

// Deposit moves amount from the wallet into the bank.
func (l *Ledger) Deposit(userID, guildID snowflake.ID, amount int64) (types.EconomyRecord, error) {
	return l.move(userID, guildID, amount, Wallet, Bank)
}

// Withdraw moves amount from the bank into the wallet.
func (l *Ledger) Withdraw(userID, guildID snowflake.ID, amount int64) (types.EconomyRecord, error) {
	return l.move(userID, guildID, amount, Bank, Wallet)
}

func (l *Ledger) move(userID, guildID snowflake.ID, amount int64, from, to Target) (types.EconomyRecord, error) {
	if amount <= 0 {
		return types.EconomyRecord{}, ErrInvalidAmount
	}

	var result types.EconomyRecord

	err := l.store.Update(func(doc *types.Document) error {
		record := recordFor(doc, types.MemberKey(guildID, userID))
		if *balance(record, from) < amount {
			return fmt.Errorf("%w: %s has %d", ErrInsufficientFunds, from, *balance(record, from))
		}

		l.apply(record, -amount, from, string(from))
		l.apply(record, amount, to, string(to))
		result = copyRecord(record)

		return nil
	})
	if err != nil {
		return types.EconomyRecord{}, err
	}

	l.logger.Debug("Balance moved",
		zap.Uint64("guildID", uint64(guildID)),
		zap.Uint64("userID", uint64(userID)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int64("amount", amount))

	return result, nil
}

// apply changes one balance and logs the transaction.
func (l *Ledger) apply(record *types.EconomyRecord, amount int64, target Target, note string) {
	*balance(record, target) += amount

	kind := types.TransactionExpense
	if amount > 0 {
		kind = types.TransactionIncome
	}

	record.Transactions = append(record.Transactions, types.Transaction{
		Amount:    amount,
		Kind:      kind,
		Timestamp: l.clock.Now(),
		Note:      note,
	})
}

func balance(record *types.EconomyRecord, target Target) *int64 {
	if target == Bank {
		return &record.Bank
	}
	return &record.Wallet
}

func recordFor(doc *types.Document, key string) *types.EconomyRecord {
	if record, ok := doc.Economy[key]; ok && record != nil {
		return record
	}

	record := &types.EconomyRecord{
		Wallet:       StartingWallet,
		Inventory:    []types.Item{},
		Transactions: []types.Transaction{},
	}
	doc.Economy[key] = record

	return record
}

// copyRecord detaches the result from the document so callers cannot mutate it.
func copyRecord(record *types.EconomyRecord) types.EconomyRecord {
	c := *record
	c.Inventory = append([]types.Item(nil), record.Inventory...)
	c.Transactions = append([]types.Transaction(nil), record.Transactions...)

	return c
}
