package automod

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/clock"
	"go.uber.org/zap"
)

// Window keeps the recent message timestamps of each user for spam detection.
type Window struct {
	entries   map[snowflake.ID][]time.Time
	retention time.Duration
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewWindow creates a Window whose sweeps forget users silent for longer than retention.
func NewWindow(retention time.Duration, logger *zap.Logger) *Window {
	return &Window{
		entries:   make(map[snowflake.ID][]time.Time),
		retention: retention,
		logger:    logger.Named("spam_window"),
	}
}

// Record appends now to the user's timestamps, drops those at least span old,
// and returns how many remain.
func (w *Window) Record(userID snowflake.ID, now time.Time, span time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	timestamps := append(w.entries[userID], now)

	recent := timestamps[:0]
	for _, t := range timestamps {
		if now.Sub(t) < span {
			recent = append(recent, t)
		}
	}

	w.entries[userID] = recent

	return len(recent)
}

// Len returns the number of tracked users.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.entries)
}

// Sweep forgets users whose newest timestamp is older than the retention.
func (w *Window) Sweep(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0

	for userID, timestamps := range w.entries {
		if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= w.retention {
			delete(w.entries, userID)
			removed++
		}
	}

	return removed
}

// Run sweeps every interval until ctx is done.
func (w *Window) Run(ctx context.Context, clk clock.Clock, interval time.Duration) error {
	ticks, stop := clk.Tick(interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticks:
			if removed := w.Sweep(now); removed > 0 {
				w.logger.Debug("Swept spam windows", zap.Int("removed", removed))
			}
		}
	}
}
