package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/robalyx/keeper/internal/clock"
	"github.com/robalyx/keeper/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const backupFilePrefix = "db-backup-"

// Sink receives whole-document snapshots.
type Sink interface {
	Name() string
	Write(ctx context.Context, at time.Time, data []byte) error
}

// Backup periodically copies a consistent snapshot of the store to its sinks.
type Backup struct {
	store    *Store
	sinks    []Sink
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
}

// NewBackup creates a backup scheduler.
func NewBackup(store *Store, sinks []Sink, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Backup {
	return &Backup{
		store:    store,
		sinks:    sinks,
		clock:    clk,
		interval: interval,
		logger:   logger.Named("backup"),
	}
}

// Run writes a backup every interval until ctx is done.
func (b *Backup) Run(ctx context.Context) error {
	ticks, stop := b.clock.Tick(b.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if err := b.RunOnce(ctx); err != nil {
				b.logger.Error("Backup failed", zap.Error(err))
			}
		}
	}
}

// RunOnce snapshots the store and writes it to every sink concurrently.
// The snapshot is taken under the store lock, so it never contains half of an update.
func (b *Backup) RunOnce(ctx context.Context) error {
	data, err := b.store.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot document: %w", err)
	}

	at := b.clock.Now()
	p := pool.New().WithContext(ctx)

	for _, sink := range b.sinks {
		p.Go(func(ctx context.Context) error {
			_, err := utils.WithRetry(ctx, func() (struct{}, error) {
				return struct{}{}, sink.Write(ctx, at, data)
			}, utils.GetBackupRetryOptions())
			if err != nil {
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}

			b.logger.Info("Document backed up",
				zap.String("sink", sink.Name()),
				zap.Int("bytes", len(data)))

			return nil
		})
	}

	return p.Wait()
}

// DirSink writes snapshots as files into a directory and keeps the newest ones.
type DirSink struct {
	dir  string
	keep int
}

// NewDirSink creates a directory sink. keep <= 0 keeps every snapshot.
func NewDirSink(dir string, keep int) *DirSink {
	return &DirSink{dir: dir, keep: keep}
}

// Name implements Sink.
func (s *DirSink) Name() string { return "dir:" + s.dir }

// Write implements Sink.
func (s *DirSink) Write(_ context.Context, at time.Time, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%d.json", backupFilePrefix, at.UnixMilli())
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return err
	}

	return s.prune()
}

// Backups returns the snapshot file paths, oldest first.
func (s *DirSink) Backups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, backupFilePrefix+"*.json"))
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return backupStamp(matches[i]) < backupStamp(matches[j])
	})

	return matches, nil
}

func (s *DirSink) prune() error {
	if s.keep <= 0 {
		return nil
	}

	backups, err := s.Backups()
	if err != nil {
		return err
	}

	for i := 0; i < len(backups)-s.keep; i++ {
		if err := os.Remove(backups[i]); err != nil {
			return err
		}
	}

	return nil
}

func backupStamp(path string) int64 {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), backupFilePrefix), ".json")
	stamp, _ := strconv.ParseInt(name, 10, 64)
	return stamp
}

// RedisSink stores snapshots under "<prefix>:<unixms>" and tracks them in a
// list at "<prefix>:index", newest first.
type RedisSink struct {
	client rueidis.Client
	prefix string
	keep   int
}

// NewRedisSink creates a redis sink. keep <= 0 keeps every snapshot.
func NewRedisSink(client rueidis.Client, prefix string, keep int) *RedisSink {
	return &RedisSink{client: client, prefix: prefix, keep: keep}
}

// Name implements Sink.
func (s *RedisSink) Name() string { return "redis:" + s.prefix }

// IndexKey returns the key of the list holding snapshot keys.
func (s *RedisSink) IndexKey() string { return s.prefix + ":index" }

// Write implements Sink.
func (s *RedisSink) Write(ctx context.Context, at time.Time, data []byte) error {
	key := fmt.Sprintf("%s:%d", s.prefix, at.UnixMilli())

	if err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := s.client.Do(ctx, s.client.B().Lpush().Key(s.IndexKey()).Element(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to index snapshot: %w", err)
	}

	if s.keep <= 0 {
		return nil
	}

	stale, err := s.client.Do(ctx, s.client.B().Lrange().Key(s.IndexKey()).Start(int64(s.keep)).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	if err := s.client.Do(ctx, s.client.B().Del().Key(stale...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	return s.client.Do(ctx, s.client.B().Ltrim().Key(s.IndexKey()).Start(0).Stop(int64(s.keep-1)).Build()).Error()
}

// Latest returns the most recent snapshot.
func (s *RedisSink) Latest(ctx context.Context) ([]byte, error) {
	key, err := s.client.Do(ctx, s.client.B().Lindex().Key(s.IndexKey()).Index(0).Build()).ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}

	return s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
}
