// Package storage keeps the bot's state in a single JSON document that is
// loaded once at startup and rewritten in full after every mutation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/robalyx/keeper/internal/storage/types"
	"github.com/robalyx/keeper/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrWrite is returned when the document could not be written to disk.
	// The in-memory state keeps the mutation that triggered the write.
	ErrWrite = errors.New("failed to write document")
	// ErrCorrupt is returned when the document file exists but cannot be decoded.
	ErrCorrupt = errors.New("document file is corrupt")
)

// Store guards the document. Update runs the whole read-modify-persist cycle
// under one lock, so handlers running on different gateway goroutines never
// observe each other's intermediate state.
type Store struct {
	doc    *types.Document
	path   string
	logger *zap.Logger
	retry  utils.RetryOptions
	mu     sync.Mutex
}

// Open loads the document at path, or starts from an empty document when the
// file does not exist yet.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.Named("storage"),
		retry:  utils.GetSaveRetryOptions(),
	}

	doc, err := load(path)
	if err != nil {
		return nil, err
	}

	s.doc = doc
	s.logger.Info("Document loaded",
		zap.String("path", path),
		zap.Int("levels", doc.Levels.Len()),
		zap.Int("tickets", len(doc.Tickets)))

	return s, nil
}

// NewMemory returns a store that starts from an empty document and writes to path.
// Tests use it with a path inside t.TempDir().
func NewMemory(path string, logger *zap.Logger) *Store {
	return &Store{
		doc:    types.NewDocument(),
		path:   path,
		logger: logger.Named("storage"),
		retry:  utils.GetSaveRetryOptions(),
	}
}

// Path returns the location of the document file.
func (s *Store) Path() string {
	return s.path
}

// View gives fn read access to the document.
// fn must not mutate the document or keep references to it.
func (s *Store) View(fn func(doc *types.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.doc)
}

// Update applies fn and then persists the document. When fn returns an error
// nothing is written and the error is returned unchanged; fn is expected to
// validate before mutating.
func (s *Store) Update(fn func(doc *types.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		return err
	}

	return s.save()
}

// Save persists the current document.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save()
}

// Snapshot returns the encoded document as of the last completed update.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return encode(s.doc)
}

// save writes the document; callers must hold mu.
func (s *Store) save() error {
	data, err := encode(s.doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	_, err = utils.WithRetry(context.Background(), func() (struct{}, error) {
		return struct{}{}, writeFileAtomic(s.path, data)
	}, s.retry)
	if err != nil {
		s.logger.Error("Failed to save document", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func load(path string) (*types.Document, error) {
	doc := types.NewDocument()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	if err := sonic.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	doc.Normalize()

	return doc, nil
}

func encode(doc *types.Document) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(doc, "", "  ")
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, path)
}
