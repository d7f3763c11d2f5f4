// Package logger provides log file writers for the telemetry manager.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CappedFile is an append-only log file that keeps roughly its newest maxLines lines.
// Once twice that many lines have been written since the last compaction, the file
// is rewritten with only the newest maxLines.
type CappedFile struct {
	path     string
	file     *os.File
	tail     []string
	next     int
	filled   bool
	pending  int
	maxLines int
	mu       sync.Mutex
}

// OpenCappedFile opens or creates path for appending.
func OpenCappedFile(path string, maxLines int) (*CappedFile, error) {
	if maxLines <= 0 {
		maxLines = 1
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &CappedFile{
		path:     path,
		file:     file,
		tail:     make([]string, maxLines),
		maxLines: maxLines,
	}, nil
}

// Write appends p and compacts the file when it has grown past its cap.
func (c *CappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		c.tail[c.next] = line
		c.next = (c.next + 1) % c.maxLines
		if c.next == 0 {
			c.filled = true
		}
		c.pending++
	}

	if c.pending >= 2*c.maxLines {
		if err := c.compact(); err != nil {
			return n, fmt.Errorf("failed to compact log file: %w", err)
		}
		c.pending = c.maxLines
	}

	return n, nil
}

// Sync flushes the file.
func (c *CappedFile) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.file.Sync()
}

// Close closes the file.
func (c *CappedFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.file.Close()
}

// lines returns the retained lines oldest first.
func (c *CappedFile) lines() []string {
	if !c.filled {
		return append([]string(nil), c.tail[:c.next]...)
	}

	return append(append([]string(nil), c.tail[c.next:]...), c.tail[:c.next]...)
}

// compact replaces the file with the retained lines.
func (c *CappedFile) compact() error {
	temp, err := os.CreateTemp(filepath.Dir(c.path), "temp-log-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	if _, err := temp.WriteString(strings.Join(c.lines(), "\n") + "\n"); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	c.file.Close()

	if err := os.Rename(tempPath, c.path); err != nil {
		return err
	}

	file, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	c.file = file

	return nil
}
