package idalloc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// counterState is the on-disk shape of the counter file.
type counterState struct {
	Count int64 `json:"count"`
}

// FileAllocator persists the count as {"count": N} in a single JSON file.
//
// With locking enabled, allocations are serialised by a mutex and an
// advisory lock on "<path>.lock", and the new count is written through a
// temp file and rename. Without locking, two allocations that interleave
// between read and write may observe the same prior count and return the
// same id.
type FileAllocator struct {
	path    string
	locking bool
	logger  *zap.Logger

	mu sync.Mutex
}

// FileOption configures a FileAllocator.
type FileOption func(*FileAllocator)

// WithLocking toggles cross-process serialisation of allocations.
func WithLocking(enabled bool) FileOption {
	return func(a *FileAllocator) { a.locking = enabled }
}

// WithLogger sets the logger used to report counter recovery.
func WithLogger(logger *zap.Logger) FileOption {
	return func(a *FileAllocator) { a.logger = logger }
}

// NewFileAllocator returns an allocator backed by the file at path.
// Locking is enabled unless turned off with WithLocking(false).
func NewFileAllocator(path string, opts ...FileOption) *FileAllocator {
	a := &FileAllocator{path: path, locking: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Path returns the counter file location.
func (a *FileAllocator) Path() string {
	return a.path
}

func (a *FileAllocator) Allocate(ctx context.Context) (string, error) {
	if !a.locking {
		count := a.read() + 1
		if err := a.writeInPlace(count); err != nil {
			return "", err
		}
		return FormatID(count), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return "", fmt.Errorf("create counter directory: %w", err)
	}

	lock := flock.New(a.path + ".lock")
	locked, err := lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("lock counter: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("lock counter: %s busy", a.path)
	}
	defer lock.Unlock() //nolint:errcheck

	count := a.read() + 1
	if err := a.writeAtomic(count); err != nil {
		return "", err
	}
	return FormatID(count), nil
}

// Current returns the persisted count without incrementing it. An absent
// or unreadable file counts as 0.
func (a *FileAllocator) Current() int64 {
	return a.read()
}

// read returns the stored count, or 0 when the file is missing or does not
// hold a non-negative integer count.
func (a *FileAllocator) read() int64 {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Debug("counter unreadable, starting from zero", zap.String("path", a.path), zap.Error(err))
		}
		return 0
	}

	var state counterState
	if err := json.Unmarshal(data, &state); err != nil {
		a.logger.Debug("counter corrupt, starting from zero", zap.String("path", a.path), zap.Error(err))
		return 0
	}
	if state.Count < 0 {
		return 0
	}
	return state.Count
}

func (a *FileAllocator) encode(count int64) ([]byte, error) {
	data, err := json.Marshal(counterState{Count: count})
	if err != nil {
		return nil, fmt.Errorf("encode counter: %w", err)
	}
	return data, nil
}

func (a *FileAllocator) writeInPlace(count int64) error {
	data, err := a.encode(count)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("create counter directory: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	return nil
}

func (a *FileAllocator) writeAtomic(count int64) error {
	data, err := a.encode(count)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), filepath.Base(a.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create counter temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write counter: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close counter temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod counter: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		return fmt.Errorf("replace counter: %w", err)
	}
	return nil
}
