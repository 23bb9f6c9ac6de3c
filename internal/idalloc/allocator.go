// Package idalloc hands out sequential story identifiers (US-001, US-002, ...).
package idalloc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Prefix is prepended to every story id.
const Prefix = "US-"

// Allocator returns a new story id on every call.
type Allocator interface {
	Allocate(ctx context.Context) (string, error)
}

// FormatID renders count as a story id, zero-padded to at least 3 digits.
func FormatID(count int64) string {
	return fmt.Sprintf("%s%03d", Prefix, count)
}

// ParseID extracts the sequence number from a story id.
func ParseID(id string) (int64, error) {
	if !strings.HasPrefix(id, Prefix) {
		return 0, fmt.Errorf("invalid story id %q", id)
	}
	n, err := strconv.ParseInt(id[len(Prefix):], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid story id %q", id)
	}
	return n, nil
}

// Counter is a persistent named counter that increments atomically.
type Counter interface {
	Increment(ctx context.Context, name string) (int64, error)
}

// CounterAllocator allocates ids from a named Counter.
type CounterAllocator struct {
	counter Counter
	name    string
}

// NewCounterAllocator allocates ids from the counter called name.
func NewCounterAllocator(counter Counter, name string) *CounterAllocator {
	return &CounterAllocator{counter: counter, name: name}
}

func (a *CounterAllocator) Allocate(ctx context.Context) (string, error) {
	n, err := a.counter.Increment(ctx, a.name)
	if err != nil {
		return "", fmt.Errorf("increment counter %s: %w", a.name, err)
	}
	return FormatID(n), nil
}

// MemoryAllocator keeps the count in process memory.
type MemoryAllocator struct {
	mu    sync.Mutex
	count int64
}

// NewMemoryAllocator starts counting after start.
func NewMemoryAllocator(start int64) *MemoryAllocator {
	return &MemoryAllocator{count: start}
}

func (a *MemoryAllocator) Allocate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count++
	return FormatID(a.count), nil
}
