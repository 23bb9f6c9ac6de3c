package idalloc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatID(t *testing.T) {
	tests := []struct {
		count    int64
		expected string
	}{
		{1, "US-001"},
		{42, "US-042"},
		{999, "US-999"},
		{1000, "US-1000"},
		{123456, "US-123456"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, FormatID(tc.count))
	}
}

func TestParseID(t *testing.T) {
	n, err := ParseID("US-007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = ParseID("US-1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)

	for _, bad := range []string{"", "US-", "XX-001", "US-abc", "US--1"} {
		_, err := ParseID(bad)
		assert.Error(t, err, "ParseID(%q)", bad)
	}
}

func TestMemoryAllocator_Sequential(t *testing.T) {
	a := NewMemoryAllocator(0)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id, err := a.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("US-%03d", i), id)
	}
}

func TestMemoryAllocator_ConcurrentUnique(t *testing.T) {
	a := NewMemoryAllocator(0)
	ctx := context.Background()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Allocate(ctx)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestMemoryAllocator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryAllocator(0).Allocate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeCounter struct {
	values map[string]int64
	err    error
}

func (f *fakeCounter) Increment(ctx context.Context, name string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.values[name]++
	return f.values[name], nil
}

func TestCounterAllocator(t *testing.T) {
	counter := &fakeCounter{values: map[string]int64{"story": 9}}
	a := NewCounterAllocator(counter, "story")

	id, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "US-010", id)
}

func TestCounterAllocator_Error(t *testing.T) {
	a := NewCounterAllocator(&fakeCounter{err: errors.New("disk full")}, "story")

	_, err := a.Allocate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
