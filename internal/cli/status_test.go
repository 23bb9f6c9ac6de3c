package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand_EmptyHuman(t *testing.T) {
	e := testEnv(t, nil)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "0.1.0"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	assert.Contains(t, output, "Storycard Status")
	assert.Contains(t, output, "Version:       0.1.0")
	assert.Contains(t, output, "Allocator:     file (locking on)")
	assert.Contains(t, output, "Counter:       0\n")
	assert.NotContains(t, output, "Oldest:")
}

func TestStatusCommand_AfterGenerate(t *testing.T) {
	e := testEnv(t, nil)
	generateN(t, e, 2)

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "0.1.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	assert.Contains(t, output, "Counter:       2 (last id US-002)")
	assert.Contains(t, output, "Cards:         2 in ")
	assert.Contains(t, output, "Indexed:       2")
	assert.Contains(t, output, "Oldest:")
}

func TestStatusCommand_JSON(t *testing.T) {
	cfg := testConfig(t)
	cfg.Allocator.Mode = "sqlite"
	e := testEnv(t, cfg)
	generateN(t, e, 3)

	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "0.1.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	var out statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "sqlite", out.AllocatorMode)
	assert.Empty(t, out.CounterPath)
	assert.Equal(t, int64(3), out.Counter)
	assert.Equal(t, "US-003", out.LastID)
	assert.Equal(t, 3, out.CardFiles)
	assert.Greater(t, out.CardBytes, int64(0))
	assert.Equal(t, int64(3), out.IndexedCards)
	assert.NotEmpty(t, out.NewestCard)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "1.0 GB", formatBytes(1<<30))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "123,456", formatNumber(123456))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
