package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/storycard/internal/config"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testConfig returns defaults rooted in a fresh temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()
	return cfg
}

// testEnv wires a card service over cfg with a silent logger.
func testEnv(t *testing.T, cfg *config.Config) *env {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	e, err := newEnv(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}
