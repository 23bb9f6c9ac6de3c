package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateN(t *testing.T, e *env, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		captureOutput(t, func() {
			require.NoError(t, loginCommand(&GlobalFlags{}).executeWithEnv(context.Background(), e))
		})
	}
}

// ageCards spaces out modification times so listing order is deterministic.
func ageCards(t *testing.T, e *env) {
	t.Helper()
	entries, err := e.dir.List()
	require.NoError(t, err)
	base := time.Now().Add(-time.Hour)
	for _, en := range entries {
		n := strings.TrimPrefix(en.ID, "US-")
		offset, _ := time.ParseDuration(strings.TrimLeft(n, "0") + "m")
		ts := base.Add(offset)
		require.NoError(t, os.Chtimes(filepath.Join(e.dir.Path(), en.Filename), ts, ts))
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	e := testEnv(t, nil)
	cmd := &HistoryCommand{Limit: 20, globals: &GlobalFlags{}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	assert.Contains(t, output, "No cards generated yet.")
}

func TestHistoryCommand_NewestFirst(t *testing.T) {
	e := testEnv(t, nil)
	generateN(t, e, 3)
	ageCards(t, e)

	cmd := &HistoryCommand{Limit: 20, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Login")
	assert.Contains(t, output, "3 card(s)")
	assert.Less(t, strings.Index(output, "US-003"), strings.Index(output, "US-002"))
	assert.Less(t, strings.Index(output, "US-002"), strings.Index(output, "US-001"))
}

func TestHistoryCommand_LimitAndJSON(t *testing.T) {
	e := testEnv(t, nil)
	generateN(t, e, 3)
	ageCards(t, e)

	cmd := &HistoryCommand{Limit: 2, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithEnv(context.Background(), e))
	})

	var items []historyItemJSON
	require.NoError(t, json.Unmarshal([]byte(output), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "US-003", items[0].ID)
	assert.Equal(t, "US-002", items[1].ID)
	assert.Equal(t, "Login", items[0].Name)
	assert.Equal(t, "/static/history_user/"+items[0].Filename, items[0].URL)
}

func TestHistoryCommand_NegativeLimit(t *testing.T) {
	e := testEnv(t, nil)
	cmd := &HistoryCommand{Limit: -1, globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWithEnv(context.Background(), e))
}
