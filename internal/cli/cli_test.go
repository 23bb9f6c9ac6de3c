package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	p, globals, cmds := buildParser("test")
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := p.ParseArgs(args)
	return globals, cmds, err
}

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	assert.NoError(t, err)
	assert.Contains(t, output, "storycard 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})
	assert.Equal(t, "storycard 1.2.3", strings.TrimSpace(output))
}

func TestVersionAfterSeparatorIsNotAFlag(t *testing.T) {
	_, _, err := parseOnly(t, "history", "--", "--version")
	assert.NoError(t, err)
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{"serve", "generate", "history", "open", "status"}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestUnknownSubcommandFails(t *testing.T) {
	_, _, err := parseOnly(t, "nonexistent")
	require.Error(t, err)
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestGlobalFlagsJSON(t *testing.T) {
	globals, _, err := parseOnly(t, "--json", "status")
	require.NoError(t, err)
	assert.True(t, globals.JSON)
}

func TestGlobalFlagsVerbose(t *testing.T) {
	globals, _, err := parseOnly(t, "--verbose", "status")
	require.NoError(t, err)
	assert.True(t, globals.Verbose)
}

func TestGlobalFlagsConfig(t *testing.T) {
	globals, _, err := parseOnly(t, "--config", "/tmp/storycard.yaml", "status")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/storycard.yaml", globals.Config)
}

func TestServeFlags(t *testing.T) {
	_, c, err := parseOnly(t, "serve", "--host", "127.0.0.1", "--port", "8080")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", c.Serve.Host)
	assert.Equal(t, 8080, c.Serve.Port)
}

func TestGenerateFlags(t *testing.T) {
	_, c, err := parseOnly(t, "generate",
		"--name", "Login", "--actor", "User", "--action", "log in",
		"--achievement", "access dashboard",
		"--criteria", "a", "--criteria", "b",
		"--done-when", "tests pass")
	require.NoError(t, err)
	assert.Equal(t, "Login", c.Generate.Name)
	assert.Equal(t, []string{"a", "b"}, c.Generate.Criteria)
	assert.Equal(t, "tests pass", c.Generate.DoneWhen)
	assert.False(t, c.Generate.Example)
}

func TestGenerateExampleFlag(t *testing.T) {
	_, c, err := parseOnly(t, "generate", "--example")
	require.NoError(t, err)
	assert.True(t, c.Generate.Example)
}

func TestHistoryLimitDefault(t *testing.T) {
	_, c, err := parseOnly(t, "history")
	require.NoError(t, err)
	assert.Equal(t, 20, c.History.Limit)
}

func TestOpenFlags(t *testing.T) {
	_, c, err := parseOnly(t, "open", "--id", "US-007", "--path")
	require.NoError(t, err)
	assert.Equal(t, "US-007", c.Open.ID)
	assert.True(t, c.Open.Path)
}

func TestOpenRequiresID(t *testing.T) {
	err := RunWithArgs("test", []string{"open"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}
