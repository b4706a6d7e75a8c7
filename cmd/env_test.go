package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingoz/internal/logging"
	"github.com/abhisek/lingoz/internal/persist"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.String("db", "", "")
	f.StringSlice("lessons", nil, "")
	f.String("accent", "", "")
	f.Bool("mute", true, "")
	cmd.SetContext(context.Background())
	return cmd
}

func TestOpenEnv_WithDatabase(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("LINGOZ_DB", filepath.Join(t.TempDir(), "lingoz.db"))
	t.Setenv("LINGOZ_LESSONS", "")

	e, err := openEnv(testCommand(), envOptions{})
	require.NoError(t, err)
	defer e.Close()

	assert.NotNil(t, e.store)
	assert.NotNil(t, e.events)
	assert.False(t, e.adapter.Degraded())
}

func TestOpenEnv_UnusableDatabaseFallsBackToMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("LINGOZ_DB", filepath.Join(blocker, "lingoz.db"))
	t.Setenv("LINGOZ_LESSONS", "")

	e, err := openEnv(testCommand(), envOptions{})
	require.NoError(t, err)
	defer e.Close()

	assert.Nil(t, e.store)
	assert.Nil(t, e.events)
	assert.True(t, e.adapter.Degraded())
	assert.Positive(t, e.lessons.Len())

	ctx := context.Background()
	key := persist.PageKey("greetings")
	require.NoError(t, e.adapter.Save(ctx, key, json.RawMessage(`{"v":1}`)))
	raw, err := e.adapter.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(raw))
}

func TestSetupLogging_UnwritableLogFallsBackToDiscard(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	// A directory where the log file should be makes the open fail.
	require.NoError(t, os.MkdirAll(filepath.Join(data, "lingoz", logging.FileName), 0o755))

	f, err := setupLogging("info")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestSetupLogging_BadLevel(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	_, err := setupLogging("loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetupLogging_OpensFile(t *testing.T) {
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)

	f, err := setupLogging("debug")
	require.NoError(t, err)
	require.NotNil(t, f)
	defer f.Close()
	defer logging.Discard()

	assert.FileExists(t, filepath.Join(data, "lingoz", logging.FileName))
}
