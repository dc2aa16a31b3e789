package utils

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytleenf/ytclient/internal/config"
)

func TestDebug_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetLogOutput(&buf, config.LogSettings{Write: true, Level: "warn"}))
	t.Cleanup(func() { _, _ = SetupLogging(config.LogSettings{}, afero.NewMemMapFs()) })

	Debug("hidden %d", 1)
	Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestSetupLogging_DisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetLogOutput(&buf, config.LogSettings{Write: true, Level: "debug"}))

	c, err := SetupLogging(config.LogSettings{Write: false}, afero.NewMemMapFs())
	require.NoError(t, err)
	defer c.Close()

	Error("should not appear")
	assert.Empty(t, buf.String())
}

func TestSetupLogging_WritesToLogsDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	fs := afero.NewMemMapFs()

	c, err := SetupLogging(config.LogSettings{Write: true, Level: "info", JSON: true}, fs)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = SetupLogging(config.LogSettings{}, fs) })

	Info("poll failed: %s", "boom")
	require.NoError(t, c.Close())

	entries, err := afero.ReadDir(fs, config.GetLogsDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := afero.ReadFile(fs, config.GetLogsDir()+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"poll failed: boom"`)
}
