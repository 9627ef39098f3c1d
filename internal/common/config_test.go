package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Queue.MaxReceive)
	assert.Equal(t, 1.5, cfg.Provider.PollGrowth)
	assert.Equal(t, 10, cfg.Analysis.ProgressEvery)
	assert.Equal(t, 50, cfg.Analysis.CheckpointEvery)
	assert.Len(t, cfg.Discovery.Partitions, 7)
}

func TestLoadConfig_TOMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[analysis]
progress_every = 25
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Analysis.ProgressEvery)
	// Untouched settings keep their defaults.
	assert.Equal(t, 50, cfg.Analysis.CheckpointEvery)
	assert.Equal(t, "vocero", cfg.Queue.QueueName)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9191
queue:
  max_receive: 5
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Queue.MaxReceive)
}

func TestLoadConfig_LaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 7000\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 7001\n"), 0644))

	cfg, err := LoadConfig(first, second)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("VOCERO_SERVER_PORT", "6500")
	t.Setenv("DATAFORSEO_LOGIN", "tester")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 6500, cfg.Server.Port)
	assert.Equal(t, "tester", cfg.Provider.Login)
	assert.Equal(t, "sk-test", cfg.Claude.APIKey)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.toml")
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Queue.PollInterval = "soon"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Provider.PollGrowth = 0.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Analysis.CheckpointEvery = 0
	assert.Error(t, cfg.Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2*time.Second, cfg.QueuePollInterval())
	assert.Equal(t, 5*time.Minute, cfg.QueueVisibilityTimeout())
	assert.Equal(t, 30*time.Minute, cfg.ReaperStaleAfter())
}
