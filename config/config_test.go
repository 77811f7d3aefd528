package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("TASKS_CHANNEL", "CTASKS")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "CTASKS", cfg.Slack.TasksChannel)
	assert.Equal(t, 5, cfg.Slack.PageSize)
	assert.False(t, cfg.Slack.Debug)
	assert.Equal(t, "tasks.db", cfg.Database.Path)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Redis.DedupTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "0")
	t.Setenv("LIST_PAGE_SIZE", "10")
	t.Setenv("EVENT_DEDUP_TTL", "90s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Slack.PageSize)
	assert.Equal(t, 90*time.Second, cfg.Redis.DedupTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("TASKS_CHANNEL", "")
	os.Unsetenv("TASKS_CHANNEL")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bot token as app token": {"SLACK_APP_TOKEN", "xoxb-wrong"},
		"page size":              {"LIST_PAGE_SIZE", "0"},
		"port":                   {"HTTP_PORT", "70000"},
		"log level":              {"LOG_LEVEL", "verbose"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
slack:
  tasks_channel: CFILE
database:
  path: /tmp/file.db
server:
  port: 8080
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	os.Unsetenv("TASKS_CHANNEL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "CFILE", cfg.Slack.TasksChannel)
	assert.Equal(t, "/tmp/file.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "xoxb-test", cfg.Slack.BotToken)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, mono.LogLevelWarn, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, mono.LogLevelInfo, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
