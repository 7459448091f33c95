package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateDirs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolateDirs(t)

	cfg, v, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Player.Volume)
	assert.True(t, cfg.Player.Autoplay)
	assert.Equal(t, []string{"mp4", "webm", "ogv", "mov"}, cfg.Player.Extensions)
	assert.Equal(t, ".ia", cfg.Player.DerivativeMarker)
	assert.Equal(t, 300*time.Millisecond, cfg.Player.DoubleTapWindow)
	assert.Equal(t, 3*time.Second, cfg.Player.ControlsHideDelay)
	assert.Equal(t, 10*time.Second, cfg.Player.SkipInterval)
	assert.Equal(t, 3*time.Second, cfg.Player.RestartThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.PollInterval)
	assert.Equal(t, "https://archive.org", cfg.Catalog.BaseURL)
	assert.Equal(t, 25, cfg.Catalog.Rows)
	assert.Equal(t, 24*time.Hour, cfg.Catalog.CacheLifetime)
	assert.Equal(t, filepath.Join(dir, "data", "archivist", "archivist.db"), cfg.Database.Path)
}

func TestLoadFile(t *testing.T) {
	isolateDirs(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
player:
  volume: 40
  autoplay: false
  double_tap_window: 450ms
  extensions: [webm, mp4]
catalog:
  rows: 10
user:
  id: alice
`), 0644))

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Player.Volume)
	assert.False(t, cfg.Player.Autoplay)
	assert.Equal(t, 450*time.Millisecond, cfg.Player.DoubleTapWindow)
	assert.Equal(t, []string{"webm", "mp4"}, cfg.Player.Extensions)
	assert.Equal(t, 10, cfg.Catalog.Rows)
	assert.Equal(t, "alice", cfg.User.ID)
	// untouched keys keep their defaults
	assert.Equal(t, 3*time.Second, cfg.Player.RestartThreshold)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateDirs(t)
	cfg, _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Player.Volume)
}

func TestLoadEnvOverride(t *testing.T) {
	isolateDirs(t)
	t.Setenv("ARCHIVIST_PLAYER_VOLUME", "55")
	t.Setenv("ARCHIVIST_USER_ID", "bob")

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 55, cfg.Player.Volume)
	assert.Equal(t, "bob", cfg.User.ID)
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolateDirs(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("player:\n  volume: 150\n"), 0644))

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player.volume")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := Decode(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"volume low", func(c *Config) { c.Player.Volume = -1 }, "player.volume"},
		{"volume high", func(c *Config) { c.Player.Volume = 101 }, "player.volume"},
		{"no extensions", func(c *Config) { c.Player.Extensions = nil }, "player.extensions"},
		{"negative window", func(c *Config) { c.Player.DoubleTapWindow = -time.Second }, "player.double_tap_window"},
		{"negative timeout", func(c *Config) { c.Catalog.Timeout = -time.Second }, "catalog.timeout"},
		{"no base url", func(c *Config) { c.Catalog.BaseURL = "" }, "catalog.base_url"},
		{"zero rows", func(c *Config) { c.Catalog.Rows = 0 }, "catalog.rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveDefaultConfig(t *testing.T) {
	isolateDirs(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveDefaultConfig(path))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Player.Volume)
	assert.Equal(t, 300*time.Millisecond, cfg.Player.DoubleTapWindow)

	err = SaveDefaultConfig(path)
	assert.ErrorContains(t, err, "already exists")
}

func TestInitializeDirs(t *testing.T) {
	dir := isolateDirs(t)
	require.NoError(t, InitializeDirs())

	for _, p := range []string{
		filepath.Join(dir, "config", "archivist"),
		filepath.Join(dir, "data", "archivist"),
		filepath.Join(dir, "state", "archivist"),
		filepath.Join(dir, "cache", "archivist"),
	} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(dir, "config", "archivist", "config.yaml"), DefaultConfigPath())
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	isolateDirs(t)
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := InitLogger(&LoggingConfig{Level: "debug", Format: "json", File: path, MaxSize: 1})
	require.NoError(t, err)
	logger.Debug("hello", "track", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"track":3`)
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogLevel("warn")
	t.Cleanup(func() { SetLogLevel("info") })

	logger := slog.New(NewHandler(&buf, "text", false))
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	SetLogLevel("debug")
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestColoredHandlerKeepsAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetLogLevel("info")

	logger := slog.New(NewHandler(&buf, "text", true)).With("engine", "abc")
	logger.Warn("stalled", "index", 2)

	out := buf.String()
	assert.Contains(t, out, "\033[33mlevel=WARN\033[0m")
	assert.Contains(t, out, "engine=abc")
	assert.Contains(t, out, "index=2")
}

func TestColorizeLevelUnknown(t *testing.T) {
	line := []byte("time=x msg=plain\n")
	assert.Equal(t, line, colorizeLevel(line))
}
