package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName names the config, data and state directories
const AppName = "archivist"

// Config is the full application configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Player   PlayerConfig   `mapstructure:"player" yaml:"player"`
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	User     UserConfig     `mapstructure:"user" yaml:"user"`
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// LoggingConfig configures slog output and rotation
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Color      bool   `mapstructure:"color" yaml:"color"`
}

// DatabaseConfig locates the sqlite database
type DatabaseConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum     bool   `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}

// PlayerConfig configures mpv and the playback engine
type PlayerConfig struct {
	MPVArgs        []string      `mapstructure:"mpv_args" yaml:"mpv_args"`
	LoadUserConfig bool          `mapstructure:"load_user_config" yaml:"load_user_config"`
	Volume         int           `mapstructure:"volume" yaml:"volume"`
	Autoplay       bool          `mapstructure:"autoplay" yaml:"autoplay"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	LoadTimeout    time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`

	// Fallback candidates
	Extensions       []string `mapstructure:"extensions" yaml:"extensions"`
	AudioExtensions  []string `mapstructure:"audio_extensions" yaml:"audio_extensions"`
	DerivativeMarker string   `mapstructure:"derivative_marker" yaml:"derivative_marker"`

	// Interaction thresholds
	DoubleTapWindow   time.Duration `mapstructure:"double_tap_window" yaml:"double_tap_window"`
	ControlsHideDelay time.Duration `mapstructure:"controls_hide_delay" yaml:"controls_hide_delay"`
	SkipInterval      time.Duration `mapstructure:"skip_interval" yaml:"skip_interval"`
	RestartThreshold  time.Duration `mapstructure:"restart_threshold" yaml:"restart_threshold"`
}

// CatalogConfig configures the library API client
type CatalogConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	Rows       int           `mapstructure:"rows" yaml:"rows"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`

	// CacheLifetime bounds how long item metadata is reused; zero disables the cache
	CacheLifetime time.Duration `mapstructure:"cache_lifetime" yaml:"cache_lifetime"`
}

// UserConfig identifies the local user for favorites
type UserConfig struct {
	ID string `mapstructure:"id" yaml:"id"`
}

// AdvancedConfig holds rarely changed settings
type AdvancedConfig struct {
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
}

// ClipboardConfig overrides the clipboard command
type ClipboardConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
}

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.color", true)

	// Database
	v.SetDefault("database.path", filepath.Join(GetDataDir(), "archivist.db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)
	v.SetDefault("database.auto_vacuum", true)

	// Player
	v.SetDefault("player.mpv_args", []string{})
	v.SetDefault("player.load_user_config", false)
	v.SetDefault("player.volume", 100)
	v.SetDefault("player.autoplay", true)
	v.SetDefault("player.poll_interval", "250ms")
	v.SetDefault("player.load_timeout", "30s")
	v.SetDefault("player.extensions", []string{"mp4", "webm", "ogv", "mov"})
	v.SetDefault("player.audio_extensions", []string{"mp3", "ogg", "flac", "m4a"})
	v.SetDefault("player.derivative_marker", ".ia")
	v.SetDefault("player.double_tap_window", "300ms")
	v.SetDefault("player.controls_hide_delay", "3s")
	v.SetDefault("player.skip_interval", "10s")
	v.SetDefault("player.restart_threshold", "3s")

	// Catalog
	v.SetDefault("catalog.base_url", "https://archive.org")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.rows", 25)
	v.SetDefault("catalog.cache_lifetime", "24h")
	v.SetDefault("catalog.user_agent", "archivist/1.0 (+https://github.com/justchokingaround/archivist)")

	// User
	v.SetDefault("user.id", "")

	// Advanced
	v.SetDefault("advanced.debug", false)
	v.SetDefault("advanced.clipboard.command", "")
}

// Load reads the configuration. An empty path uses the default location;
// a missing file is not an error. Environment variables prefixed with
// ARCHIVIST_ override file values (ARCHIVIST_PLAYER_VOLUME=50).
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(GetConfigDir())
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Decode unmarshals and validates the settings held by v
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot work with
func (c *Config) Validate() error {
	var errs []error

	if c.Player.Volume < 0 || c.Player.Volume > 100 {
		errs = append(errs, fmt.Errorf("player.volume must be between 0 and 100, got %d", c.Player.Volume))
	}
	if len(c.Player.Extensions) == 0 {
		errs = append(errs, errors.New("player.extensions must not be empty"))
	}
	durations := map[string]time.Duration{
		"player.poll_interval":       c.Player.PollInterval,
		"player.load_timeout":        c.Player.LoadTimeout,
		"player.double_tap_window":   c.Player.DoubleTapWindow,
		"player.controls_hide_delay": c.Player.ControlsHideDelay,
		"player.skip_interval":       c.Player.SkipInterval,
		"player.restart_threshold":   c.Player.RestartThreshold,
		"catalog.timeout":            c.Catalog.Timeout,
		"catalog.cache_lifetime":     c.Catalog.CacheLifetime,
	}
	for _, key := range slices.Sorted(maps.Keys(durations)) {
		if durations[key] < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, durations[key]))
		}
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog.base_url must not be empty"))
	}
	if c.Catalog.Rows <= 0 {
		errs = append(errs, fmt.Errorf("catalog.rows must be positive, got %d", c.Catalog.Rows))
	}

	return errors.Join(errs...)
}

// SaveDefaultConfig writes the default configuration as YAML to path.
// An existing file is left alone.
func SaveDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	v := viper.New()
	SetDefaults(v)

	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// InitializeDirs creates the config, data, cache and state directories
func InitializeDirs() error {
	for _, dir := range []string{GetConfigDir(), GetDataDir(), GetCacheDir(), filepath.Join(GetStateDir(), AppName)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultConfigPath returns the config file used when no path is given
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetConfigDir returns $XDG_CONFIG_HOME/archivist
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir(), ".config", AppName)
}

// GetDataDir returns $XDG_DATA_HOME/archivist
func GetDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir(), ".local", "share", AppName)
}

// GetCacheDir returns $XDG_CACHE_HOME/archivist
func GetCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir(), ".cache", AppName)
}

// GetStateDir returns $XDG_STATE_HOME (the application subdirectory is
// added by callers)
func GetStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "state")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}
