package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "sptx"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Behavior    BehaviorConfig    `toml:"behavior"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// BehaviorConfig tunes the interactive client.
type BehaviorConfig struct {
	TickRateMS        int     `toml:"tick_rate_ms"`
	SeekMS            int     `toml:"seek_ms"`
	VolumeIncrement   int     `toml:"volume_increment"`
	PlaybackPollMS    int     `toml:"playback_poll_ms"`
	DevicePollMS      int     `toml:"device_poll_ms"`
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RetryMaxAttempts  int     `toml:"retry_max_attempts"`
}

// LogConfig controls where the TUI writes its log and at which level.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// TickRate returns the render interval.
func (b BehaviorConfig) TickRate() time.Duration {
	return time.Duration(b.TickRateMS) * time.Millisecond
}

// SeekStep returns the seek increment.
func (b BehaviorConfig) SeekStep() time.Duration {
	return time.Duration(b.SeekMS) * time.Millisecond
}

// PlaybackPoll returns the interval between playback refreshes.
func (b BehaviorConfig) PlaybackPoll() time.Duration {
	return time.Duration(b.PlaybackPollMS) * time.Millisecond
}

// DevicePoll returns the interval between device list refreshes.
func (b BehaviorConfig) DevicePoll() time.Duration {
	return time.Duration(b.DevicePollMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyPathDefaults()
	return &config
}

// applyPathDefaults fills empty file paths with XDG locations.
func (c *Config) applyPathDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(xdg.DataHome, appName, "sptx.db")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(xdg.StateHome, appName, "sptx.log")
	}
}

// Validate checks value ranges that would break the client at runtime.
func (c *Config) Validate() error {
	b := c.Behavior
	switch {
	case b.TickRateMS <= 0 || b.TickRateMS >= 1000:
		return fmt.Errorf("%w: tick_rate_ms must be between 1 and 999, got %d", ErrInvalidConfig, b.TickRateMS)
	case b.SeekMS <= 0:
		return fmt.Errorf("%w: seek_ms must be positive", ErrInvalidConfig)
	case b.VolumeIncrement <= 0 || b.VolumeIncrement > 100:
		return fmt.Errorf("%w: volume_increment must be between 1 and 100", ErrInvalidConfig)
	case b.PlaybackPollMS <= 0 || b.DevicePollMS <= 0:
		return fmt.Errorf("%w: poll intervals must be positive", ErrInvalidConfig)
	case b.PageSize <= 0 || b.PageSize > 50:
		return fmt.Errorf("%w: page_size must be between 1 and 50", ErrInvalidConfig)
	case b.RequestsPerSecond < 0 || b.RetryMaxAttempts < 0:
		return fmt.Errorf("%w: rate and retry settings cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfigPath returns the XDG location of config.toml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes c as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, c *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
