package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/municipal-tracker/internal/constants"
)

// BarkSettings configures the optional push channel of `tracker watch`.
type BarkSettings struct {
	Server    string `mapstructure:"server" yaml:"server"`
	DeviceKey string `mapstructure:"device_key" yaml:"device_key"`
	Group     string `mapstructure:"group" yaml:"group"`
}

// Settings is the client configuration.
type Settings struct {
	ServerURL     string       `mapstructure:"server_url" yaml:"server_url"`
	Token         string       `mapstructure:"token" yaml:"token"`
	Timezone      string       `mapstructure:"timezone" yaml:"timezone"`
	LookaheadDays int          `mapstructure:"lookahead_days" yaml:"lookahead_days"`
	WatchInterval string       `mapstructure:"watch_interval" yaml:"watch_interval"`
	Bark          BarkSettings `mapstructure:"bark" yaml:"bark"`

	path string
	loc  *time.Location
}

// DefaultSettingsPath returns ~/.config/municipal-tracker/config.yaml.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "tracker.yaml")
	}
	return filepath.Join(home, ".config", "municipal-tracker", "config.yaml")
}

// LoadSettings reads path with viper. A missing file yields the defaults.
// TRACKER_* environment variables override file values.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("tracker")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("lookahead_days", constants.DefaultLookaheadDays)
	v.SetDefault("watch_interval", "1h")
	v.SetDefault("bark.server", "https://api.day.app")
	v.SetDefault("bark.device_key", "")
	v.SetDefault("bark.group", "municipal-tracker")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	s := &Settings{path: path}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	s.loc = loc

	if s.LookaheadDays < 0 {
		return nil, fmt.Errorf("lookahead_days must not be negative")
	}
	if _, err := s.Interval(); err != nil {
		return nil, err
	}
	return s, nil
}

// Location is the timezone calendar days are computed in.
func (s *Settings) Location() *time.Location {
	return s.loc
}

// Lookahead returns the near-deadline window.
func (s *Settings) Lookahead() time.Duration {
	return time.Duration(s.LookaheadDays) * 24 * time.Hour
}

// Interval returns the dispatcher period of `tracker watch`.
func (s *Settings) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(s.WatchInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid watch_interval %q", s.WatchInterval)
	}
	return d, nil
}

// Save writes the settings back to their file, creating parent directories.
// The file holds the bearer token, so it is only readable by its owner.
func (s *Settings) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("server_url", s.ServerURL)
	v.Set("token", s.Token)
	v.Set("timezone", s.Timezone)
	v.Set("lookahead_days", s.LookaheadDays)
	v.Set("watch_interval", s.WatchInterval)
	v.Set("bark.server", s.Bark.Server)
	v.Set("bark.device_key", s.Bark.DeviceKey)
	v.Set("bark.group", s.Bark.Group)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config to %s: %w", s.path, err)
	}
	return os.Chmod(s.path, 0o600)
}
