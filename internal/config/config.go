package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/municipal-tracker/internal/constants"
	"github.com/yukikurage/municipal-tracker/internal/utils"
)

type Config struct {
	Port           string
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPath         string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	JWTSecret      string
	TokenTTL       time.Duration
	GinMode        string
	LogLevel       string
	AllowedOrigins []string
	Location       *time.Location

	LookaheadDays          int
	OverdueSweepInterval   time.Duration
	RequireNoteFromOverdue bool
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required in release mode")

// Load reads the configuration from the environment and, when CONFIG_FILE is
// set, from that YAML file. Environment variables win over file values.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_user", "trackeruser")
	v.SetDefault("db_password", "trackerpassword")
	v.SetDefault("db_name", "municipal_tracker")
	v.SetDefault("db_path", "tracker.db")
	v.SetDefault("redis_host", "")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl_hours", 12)
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("lifecycle_lookahead_days", constants.DefaultLookaheadDays)
	v.SetDefault("overdue_sweep_interval", constants.DefaultOverdueSweepPeriod.String())
	v.SetDefault("require_note_from_overdue", true)

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	sweep, err := time.ParseDuration(v.GetString("overdue_sweep_interval"))
	if err != nil || sweep <= 0 {
		return nil, fmt.Errorf("invalid OVERDUE_SWEEP_INTERVAL %q", v.GetString("overdue_sweep_interval"))
	}

	lookahead := v.GetInt("lifecycle_lookahead_days")
	if lookahead < 0 {
		return nil, fmt.Errorf("LIFECYCLE_LOOKAHEAD_DAYS must not be negative")
	}

	cfg := &Config{
		Port:                   v.GetString("port"),
		DBDriver:               strings.ToLower(v.GetString("db_driver")),
		DBHost:                 v.GetString("db_host"),
		DBPort:                 v.GetString("db_port"),
		DBUser:                 v.GetString("db_user"),
		DBPassword:             v.GetString("db_password"),
		DBName:                 v.GetString("db_name"),
		DBPath:                 v.GetString("db_path"),
		RedisHost:              v.GetString("redis_host"),
		RedisPort:              v.GetString("redis_port"),
		RedisPassword:          v.GetString("redis_password"),
		JWTSecret:              v.GetString("jwt_secret"),
		TokenTTL:               time.Duration(v.GetInt("token_ttl_hours")) * time.Hour,
		GinMode:                v.GetString("gin_mode"),
		LogLevel:               v.GetString("log_level"),
		AllowedOrigins:         splitList(v.GetString("allowed_origins")),
		Location:               loc,
		LookaheadDays:          lookahead,
		OverdueSweepInterval:   sweep,
		RequireNoteFromOverdue: v.GetBool("require_note_from_overdue"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsRelease() {
			return nil, ErrMissingJWTSecret
		}
		// Tokens issued with a generated secret do not survive a restart.
		secret, err := utils.GenerateSecret(32)
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	return cfg, nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// RedisEnabled reports whether a redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// RedisAddr returns host:port for the redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Lookahead returns the near-deadline window.
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.LookaheadDays) * 24 * time.Hour
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
