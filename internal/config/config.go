package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	Session SessionConfig `toml:"session"`
	Feed    FeedConfig    `toml:"feed"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

type AuthConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type SessionConfig struct {
	// DSN selects the credential store: a JSON file path, ":memory:", or a
	// libsql:// URL.
	DSN string `toml:"dsn"`
}

type FeedConfig struct {
	Filename   string   `toml:"filename"`
	Href       string   `toml:"href"`
	Title      string   `toml:"title"`
	Link       string   `toml:"link"`
	PageSize   int      `toml:"page_size"`
	SkipSeries []string `toml:"skip_series"`
}

type ServerConfig struct {
	Port     int      `toml:"port"`
	CacheTTL duration `toml:"cache_ttl"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// duration lets TOML carry values like "15m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Load reads the optional TOML config file, with .env and environment
// variables layered on top. Credentials normally arrive via
// CRUNCHYROLL_USERNAME / CRUNCHYROLL_PASSWORD so they stay out of the
// config file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Session: SessionConfig{DSN: "session.json"},
		Feed: FeedConfig{
			Filename: "crunchyroll.xml",
			Title:    "Crunchyroll Viewing History",
			Link:     "https://www.crunchyroll.com/",
			PageSize: 50,
		},
		Server: ServerConfig{Port: 8080, CacheTTL: duration{15 * time.Minute}},
		Log:    LogConfig{Level: "info"},
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Auth.Username = GetEnv("CRUNCHYROLL_USERNAME", cfg.Auth.Username).(string)
	cfg.Auth.Password = GetEnv("CRUNCHYROLL_PASSWORD", cfg.Auth.Password).(string)
	cfg.Session.DSN = GetEnv("SESSION_DSN", cfg.Session.DSN).(string)
	cfg.Feed.Filename = GetEnv("FEED_FILENAME", cfg.Feed.Filename).(string)
	cfg.Feed.PageSize = GetEnv("FEED_PAGE_SIZE", cfg.Feed.PageSize).(int)
	cfg.Server.Port = GetEnv("PORT", cfg.Server.Port).(int)
	cfg.Server.CacheTTL.Duration = GetEnv("CACHE_TTL", cfg.Server.CacheTTL.Duration).(time.Duration)
	cfg.Log.Level = GetEnv("LOG_LEVEL", cfg.Log.Level).(string)

	return cfg, nil
}

// GetEnv reads an environment variable coerced to the type of defaultValue,
// falling back to the default when unset or unparseable.
func GetEnv(key string, defaultValue any) any {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch def := defaultValue.(type) {
	case string:
		return value
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		return def
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		return def
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		return def
	default:
		panic(fmt.Sprintf("unsupported type %T", defaultValue))
	}
}
