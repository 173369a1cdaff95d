package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/tosurnament/dashboard/internal/api"
)

type Discord struct {
	Key         string
	Secret      string
	CallbackURL string
}

type Config struct {
	Addr            string
	DatabasePath    string
	APIBaseURL      string
	SessionLifetime time.Duration
	QueryCacheTTL   time.Duration
	CSRFKey         []byte
	SessionSecret   []byte
	CookieSecure    bool
	Discord         Discord
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup. Every invalid value is
// reported, none is silently replaced by its default.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr:         get("ADDR", ":8080"),
		DatabasePath: get("DATABASE_PATH", "dashboard.db"),
		APIBaseURL:   get("API_BASE_URL", api.DefaultBaseURL),
		Discord: Discord{
			Key:         get("DISCORD_KEY", ""),
			Secret:      get("DISCORD_SECRET", ""),
			CallbackURL: get("DISCORD_CALLBACK_URL", "http://localhost:8080/auth/discord/callback"),
		},
	}

	var errs []error
	var err error
	if cfg.SessionLifetime, err = time.ParseDuration(get("SESSION_LIFETIME", "720h")); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_LIFETIME: %w", err))
	}
	if cfg.QueryCacheTTL, err = time.ParseDuration(get("QUERY_CACHE_TTL", "30s")); err != nil {
		errs = append(errs, fmt.Errorf("QUERY_CACHE_TTL: %w", err))
	}
	if cfg.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", "false")); err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
	}

	if cfg.CSRFKey, err = secret(get("CSRF_KEY", ""), cfg.CookieSecure); err != nil {
		errs = append(errs, fmt.Errorf("CSRF_KEY: %w", err))
	}
	if cfg.SessionSecret, err = secret(get("SESSION_SECRET", ""), cfg.CookieSecure); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_SECRET: %w", err))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// secret parses a 32 byte key. An unset key is only allowed without secure
// cookies, for local development, and is then generated.
func secret(value string, required bool) ([]byte, error) {
	if value != "" {
		return parseKey(value)
	}
	if required {
		return nil, errors.New("required when COOKIE_SECURE is set")
	}
	slog.Warn("secret not set, generating one that will not survive a restart")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// parseKey accepts 64 hex characters.
func parseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
