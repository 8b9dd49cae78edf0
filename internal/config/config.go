// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"eventtracker/internal/domain/event"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the resolved runtime configuration.
type Config struct {
	Addr          string
	DBPath        string
	Env           string
	CSRFKey       []byte
	AdminEmail    string
	AdminPassword string
	LogLevel      slog.Level
	RateLimit     int64 // requests per second per client IP
	MaxImageBytes int64
	Location      *time.Location
	Categories    event.Categories
	ResendKey     string
	ResendFrom    string
	NotifyTo      []string
	CloudinaryURL string
	SlowRequest   time.Duration
	SlowQuery     time.Duration
}

// IsProduction reports whether the app runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads .env when present, then the process environment.
// Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves the configuration through lookup.
// POST: every field holds a usable value or an error is returned
func FromEnv(lookup LookupFunc) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	c := Config{
		Addr:          get("EVENTS_ADDR", ":8080"),
		DBPath:        get("EVENTS_DB", get("DB_NAME", "events.db")),
		Env:           get("EVENTS_ENV", EnvDevelopment),
		AdminEmail:    get("EVENTS_ADMIN_EMAIL", ""),
		AdminPassword: get("EVENTS_ADMIN_PASSWORD", ""),
		ResendKey:     get("EVENTS_RESEND_KEY", ""),
		ResendFrom:    get("EVENTS_RESEND_FROM", "Eventos <eventos@example.com>"),
		CloudinaryURL: get("CLOUDINARY_URL", ""),
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return Config{}, fmt.Errorf("EVENTS_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	var err error
	if c.LogLevel, err = parseLevel(get("EVENTS_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if c.RateLimit, err = positiveInt("EVENTS_RATE_LIMIT", get("EVENTS_RATE_LIMIT", "10")); err != nil {
		return Config{}, err
	}
	if c.MaxImageBytes, err = positiveInt("EVENTS_MAX_IMAGE_BYTES", get("EVENTS_MAX_IMAGE_BYTES", strconv.Itoa(5<<20))); err != nil {
		return Config{}, err
	}
	slowReq, err := positiveInt("EVENTS_SLOW_REQUEST_MS", get("EVENTS_SLOW_REQUEST_MS", "200"))
	if err != nil {
		return Config{}, err
	}
	c.SlowRequest = time.Duration(slowReq) * time.Millisecond
	slowQuery, err := positiveInt("EVENTS_SLOW_QUERY_MS", get("EVENTS_SLOW_QUERY_MS", "50"))
	if err != nil {
		return Config{}, err
	}
	c.SlowQuery = time.Duration(slowQuery) * time.Millisecond

	c.Location = time.Local
	if tz := get("EVENTS_TIMEZONE", ""); tz != "" {
		if c.Location, err = time.LoadLocation(tz); err != nil {
			return Config{}, fmt.Errorf("EVENTS_TIMEZONE: %w", err)
		}
	}

	c.Categories = event.DefaultCategories()
	if path := get("EVENTS_CATEGORIES_FILE", ""); path != "" {
		if c.Categories, err = LoadCategories(path); err != nil {
			return Config{}, err
		}
	}

	for _, addr := range strings.Split(get("EVENTS_NOTIFY_TO", ""), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			c.NotifyTo = append(c.NotifyTo, addr)
		}
	}

	if c.CSRFKey, err = csrfKey(get("EVENTS_CSRF_KEY", ""), c.IsProduction()); err != nil {
		return Config{}, err
	}
	return c, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("EVENTS_LOG_LEVEL: %w", err)
	}
	return l, nil
}

func positiveInt(key, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

// csrfKey decodes a 32-byte hex key. Outside production a missing key is
// replaced by a random one, which invalidates forms across restarts.
func csrfKey(raw string, production bool) ([]byte, error) {
	if raw == "" {
		if production {
			return nil, errors.New("EVENTS_CSRF_KEY is required in production")
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		return key, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		return nil, errors.New("EVENTS_CSRF_KEY must be 64 hex characters")
	}
	return key, nil
}

type categoriesFile struct {
	Categories []event.CategoryEntry `yaml:"categories"`
}

// LoadCategories reads the ordered category list from a YAML file:
//
//	categories:
//	  - id: music
//	    label: Música
func LoadCategories(path string) (event.Categories, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return event.Categories{}, fmt.Errorf("read categories: %w", err)
	}
	var f categoriesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return event.Categories{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cats, err := event.NewCategories(f.Categories)
	if err != nil {
		return event.Categories{}, fmt.Errorf("%s: %w", path, err)
	}
	return cats, nil
}
