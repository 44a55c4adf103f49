// Package config provides application configuration for the notification
// hub client and its reference backend.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultToastTTL matches how long a notification stays on screen.
const DefaultToastTTL = 5 * time.Second

// ClientConfig configures the hub client.
type ClientConfig struct {
	BackendURL string
	StateDir   string
	ToastTTL   time.Duration
	LogLevel   slog.Level
	NoColor    bool
}

// StatePath is the sqlite file holding the persisted session.
func (c *ClientConfig) StatePath() string {
	return filepath.Join(c.StateDir, "session.db")
}

// LoadClient reads client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		BackendURL: strings.TrimRight(getEnv("HUB_BACKEND_URL", "http://localhost:8080"), "/"),
		StateDir:   getEnv("HUB_STATE_DIR", defaultStateDir()),
		ToastTTL:   getEnvDuration("HUB_TOAST_TTL", DefaultToastTTL),
		LogLevel:   parseLevel(getEnv("HUB_LOG_LEVEL", "info")),
		NoColor:    getEnvBool("HUB_NO_COLOR", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required client fields are set.
func (c *ClientConfig) Validate() error {
	if c.BackendURL == "" {
		return errors.New("HUB_BACKEND_URL cannot be empty")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("HUB_BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.StateDir == "" {
		return errors.New("HUB_STATE_DIR cannot be empty")
	}
	if c.ToastTTL <= 0 {
		return errors.New("HUB_TOAST_TTL must be > 0")
	}
	return nil
}

// BackendConfig configures the reference backend.
type BackendConfig struct {
	Port        string
	DBPath      string
	FrontendURL string
	SessionTTL  time.Duration
	Gmail       GmailConfig
}

// GmailConfig holds the OAuth client registration and fetch settings.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	FetchLimit   int
}

// Configured reports whether OAuth client credentials are present.
func (g GmailConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// LoadBackend reads backend configuration from environment variables.
func LoadBackend() (*BackendConfig, error) {
	port := getEnv("PORT", "8080")
	cfg := &BackendConfig{
		Port:        port,
		DBPath:      getEnv("DB_PATH", "./data/notifyhub.db"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 24*time.Hour),
		Gmail: GmailConfig{
			ClientID:     getEnv("GMAIL_CLIENT_ID", ""),
			ClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GMAIL_REDIRECT_URL", "http://localhost:"+port+"/api/gmail/oauth/callback"),
			FetchLimit:   getEnvInt("GMAIL_FETCH_LIMIT", 50),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required backend fields are set.
func (c *BackendConfig) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be > 0")
	}
	if c.Gmail.FetchLimit <= 0 {
		return errors.New("GMAIL_FETCH_LIMIT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *BackendConfig) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins lists the origins the CORS middleware accepts.
func (c *BackendConfig) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notifyhub")
	}
	return ".notifyhub"
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
