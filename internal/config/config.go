package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// PlatformCredentials is one OAuth client id/secret pair for a platform that
// supports token refresh.
type PlatformCredentials struct {
	ClientID     string
	ClientSecret string
}

// Config holds everything the sync engine reads from the environment.
type Config struct {
	DatabaseURL string

	// Client credentials per platform, keyed by platform identifier.
	Platforms map[string]PlatformCredentials

	// Optional Redis run-lock settings. Empty host disables the lock.
	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string

	// Bound on each outbound platform call. Zero falls back to DefaultHTTPTimeout.
	HTTPTimeout time.Duration
}

// DefaultHTTPTimeout bounds credential refresh and analytics fetch calls so a
// stuck platform endpoint becomes an ordinary per-page failure instead of
// stalling the rest of the group.
const DefaultHTTPTimeout = 30 * time.Second

// refreshPlatforms is the closed set of platforms whose client credentials
// are required for token refresh. Env var names derive from the identifier,
// e.g. YOUTUBE_CLIENT_ID / YOUTUBE_CLIENT_SECRET.
var refreshPlatforms = []string{"youtube", "facebook"}

// Load reads configuration from the environment. It never fails by itself;
// call Missing to get the full list of absent required keys at once.
func Load() *Config {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "")
		if host != "" {
			databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host,
				getEnvOrDefault("DB_PORT", "5432"),
				getEnvOrDefault("DB_USER", "postgres"),
				os.Getenv("DB_PASSWORD"),
				getEnvOrDefault("DB_NAME", "feedbird"),
				getEnvOrDefault("DB_SSLMODE", "disable"),
			)
		}
	}

	timeout := DefaultHTTPTimeout
	if v := os.Getenv("SYNC_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	platforms := make(map[string]PlatformCredentials, len(refreshPlatforms))
	for _, p := range refreshPlatforms {
		prefix := strings.ToUpper(p)
		platforms[p] = PlatformCredentials{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		}
	}

	return &Config{
		DatabaseURL: databaseURL,
		Platforms:   platforms,
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		LogFile:       os.Getenv("LOG_FILE"),
		HTTPTimeout:   timeout,
	}
}

// Missing returns the names of every required setting that is absent, so the
// operator sees the complete list in one failure instead of one at a time.
func (c *Config) Missing() []string {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	for _, p := range refreshPlatforms {
		prefix := strings.ToUpper(p)
		creds := c.Platforms[p]
		if creds.ClientID == "" {
			missing = append(missing, prefix+"_CLIENT_ID")
		}
		if creds.ClientSecret == "" {
			missing = append(missing, prefix+"_CLIENT_SECRET")
		}
	}
	return missing
}

// PlatformCreds returns the client credentials for a platform identifier.
func (c *Config) PlatformCreds(platform string) (PlatformCredentials, bool) {
	creds, ok := c.Platforms[platform]
	return creds, ok
}

// RedisEnabled reports whether the optional run lock can be used.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
