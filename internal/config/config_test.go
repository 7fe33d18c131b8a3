package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearSyncEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET",
		"FACEBOOK_CLIENT_ID", "FACEBOOK_CLIENT_SECRET",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD",
		"SYNC_HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestMissingListsEveryAbsentKey(t *testing.T) {
	clearSyncEnv(t)

	cfg := Load()
	missing := cfg.Missing()

	assert.ElementsMatch(t, []string{
		"DATABASE_URL",
		"YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET",
		"FACEBOOK_CLIENT_ID", "FACEBOOK_CLIENT_SECRET",
	}, missing)
}

func TestMissingEmptyWhenComplete(t *testing.T) {
	clearSyncEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/feedbird")
	t.Setenv("YOUTUBE_CLIENT_ID", "yt-id")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "yt-secret")
	t.Setenv("FACEBOOK_CLIENT_ID", "fb-id")
	t.Setenv("FACEBOOK_CLIENT_SECRET", "fb-secret")

	cfg := Load()
	assert.Empty(t, cfg.Missing())

	creds, ok := cfg.PlatformCreds("youtube")
	require.True(t, ok)
	assert.Equal(t, "yt-id", creds.ClientID)
	assert.Equal(t, "yt-secret", creds.ClientSecret)

	_, ok = cfg.PlatformCreds("tiktok")
	assert.False(t, ok)
}

func TestDatabaseURLFromComponents(t *testing.T) {
	clearSyncEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_NAME", "analytics")

	cfg := Load()
	assert.Equal(t,
		"host=db.internal port=5432 user=postgres password=hunter2 dbname=analytics sslmode=disable",
		cfg.DatabaseURL)
}

func TestHTTPTimeout(t *testing.T) {
	clearSyncEnv(t)

	assert.Equal(t, DefaultHTTPTimeout, Load().HTTPTimeout)

	t.Setenv("SYNC_HTTP_TIMEOUT", "10s")
	assert.Equal(t, 10*time.Second, Load().HTTPTimeout)

	t.Setenv("SYNC_HTTP_TIMEOUT", "not-a-duration")
	assert.Equal(t, DefaultHTTPTimeout, Load().HTTPTimeout)

	t.Setenv("SYNC_HTTP_TIMEOUT", "-5s")
	assert.Equal(t, DefaultHTTPTimeout, Load().HTTPTimeout)
}

func TestRedisEnabled(t *testing.T) {
	clearSyncEnv(t)
	assert.False(t, Load().RedisEnabled())

	t.Setenv("REDIS_HOST", "localhost")
	cfg := Load()
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "6379", cfg.RedisPort)
}
