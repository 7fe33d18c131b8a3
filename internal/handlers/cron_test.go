package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/models"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
	"github.com/feedbird/feedbird/backend/internal/sync"
	"github.com/feedbird/feedbird/backend/internal/tokens"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTests()
	m.Run()
}

func completeConfig() *config.Config {
	return &config.Config{
		DatabaseURL: "sqlite::memory:",
		Platforms: map[string]config.PlatformCredentials{
			"youtube":  {ClientID: "yt-id", ClientSecret: "yt-secret"},
			"facebook": {ClientID: "fb-id", ClientSecret: "fb-secret"},
		},
		HTTPTimeout: config.DefaultHTTPTimeout,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SocialAccount{},
		&models.SocialPage{},
		&models.AnalyticsSnapshot{},
	))

	pages := repository.NewPageRepository(db)
	snapshots := repository.NewSnapshotRepository(db)
	registry := platforms.NewRegistry()
	manager := tokens.NewManager(pages)
	orch := sync.NewOrchestrator(pages, snapshots, registry, manager)
	entrypoint := sync.NewEntrypoint(cfg, db, nil, orch)

	return SetupRouter(entrypoint, db), db
}

func performRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyticsSyncSuccessEnvelope(t *testing.T) {
	router, _ := newTestRouter(t, completeConfig())

	w := performRequest(router, http.MethodPost, "/api/v1/cron/analytics-sync")
	require.Equal(t, http.StatusOK, w.Code)

	var result sync.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Analytics sync completed")
	assert.Empty(t, result.Error)
	assert.WithinDuration(t, time.Now().UTC(), result.Timestamp, 5*time.Second)
	require.NotNil(t, result.Report)
	assert.Zero(t, result.Report.Discovered)
}

func TestAnalyticsSyncConfigErrorEnvelope(t *testing.T) {
	cfg := completeConfig()
	cfg.Platforms["youtube"] = config.PlatformCredentials{}
	router, _ := newTestRouter(t, cfg)

	w := performRequest(router, http.MethodPost, "/api/v1/cron/analytics-sync")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var result sync.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.False(t, result.Success)
	assert.Equal(t, "CONFIG_ERROR", result.Error)
	assert.Contains(t, result.Details, "YOUTUBE_CLIENT_ID")
	assert.Contains(t, result.Details, "YOUTUBE_CLIENT_SECRET")
	assert.Empty(t, result.Message)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, completeConfig())

	w := performRequest(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusForMapsFatalKinds(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor("CONFIG_ERROR"))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("CONNECTIVITY_ERROR"))
	assert.Equal(t, http.StatusConflict, statusFor("RUN_LOCKED"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("INTERNAL_ERROR"))
}
