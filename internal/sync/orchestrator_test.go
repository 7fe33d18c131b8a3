package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/models"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
	"github.com/feedbird/feedbird/backend/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.InitializeForTests()
	m.Run()
}

var testNow = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

// stubAdapter is a controllable platform adapter for orchestrator tests
type stubAdapter struct {
	platform     string
	fetchErrFor  map[string]error // keyed by native page id
	refreshErr   error
	refreshCreds *platforms.Credentials
	fetchCalls   int
	refreshCalls int
}

func (s *stubAdapter) Platform() string { return s.platform }

func (s *stubAdapter) Refresh(ctx context.Context, page *models.SocialPage, account *models.SocialAccount) (*platforms.Credentials, error) {
	s.refreshCalls++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	if s.refreshCreds != nil {
		return s.refreshCreds, nil
	}
	return &platforms.Credentials{AccessToken: "refreshed-token", ExpiresIn: 3600}, nil
}

func (s *stubAdapter) FetchRaw(ctx context.Context, token, nativePageID string) (interface{}, error) {
	s.fetchCalls++
	if err, ok := s.fetchErrFor[nativePageID]; ok {
		return nil, err
	}
	return map[string]interface{}{"pageId": nativePageID, "token": token}, nil
}

func (s *stubAdapter) Normalize(raw interface{}, page *models.SocialPage, date string) (*models.AnalyticsSnapshot, error) {
	return &models.AnalyticsSnapshot{
		PageID:        page.ID,
		AccountID:     page.AccountID,
		Platform:      s.platform,
		SnapshotDate:  date,
		FollowerCount: models.Int64Ptr(42),
		RawMetrics:    models.JSONMap{"stub": true},
	}, nil
}

type fixture struct {
	db        *gorm.DB
	pages     repository.PageRepository
	snapshots repository.SnapshotRepository
	registry  *platforms.Registry
	orch      *Orchestrator
}

func newFixture(t *testing.T, adapters ...platforms.Adapter) *fixture {
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
	registry := platforms.NewRegistry(adapters...)
	manager := tokens.NewManagerWithClock(pages, func() time.Time { return testNow })

	orch := NewOrchestrator(pages, snapshots, registry, manager)
	orch.SetClock(func() time.Time { return testNow })

	return &fixture{db: db, pages: pages, snapshots: snapshots, registry: registry, orch: orch}
}

func (f *fixture) addPage(t *testing.T, platform, nativeID, name string, expiresIn time.Duration) *models.SocialPage {
	t.Helper()

	refresh := "refresh-secret"
	account := &models.SocialAccount{Platform: platform, RefreshToken: &refresh}
	require.NoError(t, f.db.Create(account).Error)

	token := "valid-token-" + nativeID
	expiry := testNow.Add(expiresIn)
	page := &models.SocialPage{
		AccountID:          account.ID,
		Platform:           platform,
		PageID:             nativeID,
		Name:               name,
		AuthToken:          &token,
		AuthTokenExpiresAt: &expiry,
		Connected:          true,
	}
	require.NoError(t, f.db.Create(page).Error)
	return page
}

func (f *fixture) snapshotCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.AnalyticsSnapshot{}).Count(&count).Error)
	return count
}

func TestFreshSync(t *testing.T) {
	yt := &stubAdapter{platform: "youtube"}
	fb := &stubAdapter{platform: "facebook"}
	f := newFixture(t, yt, fb)

	f.addPage(t, "youtube", "yt-1", "Channel One", time.Hour)
	f.addPage(t, "facebook", "fb-1", "Page One", time.Hour)
	f.addPage(t, "facebook", "fb-2", "Page Two", time.Hour)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 3, report.Synced)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.SkippedExisting)
	assert.Equal(t, int64(3), f.snapshotCount(t))

	// Valid unexpired tokens: nothing was refreshed
	assert.Zero(t, yt.refreshCalls)
	assert.Zero(t, fb.refreshCalls)

	var snapshots []models.AnalyticsSnapshot
	require.NoError(t, f.db.Find(&snapshots).Error)
	for _, s := range snapshots {
		assert.Equal(t, models.SnapshotDateFor(testNow), s.SnapshotDate)
	}
}

func TestPerPageFailureIsolation(t *testing.T) {
	fb := &stubAdapter{
		platform:    "facebook",
		fetchErrFor: map[string]error{"fb-2": fmt.Errorf("platform outage")},
	}
	yt := &stubAdapter{platform: "youtube"}
	f := newFixture(t, fb, yt)

	f.addPage(t, "facebook", "fb-1", "Before Failure", time.Hour)
	failing := f.addPage(t, "facebook", "fb-2", "Failing Page", time.Hour)
	f.addPage(t, "facebook", "fb-3", "After Failure", time.Hour)
	f.addPage(t, "youtube", "yt-1", "Other Group", time.Hour)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err, "per-page failures must never escape the run")

	assert.Equal(t, 3, report.Synced)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, failing.ID, report.Failures[0].PageID)
	assert.Equal(t, "facebook", report.Failures[0].Platform)

	assert.Equal(t, int64(3), f.snapshotCount(t))

	exists, err := f.snapshots.Exists(context.Background(), failing.ID, models.SnapshotDateFor(testNow))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRerunSameDayShortCircuits(t *testing.T) {
	yt := &stubAdapter{platform: "youtube"}
	fb := &stubAdapter{platform: "facebook"}
	f := newFixture(t, yt, fb)

	f.addPage(t, "youtube", "yt-1", "Channel One", time.Hour)
	f.addPage(t, "facebook", "fb-1", "Page One", time.Hour)
	f.addPage(t, "facebook", "fb-2", "Page Two", time.Hour)

	_, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	fetchesAfterFirstRun := yt.fetchCalls + fb.fetchCalls

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Synced)
	assert.Equal(t, 3, report.SkippedExisting)
	assert.Equal(t, int64(3), f.snapshotCount(t))

	// The short-circuit happens before fetch and before token refresh
	assert.Equal(t, fetchesAfterFirstRun, yt.fetchCalls+fb.fetchCalls)
	assert.Zero(t, yt.refreshCalls+fb.refreshCalls)
}

func TestUnregisteredPlatformIsSkippedNotFailed(t *testing.T) {
	f := newFixture(t, &stubAdapter{platform: "youtube"})

	f.addPage(t, "unknown_platform", "mystery-1", "Mystery Page", time.Hour)
	f.addPage(t, "youtube", "yt-1", "Channel One", time.Hour)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.SkippedUnregistered)
	assert.Zero(t, report.Failed)
	assert.Equal(t, int64(1), f.snapshotCount(t))
}

func TestHalfStaleCredentialRefreshesThenSyncs(t *testing.T) {
	yt := &stubAdapter{
		platform:     "youtube",
		refreshCreds: &platforms.Credentials{AccessToken: "brand-new-token", ExpiresIn: 7200},
	}
	f := newFixture(t, yt)

	// Expires in one minute, well inside the staleness buffer
	page := f.addPage(t, "youtube", "yt-1", "Stale Channel", time.Minute)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, yt.refreshCalls)
	assert.Equal(t, int64(1), f.snapshotCount(t))

	// The credential store reflects the refreshed token and expiry
	var reloaded models.SocialPage
	require.NoError(t, f.db.First(&reloaded, "id = ?", page.ID).Error)
	require.NotNil(t, reloaded.AuthToken)
	assert.Equal(t, "brand-new-token", *reloaded.AuthToken)
	require.NotNil(t, reloaded.AuthTokenExpiresAt)
	assert.WithinDuration(t, testNow.Add(2*time.Hour), *reloaded.AuthTokenExpiresAt, time.Second)
}

func TestRefreshFailureIsPerPage(t *testing.T) {
	yt := &stubAdapter{platform: "youtube", refreshErr: fmt.Errorf("invalid_grant")}
	f := newFixture(t, yt)

	f.addPage(t, "youtube", "yt-1", "Revoked Channel", -time.Hour)
	f.addPage(t, "youtube", "yt-2", "Healthy Channel", time.Hour)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, int64(1), f.snapshotCount(t))
}

func TestZeroPagesIsSuccess(t *testing.T) {
	f := newFixture(t, &stubAdapter{platform: "youtube"})

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Discovered)
	assert.Zero(t, report.Synced)
	assert.Zero(t, report.Failed)
}

func TestDiscoverGroupsByPlatformPreservingOrder(t *testing.T) {
	f := newFixture(t)

	f.addPage(t, "youtube", "yt-1", "First", time.Hour)
	time.Sleep(5 * time.Millisecond)
	f.addPage(t, "facebook", "fb-1", "Second", time.Hour)
	time.Sleep(5 * time.Millisecond)
	f.addPage(t, "youtube", "yt-2", "Third", time.Hour)

	groups, err := f.orch.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "youtube", groups[0].Platform)
	require.Len(t, groups[0].Pages, 2)
	assert.Equal(t, "yt-1", groups[0].Pages[0].PageID)
	assert.Equal(t, "yt-2", groups[0].Pages[1].PageID)

	assert.Equal(t, "facebook", groups[1].Platform)
	require.Len(t, groups[1].Pages, 1)
}
