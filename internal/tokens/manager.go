package tokens

import (
	"context"
	"time"

	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/models"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
)

// StalenessBuffer is the lookahead applied when deciding whether a token is
// still usable. A token expiring within the buffer is refreshed before use,
// absorbing clock skew and in-flight request latency.
const StalenessBuffer = 5 * time.Minute

// Manager owns the decision and persistence side of the credential
// lifecycle; platform-specific refresh mechanics live in the adapters. It is
// the sole writer of a page's token fields.
type Manager struct {
	pages repository.PageRepository
	now   func() time.Time
}

// NewManager creates a token manager
func NewManager(pages repository.PageRepository) *Manager {
	return &Manager{pages: pages, now: time.Now}
}

// NewManagerWithClock creates a token manager with an injected clock for
// staleness-boundary tests.
func NewManagerWithClock(pages repository.PageRepository, now func() time.Time) *Manager {
	return &Manager{pages: pages, now: now}
}

// EnsureValidToken returns a token safe to use for the rest of this page's
// sync, refreshing it first when expired or about to expire. The refreshed
// token and its absolute expiry are written back through the page
// repository; a failed write is logged and the in-memory token is still
// used, since a broken cache write must not block a working fetch.
func (m *Manager) EnsureValidToken(ctx context.Context, adapter platforms.Adapter, page *models.SocialPage, account *models.SocialAccount) (string, error) {
	now := m.now()

	if page.AuthToken != nil && page.AuthTokenExpiresAt != nil &&
		page.AuthTokenExpiresAt.Sub(now) >= StalenessBuffer {
		return *page.AuthToken, nil
	}

	logger.Info("Token expired or expiring soon, refreshing",
		logger.WithPlatform(page.Platform),
		logger.WithPageID(page.ID),
		logger.WithPageName(page.Name),
	)

	creds, err := adapter.Refresh(ctx, page, account)
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(time.Duration(creds.ExpiresIn) * time.Second)

	if err := m.pages.UpdateToken(ctx, page.ID, creds.AccessToken, expiresAt); err != nil {
		// Proceed with the in-memory token for this run
		logger.Error("Failed to persist refreshed token, continuing with in-memory token",
			logger.WithPlatform(page.Platform),
			logger.WithPageID(page.ID),
		)
	}

	// Keep the in-memory page consistent with what was (or should have been)
	// persisted
	page.AuthToken = &creds.AccessToken
	page.AuthTokenExpiresAt = &expiresAt

	return creds.AccessToken, nil
}
