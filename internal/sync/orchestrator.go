package sync

import (
	"context"
	"time"

	"github.com/feedbird/feedbird/backend/internal/errors"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/metrics"
	"github.com/feedbird/feedbird/backend/internal/models"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
	"github.com/feedbird/feedbird/backend/internal/tokens"
)

// PlatformGroup is one platform's pages in discovery order.
type PlatformGroup struct {
	Platform string
	Pages    []*models.SocialPage
}

// Orchestrator runs the sync pipeline: discovery, grouping, per-page
// idempotency check, credential lifecycle, fetch, normalize, persist. Pages
// within a group are processed strictly sequentially to respect per-platform
// rate limits and keep failure attribution unambiguous.
type Orchestrator struct {
	pages     repository.PageRepository
	snapshots repository.SnapshotRepository
	registry  *platforms.Registry
	tokens    *tokens.Manager
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator with its collaborators
func NewOrchestrator(pages repository.PageRepository, snapshots repository.SnapshotRepository, registry *platforms.Registry, tokenManager *tokens.Manager) *Orchestrator {
	return &Orchestrator{
		pages:     pages,
		snapshots: snapshots,
		registry:  registry,
		tokens:    tokenManager,
		now:       time.Now,
	}
}

// SetClock injects a clock for tests
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Discover lists eligible pages and partitions them by platform, preserving
// discovery order within each group. Group order follows first appearance.
func (o *Orchestrator) Discover(ctx context.Context) ([]PlatformGroup, error) {
	pages, err := o.pages.ListConnected(ctx)
	if err != nil {
		return nil, errors.Persistence("page discovery", err)
	}

	byPlatform := make(map[string]int)
	var groups []PlatformGroup
	for _, page := range pages {
		idx, ok := byPlatform[page.Platform]
		if !ok {
			idx = len(groups)
			byPlatform[page.Platform] = idx
			groups = append(groups, PlatformGroup{Platform: page.Platform})
		}
		groups[idx].Pages = append(groups[idx].Pages, page)
	}

	return groups, nil
}

// Run executes one full sync. Every reachable page is attempted exactly
// once; any per-page error is caught at the page boundary and recorded so
// one broken page or platform never aborts the run. Only discovery failure
// escapes to the caller.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{StartedAt: o.now()}
	m := metrics.Get()

	groups, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}

	for _, g := range groups {
		report.Discovered += len(g.Pages)
	}

	logger.Infof("Starting analytics sync: %d connected pages across %d platforms", report.Discovered, len(groups))

	if report.Discovered == 0 {
		logger.Info("No connected pages to sync")
		report.FinishedAt = o.now()
		return report, nil
	}

	today := models.SnapshotDateFor(o.now())

	for _, group := range groups {
		logger.Info("Processing platform group",
			logger.WithPlatform(group.Platform),
		)

		adapter, registered := o.registry.Lookup(group.Platform)

		for _, page := range group.Pages {
			o.syncPage(ctx, report, m, adapter, registered, page, today)
		}
	}

	report.FinishedAt = o.now()
	logger.Info("Analytics sync completed")
	return report, nil
}

// syncPage attempts one page and absorbs its failure, if any
func (o *Orchestrator) syncPage(ctx context.Context, report *RunReport, m *metrics.Metrics, adapter platforms.Adapter, registered bool, page *models.SocialPage, date string) {
	// Idempotency pre-check before any refresh or fetch work
	exists, err := o.snapshots.Exists(ctx, page.ID, date)
	if err == nil && exists {
		logger.Info("Snapshot already exists, skipping page",
			logger.WithPlatform(page.Platform),
			logger.WithPageName(page.Name),
			logger.WithSnapshotDate(date),
		)
		report.SkippedExisting++
		m.PagesSkippedTotal.WithLabelValues(page.Platform, "exists").Inc()
		return
	}
	// A failed probe is not fatal: the upsert's conflict key still
	// guarantees idempotency

	if !registered {
		logger.Info("Platform not yet implemented, skipping page",
			logger.WithPlatform(page.Platform),
			logger.WithPageName(page.Name),
		)
		report.SkippedUnregistered++
		m.PagesSkippedTotal.WithLabelValues(page.Platform, "unregistered_platform").Inc()
		return
	}

	if err := o.syncOne(ctx, adapter, page, date); err != nil {
		// Per-page failure boundary: log, record, continue with the next page
		logger.ErrorWithFields("Failed to sync page", err)
		logger.Error("Page sync failed",
			logger.WithPlatform(page.Platform),
			logger.WithPageID(page.ID),
			logger.WithPageName(page.Name),
		)
		report.Failed++
		report.Failures = append(report.Failures, PageFailure{
			PageID:   page.ID,
			PageName: page.Name,
			Platform: page.Platform,
			Kind:     errors.KindOf(err),
			Error:    err.Error(),
		})
		m.PagesFailedTotal.WithLabelValues(page.Platform, string(errors.KindOf(err))).Inc()
		return
	}

	report.Synced++
	m.PagesSyncedTotal.WithLabelValues(page.Platform).Inc()
}

// syncOne runs the refresh -> fetch -> normalize -> persist pipeline for a
// single page
func (o *Orchestrator) syncOne(ctx context.Context, adapter platforms.Adapter, page *models.SocialPage, date string) error {
	account := o.lookupAccount(ctx, page)

	token, err := o.tokens.EnsureValidToken(ctx, adapter, page, account)
	if err != nil {
		return err
	}

	raw, err := adapter.FetchRaw(ctx, token, page.PageID)
	if err != nil {
		return err
	}

	snapshot, err := adapter.Normalize(raw, page, date)
	if err != nil {
		return errors.Internal("normalization failed", err)
	}

	if err := o.snapshots.Upsert(ctx, snapshot); err != nil {
		return errors.Persistence("snapshot upsert", err)
	}

	logger.Info("Snapshot saved",
		logger.WithPlatform(page.Platform),
		logger.WithPageName(page.Name),
		logger.WithSnapshotDate(date),
	)
	return nil
}

// lookupAccount fetches the page's owning account. Platforms that refresh
// with the page's own token never need it, so a lookup failure is left for
// the adapter to reject when the secret is actually required.
func (o *Orchestrator) lookupAccount(ctx context.Context, page *models.SocialPage) *models.SocialAccount {
	account, err := o.pages.GetAccount(ctx, page.AccountID)
	if err != nil {
		logger.Warn("Could not load owning account",
			logger.WithPageID(page.ID),
			logger.WithAccountID(page.AccountID),
		)
		return nil
	}
	return account
}
