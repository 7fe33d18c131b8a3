// Package backend provides the FeedBird analytics sync service.

// This package contains the module root. The implementation is organized
// into subpackages:

// - internal/handlers: HTTP endpoints for the scheduler trigger and health
// - internal/models: Data models and database schemas
// - internal/platforms: Per-platform analytics adapters (YouTube, Facebook)
// - internal/tokens: Credential lifecycle and refresh
// - internal/sync: Sync orchestration and the run entrypoint
// - internal/repository: Store access for pages, accounts and snapshots
// - internal/database: Database connection and migrations
// - internal/runlock: Redis-backed overlapping-run guard
// - internal/config: Environment configuration
// - internal/logger: Structured logging
// - internal/metrics: Prometheus instrumentation

// See the individual package documentation for detailed reference.
package backend
