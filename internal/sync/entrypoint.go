package sync

import (
	"context"
	"time"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/database"
	"github.com/feedbird/feedbird/backend/internal/errors"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/metrics"
	"github.com/feedbird/feedbird/backend/internal/runlock"
	"gorm.io/gorm"
)

// RunResult is the structured, operator-visible outcome of one invocation.
// Per-page failures never surface here; they are expected operational noise
// visible through logs and the embedded report.
type RunResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Report *RunReport `json:"report,omitempty"`
}

// Entrypoint validates configuration, probes store connectivity, guards
// against overlapping runs and invokes the orchestrator. It is the only
// place a fatal (run-aborting) failure can originate.
type Entrypoint struct {
	cfg  *config.Config
	db   *gorm.DB
	lock *runlock.Lock // nil when Redis is not configured
	orch *Orchestrator
}

// NewEntrypoint wires the run entrypoint
func NewEntrypoint(cfg *config.Config, db *gorm.DB, lock *runlock.Lock, orch *Orchestrator) *Entrypoint {
	return &Entrypoint{cfg: cfg, db: db, lock: lock, orch: orch}
}

// Run executes one guarded sync invocation
func (e *Entrypoint) Run(ctx context.Context) RunResult {
	m := metrics.Get()
	started := time.Now()

	// Fail fast with the complete list of absent settings, before touching
	// the network or the store
	if missing := e.cfg.Missing(); len(missing) > 0 {
		err := errors.Config(missing)
		m.RunsTotal.WithLabelValues("config_error").Inc()
		return failure(err)
	}

	if err := database.Health(e.db); err != nil {
		m.RunsTotal.WithLabelValues("connectivity_error").Inc()
		return failure(errors.Connectivity(err))
	}

	if e.lock != nil {
		acquired, err := e.lock.Acquire(ctx)
		if err != nil {
			// The lock is a guard, not a dependency: run lockless when Redis
			// misbehaves, as the unguarded engine always did
			logger.ErrorWithFields("Run lock unavailable, proceeding without it", err)
		} else if !acquired {
			m.RunsTotal.WithLabelValues("locked").Inc()
			return failure(errors.RunLocked())
		} else {
			defer func() {
				if err := e.lock.Release(ctx); err != nil {
					logger.ErrorWithFields("Failed to release run lock", err)
				}
			}()
		}
	}

	report, err := e.orch.Run(ctx)
	if err != nil {
		// Should not normally happen given per-page isolation
		m.RunsTotal.WithLabelValues("error").Inc()
		return failure(err)
	}

	m.RunsTotal.WithLabelValues("success").Inc()
	m.RunDurationSeconds.Observe(time.Since(started).Seconds())

	return RunResult{
		Success:   true,
		Message:   "Analytics sync completed. " + report.Summary(),
		Timestamp: time.Now().UTC(),
		Report:    report,
	}
}

// failure builds the error envelope
func failure(err error) RunResult {
	return RunResult{
		Error:     string(errors.KindOf(err)),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
