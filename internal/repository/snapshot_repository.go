package repository

import (
	"context"

	"github.com/feedbird/feedbird/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository owns the write path for analytics snapshots. Exists is a
// cheap pre-check; Upsert's conflict target on (page_id, snapshot_date) is
// the actual idempotency enforcement, and the two share the same key.
type SnapshotRepository interface {
	Exists(ctx context.Context, pageID string, date string) (bool, error)
	Upsert(ctx context.Context, snapshot *models.AnalyticsSnapshot) error
}

// snapshotRepository implements SnapshotRepository
type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Exists probes for a snapshot by exact (page, date) match
func (r *snapshotRepository) Exists(ctx context.Context, pageID string, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AnalyticsSnapshot{}).
		Where("page_id = ? AND snapshot_date = ?", pageID, date).
		Count(&count).Error
	return count > 0, err
}

// Upsert writes a snapshot, replacing the prior row's values on conflict
func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *models.AnalyticsSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "page_id"}, {Name: "snapshot_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"follower_count",
				"following_count",
				"post_count",
				"total_views",
				"total_likes",
				"page_impressions",
				"page_reach",
				"page_engagement",
				"raw_metrics",
				"demographic_data",
				"platform_metadata",
				"updated_at",
			}),
		}).
		Create(snapshot).Error
}
