package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap is a free-form payload stored as jsonb
type JSONMap map[string]interface{}

// SnapshotDateLayout is the day-granularity key format for snapshots.
const SnapshotDateLayout = "2006-01-02"

// SnapshotDateFor truncates an instant to the calendar day used as the
// idempotency key. Dates are taken in UTC so a run near midnight cannot
// produce two different keys for the same invocation.
func SnapshotDateFor(t time.Time) string {
	return t.UTC().Format(SnapshotDateLayout)
}

// AnalyticsSnapshot is one canonical, point-in-time analytics record for one
// page on one calendar day. At most one row may exist per (page_id,
// snapshot_date); re-runs for the same day overwrite in place.
type AnalyticsSnapshot struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	PageID    string `gorm:"not null;uniqueIndex:idx_snapshots_page_date" json:"page_id"`
	AccountID string `gorm:"not null;index" json:"account_id"`
	Platform  string `gorm:"not null;index" json:"platform"`

	// Day granularity, stored as an ISO date string
	SnapshotDate string `gorm:"not null;type:varchar(10);uniqueIndex:idx_snapshots_page_date" json:"snapshot_date"`

	// Canonical metrics. Nil means the platform cannot supply the figure,
	// which downstream reporting must distinguish from an explicit zero.
	FollowerCount   *int64 `json:"follower_count"`
	FollowingCount  *int64 `json:"following_count"`
	PostCount       *int64 `json:"post_count"`
	TotalViews      *int64 `json:"total_views"`
	TotalLikes      *int64 `json:"total_likes"`
	PageImpressions *int64 `json:"page_impressions"`
	PageReach       *int64 `json:"page_reach"`
	PageEngagement  *int64 `json:"page_engagement"`

	// Platform-native payload, unprocessed
	RawMetrics JSONMap `gorm:"type:jsonb;serializer:json" json:"raw_metrics"`

	// Reserved for audience breakdowns, may be empty
	DemographicData JSONMap `gorm:"type:jsonb;serializer:json" json:"demographic_data"`

	// Bookkeeping: which canonical metrics were available, platform extras
	PlatformMetadata JSONMap `gorm:"type:jsonb;serializer:json" json:"platform_metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (AnalyticsSnapshot) TableName() string {
	return "account_analytics_snapshots"
}

// BeforeCreate generates a UUID primary key when one is not supplied
func (s *AnalyticsSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Int64Ptr is a convenience for populating nullable metric fields.
func Int64Ptr(v int64) *int64 {
	return &v
}
