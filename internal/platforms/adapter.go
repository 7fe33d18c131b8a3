package platforms

import (
	"context"

	"github.com/feedbird/feedbird/backend/internal/models"
)

// Credentials is the result of a token refresh: a new access token and a
// relative expiry in seconds from now.
type Credentials struct {
	AccessToken string
	ExpiresIn   int
}

// Adapter encapsulates one external platform's refresh / fetch / normalize
// behavior. Which secret Refresh uses is a per-platform capability: YouTube
// exchanges the account's long-lived refresh secret, Facebook extends the
// page's own token.
type Adapter interface {
	Platform() string

	// Refresh obtains a new access token for the page
	Refresh(ctx context.Context, page *models.SocialPage, account *models.SocialAccount) (*Credentials, error)

	// FetchRaw retrieves the platform-native analytics payload. It may fan
	// out into several calls internally and merge the results.
	FetchRaw(ctx context.Context, token string, nativePageID string) (interface{}, error)

	// Normalize is a pure transformation from the raw payload to the
	// canonical snapshot for the given day. Every canonical metric is either
	// populated or explicitly nil, never silently dropped.
	Normalize(raw interface{}, page *models.SocialPage, date string) (*models.AnalyticsSnapshot, error)
}

// Registry maps platform identifiers to adapters. The orchestrator looks an
// adapter up once per page and is otherwise platform-agnostic; a missing
// entry means "not yet implemented", which is a skip, not a failure.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Platform()] = a
}

// Lookup returns the adapter for a platform identifier
func (r *Registry) Lookup(platform string) (Adapter, bool) {
	a, ok := r.adapters[platform]
	return a, ok
}

// Platforms returns the registered platform identifiers
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}

// canonicalMetricNames in snapshot column order, used for the availability
// bookkeeping in platform metadata.
var canonicalMetricNames = []string{
	"follower_count",
	"following_count",
	"post_count",
	"total_views",
	"total_likes",
	"page_impressions",
	"page_reach",
	"page_engagement",
}

// metricAvailability splits the canonical metric names by whether the
// snapshot carries a value. Downstream display reads these lists, so every
// adapter records them rather than leaving consumers to guess from nulls.
func metricAvailability(s *models.AnalyticsSnapshot) (available, unavailable []string) {
	values := map[string]*int64{
		"follower_count":   s.FollowerCount,
		"following_count":  s.FollowingCount,
		"post_count":       s.PostCount,
		"total_views":      s.TotalViews,
		"total_likes":      s.TotalLikes,
		"page_impressions": s.PageImpressions,
		"page_reach":       s.PageReach,
		"page_engagement":  s.PageEngagement,
	}
	for _, name := range canonicalMetricNames {
		if values[name] != nil {
			available = append(available, name)
		} else {
			unavailable = append(unavailable, name)
		}
	}
	return available, unavailable
}
