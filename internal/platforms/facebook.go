package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/feedbird/feedbird/backend/internal/errors"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const facebookGraphBaseURL = "https://graph.facebook.com/v23.0"

// facebookInsightMetrics is the fixed set requested from the insights
// endpoint, period=day.
var facebookInsightMetrics = []string{
	"page_impressions",
	"page_fan_adds",
	"page_views_total",
	"page_posts_impressions",
	"page_follows",
}

// FacebookInsightValue is one point of a metric's time series. Value is
// usually a scalar but can be a breakdown object keyed by dimension.
type FacebookInsightValue struct {
	Value   json.RawMessage `json:"value"`
	EndTime string          `json:"end_time,omitempty"`
}

// FacebookInsight is one named metric with its series of values
type FacebookInsight struct {
	Name   string                 `json:"name"`
	Period string                 `json:"period"`
	Values []FacebookInsightValue `json:"values"`
}

// FacebookPageRaw merges the insights feed with the page's profile counters
type FacebookPageRaw struct {
	PageID    string            `json:"pageId"`
	Insights  []FacebookInsight `json:"insights"`
	Followers int64             `json:"followers"`
	Likes     int64             `json:"likes"`
}

// FacebookAdapter syncs page-level analytics from the Graph API. Facebook
// pages carry long-lived tokens that are extended with the fb_exchange_token
// grant, so refresh uses the page's own token rather than an account secret.
type FacebookAdapter struct {
	clientID     string
	clientSecret string
	graphBaseURL string
	httpClient   *http.Client
}

// NewFacebookAdapter creates a Facebook adapter with a bounded HTTP timeout
func NewFacebookAdapter(clientID, clientSecret string, timeout time.Duration) *FacebookAdapter {
	return &FacebookAdapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		graphBaseURL: facebookGraphBaseURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform identifier
func (a *FacebookAdapter) Platform() string {
	return "facebook"
}

// Refresh extends the page's long-lived token via the fb_exchange_token grant
func (a *FacebookAdapter) Refresh(ctx context.Context, page *models.SocialPage, account *models.SocialAccount) (*Credentials, error) {
	if page.AuthToken == nil || *page.AuthToken == "" {
		return nil, errors.Refresh("facebook", fmt.Errorf("page has no token to exchange"))
	}

	params := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {a.clientID},
		"client_secret":     {a.clientSecret},
		"fb_exchange_token": {*page.AuthToken},
	}

	endpoint := fmt.Sprintf("%s/oauth/access_token?%s", a.graphBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Refresh("facebook", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.Refresh("facebook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Refresh("facebook", fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, body))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, errors.Refresh("facebook", fmt.Errorf("malformed token response: %w", err))
	}
	if token.AccessToken == "" {
		return nil, errors.Refresh("facebook", fmt.Errorf("token exchange returned no access_token"))
	}

	if token.ExpiresIn <= 0 {
		// Graph omits expires_in for some long-lived tokens; those last about
		// 60 days
		token.ExpiresIn = 60 * 24 * 60 * 60
	}

	return &Credentials{AccessToken: token.AccessToken, ExpiresIn: token.ExpiresIn}, nil
}

// FetchRaw retrieves page insights and profile counters concurrently and
// merges them. A failed profile-counter call degrades those two figures to
// zero instead of aborting the page.
func (a *FacebookAdapter) FetchRaw(ctx context.Context, token string, nativePageID string) (interface{}, error) {
	raw := &FacebookPageRaw{PageID: nativePageID}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		insights, err := a.fetchInsights(gctx, token, nativePageID)
		if err != nil {
			return err
		}
		raw.Insights = insights
		return nil
	})

	g.Go(func() error {
		followers, likes, err := a.fetchPageInfo(gctx, token, nativePageID)
		if err != nil {
			// Non-fatal sub-call: counters default to zero
			logger.Warn("Facebook page info unavailable, defaulting counters to zero",
				logger.WithPlatform("facebook"),
				logger.WithPageID(nativePageID),
			)
			return nil
		}
		raw.Followers = followers
		raw.Likes = likes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return raw, nil
}

// fetchInsights requests the fixed metric set with a daily period
func (a *FacebookAdapter) fetchInsights(ctx context.Context, token, pageID string) ([]FacebookInsight, error) {
	params := url.Values{
		"metric":       {strings.Join(facebookInsightMetrics, ",")},
		"period":       {"day"},
		"access_token": {token},
	}
	endpoint := fmt.Sprintf("%s/%s/insights?%s", a.graphBaseURL, url.PathEscape(pageID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Fetch("facebook", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.Fetch("facebook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Fetch("facebook", fmt.Errorf("insights endpoint returned %d: %s", resp.StatusCode, body))
	}

	var payload struct {
		Data []FacebookInsight `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Fetch("facebook", fmt.Errorf("malformed insights response: %w", err))
	}

	return payload.Data, nil
}

// fetchPageInfo reads the page's follower and fan counts
func (a *FacebookAdapter) fetchPageInfo(ctx context.Context, token, pageID string) (followers, likes int64, err error) {
	params := url.Values{
		"fields":       {"followers_count,fan_count"},
		"access_token": {token},
	}
	endpoint := fmt.Sprintf("%s/%s?%s", a.graphBaseURL, url.PathEscape(pageID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, 0, fmt.Errorf("page info endpoint returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		FollowersCount int64 `json:"followers_count"`
		FanCount       int64 `json:"fan_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, 0, fmt.Errorf("malformed page info response: %w", err)
	}

	followers = info.FollowersCount
	if followers == 0 {
		followers = info.FanCount
	}
	return followers, info.FanCount, nil
}

// Normalize maps the merged insights payload into the canonical shape. For
// each metric the most recent series value wins; breakdown objects collapse
// to the sum of their numeric leaves. Metrics absent from the response stay
// nil rather than becoming zero.
func (a *FacebookAdapter) Normalize(raw interface{}, page *models.SocialPage, date string) (*models.AnalyticsSnapshot, error) {
	data, ok := raw.(*FacebookPageRaw)
	if !ok {
		return nil, fmt.Errorf("unexpected raw payload type %T for facebook", raw)
	}

	extracted := extractLatestValues(data.Insights)

	impressions := lookupMetric(extracted, "page_impressions")
	views := lookupMetric(extracted, "page_views_total")

	// Engagement combines new likes and new follows; nil only when neither
	// metric came back at all
	var engagement *int64
	fanAdds, haveFanAdds := extracted["page_fan_adds"]
	follows, haveFollows := extracted["page_follows"]
	if haveFanAdds || haveFollows {
		engagement = models.Int64Ptr(fanAdds + follows)
	}

	snapshot := &models.AnalyticsSnapshot{
		PageID:       page.ID,
		AccountID:    page.AccountID,
		Platform:     a.Platform(),
		SnapshotDate: date,

		FollowerCount:   models.Int64Ptr(data.Followers),
		TotalLikes:      models.Int64Ptr(data.Likes),
		TotalViews:      views,
		PageImpressions: impressions,
		PageEngagement:  engagement,

		// Not available for Facebook pages without further API calls
		FollowingCount: nil,
		PostCount:      nil,
		PageReach:      nil,

		RawMetrics: models.JSONMap{
			"pageId":   data.PageID,
			"insights": data.Insights,
			"pageInfo": models.JSONMap{
				"followers": data.Followers,
				"likes":     data.Likes,
			},
			"extractedMetrics": extracted,
		},
		DemographicData: models.JSONMap{},
	}

	available, unavailable := metricAvailability(snapshot)
	snapshot.PlatformMetadata = models.JSONMap{
		"platform":           "facebook",
		"analyticsType":      "page_insights",
		"pageId":             data.PageID,
		"availableMetrics":   available,
		"unavailableMetrics": unavailable,
		"metricsBreakdown":   extracted,
	}

	return snapshot, nil
}

// extractLatestValues takes the last value of each metric's series as "most
// recent". Metrics whose series is empty or undecodable are omitted so the
// caller can tell unavailable apart from zero.
func extractLatestValues(insights []FacebookInsight) map[string]int64 {
	out := make(map[string]int64, len(insights))
	for _, insight := range insights {
		if len(insight.Values) == 0 {
			continue
		}
		latest := insight.Values[len(insight.Values)-1]

		var scalar float64
		if err := json.Unmarshal(latest.Value, &scalar); err == nil {
			out[insight.Name] = int64(scalar)
			continue
		}

		// Breakdown object: sum the numeric leaves into one scalar
		var breakdown map[string]interface{}
		if err := json.Unmarshal(latest.Value, &breakdown); err == nil {
			var sum int64
			for _, v := range breakdown {
				if n, ok := v.(float64); ok {
					sum += int64(n)
				}
			}
			out[insight.Name] = sum
		}
	}
	return out
}

// lookupMetric returns a pointer for present metrics, nil for absent ones
func lookupMetric(extracted map[string]int64, name string) *int64 {
	if v, ok := extracted[name]; ok {
		return models.Int64Ptr(v)
	}
	return nil
}
