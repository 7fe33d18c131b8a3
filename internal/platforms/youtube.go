package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/feedbird/feedbird/backend/internal/errors"
	"github.com/feedbird/feedbird/backend/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const youtubeAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeChannelStats mirrors the statistics object of the channels endpoint.
// Counters arrive as strings.
type YouTubeChannelStats struct {
	ViewCount             string `json:"viewCount"`
	SubscriberCount       string `json:"subscriberCount"`
	HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
	VideoCount            string `json:"videoCount"`
}

// YouTubeChannelSnippet holds descriptive channel metadata
type YouTubeChannelSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CustomURL   string `json:"customUrl,omitempty"`
}

// YouTubeChannelRaw is the raw analytics payload for one channel
type YouTubeChannelRaw struct {
	ChannelID  string                `json:"channelId"`
	Statistics YouTubeChannelStats   `json:"statistics"`
	Snippet    YouTubeChannelSnippet `json:"snippet"`
}

// YouTubeAdapter syncs channel-level analytics. The channels endpoint only
// exposes aggregate counters, so engagement, reach, impressions, likes and
// following are structurally unavailable and stay nil in the snapshot.
type YouTubeAdapter struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	apiBaseURL   string
	httpClient   *http.Client
}

// NewYouTubeAdapter creates a YouTube adapter with a bounded HTTP timeout
func NewYouTubeAdapter(clientID, clientSecret string, timeout time.Duration) *YouTubeAdapter {
	return &YouTubeAdapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     google.Endpoint,
		apiBaseURL:   youtubeAPIBaseURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform identifier
func (a *YouTubeAdapter) Platform() string {
	return "youtube"
}

// Refresh exchanges the account's long-lived refresh secret for a new access
// token. YouTube page tokens cannot refresh themselves, so a missing account
// secret fails deterministically.
func (a *YouTubeAdapter) Refresh(ctx context.Context, page *models.SocialPage, account *models.SocialAccount) (*Credentials, error) {
	if account == nil || account.RefreshToken == nil || *account.RefreshToken == "" {
		return nil, errors.Refresh("youtube", fmt.Errorf("no refresh token available for account"))
	}

	conf := &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint:     a.endpoint,
	}

	// Route the token exchange through the adapter's bounded client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: *account.RefreshToken}).Token()
	if err != nil {
		return nil, errors.Refresh("youtube", err)
	}

	expiresIn := int(time.Until(token.Expiry).Seconds())
	if expiresIn <= 0 {
		// Google omits expiry only for non-expiring tokens; default to an hour
		expiresIn = 3600
	}

	return &Credentials{AccessToken: token.AccessToken, ExpiresIn: expiresIn}, nil
}

// FetchRaw retrieves channel statistics and snippet in one call
func (a *YouTubeAdapter) FetchRaw(ctx context.Context, token string, nativePageID string) (interface{}, error) {
	endpoint := fmt.Sprintf("%s/channels?part=statistics,snippet&id=%s", a.apiBaseURL, url.QueryEscape(nativePageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Fetch("youtube", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errors.Fetch("youtube", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Fetch("youtube", fmt.Errorf("channels endpoint returned %d: %s", resp.StatusCode, body))
	}

	var payload struct {
		Items []struct {
			ID         string                `json:"id"`
			Statistics YouTubeChannelStats   `json:"statistics"`
			Snippet    YouTubeChannelSnippet `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Fetch("youtube", fmt.Errorf("malformed channels response: %w", err))
	}

	if len(payload.Items) == 0 {
		return nil, errors.Fetch("youtube", fmt.Errorf("channel %s not found", nativePageID))
	}

	channel := payload.Items[0]
	return &YouTubeChannelRaw{
		ChannelID:  channel.ID,
		Statistics: channel.Statistics,
		Snippet:    channel.Snippet,
	}, nil
}

// Normalize maps channel counters into the canonical snapshot shape
func (a *YouTubeAdapter) Normalize(raw interface{}, page *models.SocialPage, date string) (*models.AnalyticsSnapshot, error) {
	channel, ok := raw.(*YouTubeChannelRaw)
	if !ok {
		return nil, fmt.Errorf("unexpected raw payload type %T for youtube", raw)
	}

	stats := channel.Statistics

	snapshot := &models.AnalyticsSnapshot{
		PageID:       page.ID,
		AccountID:    page.AccountID,
		Platform:     a.Platform(),
		SnapshotDate: date,

		FollowerCount: models.Int64Ptr(parseCount(stats.SubscriberCount)),
		PostCount:     models.Int64Ptr(parseCount(stats.VideoCount)),
		TotalViews:    models.Int64Ptr(parseCount(stats.ViewCount)),

		// Not exposed at channel level; nil distinguishes "unavailable"
		// from a reported zero
		FollowingCount:  nil,
		TotalLikes:      nil,
		PageImpressions: nil,
		PageReach:       nil,
		PageEngagement:  nil,

		RawMetrics: models.JSONMap{
			"channelId":             channel.ChannelID,
			"statistics":            stats,
			"snippet":               channel.Snippet,
			"hiddenSubscriberCount": stats.HiddenSubscriberCount,
		},
		DemographicData: models.JSONMap{},
	}

	available, unavailable := metricAvailability(snapshot)
	snapshot.PlatformMetadata = models.JSONMap{
		"platform":           "youtube",
		"analyticsType":      "channel",
		"channelId":          channel.ChannelID,
		"availableMetrics":   available,
		"unavailableMetrics": unavailable,
	}

	return snapshot, nil
}

// parseCount converts YouTube's string counters, treating absent values as zero
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
