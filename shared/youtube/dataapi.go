// Package youtube implements transcript and metadata providers backed by
// YouTube's public web endpoints and the YouTube Data API.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"edu-gate/shared/config"
	"edu-gate/shared/platform"
	"edu-gate/shared/transcript"
)

// ErrNoCredentials means neither an API key nor an OAuth client is configured.
var ErrNoCredentials = errors.New("no YouTube Data API credentials configured")

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// DataClient fetches video metadata from the YouTube Data API v3.
type DataClient struct {
	service *youtube.Service
	tokens  *tokenSaver
}

// NewDataClient prefers an API key and falls back to a stored OAuth token.
// With interactive set, a missing token starts the device flow.
func NewDataClient(ctx context.Context, cfg *config.YouTubeConfig, interactive bool) (*DataClient, error) {
	if cfg.APIKey != "" {
		service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service: %w", err)
		}
		return &DataClient{service: service}, nil
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	oauthConfig := newOAuthConfig(cfg.ClientID, cfg.ClientSecret)
	token, err := getToken(ctx, oauthConfig, cfg.TokenFile, interactive)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	tokens := &tokenSaver{config: oauthConfig, token: token, tokenFile: cfg.TokenFile}
	service, err := youtube.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokens)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &DataClient{service: service, tokens: tokens}, nil
}

// FetchMetadata returns the title and duration of a YouTube video.
func (c *DataClient) FetchMetadata(ctx context.Context, url string) (*transcript.Metadata, error) {
	videoID, ok := platform.YouTubeVideoID(url)
	if !ok {
		return nil, transcript.ErrUnsupported
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details for %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	md := &transcript.Metadata{}
	if item.Snippet != nil {
		md.Title = item.Snippet.Title
	}
	if item.ContentDetails != nil {
		md.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}
	return md, nil
}

// Name and Run make the client a scheduled token refresh job.
func (c *DataClient) Name() string {
	return "YouTube Token Refresh"
}

// Run refreshes the OAuth token ahead of expiry. API key clients have
// nothing to refresh.
func (c *DataClient) Run(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	tok, err := c.tokens.refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	logrus.WithField("expiry", tok.Expiry).Debug("YouTube token valid")
	return nil
}

// Authorize runs the device flow and stores the resulting token.
func Authorize(ctx context.Context, cfg *config.YouTubeConfig) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return ErrNoCredentials
	}
	tok, err := getTokenWithDeviceFlow(ctx, newOAuthConfig(cfg.ClientID, cfg.ClientSecret))
	if err != nil {
		return err
	}
	if err := saveToken(cfg.TokenFile, tok); err != nil {
		return err
	}
	logrus.WithField("token_file", cfg.TokenFile).Info("YouTube token saved")
	return nil
}

// parseDurationSeconds converts an ISO 8601 duration such as "PT1H2M3S".
func parseDurationSeconds(duration string) int {
	m := isoDurationRE.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
