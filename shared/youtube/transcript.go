package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
	"edu-gate/shared/platform"
	"edu-gate/shared/transcript"
)

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// ListTranscripts lists every fetchable caption track of a video.
func (c *TranscriptClient) ListTranscripts(ctx context.Context, videoID string) ([]transcript.AvailableTranscript, error) {
	tracks, err := c.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	available := make([]transcript.AvailableTranscript, 0, len(tracks))
	for _, t := range tracks {
		baseURL := t.BaseURL
		available = append(available, transcript.AvailableTranscript{
			LanguageCode: t.LanguageCode,
			Generated:    t.generated(),
			Fetch: func(ctx context.Context) ([]models.Cue, error) {
				return c.fetchTimedText(ctx, baseURL)
			},
		})
	}
	return available, nil
}

// FetchMetadata reads title and length from the player response. It lets
// the captions stage run without Data API credentials.
func (c *TranscriptClient) FetchMetadata(ctx context.Context, url string) (*transcript.Metadata, error) {
	videoID, ok := platform.YouTubeVideoID(url)
	if !ok {
		return nil, transcript.ErrUnsupported
	}

	resp, err := c.watchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, classify(err)
	}
	if resp.VideoDetails == nil {
		if reason := playabilityReason(resp); reason != "" {
			return nil, classify(errors.New(reason))
		}
		return nil, fmt.Errorf("no video details for %s", videoID)
	}

	seconds, _ := strconv.Atoi(resp.VideoDetails.LengthSeconds)
	return &transcript.Metadata{
		Title:           resp.VideoDetails.Title,
		DurationSeconds: seconds,
	}, nil
}

// captionTracks returns the usable tracks of a video, trying the watch page
// first and the ANDROID player second.
func (c *TranscriptClient) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	var errs []error
	for _, source := range []struct {
		name  string
		fetch func(context.Context, string) (*playerResponse, error)
	}{
		{"watch page", c.watchPlayerResponse},
		{"android player", c.androidPlayerResponse},
	} {
		resp, err := source.fetch(ctx, videoID)
		if err == nil {
			var tracks []captionTrack
			tracks, err = usableTracks(resp)
			if err == nil {
				return tracks, nil
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logrus.WithFields(logrus.Fields{
			"video_id": videoID,
			"source":   source.name,
		}).WithError(err).Debug("Caption track lookup failed")
		errs = append(errs, fmt.Errorf("%s: %w", source.name, classify(err)))
	}

	return nil, fmt.Errorf("%w for %s: %w", transcript.ErrTranscriptNotFound, videoID, errors.Join(errs...))
}

func usableTracks(resp *playerResponse) ([]captionTrack, error) {
	if resp.Captions == nil {
		if reason := playabilityReason(resp); reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", reason)
		}
		return nil, errors.New("no captions in player response")
	}

	var usable []captionTrack
	for _, t := range resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		if !t.needsPoToken() {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, errors.New("no caption tracks usable outside a browser")
	}
	return usable, nil
}

func playabilityReason(resp *playerResponse) string {
	if resp.PlayabilityStatus == nil {
		return ""
	}
	return resp.PlayabilityStatus.Reason
}

// classify maps rate limiting and sign-in walls onto ErrBotDetection.
func classify(err error) error {
	var se *statusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", transcript.ErrBotDetection, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sign in") || strings.Contains(msg, "not a bot") {
		return fmt.Errorf("%w: %w", transcript.ErrBotDetection, err)
	}
	return err
}

func (c *TranscriptClient) fetchTimedText(ctx context.Context, baseURL string) ([]models.Cue, error) {
	if strings.HasPrefix(baseURL, "/") {
		baseURL = c.baseURL + baseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	body, err := c.do(req, maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timedtext: %w", classify(err))
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]models.Cue, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext XML: %w", err)
	}

	cues := make([]models.Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// Caption text arrives entity-encoded twice.
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		cues = append(cues, models.Cue{Text: text, Start: start, Duration: dur})
	}
	if len(cues) == 0 {
		return nil, transcript.ErrEmptyTranscript
	}
	return cues, nil
}
