package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
	"edu-gate/shared/subtitles"
	"edu-gate/shared/workspace"
)

// Session carries what one resolution has learned so far. Strategies may
// fill in metadata for later strategies and for the final result.
type Session struct {
	Ref             models.VideoReference
	VideoID         string
	Title           string
	DurationSeconds int
}

// Strategy is one rung of the resolution chain.
type Strategy interface {
	Method() models.SourceMethod
	Supports(ref models.VideoReference) bool
	Attempt(ctx context.Context, s *Session) (string, error)
}

// NativeStrategy reads YouTube's own caption tracks.
type NativeStrategy struct {
	Provider  NativeTranscriptProvider
	Metadata  MetadataProvider
	Languages []string
}

func (n *NativeStrategy) Method() models.SourceMethod { return models.MethodNativeTranscript }

func (n *NativeStrategy) Supports(ref models.VideoReference) bool {
	return ref.Platform == models.PlatformYouTube
}

func (n *NativeStrategy) Attempt(ctx context.Context, s *Session) (string, error) {
	if s.VideoID == "" {
		return "", fmt.Errorf("%w: no video ID in %s", ErrTranscriptNotFound, s.Ref.URL)
	}
	log := logrus.WithField("video_id", s.VideoID)

	// One listing per resolution; every preference is matched against it.
	available, err := n.Provider.ListTranscripts(ctx, s.VideoID)
	if err != nil {
		return "", fmt.Errorf("failed to list caption tracks: %w", err)
	}

	text := n.pick(ctx, available, log)
	if text == "" {
		return "", fmt.Errorf("%w: no English track for %s", ErrTranscriptNotFound, s.VideoID)
	}

	n.enrich(ctx, s, log)
	return text, nil
}

// pick walks the language preferences in order, then any English-prefixed
// track. Each track is fetched at most once.
func (n *NativeStrategy) pick(ctx context.Context, available []AvailableTranscript, log *logrus.Entry) string {
	tried := make([]bool, len(available))
	fetch := func(i int) string {
		tried[i] = true
		tr := available[i]
		cues, err := tr.Fetch(ctx)
		if err != nil {
			log.WithError(err).WithField("language", tr.LanguageCode).Debug("Failed to fetch caption track")
			return ""
		}
		return joinCues(cues)
	}

	for _, lang := range n.Languages {
		code, generated := strings.CutPrefix(lang, GeneratedPrefix)
		for i, tr := range available {
			if tried[i] || tr.LanguageCode != code || tr.Generated != generated {
				continue
			}
			if text := fetch(i); text != "" {
				log.WithField("language", lang).Info("Found native transcript")
				return text
			}
		}
	}

	for i, tr := range available {
		if tried[i] || !strings.HasPrefix(strings.ToLower(tr.LanguageCode), "en") {
			continue
		}
		if text := fetch(i); text != "" {
			log.WithField("language", tr.LanguageCode).Info("Found native transcript in track list")
			return text
		}
	}
	return ""
}

// enrich fills title and duration. Metadata never blocks a transcript.
func (n *NativeStrategy) enrich(ctx context.Context, s *Session, log *logrus.Entry) {
	s.Title = "YouTube Video " + s.VideoID
	if n.Metadata == nil {
		return
	}
	md, err := n.Metadata.FetchMetadata(ctx, s.Ref.URL)
	if err != nil {
		log.WithError(err).Debug("Metadata enrichment failed, keeping default title")
		return
	}
	if md.Title != "" {
		s.Title = md.Title
	}
	s.DurationSeconds = md.DurationSeconds
}

func joinCues(cues []models.Cue) string {
	texts := make([]string, 0, len(cues))
	for _, c := range cues {
		if t := strings.TrimSpace(c.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// CaptionsStrategy checks metadata against the duration cap, then extracts
// published or auto-generated captions.
type CaptionsStrategy struct {
	Metadata           MetadataProvider
	Subtitles          SubtitleProvider
	Languages          []string
	MaxDurationSeconds int
}

func (c *CaptionsStrategy) Method() models.SourceMethod { return models.MethodCaptions }

func (c *CaptionsStrategy) Supports(models.VideoReference) bool { return true }

func (c *CaptionsStrategy) Attempt(ctx context.Context, s *Session) (string, error) {
	log := logrus.WithField("url", s.Ref.URL)

	if c.Metadata != nil {
		if err := c.checkMetadata(ctx, s, log); err != nil {
			return "", err
		}
	}

	blob, err := c.Subtitles.FetchSubtitles(ctx, s.Ref.URL, c.Languages)
	if err != nil {
		return "", fmt.Errorf("subtitle extraction failed: %w", err)
	}
	if strings.TrimSpace(blob) == "" {
		return "", ErrNoSubtitles
	}

	text := subtitles.Normalize(blob)
	if text == "" {
		return "", fmt.Errorf("%w: captions contained no text", ErrNoSubtitles)
	}
	return text, nil
}

// checkMetadata records title and duration and enforces the duration cap.
// Only the cap is fatal; an unavailable or blocked metadata call is not.
func (c *CaptionsStrategy) checkMetadata(ctx context.Context, s *Session, log *logrus.Entry) error {
	md, err := c.Metadata.FetchMetadata(ctx, s.Ref.URL)
	switch {
	case err == nil:
		if md.Title != "" {
			s.Title = md.Title
		}
		s.DurationSeconds = md.DurationSeconds
		if c.MaxDurationSeconds > 0 && md.DurationSeconds > c.MaxDurationSeconds {
			return &DurationExceededError{Limit: c.MaxDurationSeconds, Actual: md.DurationSeconds}
		}
	case errors.Is(err, ErrBotDetection):
		log.WithError(err).Warn("Metadata extraction blocked by bot detection, continuing with transcript attempts")
	default:
		log.WithError(err).Warn("Metadata extraction failed, continuing with transcript attempts")
	}
	return nil
}

// AudioStrategy downloads the audio track into a request-scoped workspace
// and runs speech-to-text on it.
type AudioStrategy struct {
	Downloader    AudioDownloader
	Transcriber   AudioTranscriber
	WorkspaceRoot string
}

func (a *AudioStrategy) Method() models.SourceMethod { return models.MethodAudioTranscription }

func (a *AudioStrategy) Supports(models.VideoReference) bool { return true }

func (a *AudioStrategy) Attempt(ctx context.Context, s *Session) (string, error) {
	ws, err := workspace.Acquire(a.WorkspaceRoot)
	if err != nil {
		return "", err
	}
	defer ws.Release()

	logrus.WithField("url", s.Ref.URL).Info("No subtitles found, attempting audio download and transcription")

	path, err := a.Downloader.DownloadAudio(ctx, s.Ref.URL, ws.Dir())
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}

	return a.Transcriber.Transcribe(ctx, path)
}
