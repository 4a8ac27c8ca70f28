package transcript

import (
	"context"
	"errors"

	"edu-gate/internal/models"
)

// GeneratedPrefix marks a language preference that selects an
// auto-generated track, as in "a.en".
const GeneratedPrefix = "a."

// NativeTranscriptProvider lists caption tracks straight from the platform's
// transcript service. Listing costs a page scrape, fetching a track does not.
type NativeTranscriptProvider interface {
	ListTranscripts(ctx context.Context, videoID string) ([]AvailableTranscript, error)
}

type AvailableTranscript struct {
	LanguageCode string
	Generated    bool
	Fetch        func(ctx context.Context) ([]models.Cue, error)
}

type Metadata struct {
	Title           string
	DurationSeconds int
}

// MetadataProvider returns title and duration for a reference. Providers
// signal anti-automation blocks with ErrBotDetection.
type MetadataProvider interface {
	FetchMetadata(ctx context.Context, url string) (*Metadata, error)
}

// SubtitleProvider returns a raw timed-text blob, or "" when the reference
// has no captions in the requested languages.
type SubtitleProvider interface {
	FetchSubtitles(ctx context.Context, url string, languages []string) (string, error)
}

// AudioDownloader writes the best available audio track into dir and
// returns the artifact path.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, url, dir string) (string, error)
}

type AudioTranscriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// MetadataChain asks each provider in turn and returns the first answer.
type MetadataChain []MetadataProvider

func (c MetadataChain) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	var errs []error
	for _, p := range c {
		md, err := p.FetchMetadata(ctx, url)
		if err == nil {
			return md, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrUnsupported
	}
	return nil, errors.Join(errs...)
}
