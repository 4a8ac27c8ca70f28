// Package transcript resolves a video reference into plain transcript text by
// walking an ordered chain of extraction strategies.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
	"edu-gate/shared/platform"
)

var (
	DefaultNativeLanguages   = []string{"en", "en-US", "en-GB", "a.en"}
	DefaultSubtitleLanguages = []string{"en", "en-US", "en-GB"}
)

const DefaultMaxDurationSeconds = 7200

// Resolver evaluates its strategies in order and stops at the first one that
// yields text. Later strategies are never invoked after a success.
type Resolver struct {
	strategies   []Strategy
	stageTimeout time.Duration
}

type Options struct {
	NativeLanguages    []string
	SubtitleLanguages  []string
	MaxDurationSeconds int
	WorkspaceRoot      string
	StageTimeout       time.Duration
}

// Providers groups the external collaborators of the default chain.
type Providers struct {
	Native      NativeTranscriptProvider
	Metadata    MetadataProvider
	Subtitles   SubtitleProvider
	Audio       AudioDownloader
	Transcriber AudioTranscriber
}

// New builds the default chain: native transcript, captions, audio
// transcription. A nil Native provider drops the first rung.
func New(opts Options, p Providers) *Resolver {
	if len(opts.NativeLanguages) == 0 {
		opts.NativeLanguages = DefaultNativeLanguages
	}
	if len(opts.SubtitleLanguages) == 0 {
		opts.SubtitleLanguages = DefaultSubtitleLanguages
	}
	if opts.MaxDurationSeconds == 0 {
		opts.MaxDurationSeconds = DefaultMaxDurationSeconds
	}

	var strategies []Strategy
	if p.Native != nil {
		strategies = append(strategies, &NativeStrategy{
			Provider:  p.Native,
			Metadata:  p.Metadata,
			Languages: opts.NativeLanguages,
		})
	}
	strategies = append(strategies,
		&CaptionsStrategy{
			Metadata:           p.Metadata,
			Subtitles:          p.Subtitles,
			Languages:          opts.SubtitleLanguages,
			MaxDurationSeconds: opts.MaxDurationSeconds,
		},
		&AudioStrategy{
			Downloader:    p.Audio,
			Transcriber:   p.Transcriber,
			WorkspaceRoot: opts.WorkspaceRoot,
		},
	)

	return NewResolver(opts.StageTimeout, strategies...)
}

func NewResolver(stageTimeout time.Duration, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, stageTimeout: stageTimeout}
}

// Resolve runs the chain for raw. It fails with ErrDurationExceeded as soon
// as any strategy reports an over-long video, and with ErrResolutionFailed
// when every applicable strategy came up empty.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*models.TranscriptResult, error) {
	ref := platform.NewReference(raw)
	if ref.URL == "" {
		return nil, &ResolutionError{URL: raw}
	}

	session := &Session{Ref: ref}
	if ref.Platform == models.PlatformYouTube {
		session.VideoID, _ = platform.YouTubeVideoID(ref.URL)
	}

	log := logrus.WithFields(logrus.Fields{"url": ref.URL, "platform": ref.Platform})
	var attempts []Attempt

	for _, strategy := range r.strategies {
		if !strategy.Supports(ref) {
			continue
		}
		method := strategy.Method()

		start := time.Now()
		text, err := r.run(ctx, strategy, session)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyTranscript
		}
		if err == nil {
			log.WithFields(logrus.Fields{
				"method": method,
				"chars":  len(text),
				"took":   time.Since(start).Round(time.Millisecond),
			}).Info("Transcript resolved")

			return &models.TranscriptResult{
				Text:            strings.TrimSpace(text),
				Title:           session.Title,
				DurationSeconds: session.DurationSeconds,
				Method:          method,
				Platform:        ref.Platform,
			}, nil
		}

		if errors.Is(err, ErrDurationExceeded) {
			log.WithError(err).Warn("Aborting transcript resolution")
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("transcript resolution cancelled during %s: %w", method, ctxErr)
		}

		log.WithError(err).WithField("method", method).Warn("Transcript strategy failed")
		attempts = append(attempts, Attempt{Method: method, Err: err})
	}

	return nil, &ResolutionError{URL: ref.URL, Attempts: attempts}
}

func (r *Resolver) run(ctx context.Context, s Strategy, session *Session) (string, error) {
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}
	return s.Attempt(ctx, session)
}
