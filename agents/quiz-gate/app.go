package quizgate

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"edu-gate/shared/ai"
	"edu-gate/shared/config"
	"edu-gate/shared/documents"
	"edu-gate/shared/monitoring"
	"edu-gate/shared/quiz"
	"edu-gate/shared/scheduler"
	"edu-gate/shared/speech"
	"edu-gate/shared/transcript"
	"edu-gate/shared/verification"
	"edu-gate/shared/workspace"
	"edu-gate/shared/youtube"
	"edu-gate/shared/ytdlp"
)

// App holds the wired gate and its background jobs.
type App struct {
	Gate    *Gate
	Monitor *monitoring.Monitor
	Jobs    []ScheduledJob
}

type ScheduledJob struct {
	Spec string
	Job  scheduler.Job
}

// NewApp wires every collaborator from configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	client, err := ai.NewClient(ctx, &cfg.AI)
	if err != nil {
		return nil, err
	}

	innertube := youtube.NewTranscriptClient("", cfg.YouTube.InnertubeTimeout())
	ytdl := ytdlp.New(cfg.Transcript.YtDlpPath, cfg.Transcript.WorkspaceRoot, cfg.Transcript.StageTimeout()).
		WithMetadataTimeout(cfg.Transcript.MetadataTimeout())

	metadata := transcript.MetadataChain{innertube, ytdl}
	jobs := []ScheduledJob{{
		Spec: cfg.Workspace.SweepSchedule,
		Job: &workspace.Sweeper{
			Root:   cfg.Transcript.WorkspaceRoot,
			MaxAge: cfg.Workspace.MaxAge(),
		},
	}}

	data, err := youtube.NewDataClient(ctx, &cfg.YouTube, false)
	switch {
	case err == nil:
		metadata = append(transcript.MetadataChain{data}, metadata...)
		if cfg.YouTube.APIKey == "" {
			jobs = append(jobs, ScheduledJob{Spec: tokenRefreshSchedule, Job: data})
		}
	case errors.Is(err, youtube.ErrNoCredentials):
		logrus.Info("YouTube Data API not configured, using page metadata only")
	default:
		logrus.WithError(err).Warn("YouTube Data API unavailable, using page metadata only")
	}

	transcriber := speech.NewTranscriber(
		speech.NewGeminiProvider(client, cfg.AI.SpeechModel, cfg.AI.CallTimeout()),
		cfg.Speech.MaxAudioBytes,
	)

	resolver := transcript.New(transcript.Options{
		NativeLanguages:    cfg.Transcript.NativeLanguages,
		SubtitleLanguages:  cfg.Transcript.SubtitleLanguages,
		MaxDurationSeconds: cfg.Transcript.MaxDurationSeconds,
		WorkspaceRoot:      cfg.Transcript.WorkspaceRoot,
		StageTimeout:       cfg.Transcript.StageTimeout(),
	}, transcript.Providers{
		Native:      innertube,
		Metadata:    metadata,
		Subtitles:   ytdl,
		Audio:       ytdl,
		Transcriber: transcriber,
	})

	extras := make([]verification.PlatformEntry, 0, len(cfg.Verification.ExtraPlatforms))
	for _, p := range cfg.Verification.ExtraPlatforms {
		extras = append(extras, verification.PlatformEntry{Pattern: p.Pattern, Name: p.Name})
	}
	verifier := verification.NewClassifier(
		verification.NewAllowList(extras, cfg.Verification.ExtraChannels),
		ai.NewClassifier(client.Models, ai.ClassifierOptions{
			Model:       cfg.AI.ClassifierModel,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.CallTimeout(),
		}),
		verification.Options{
			ConfidenceThreshold: cfg.Verification.ConfidenceThreshold,
			SampleChars:         cfg.Verification.SampleChars,
		},
	)

	monitor := monitoring.NewMonitor()
	gate := NewGate(Deps{
		Resolver:  resolver,
		Verifier:  verifier,
		Quizzes:   quiz.NewGenerator(client.Models, cfg.AI.QuizModels, cfg.AI.CallTimeout()),
		Documents: documents.NewProcessor(cfg.Server.FetchTimeout()),
		Monitor:   monitor,
	})

	return &App{Gate: gate, Monitor: monitor, Jobs: jobs}, nil
}

// tokenRefreshSchedule refreshes the OAuth token every 30 minutes.
const tokenRefreshSchedule = "0 */30 * * * *"

// StartJobs registers the background jobs and starts the scheduler.
func (a *App) StartJobs(ctx context.Context) error {
	s := scheduler.New(a.Monitor)
	for _, j := range a.Jobs {
		if err := s.Add(ctx, j.Spec, j.Job); err != nil {
			return err
		}
	}
	s.Start(ctx)
	return nil
}
