package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-gate/internal/models"
)

const ytURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeNative struct {
	listed    []AvailableTranscript
	err       error
	fetched   []string
	listCalls int
}

func (f *fakeNative) ListTranscripts(context.Context, string) ([]AvailableTranscript, error) {
	f.listCalls++
	return f.listed, f.err
}

// add lists a track whose Fetch records the code it served. An empty text
// yields a track with no cues.
func (f *fakeNative) add(code string, generated bool, texts ...string) {
	label := code
	if generated {
		label = GeneratedPrefix + code
	}
	f.listed = append(f.listed, AvailableTranscript{
		LanguageCode: code,
		Generated:    generated,
		Fetch: func(context.Context) ([]models.Cue, error) {
			f.fetched = append(f.fetched, label)
			return cues(texts...), nil
		},
	})
}

type fakeMetadata struct {
	md    *Metadata
	err   error
	calls int
}

func (f *fakeMetadata) FetchMetadata(context.Context, string) (*Metadata, error) {
	f.calls++
	return f.md, f.err
}

type fakeSubtitles struct {
	blob  string
	err   error
	calls int
	langs []string
}

func (f *fakeSubtitles) FetchSubtitles(_ context.Context, _ string, languages []string) (string, error) {
	f.calls++
	f.langs = languages
	return f.blob, f.err
}

type fakeDownloader struct {
	calls    int
	err      error
	artifact string
}

func (f *fakeDownloader) DownloadAudio(_ context.Context, _ string, dir string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.artifact = filepath.Join(dir, "audio.mp3")
	if err := os.WriteFile(f.artifact, []byte("mp3"), 0o600); err != nil {
		return "", err
	}
	return f.artifact, nil
}

type fakeTranscriber struct {
	text    string
	err     error
	calls   int
	sawFile bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.calls++
	_, statErr := os.Stat(path)
	f.sawFile = statErr == nil
	return f.text, f.err
}

type harness struct {
	native      *fakeNative
	metadata    *fakeMetadata
	subtitles   *fakeSubtitles
	downloader  *fakeDownloader
	transcriber *fakeTranscriber
	root        string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		native:      &fakeNative{},
		metadata:    &fakeMetadata{md: &Metadata{Title: "Lecture 1", DurationSeconds: 600}},
		subtitles:   &fakeSubtitles{},
		downloader:  &fakeDownloader{},
		transcriber: &fakeTranscriber{text: "spoken words"},
		root:        t.TempDir(),
	}
}

func (h *harness) resolver(maxDuration int) *Resolver {
	return New(Options{MaxDurationSeconds: maxDuration, WorkspaceRoot: h.root}, Providers{
		Native:      h.native,
		Metadata:    h.metadata,
		Subtitles:   h.subtitles,
		Audio:       h.downloader,
		Transcriber: h.transcriber,
	})
}

func cues(texts ...string) []models.Cue {
	out := make([]models.Cue, len(texts))
	for i, t := range texts {
		out[i] = models.Cue{Text: t, Start: float64(i), Duration: 1}
	}
	return out
}

func TestNativeSuccessShortCircuits(t *testing.T) {
	h := newHarness(t)
	h.native.add("en", false, "hello", "world")

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, models.MethodNativeTranscript, result.Method)
	assert.Equal(t, models.PlatformYouTube, result.Platform)
	assert.Equal(t, "Lecture 1", result.Title)
	assert.Equal(t, 600, result.DurationSeconds)

	assert.Equal(t, 0, h.subtitles.calls)
	assert.Equal(t, 0, h.downloader.calls)
	assert.Equal(t, 0, h.transcriber.calls)
	assert.Equal(t, 1, h.native.listCalls)
}

func TestNativeLanguagePreferenceOrder(t *testing.T) {
	h := newHarness(t)
	h.native.add("de", false, "hallo")
	h.native.add("en", true, "auto")
	h.native.add("en-GB", false, "british")
	h.native.add("en-US", false)

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "british", result.Text)
	assert.Equal(t, []string{"en-US", "en-GB"}, h.native.fetched)
	assert.Equal(t, 1, h.native.listCalls)
}

func TestNativeGeneratedTrackNeedsPrefix(t *testing.T) {
	h := newHarness(t)
	h.native.add("en", true, "auto captions")

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "auto captions", result.Text)
	assert.Equal(t, []string{"a.en"}, h.native.fetched)
}

func TestNativeFallsBackToAnyEnglishTrack(t *testing.T) {
	h := newHarness(t)
	h.native.add("de", false, "hallo")
	h.native.add("en-AU", false, "g'day")
	h.native.add("en-CA", false, "eh")

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "g'day", result.Text)
	assert.Equal(t, []string{"en-AU"}, h.native.fetched)
	assert.Equal(t, 1, h.native.listCalls)
	assert.Equal(t, 0, h.subtitles.calls)
}

func TestNativeTracksFetchedAtMostOnce(t *testing.T) {
	h := newHarness(t)
	h.native.add("en", false)
	h.native.add("en-GB", false)
	h.subtitles.blob = "1\n00:00:01,000 --> 00:00:02,000\nfrom captions\n"

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, models.MethodCaptions, result.Method)
	assert.Equal(t, []string{"en", "en-GB"}, h.native.fetched)
	assert.Equal(t, 1, h.native.listCalls)
}

func TestNativeListingFailureMovesOn(t *testing.T) {
	h := newHarness(t)
	h.native.err = fmt.Errorf("%w: %w", ErrTranscriptNotFound, ErrBotDetection)
	h.subtitles.blob = "1\n00:00:01,000 --> 00:00:02,000\nfrom captions\n"

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "from captions", result.Text)
	assert.Equal(t, 1, h.native.listCalls)
}

func TestNativeMetadataFailureIsSwallowed(t *testing.T) {
	h := newHarness(t)
	h.native.add("en", false, "text")
	h.metadata.md, h.metadata.err = nil, errors.New("Sign in to confirm you're not a bot")

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "YouTube Video dQw4w9WgXcQ", result.Title)
	assert.Equal(t, 0, result.DurationSeconds)
}

func TestCaptionsUsedWhenNativeMisses(t *testing.T) {
	h := newHarness(t)
	h.subtitles.blob = "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n<c>caption</c> text\n"

	result, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.NoError(t, err)

	assert.Equal(t, "caption text", result.Text)
	assert.Equal(t, models.MethodCaptions, result.Method)
	assert.Equal(t, []string{"en", "en-US", "en-GB"}, h.subtitles.langs)
	assert.Equal(t, 0, h.downloader.calls)
}

func TestNonYouTubeSkipsNativeStage(t *testing.T) {
	h := newHarness(t)
	h.subtitles.blob = "1\n00:00:01,000 --> 00:00:02,000\nvimeo captions\n"

	result, err := h.resolver(0).Resolve(context.Background(), "https://vimeo.com/76979871")
	require.NoError(t, err)

	assert.Equal(t, models.PlatformVimeo, result.Platform)
	assert.Equal(t, "vimeo captions", result.Text)
	assert.Empty(t, h.native.fetched)
	assert.Equal(t, 0, h.native.listCalls)
}

func TestDurationGuard(t *testing.T) {
	t.Run("over the cap aborts before captions and audio", func(t *testing.T) {
		h := newHarness(t)
		h.metadata.md = &Metadata{Title: "Marathon", DurationSeconds: 7201}
		h.subtitles.blob = "would be used"

		_, err := h.resolver(7200).Resolve(context.Background(), ytURL)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrDurationExceeded)
		assert.NotErrorIs(t, err, ErrResolutionFailed)
		var de *DurationExceededError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 7200, de.Limit)
		assert.Equal(t, 7201, de.Actual)
		assert.Equal(t, 0, h.subtitles.calls)
		assert.Equal(t, 0, h.downloader.calls)
	})

	t.Run("exactly the cap is accepted", func(t *testing.T) {
		h := newHarness(t)
		h.metadata.md = &Metadata{Title: "Two hours", DurationSeconds: 7200}
		h.subtitles.blob = "captions"

		result, err := h.resolver(7200).Resolve(context.Background(), ytURL)
		require.NoError(t, err)
		assert.Equal(t, 7200, result.DurationSeconds)
		assert.Equal(t, 1, h.subtitles.calls)
	})
}

func TestBotDetectionIsSoft(t *testing.T) {
	h := newHarness(t)
	h.metadata.md, h.metadata.err = nil, fmt.Errorf("yt-dlp: %w", ErrBotDetection)
	h.subtitles.blob = "captions after block"

	result, err := h.resolver(0).Resolve(context.Background(), "https://www.dailymotion.com/video/x1")
	require.NoError(t, err)

	assert.Equal(t, "captions after block", result.Text)
	assert.Equal(t, 1, h.subtitles.calls)
}

func TestAudioStageRemovesArtifact(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.resolver(0).Resolve(context.Background(), ytURL)
		require.NoError(t, err)

		assert.Equal(t, models.MethodAudioTranscription, result.Method)
		assert.Equal(t, "spoken words", result.Text)
		assert.Equal(t, "Lecture 1", result.Title)
		assert.True(t, h.transcriber.sawFile)
		assert.NoFileExists(t, h.downloader.artifact)
		assertEmptyDir(t, h.root)
	})

	t.Run("transcriber failure", func(t *testing.T) {
		h := newHarness(t)
		h.transcriber.text, h.transcriber.err = "", errors.New("stt down")

		_, err := h.resolver(0).Resolve(context.Background(), ytURL)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrResolutionFailed)
		assert.NoFileExists(t, h.downloader.artifact)
		assertEmptyDir(t, h.root)
	})

	t.Run("download failure", func(t *testing.T) {
		h := newHarness(t)
		h.downloader.err = errors.New("403")

		_, err := h.resolver(0).Resolve(context.Background(), ytURL)
		require.Error(t, err)
		assert.Equal(t, 0, h.transcriber.calls)
		assertEmptyDir(t, h.root)
	})
}

func TestAllStrategiesExhausted(t *testing.T) {
	h := newHarness(t)
	sttErr := errors.New("stt quota")
	h.transcriber.text, h.transcriber.err = "", sttErr

	_, err := h.resolver(0).Resolve(context.Background(), ytURL)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, sttErr)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []models.SourceMethod{
		models.MethodNativeTranscript,
		models.MethodCaptions,
		models.MethodAudioTranscription,
	}, re.Methods())
	assert.Contains(t, err.Error(), "audio_transcription")
}

func TestEmptyReference(t *testing.T) {
	_, err := newHarness(t).resolver(0).Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestCancelledContextStopsChain(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.resolver(0).Resolve(ctx, "https://vimeo.com/1")
	require.Error(t, err)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.downloader.calls)
}

func TestMetadataChain(t *testing.T) {
	first := &fakeMetadata{err: ErrUnsupported}
	second := &fakeMetadata{md: &Metadata{Title: "from second"}}

	md, err := MetadataChain{first, second}.FetchMetadata(context.Background(), ytURL)
	require.NoError(t, err)
	assert.Equal(t, "from second", md.Title)

	blocked := &fakeMetadata{err: fmt.Errorf("x: %w", ErrBotDetection)}
	_, err = MetadataChain{first, blocked}.FetchMetadata(context.Background(), ytURL)
	assert.ErrorIs(t, err, ErrBotDetection)

	_, err = MetadataChain{}.FetchMetadata(context.Background(), ytURL)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
