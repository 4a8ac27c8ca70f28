// Package ytdlp drives the yt-dlp binary for metadata, subtitle and audio
// extraction on any site it supports.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"edu-gate/shared/transcript"
	"edu-gate/shared/workspace"
)

const (
	DefaultBinary          = "yt-dlp"
	defaultTimeout         = 10 * time.Minute
	defaultMetadataTimeout = 45 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrNoAudio means yt-dlp exited cleanly without leaving an audio file.
var ErrNoAudio = errors.New("failed to download audio from video")

var subtitleExtensions = []string{"vtt", "srt"}

type Client struct {
	binary          string
	workspaceRoot   string
	timeout         time.Duration
	metadataTimeout time.Duration
}

// New returns a client running binary. Subtitle downloads get their own
// workspace under workspaceRoot. timeout bounds audio downloads; metadata
// and subtitle calls use the shorter metadata timeout.
func New(binary, workspaceRoot string, timeout time.Duration) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{binary: binary, workspaceRoot: workspaceRoot, timeout: timeout}
	return c.WithMetadataTimeout(defaultMetadataTimeout)
}

// WithMetadataTimeout sets the bound for metadata and subtitle calls. It
// never exceeds the download timeout.
func (c *Client) WithMetadataTimeout(d time.Duration) *Client {
	if d <= 0 {
		d = defaultMetadataTimeout
	}
	c.metadataTimeout = min(d, c.timeout)
	return c
}

type videoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// FetchMetadata reads title and duration without downloading media.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*transcript.Metadata, error) {
	out, err := c.run(ctx, c.metadataTimeout, "--dump-single-json", "--skip-download", url)
	if err != nil {
		return nil, err
	}

	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp metadata: %w", err)
	}
	return &transcript.Metadata{
		Title:           info.Title,
		DurationSeconds: int(info.Duration),
	}, nil
}

// FetchSubtitles downloads manual or automatic captions and returns the
// first file found in language order, or "" when there is none.
func (c *Client) FetchSubtitles(ctx context.Context, url string, languages []string) (string, error) {
	ws, err := workspace.Acquire(c.workspaceRoot)
	if err != nil {
		return "", err
	}
	defer ws.Release()

	_, err = c.run(ctx, c.metadataTimeout,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(languages, ","),
		"--sub-format", "vtt/srt/best",
		"-o", ws.Path("%(id)s"),
		url,
	)
	if err != nil {
		return "", err
	}

	for _, lang := range languages {
		for _, ext := range subtitleExtensions {
			matches, _ := filepath.Glob(ws.Path("*." + lang + "." + ext))
			if len(matches) == 0 {
				continue
			}
			data, err := os.ReadFile(matches[0])
			if err != nil {
				return "", fmt.Errorf("failed to read subtitles: %w", err)
			}
			logrus.WithFields(logrus.Fields{"url": url, "file": filepath.Base(matches[0])}).Debug("Found subtitles")
			return string(data), nil
		}
	}
	return "", nil
}

// DownloadAudio extracts the best audio stream as mp3 into dir.
func (c *Client) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	_, err := c.run(ctx, c.timeout,
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		url,
	)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to list audio directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasSuffix(e.Name(), ".part") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoAudio
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.HasSuffix(names[i], ".mp3") && !strings.HasSuffix(names[j], ".mp3")
	})
	return filepath.Join(dir, names[0]), nil
}

func (c *Client) commonArgs() []string {
	return []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--user-agent", userAgent,
		"--add-header", "Accept:text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"--add-header", "Accept-Language:en-us,en;q=0.5",
		"--add-header", "Sec-Fetch-Mode:navigate",
		"--extractor-args", "youtube:player_client=android,web;player_skip=webpage,configs",
	}
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, append(c.commonArgs(), args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("yt-dlp interrupted: %w", ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if isBotDetection(msg) {
			return nil, fmt.Errorf("%w: %s", transcript.ErrBotDetection, msg)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, msg)
	}

	logrus.WithField("duration", time.Since(start)).Debug("yt-dlp finished")
	return stdout.Bytes(), nil
}

func isBotDetection(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "bot") || strings.Contains(lower, "sign in")
}
