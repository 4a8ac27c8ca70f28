// Package speech converts downloaded audio artifacts into transcript text.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrTranscription wraps every failure of a speech-to-text attempt.
var ErrTranscription = errors.New("transcription failed")

// Provider is an external speech-to-text service.
type Provider interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Transcriber owns the artifact handle for one provider call.
type Transcriber struct {
	provider Provider
	maxBytes int64
}

func NewTranscriber(provider Provider, maxBytes int64) *Transcriber {
	return &Transcriber{provider: provider, maxBytes: maxBytes}
}

// Transcribe opens the artifact at path, hands it to the provider and closes
// it again on every exit path. Removing the artifact is the caller's job.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open audio artifact: %w", ErrTranscription, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: failed to stat audio artifact: %w", ErrTranscription, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: audio artifact %s is empty", ErrTranscription, filepath.Base(path))
	}
	if t.maxBytes > 0 && info.Size() > t.maxBytes {
		return "", fmt.Errorf("%w: audio artifact is %d bytes, limit is %d", ErrTranscription, info.Size(), t.maxBytes)
	}

	start := time.Now()
	text, err := t.provider.Transcribe(ctx, f, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: provider returned an empty transcript", ErrTranscription)
	}

	logrus.WithFields(logrus.Fields{
		"artifact": filepath.Base(path),
		"bytes":    info.Size(),
		"chars":    len(text),
		"took":     time.Since(start).Round(time.Millisecond),
	}).Info("Transcribed audio")

	return text, nil
}
