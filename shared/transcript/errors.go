package transcript

import (
	"errors"
	"fmt"
	"strings"

	"edu-gate/internal/models"
)

var (
	// ErrResolutionFailed is matched by every error that means no strategy
	// produced a transcript.
	ErrResolutionFailed = errors.New("transcript resolution failed")
	// ErrDurationExceeded aborts the whole chain; it is a cost gate, not a
	// strategy failure.
	ErrDurationExceeded = errors.New("video duration exceeds limit")
	// ErrBotDetection marks an upstream refusal by anti-automation defenses.
	ErrBotDetection = errors.New("blocked by bot detection")

	ErrTranscriptNotFound = errors.New("no transcript found")
	ErrNoSubtitles        = errors.New("no subtitles found")
	ErrEmptyTranscript    = errors.New("strategy returned an empty transcript")
	ErrUnsupported        = errors.New("reference not supported by provider")
)

type DurationExceededError struct {
	Limit  int
	Actual int
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("video too long (%ds). Maximum allowed: %ds", e.Actual, e.Limit)
}

func (e *DurationExceededError) Is(target error) bool {
	return target == ErrDurationExceeded
}

// Attempt records one strategy that ran and why it did not produce a
// transcript.
type Attempt struct {
	Method models.SourceMethod
	Err    error
}

type ResolutionError struct {
	URL      string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("could not extract a transcript from %s: no strategy supports this reference", e.URL)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Method, a.Err))
	}
	return fmt.Sprintf("could not extract a transcript from %s (tried %s)", e.URL, strings.Join(parts, "; "))
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Methods lists the strategies that were attempted, in order.
func (e *ResolutionError) Methods() []models.SourceMethod {
	methods := make([]models.SourceMethod, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		methods = append(methods, a.Method)
	}
	return methods
}
