package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
)

// ErrQuotaExceeded is returned by a ContentClassifier when the AI provider
// refuses calls for billing or rate reasons.
var ErrQuotaExceeded = errors.New("AI provider quota exceeded")

// QuotaMarker appears in the rejection reason of every quota-caused rejection.
const QuotaMarker = "API quota exceeded"

const (
	unavailableFlag = "AI analysis unavailable"

	DefaultConfidenceThreshold = 70.0
	DefaultSampleChars         = 3000
)

// ContentClassifier judges whether a content sample is educational.
type ContentClassifier interface {
	Analyze(ctx context.Context, sample string, source *models.ContentSource) (*models.EducationalAnalysis, error)
}

type Options struct {
	ConfidenceThreshold float64
	SampleChars         int
	Now                 func() time.Time
}

// Classifier decides whether content is trusted educational material.
type Classifier struct {
	allow       *AllowList
	ai          ContentClassifier
	threshold   float64
	sampleChars int
	now         func() time.Time
}

func NewClassifier(allow *AllowList, ai ContentClassifier, opts Options) *Classifier {
	if allow == nil {
		allow = NewAllowList(nil, nil)
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.SampleChars <= 0 {
		opts.SampleChars = DefaultSampleChars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Classifier{
		allow:       allow,
		ai:          ai,
		threshold:   opts.ConfidenceThreshold,
		sampleChars: opts.SampleChars,
		now:         opts.Now,
	}
}

// Verify runs the allow-list, the channel heuristic and the AI classifier in
// that order. It always returns a decision; classifier failures turn into
// rejections.
func (c *Classifier) Verify(ctx context.Context, content, url string, source *models.ContentSource) models.VerificationDecision {
	if name, ok := c.allow.MatchURL(url); ok {
		logrus.WithFields(logrus.Fields{"url": url, "platform": name}).Info("Content verified by platform allow-list")
		return models.VerificationDecision{
			Status:     models.StatusVerified,
			Platform:   name,
			Method:     models.MethodWhitelist,
			VerifiedAt: c.now(),
		}
	}

	if source != nil {
		if channel, ok := c.allow.MatchChannel(source.Title); ok {
			logrus.WithFields(logrus.Fields{"title": source.Title, "channel": channel}).Info("Content verified by channel allow-list")
			return models.VerificationDecision{
				Status:     models.StatusVerified,
				Platform:   "YouTube - " + channel,
				Method:     models.MethodChannelWhitelist,
				VerifiedAt: c.now(),
			}
		}
	}

	analysis := c.analyze(ctx, content, source)
	decision := c.reduce(analysis)
	logrus.WithFields(logrus.Fields{
		"url":        url,
		"status":     decision.Status,
		"confidence": analysis.Confidence,
	}).Info("Content verified by AI analysis")
	return decision
}

func (c *Classifier) analyze(ctx context.Context, content string, source *models.ContentSource) models.EducationalAnalysis {
	if c.ai == nil {
		return failedAnalysis(errors.New("no content classifier configured"))
	}

	analysis, err := c.ai.Analyze(ctx, sample(content, c.sampleChars), source)
	if err == nil && analysis == nil {
		err = errors.New("classifier returned no analysis")
	}
	if err != nil {
		logrus.WithError(err).Warn("AI content analysis failed")
		return failedAnalysis(err)
	}
	return *analysis
}

func failedAnalysis(err error) models.EducationalAnalysis {
	if IsQuotaError(err) {
		return models.EducationalAnalysis{
			Topics:              []string{QuotaMarker},
			NonEducationalFlags: []string{QuotaMarker},
			Reasoning:           "AI provider quota exceeded. Add credits to the provider account to enable content verification.",
		}
	}
	return models.EducationalAnalysis{
		Topics:              []string{"Unknown"},
		NonEducationalFlags: []string{unavailableFlag},
		Reasoning:           fmt.Sprintf("AI analysis failed: %v. Cannot verify educational quality.", err),
	}
}

func (c *Classifier) reduce(a models.EducationalAnalysis) models.VerificationDecision {
	confidence := a.Confidence
	decision := models.VerificationDecision{
		ConfidenceScore: &confidence,
		Method:          models.MethodAIAnalysis,
		VerifiedAt:      c.now(),
	}

	switch {
	case hasFlag(a.NonEducationalFlags, QuotaMarker):
		decision.Status = models.StatusRejected
		decision.RejectionReason = QuotaMarker + ": " + a.Reasoning
	case a.Confidence < c.threshold:
		decision.Status = models.StatusRejected
		decision.RejectionReason = fmt.Sprintf(
			"Low confidence (%s%%). AI is not confident this is educational content. Minimum required: %s%%.",
			formatPercent(a.Confidence), formatPercent(c.threshold))
	case !a.IsEducational:
		decision.Status = models.StatusRejected
		if len(a.NonEducationalFlags) > 0 {
			decision.RejectionReason = "Non-educational content detected: " + strings.Join(a.NonEducationalFlags, ", ")
		} else {
			decision.RejectionReason = "Non-educational content detected: content does not meet educational criteria"
		}
	default:
		decision.Status = models.StatusAIVerified
	}
	return decision
}

// Degrade turns a quota-caused rejection into a pending decision so an AI
// outage does not block users. Every other decision is returned unchanged.
func Degrade(d models.VerificationDecision) models.VerificationDecision {
	if !IsQuotaRejection(d) {
		return d
	}
	return models.VerificationDecision{
		Status:     models.StatusPending,
		Method:     models.MethodAPIUnavailable,
		VerifiedAt: d.VerifiedAt,
	}
}

func IsQuotaRejection(d models.VerificationDecision) bool {
	return d.Status == models.StatusRejected && strings.Contains(d.RejectionReason, QuotaMarker)
}

// IsQuotaError reports whether err means the AI provider is out of quota.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted")
}

func sample(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n])
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
