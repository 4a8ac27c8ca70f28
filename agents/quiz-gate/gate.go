// Package quizgate turns a video, web page or document into a verified,
// points-weighted quiz.
package quizgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
	"edu-gate/shared/documents"
	"edu-gate/shared/monitoring"
	"edu-gate/shared/platform"
	"edu-gate/shared/points"
	"edu-gate/shared/verification"
)

// MinContentChars is the shortest content a quiz is generated from.
const MinContentChars = 50

var (
	ErrContentTooShort = errors.New("the provided content is too short to generate a quiz")
	ErrNoInput         = errors.New("please provide either a file or URL")
)

type TranscriptResolver interface {
	Resolve(ctx context.Context, raw string) (*models.TranscriptResult, error)
}

type TrustVerifier interface {
	Verify(ctx context.Context, content, url string, source *models.ContentSource) models.VerificationDecision
}

type QuizGenerator interface {
	Generate(ctx context.Context, content string) (*models.Quiz, error)
}

type DocumentProcessor interface {
	ExtractFile(filename string, data []byte) (*documents.Document, error)
	FetchURL(ctx context.Context, rawURL string) (*documents.Document, error)
}

type Deps struct {
	Resolver  TranscriptResolver
	Verifier  TrustVerifier
	Quizzes   QuizGenerator
	Documents DocumentProcessor
	Monitor   *monitoring.Monitor
}

// Gate is the caller boundary of the pipeline.
type Gate struct {
	resolver  TranscriptResolver
	verifier  TrustVerifier
	quizzes   QuizGenerator
	documents DocumentProcessor
	monitor   *monitoring.Monitor
}

func NewGate(d Deps) *Gate {
	if d.Monitor == nil {
		d.Monitor = monitoring.NewMonitor()
	}
	return &Gate{
		resolver:  d.Resolver,
		verifier:  d.Verifier,
		quizzes:   d.Quizzes,
		documents: d.Documents,
		monitor:   d.Monitor,
	}
}

// Result is the outcome of one quiz request. Quiz is nil when the content
// was rejected.
type Result struct {
	Source       *models.ContentSource       `json:"source"`
	Verification models.VerificationDecision `json:"verification"`
	PointsEarned int                         `json:"points_earned"`
	Quiz         *models.Quiz                `json:"quiz,omitempty"`
}

// Rejected reports whether verification refused the content.
func (r *Result) Rejected() bool {
	return r.Verification.Status == models.StatusRejected
}

// ResolveTranscript extracts transcript text from a video reference.
func (g *Gate) ResolveTranscript(ctx context.Context, url string) (*models.TranscriptResult, error) {
	start := time.Now()
	result, err := g.resolver.Resolve(ctx, url)
	if err != nil {
		g.monitor.RecordResolutionFailure(err, time.Since(start))
		return nil, err
	}
	g.monitor.RecordResolution(result.Method, time.Since(start))
	return result, nil
}

// Verify classifies content and applies quota degradation. It returns the
// final decision and the points it is worth.
func (g *Gate) Verify(ctx context.Context, content, url string, source *models.ContentSource) (models.VerificationDecision, int) {
	raw := g.verifier.Verify(ctx, content, url, source)
	decision := verification.Degrade(raw)
	degraded := decision.Status != raw.Status
	if degraded {
		logrus.WithField("url", url).Warn("AI verification unavailable, content allowed through as pending")
	}
	g.monitor.RecordDecision(decision.Status, degraded)
	return decision, points.Award(decision.Status)
}

// ProcessURL builds a quiz from a video or web page reference.
func (g *Gate) ProcessURL(ctx context.Context, url string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrNoInput
	}

	if platform.NewReference(url).IsVideo() {
		tr, err := g.ResolveTranscript(ctx, url)
		if err != nil {
			return nil, err
		}
		source := &models.ContentSource{
			SourceType:       models.SourceVideoURL,
			SourceIdentifier: url,
			Title:            tr.Title,
			DurationSeconds:  tr.DurationSeconds,
			TranscriptLength: utf8.RuneCountInString(tr.Text),
		}
		return g.Process(ctx, tr.Text, url, source)
	}

	doc, err := g.documents.FetchURL(ctx, url)
	if err != nil {
		return nil, err
	}
	return g.Process(ctx, doc.Text, url, doc.Source())
}

// ProcessFile builds a quiz from an uploaded document.
func (g *Gate) ProcessFile(ctx context.Context, filename string, data []byte) (*Result, error) {
	doc, err := g.documents.ExtractFile(filename, data)
	if err != nil {
		return nil, err
	}
	return g.Process(ctx, doc.Text, "", doc.Source())
}

// Process verifies content and, unless it is rejected, generates a quiz.
func (g *Gate) Process(ctx context.Context, content, url string, source *models.ContentSource) (*Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentChars {
		return nil, ErrContentTooShort
	}

	decision, award := g.Verify(ctx, content, url, source)
	result := &Result{Source: source, Verification: decision}
	// Points are credited with a quiz. The policy still prices a rejection
	// at the base rate, which Verify reports, but a rejected result earns 0.
	if result.Rejected() {
		logrus.WithFields(logrus.Fields{
			"url":    url,
			"reason": decision.RejectionReason,
		}).Info("Content rejected, no quiz generated")
		return result, nil
	}

	quiz, err := g.quizzes.Generate(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}
	result.Quiz = quiz
	result.PointsEarned = award
	return result, nil
}
