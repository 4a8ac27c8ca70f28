package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"edu-gate/internal/models"
)

const classifierSystemPrompt = `You are an educational content quality assessor. Analyze the provided content and determine:

1. Is this content genuinely educational? (not entertainment, gossip, or promotional)
2. What is your confidence level (0-100)?
3. What topics does it cover?
4. What makes it educational?
5. Are there any non-educational red flags?

Educational criteria:
- Teaches skills, concepts, or knowledge
- Structured learning objectives
- Factual, researched information
- Academic or professional development focus
- Explanatory or instructional in nature

Non-educational red flags:
- Entertainment/comedy (primary purpose)
- Celebrity gossip or drama
- Product advertisements/promotions
- Clickbait or sensationalism
- Political propaganda without educational value
- Conspiracy theories
- Pure news reporting without educational analysis
- Gaming/streaming content without educational purpose
- Vlogs or personal lifestyle content

Return JSON format:
{
  "is_educational": bool,
  "confidence": float (0-100),
  "topics": [string],
  "educational_indicators": [string],
  "non_educational_flags": [string],
  "reasoning": string
}`

const DefaultTemperature = 0.3

type ClassifierOptions struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Classifier asks a Gemini model whether a content sample is educational.
type Classifier struct {
	models      Generator
	model       string
	temperature float32
	timeout     time.Duration
}

func NewClassifier(models Generator, opts ClassifierOptions) *Classifier {
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	return &Classifier{
		models:      models,
		model:       opts.Model,
		temperature: float32(opts.Temperature),
		timeout:     opts.Timeout,
	}
}

// Analyze returns the model's judgement of sample. Quota failures match
// verification.ErrQuotaExceeded.
func (c *Classifier) Analyze(ctx context.Context, sample string, source *models.ContentSource) (*models.EducationalAnalysis, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buildUserPrompt(sample, source), genai.RoleUser),
	}
	temperature := c.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifierSystemPrompt, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	result, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to classify content: %w", WrapError(err))
	}

	text := result.Text()
	if text == "" {
		return nil, errors.New("empty response from content classifier")
	}

	var analysis models.EducationalAnalysis
	if err := ParseJSON(text, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}
	analysis.Confidence = clamp(analysis.Confidence, 0, 100)

	logrus.WithFields(logrus.Fields{
		"model":          c.model,
		"is_educational": analysis.IsEducational,
		"confidence":     analysis.Confidence,
		"duration":       time.Since(start),
	}).Debug("Content classified")
	return &analysis, nil
}

func buildUserPrompt(sample string, source *models.ContentSource) string {
	sourceType, identifier := "unknown", "unknown"
	if source != nil {
		if source.SourceType != "" {
			sourceType = source.SourceType
		}
		if source.SourceIdentifier != "" {
			identifier = source.SourceIdentifier
		}
	}

	return fmt.Sprintf(`Analyze this content for educational quality:

CONTENT TYPE: %s
SOURCE: %s

CONTENT SAMPLE:
%s

Provide your analysis in JSON format.`, sourceType, identifier, sample)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
