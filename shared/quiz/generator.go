// Package quiz generates multiple-choice quizzes from verified content.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"edu-gate/internal/models"
	"edu-gate/shared/ai"
)

var (
	// ErrAllModelsFailed means every configured model failed to produce a
	// valid quiz.
	ErrAllModelsFailed = errors.New("could not generate quiz, please try again later")
	ErrNoContent       = errors.New("no content to build a quiz from")
)

const (
	QuestionCount = 5

	maxPromptContentChars = 2500
	defaultTemperature    = 0.8
	defaultTimeout        = 30 * time.Second
)

const systemPrompt = "You are an expert educator and quiz creator. Your specialty is creating thoughtful, " +
	"content-specific questions that test real understanding. Always generate questions about the ACTUAL CONTENT " +
	"provided, never about meta-information. Return ONLY valid JSON without any markdown formatting or code blocks."

type Generator struct {
	models   ai.Generator
	modelIDs []string
	timeout  time.Duration
	validate *validator.Validate
}

// NewGenerator tries modelIDs in order until one returns a valid quiz.
func NewGenerator(models ai.Generator, modelIDs []string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		models:   models,
		modelIDs: modelIDs,
		timeout:  timeout,
		validate: validator.New(),
	}
}

// Generate returns a five-question quiz about content.
func (g *Generator) Generate(ctx context.Context, content string) (*models.Quiz, error) {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return nil, ErrNoContent
	}

	prompt := buildPrompt(content)
	var errs []error
	for _, model := range g.modelIDs {
		quiz, err := g.generateWith(ctx, model, prompt)
		if err == nil {
			logrus.WithField("model", model).Info("Generated quiz")
			return quiz, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logrus.WithError(err).WithField("model", model).Warn("Quiz model failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllModelsFailed, errors.Join(errs...))
}

func (g *Generator) generateWith(ctx context.Context, model, prompt string) (*models.Quiz, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := float32(defaultTemperature)
	result, err := g.models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       &temperature,
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return nil, ai.WrapError(err)
	}

	text := result.Text()
	if text == "" {
		return nil, errors.New("empty response")
	}

	var quiz models.Quiz
	if err := ai.ParseJSON(text, &quiz); err != nil {
		return nil, err
	}
	if err := g.validate.Struct(&quiz); err != nil {
		return nil, fmt.Errorf("invalid quiz: %w", err)
	}
	return &quiz, nil
}

func buildPrompt(content string) string {
	if runes := []rune(content); len(runes) > maxPromptContentChars {
		content = string(runes[:maxPromptContentChars]) + "..."
	}

	return fmt.Sprintf(`You are an expert educator creating a comprehensive quiz. Read the following content carefully and create exactly %d multiple-choice questions that test deep understanding of the KEY FACTS, CONCEPTS, and DETAILS mentioned in the content.

IMPORTANT: Your questions MUST be about the SPECIFIC INFORMATION in the content below. DO NOT ask generic questions about the document format or meta-information.

Content to analyze:
%s

Generate the questions in the following JSON format:
{
    "questions": [
        {
            "id": 1,
            "question": "Question text here?",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correctAnswer": 0
        }
    ]
}

Requirements:
1. Each question MUST test knowledge of SPECIFIC FACTS, CONCEPTS, or DETAILS from the content above
2. Questions should cover different key points or sections from the content
3. Make questions clear and unambiguous
4. Each question must have exactly 4 distinct options
5. Include plausible wrong answers that someone who didn't read carefully might choose
6. correctAnswer is the index (0-3) of the correct option
7. Vary difficulty: include 2 easy, 2 medium, and 1 challenging question
8. Return ONLY valid JSON without any markdown formatting, code blocks, or additional text`, QuestionCount, content)
}
