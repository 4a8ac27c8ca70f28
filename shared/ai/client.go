// Package ai holds the Gemini-backed content classifier and the JSON
// helpers shared by every model-output parser.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"edu-gate/shared/config"
	"edu-gate/shared/verification"
)

// Generator is the subset of *genai.Models the packages here call.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient creates a Gemini client from the AI config.
func NewClient(ctx context.Context, cfg *config.AIConfig) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// WrapError tags provider quota and rate-limit failures with
// verification.ErrQuotaExceeded.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if isQuota(err) {
		return fmt.Errorf("%w: %w", verification.ErrQuotaExceeded, err)
	}
	return err
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	return verification.IsQuotaError(err)
}

// ParseJSON decodes the outermost JSON object in a model response, repairing
// unescaped quotes inside string values when the first attempt fails.
func ParseJSON(response string, v any) error {
	jsonStr, err := extractObject(response)
	if err != nil {
		return err
	}

	if err := unmarshal(jsonStr, v); err != nil {
		if sanitizedErr := unmarshal(sanitizeJSON(jsonStr), v); sanitizedErr != nil {
			return fmt.Errorf("failed to unmarshal JSON: %w (sanitized version also failed: %v)", err, sanitizedErr)
		}
	}
	return nil
}

// StripFences removes a surrounding Markdown code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
