package models

import (
	"fmt"
	"time"
)

type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"    // known educational platform or channel
	StatusAIVerified VerificationStatus = "ai_verified" // accepted by the AI classifier
	StatusRejected   VerificationStatus = "rejected"
	StatusPending    VerificationStatus = "pending" // unverified, allowed through
)

type VerificationMethod string

const (
	MethodWhitelist        VerificationMethod = "whitelist"
	MethodChannelWhitelist VerificationMethod = "youtube_channel_whitelist"
	MethodAIAnalysis       VerificationMethod = "ai_analysis"
	MethodAPIUnavailable   VerificationMethod = "api_unavailable"
)

// Source types carried in ContentSource.SourceType.
const (
	SourceVideoURL = "video_url"
	SourceWebPage  = "url"
	SourcePDF      = "pdf"
	SourceText     = "txt"
	SourceDocx     = "docx"
)

// ContentSource describes where verified content came from. A nil
// *ContentSource means no metadata is available.
type ContentSource struct {
	SourceType       string `json:"source_type"`
	SourceIdentifier string `json:"source_identifier"`
	Title            string `json:"title,omitempty"`
	DurationSeconds  int    `json:"duration,omitempty"`
	TranscriptLength int    `json:"transcript_length,omitempty"`
}

type EducationalAnalysis struct {
	IsEducational         bool     `json:"is_educational"`
	Confidence            float64  `json:"confidence"`
	Topics                []string `json:"topics"`
	EducationalIndicators []string `json:"educational_indicators"`
	NonEducationalFlags   []string `json:"non_educational_flags"`
	Reasoning             string   `json:"reasoning"`
}

type VerificationDecision struct {
	Status          VerificationStatus `json:"status"`
	ConfidenceScore *float64           `json:"confidence_score,omitempty"`
	Platform        string             `json:"platform,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	Method          VerificationMethod `json:"verification_method"`
	VerifiedAt      time.Time          `json:"verified_at"`
}

// Validate checks the status/reason/method invariants of a decision.
func (d VerificationDecision) Validate() error {
	switch d.Status {
	case StatusRejected:
		if d.RejectionReason == "" {
			return fmt.Errorf("rejected decision requires a rejection reason")
		}
	case StatusVerified, StatusAIVerified:
		if d.RejectionReason != "" {
			return fmt.Errorf("%s decision cannot carry a rejection reason", d.Status)
		}
	case StatusPending:
	default:
		return fmt.Errorf("unknown verification status %q", d.Status)
	}

	switch d.Method {
	case MethodWhitelist, MethodChannelWhitelist, MethodAIAnalysis, MethodAPIUnavailable:
		return nil
	default:
		return fmt.Errorf("unknown verification method %q", d.Method)
	}
}
