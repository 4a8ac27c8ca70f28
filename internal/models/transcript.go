package models

// SourceMethod names the resolution strategy that produced a transcript.
type SourceMethod string

const (
	MethodNativeTranscript   SourceMethod = "native_transcript_api"
	MethodCaptions           SourceMethod = "captions"
	MethodAudioTranscription SourceMethod = "audio_transcription"
)

// Cue is one timed entry of a caption track.
type Cue struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type TranscriptResult struct {
	Text            string       `json:"transcript"`
	Title           string       `json:"title,omitempty"`
	DurationSeconds int          `json:"duration,omitempty"`
	Method          SourceMethod `json:"source_method"`
	Platform        Platform     `json:"platform"`
}
