package models

// Platform identifies the video host a reference points at.
type Platform string

const (
	PlatformYouTube     Platform = "YouTube"
	PlatformVimeo       Platform = "Vimeo"
	PlatformDailymotion Platform = "Dailymotion"
	PlatformTwitch      Platform = "Twitch"
	PlatformUnknown     Platform = "Unknown"
)

// VideoReference is a raw reference paired with its detected platform.
type VideoReference struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

// IsVideo reports whether the reference points at a known video host.
func (r VideoReference) IsVideo() bool {
	return r.Platform != PlatformUnknown && r.Platform != ""
}
