package platform

import (
	"regexp"
	"strings"

	"edu-gate/internal/models"
)

type hostMarker struct {
	marker   string
	platform models.Platform
}

// YouTube markers come first so that generic markers never shadow them.
var hostMarkers = []hostMarker{
	{"youtube.com", models.PlatformYouTube},
	{"youtu.be", models.PlatformYouTube},
	{"vimeo.com", models.PlatformVimeo},
	{"dailymotion.com", models.PlatformDailymotion},
	{"twitch.tv", models.PlatformTwitch},
}

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
}

// Detect classifies the host of a raw reference. It never fails; unmatched
// references are PlatformUnknown.
func Detect(raw string) models.Platform {
	lower := strings.ToLower(raw)
	for _, m := range hostMarkers {
		if strings.Contains(lower, m.marker) {
			return m.platform
		}
	}
	return models.PlatformUnknown
}

func NewReference(raw string) models.VideoReference {
	raw = strings.TrimSpace(raw)
	return models.VideoReference{URL: raw, Platform: Detect(raw)}
}

// YouTubeVideoID extracts the 11-character video ID from the common YouTube
// URL shapes.
func YouTubeVideoID(raw string) (string, bool) {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}
