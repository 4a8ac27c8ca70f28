package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edu-gate/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Platform
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", models.PlatformYouTube},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", models.PlatformYouTube},
		{"mixed case", "HTTPS://WWW.YOUTUBE.COM/watch?v=abc", models.PlatformYouTube},
		{"vimeo", "https://vimeo.com/76979871", models.PlatformVimeo},
		{"dailymotion", "https://www.dailymotion.com/video/x7tgad0", models.PlatformDailymotion},
		{"twitch", "https://www.twitch.tv/videos/123", models.PlatformTwitch},
		{"youtube wins over later markers", "https://youtube.com/redirect?q=vimeo.com", models.PlatformYouTube},
		{"unknown", "https://example.com/article", models.PlatformUnknown},
		{"empty", "", models.PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.raw))
		})
	}
}

func TestNewReference(t *testing.T) {
	ref := NewReference("  https://vimeo.com/1  ")
	assert.Equal(t, "https://vimeo.com/1", ref.URL)
	assert.Equal(t, models.PlatformVimeo, ref.Platform)
	assert.True(t, ref.IsVideo())

	assert.False(t, NewReference("https://mit.edu/lecture/1").IsVideo())
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/c/veritasium", "", false},
		{"https://vimeo.com/76979871", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := YouTubeVideoID(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
