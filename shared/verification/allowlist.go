package verification

import (
	"net/url"
	"regexp"
	"strings"
)

// PlatformEntry maps a domain (or domain/path prefix) to a display name.
type PlatformEntry struct {
	Pattern string
	Name    string
}

// Ordered: the first matching entry names the platform.
var defaultPlatforms = []PlatformEntry{
	// MOOCs
	{"coursera.org", "Coursera"},
	{"edx.org", "edX"},
	{"udacity.com", "Udacity"},
	{"udemy.com", "Udemy"},
	{"linkedin.com/learning", "LinkedIn Learning"},
	{"skillshare.com", "Skillshare"},
	{"pluralsight.com", "Pluralsight"},
	{"datacamp.com", "DataCamp"},
	{"codecademy.com", "Codecademy"},

	// Academic institutions
	{"mit.edu", "MIT"},
	{"harvard.edu", "Harvard"},
	{"stanford.edu", "Stanford"},
	{"yale.edu", "Yale"},
	{"berkeley.edu", "UC Berkeley"},
	{"ox.ac.uk", "Oxford"},
	{"cam.ac.uk", "Cambridge"},

	{"khanacademy.org", "Khan Academy"},

	// Language learning
	{"duolingo.com", "Duolingo"},
	{"babbel.com", "Babbel"},
	{"rosettastone.com", "Rosetta Stone"},

	// Professional development
	{"masterclass.com", "MasterClass"},
	{"brilliant.org", "Brilliant"},
}

var defaultChannelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtube\.com/edu`),
	regexp.MustCompile(`(?i)youtube\.com/user/khanacademy`),
	regexp.MustCompile(`(?i)youtube\.com/c/3blue1brown`),
	regexp.MustCompile(`(?i)youtube\.com/c/CrashCourse`),
	regexp.MustCompile(`(?i)youtube\.com/c/veritasium`),
	regexp.MustCompile(`(?i)youtube\.com/c/VSauce`),
	regexp.MustCompile(`(?i)youtube\.com/c/TED-Ed`),
	regexp.MustCompile(`(?i)youtube\.com/c/SmarterEveryDay`),
}

var defaultChannelNames = []string{
	"Khan Academy",
	"3Blue1Brown",
	"CrashCourse",
	"Veritasium",
	"Vsauce",
	"TED-Ed",
	"MIT OpenCourseWare",
	"Stanford Online",
	"freeCodeCamp.org",
	"Computerphile",
	"Numberphile",
	"Physics Girl",
	"SmarterEveryDay",
	"MinutePhysics",
}

const channelPatternPlatform = "YouTube Education"

// AllowList holds the static trust tables. It is built once at startup and
// never modified afterwards, so it is safe for concurrent use.
type AllowList struct {
	platforms       []PlatformEntry
	channelPatterns []*regexp.Regexp
	channelNames    []string
}

// NewAllowList returns the built-in tables extended with configured extras.
// Extras are appended, so built-in entries win ties.
func NewAllowList(extraPlatforms []PlatformEntry, extraChannels []string) *AllowList {
	platforms := make([]PlatformEntry, 0, len(defaultPlatforms)+len(extraPlatforms))
	platforms = append(platforms, defaultPlatforms...)
	for _, p := range extraPlatforms {
		pattern := strings.ToLower(strings.TrimSpace(p.Pattern))
		if pattern == "" || p.Name == "" {
			continue
		}
		platforms = append(platforms, PlatformEntry{Pattern: strings.TrimPrefix(pattern, "www."), Name: p.Name})
	}

	channels := make([]string, 0, len(defaultChannelNames)+len(extraChannels))
	channels = append(channels, defaultChannelNames...)
	for _, c := range extraChannels {
		if c = strings.TrimSpace(c); c != "" {
			channels = append(channels, c)
		}
	}

	return &AllowList{
		platforms:       platforms,
		channelPatterns: defaultChannelPatterns,
		channelNames:    channels,
	}
}

// MatchURL reports the trusted platform a reference belongs to.
func (a *AllowList) MatchURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	host, path := splitReference(raw)
	if host != "" {
		for _, p := range a.platforms {
			target := host
			if strings.Contains(p.Pattern, "/") {
				target = host + path
			}
			if strings.Contains(target, p.Pattern) {
				return p.Name, true
			}
		}
	}

	for _, re := range a.channelPatterns {
		if re.MatchString(raw) {
			return channelPatternPlatform, true
		}
	}

	return "", false
}

// MatchChannel finds a known educational channel name inside a title.
func (a *AllowList) MatchChannel(title string) (string, bool) {
	lower := strings.ToLower(title)
	if lower == "" {
		return "", false
	}
	for _, name := range a.channelNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, true
		}
	}
	return "", false
}

// splitReference returns the lower-cased host without a leading "www." and
// the lower-cased path. References without a scheme are read as https.
func splitReference(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", ""
		}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host, strings.ToLower(u.EscapedPath())
}
