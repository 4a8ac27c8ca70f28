// Package subtitles turns timed-text caption tracks (WebVTT, SRT) into plain
// transcript text.
package subtitles

import (
	"regexp"
	"slices"
	"strings"
)

var (
	timingRE     = regexp.MustCompile(`(?:\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}\s*-->\s*(?:\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}(?:[ \t]+\S+:\S+)*`)
	cueIndexRE   = regexp.MustCompile(`^\d+$`)
	markupRE     = regexp.MustCompile(`<[^>]*>`)
	ssaRE        = regexp.MustCompile(`\{\\[^}]*\}`)
	whitespaceRE = regexp.MustCompile(`[ \t\f\v]+`)
)

// blockKeywords open WebVTT blocks that carry no spoken text.
var blockKeywords = []string{"NOTE", "STYLE", "REGION"}

// Normalize strips headers, comment and style blocks, timing lines, cue
// indices and inline markup from a caption blob and returns the remaining
// text one line per caption line.
// Normalize(Normalize(x)) == Normalize(x) for any input.
func Normalize(blob string) string {
	blob = strings.ReplaceAll(blob, "\ufeff", "")
	blob = strings.ReplaceAll(blob, "\r\n", "\n")
	blob = strings.ReplaceAll(blob, "\r", "\n")
	lines := strings.Split(blob, "\n")

	// Block structure only exists in a timed track. Anything else, including
	// normalized output, is cleaned line by line.
	timed := slices.ContainsFunc(lines, timingRE.MatchString)

	var (
		out        []string
		skipping   bool
		blockStart = true
		first      = true
	)
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			skipping = false
			blockStart = true
			continue
		}

		if timed && blockStart && opensBlock(trimmed, first) {
			skipping = true
		}
		first = false
		blockStart = false

		if skipping {
			// A cue may follow the header without a blank line.
			if !timingRE.MatchString(trimmed) {
				continue
			}
			skipping = false
		}

		line := cleanLine(raw)
		if line == "" || cueIndexRE.MatchString(line) {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == line {
			// rolling auto-captions repeat the previous line
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// opensBlock reports whether line starts a header, NOTE, STYLE or REGION
// block. The WEBVTT header is only valid as the first line of a file.
func opensBlock(line string, first bool) bool {
	if first && hasKeyword(line, "WEBVTT") {
		return true
	}
	for _, kw := range blockKeywords {
		if hasKeyword(line, kw) {
			return true
		}
	}
	return false
}

func hasKeyword(line, kw string) bool {
	rest, ok := strings.CutPrefix(line, kw)
	return ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t')
}

// cleanLine applies the inline rewrites until the line stops changing, so a
// cleaned line is always a fixed point. Every rewrite shortens the line or
// turns a tab into a space, so the loop terminates.
func cleanLine(line string) string {
	for {
		next := timingRE.ReplaceAllString(line, " ")
		next = markupRE.ReplaceAllString(next, "")
		next = ssaRE.ReplaceAllString(next, "")
		next = whitespaceRE.ReplaceAllString(next, " ")
		next = strings.TrimSpace(next)
		if next == line {
			return line
		}
		line = next
	}
}
