package subtitles

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

1
00:00:01.000 --> 00:00:04.000 align:start position:0%
Welcome to <c.colorE5E5E5>this</c> lecture

2
00:00:04.000 --> 00:00:07.500
<v Instructor>today we   cover</v> <00:00:05.120><c>recursion</c>

3
00:00:07.500 --> 00:00:09.000
today we cover recursion


4
00:00:09.000 --> 00:00:12.000
and base cases.
`

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
{\an8}First line

2
00:00:04,000 --> 00:00:06,000
<i>Second</i> line
`

var (
	timestampPattern = regexp.MustCompile(`\d{2}:\d{2}[.,]\d{3}`)
	markupPattern    = regexp.MustCompile(`<[^>]*>`)
	numericLine      = regexp.MustCompile(`(?m)^\d+$`)
)

func TestNormalizeVTT(t *testing.T) {
	got := Normalize(sampleVTT)

	assert.Equal(t, "Welcome to this lecture\ntoday we cover recursion\nand base cases.", got)
}

func TestNormalizeSRT(t *testing.T) {
	got := Normalize(sampleSRT)

	assert.Equal(t, "First line\nSecond line", got)
}

func TestNormalizeWindowsLineEndings(t *testing.T) {
	got := Normalize(strings.ReplaceAll(sampleSRT, "\n", "\r\n"))

	assert.Equal(t, "First line\nSecond line", got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		sampleVTT,
		sampleSRT,
		"",
		"plain text already\nsecond line",
		"WEBVTT\n\n00:00.000 --> 00:01.000\nshort hours form",
		"<<b>x> 12\n12\n00:00:01.000 --> 00:00:02.000 extra words\n  spaced   out  ",
		"1\n\n2\n\n3",
		"line\nline\nline\nother",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "input: %q", in)
	}
}

func TestNormalizeStripsAllTimingAndMarkup(t *testing.T) {
	for _, in := range []string{sampleVTT, sampleSRT} {
		got := Normalize(in)

		assert.False(t, timestampPattern.MatchString(got), "timestamps left in %q", got)
		assert.False(t, markupPattern.MatchString(got), "markup left in %q", got)
		assert.False(t, numericLine.MatchString(got), "cue index left in %q", got)
		assert.NotContains(t, got, "  ")
		assert.NotContains(t, got, "\n\n")
	}
}

func TestNormalizePreservesWordOrder(t *testing.T) {
	got := Normalize(sampleVTT)

	words := strings.Fields(got)
	assert.Equal(t, []string{"Welcome", "to", "this", "lecture", "today", "we", "cover", "recursion", "and", "base", "cases."}, words)
}

func TestNormalizeKeywordInsideCueText(t *testing.T) {
	in := "1\n00:00:01.000 --> 00:00:02.000\n<c>WEBVTT</c> captions explained\n\n" +
		"2\n00:00:03.000 --> 00:00:04.000\nsecond line\n"

	once := Normalize(in)
	assert.Equal(t, "WEBVTT captions explained\nsecond line", once)
	assert.Equal(t, once, Normalize(once))
}

func TestNormalizeHeaderOnlyOnFirstLine(t *testing.T) {
	in := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nintro\n\nWEBVTT is a caption format\n00:00:02.000 --> 00:00:03.000\nexplained\n"

	assert.Equal(t, "intro\nWEBVTT is a caption format\nexplained", Normalize(in))
}

func TestNormalizeSkipsMetadataBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"note", "NOTE this is a comment\nspanning two lines"},
		{"bare note", "NOTE\nreviewed by the editor"},
		{"style", "STYLE\n::cue {\n  color: yellow;\n}"},
		{"region", "REGION\nid:fred\nwidth:40%\nlines:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "WEBVTT\n\n" + tt.block + "\n\n00:00:01.000 --> 00:00:02.000\nhello\n\n" +
				tt.block + "\n\n00:00:02.000 --> 00:00:03.000\nworld\n"

			assert.Equal(t, "hello\nworld", Normalize(in))
		})
	}
}

func TestNormalizeKeepsKeywordLikeText(t *testing.T) {
	tests := []string{
		"NOTEworthy results\nsecond line",
		"NOTE this untimed text stays",
		"STYLE guide chapter one",
	}
	for _, in := range tests {
		assert.Equal(t, in, Normalize(in))
	}

	timed := "00:00:01.000 --> 00:00:02.000\nNOTEworthy results\n"
	assert.Equal(t, "NOTEworthy results", Normalize(timed))
}

func FuzzNormalize(f *testing.F) {
	seeds := []string{
		sampleVTT,
		sampleSRT,
		"",
		"WEBVTT\n\nNOTE comment\n\n00:00:01.000 --> 00:00:02.000\nhello\n",
		"1\n00:00:01.000 --> 00:00:02.000\n<c>WEBVTT</c> captions explained\n\n2\n00:00:03.000 --> 00:00:04.000\nsecond line\n",
		"STYLE\n::cue { color: red }\n\n00:01.000 --> 00:02.000\n<b>NOTE</b> bold\n",
		"<<b>x> 12\n12\n00:00:01.000 --> 00:00:02.000 extra words\n  spaced   out  ",
		"00:00:01.000\n--> 00:00:02.000\n",
		"\ufeff\n\ufeffWEBVTT\n\n00:01.000 --> 00:02.000\nhi\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, in string) {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
		if once == "" {
			return
		}
		for _, line := range strings.Split(once, "\n") {
			if line == "" {
				t.Fatalf("blank line in %q", once)
			}
			if timingRE.MatchString(line) {
				t.Fatalf("timing line left in %q", once)
			}
			if markupRE.MatchString(line) {
				t.Fatalf("markup left in %q", once)
			}
			if cueIndexRE.MatchString(line) {
				t.Fatalf("cue index left in %q", once)
			}
		}
	})
}
