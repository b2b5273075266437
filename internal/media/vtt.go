package media

import (
	"regexp"
	"strings"
)

var (
	vttHeaderRe    = regexp.MustCompile(`^WEBVTT\b`)
	vttMetadataRe  = regexp.MustCompile(`^(Kind|Language|NOTE|STYLE|REGION)\b`)
	vttTimingRe    = regexp.MustCompile(`^(\d{2}:)?\d{2}:\d{2}\.\d{3}\s*-->`)
	vttTimestampRe = regexp.MustCompile(`^(\d{2}:)?\d{2}:\d{2}\.\d{3}$`)
	vttCueIDRe     = regexp.MustCompile(`^\d+$`)
	vttTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// CleanVTT reduces WebVTT caption content to plain spoken text.
// Headers, metadata blocks, cue ids, timing lines and inline tags are
// removed. Consecutive identical lines, which auto-generated captions
// repeat across overlapping cues, are kept once.
func CleanVTT(raw string) string {
	var out []string
	prev := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "",
			vttHeaderRe.MatchString(line),
			vttMetadataRe.MatchString(line),
			vttTimingRe.MatchString(line),
			vttTimestampRe.MatchString(line),
			vttCueIDRe.MatchString(line):
			continue
		}

		line = strings.Join(strings.Fields(vttTagRe.ReplaceAllString(line, "")), " ")
		if line == "" || line == prev {
			continue
		}
		out = append(out, line)
		prev = line
	}
	return strings.Join(out, " ")
}

// Paragraphs splits text into paragraphs of at most wordsPer words,
// separated by blank lines.
func Paragraphs(text string, wordsPer int) string {
	words := strings.Fields(text)
	if wordsPer <= 0 || len(words) == 0 {
		return strings.Join(words, " ")
	}

	var paras []string
	for start := 0; start < len(words); start += wordsPer {
		end := min(start+wordsPer, len(words))
		paras = append(paras, strings.Join(words[start:end], " "))
	}
	return strings.Join(paras, "\n\n")
}
