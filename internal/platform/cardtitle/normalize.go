// Package cardtitle turns raw Topps NOW listing titles into canonical titles,
// card identities, player names and print runs. Every function is pure.
package cardtitle

import (
	"regexp"
	"strings"
)

var (
	lookForSuffix     = regexp.MustCompile(`(?i)\s*-\s*LOOK\s+FOR\s+(?:AUTO-RELICS|AUTO\s+RELICS|RELICS|AUTOS|AUTOGRAPHS)\b`)
	repeatedSeparator = regexp.MustCompile(`\s*-\s*(?:-\s*)+`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	brandMarker       = regexp.MustCompile(`(?i)TOPPS\s+NOW`)
)

// maxPasses bounds the fixpoint loop; one pass is enough for every title seen
// so far.
const maxPasses = 4

// Normalize returns the canonical title. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := firstLine(raw)
	for i := 0; i < maxPasses; i++ {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(s string) string {
	s = lookForSuffix.ReplaceAllString(s, " ")
	s = repeatedSeparator.ReplaceAllString(s, " - ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, "-") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}
	return s
}

func firstLine(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// JoinLines flattens a multi-line listing text into one line, keeping every
// fragment. Long product URLs are built from this form.
func JoinLines(raw string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
}

// HasBrandMarker reports whether text mentions the Topps NOW brand.
func HasBrandMarker(text string) bool {
	return brandMarker.MatchString(text)
}
