package cardtitle

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	titlePrintRun  = regexp.MustCompile(`(?i)\bPR:\s*(\d{1,3}(?:,\d{3})+|\d+)`)
	printRunDigits = regexp.MustCompile(`\d{1,3}(?:,\d{3})+|\d+`)
	playerMarker   = regexp.MustCompile(`(?i)\s*-\s*(?:19|20)\d{2}\b.*?TOPPS\s+NOW`)
	numberSegment  = regexp.MustCompile(`(?i)^(?:\d+-)?card\b`)
)

// PrintRunFromTitle reads "PR: 2,176" style print runs from a title.
func PrintRunFromTitle(title string) (int, bool) {
	m := titlePrintRun.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	return parseCount(m[1])
}

// ParsePrintRun reads the first count in free text such as "Print Run: 1,234".
func ParsePrintRun(text string) (int, bool) {
	m := printRunDigits.FindString(text)
	if m == "" {
		return 0, false
	}
	return parseCount(m)
}

func parseCount(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// PlayerName returns the subject of a card title: the text before the
// "- <year> ... TOPPS NOW" marker, else the text before the first " - ".
// When that prefix is empty or is itself the brand line, the trailing
// segment is used instead, which keeps multi-subject names intact.
func PlayerName(title string) string {
	title = Normalize(title)

	if loc := playerMarker.FindStringIndex(title); loc != nil {
		if name := strings.TrimSpace(title[:loc[0]]); name != "" {
			return name
		}
	} else if i := strings.Index(title, " - "); i > 0 {
		if name := strings.TrimSpace(title[:i]); !HasBrandMarker(name) {
			return name
		}
	}

	return trailingSegment(title)
}

func trailingSegment(title string) string {
	segments := strings.Split(title, " - ")
	if len(segments) < 2 {
		return ""
	}
	for i := len(segments) - 1; i > 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" || HasBrandMarker(seg) || numberSegment.MatchString(seg) {
			continue
		}
		if _, ok := PrintRunFromTitle(seg); ok {
			continue
		}
		return seg
	}
	return ""
}
