package cardtitle

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
)

const hashLength = 10

var (
	teamSetMarker = regexp.MustCompile(`(?i)\bteam\s+set\b`)
	teamSetName   = regexp.MustCompile(`(?i)^\s*(?:(?:19|20)\d{2}\s+)?(.+?)\s+(?:MLB\s+)?TOPPS\s+NOW`)

	// Tried in order; the first match wins.
	numberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:\bcard)\s+#?([A-Z]{0,4}\d{1,4}[A-Z]?)\b`),
		regexp.MustCompile(`(?i:\bcard)\s+#?([A-Z]{1,4}-\d{1,4}[A-Z]?)\b`),
		regexp.MustCompile(`(?i:\bcard)\s+([A-Z]{2,6})(?:[\s,;.)]|$)`),
		regexp.MustCompile(`#(\d{1,4}[A-Z]*)\b`),
	}
	hintPattern = regexp.MustCompile(`^[A-Z0-9]{1,6}(?:-[A-Z0-9]{1,6})?$`)

	titleYear      = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\b\s+(?:MLB\s+)?TOPPS\s+NOW`)
	standaloneYear = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

type category struct {
	name     string
	keywords []string
}

var specialCategories = []category{
	{name: "award", keywords: []string{"award", "mvp", "cy young", "rookie of the year", "silver slugger", "gold glove", "manager of the year"}},
	{name: "cover", keywords: []string{"cover"}},
	{name: "collector-pack", keywords: []string{"collector pack", "collector's pack", "collectors pack"}},
	{name: "all-star", keywords: []string{"all-star", "all star"}},
	{name: "postseason", keywords: []string{"world series", "postseason", "wild card"}},
	{name: "milestone", keywords: []string{"milestone"}},
	{name: "draft", keywords: []string{"draft"}},
}

// DeriveIdentity computes the card identity from a title. The hint is a
// card-number text found next to the title on the listing and is only used
// when the title itself carries no usable number. The result is always valid.
func DeriveIdentity(title, hint string) card.Identity {
	title = Normalize(title)

	if teamSetMarker.MatchString(title) {
		if name, ok := TeamName(title); ok {
			if abbr := Abbreviate(name); abbr != "" {
				id := card.TeamSet(abbr)
				if id.Validate() == nil {
					return id
				}
			}
		}
	}

	// Printed numbers inside the SP-/TEAMSET- namespaces cannot be stored
	// as-is, so they fall through to the hash.
	if number, ok := CardNumber(title); ok && !card.ReservedNumber(number) {
		return card.Sequential(number)
	}
	if number, ok := numberFromHint(hint); ok && !card.ReservedNumber(number) {
		return card.Sequential(number)
	}

	return card.Hashed(ContentHash(title), Classify(title))
}

// CardNumber extracts the printed card number from a title.
func CardNumber(title string) (string, bool) {
	for _, pattern := range numberPatterns {
		if m := pattern.FindStringSubmatch(title); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}
	return "", false
}

func numberFromHint(hint string) (string, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", false
	}
	if number, ok := CardNumber(hint); ok {
		return number, true
	}
	hint = strings.ToUpper(strings.TrimPrefix(hint, "#"))
	if hintPattern.MatchString(hint) {
		return hint, true
	}
	return "", false
}

// TeamName pulls the team out of a team-set title, e.g. "Houston Astros" from
// "2025 Houston Astros MLB Topps NOW® Road To Opening Day 11-Card Team Set".
func TeamName(title string) (string, bool) {
	m := teamSetName.FindStringSubmatch(title)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// Abbreviate builds an abbreviation from the first letter of each word.
func Abbreviate(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Classify returns the special category named by a keyword in the title, or
// an empty string.
func Classify(title string) string {
	lower := strings.ToLower(title)
	for _, c := range specialCategories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name
			}
		}
	}
	return ""
}

// ContentHash is the first ten upper-case hex characters of the SHA-256 of
// the normalized title.
func ContentHash(title string) string {
	sum := sha256.Sum256([]byte(Normalize(title)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:hashLength]
}

// Year returns the card year, preferring the year that precedes the brand
// marker.
func Year(title string) (int, bool) {
	if m := titleYear.FindStringSubmatch(title); m != nil {
		year, err := strconv.Atoi(m[1])
		return year, err == nil
	}
	if m := standaloneYear.FindStringSubmatch(title); m != nil {
		year, err := strconv.Atoi(m[1])
		return year, err == nil
	}
	return 0, false
}
