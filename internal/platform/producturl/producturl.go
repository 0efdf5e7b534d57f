// Package producturl synthesizes storefront product URLs from card titles.
package producturl

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/cardtitle"
)

const DefaultBaseURL = "https://www.topps.com/products/"

var (
	afterCardNumber = regexp.MustCompile(`(?is)((?:^|\s)Card\s+[\w-]+).*`)
	printRunClause  = regexp.MustCompile(`(?i)\s*-\s*PR:\s*[\d,]+.*$`)
	slashSeparator  = regexp.MustCompile(`\s*/\s*`)
	hyphenRun       = regexp.MustCompile(`-{2,}`)
)

// Synthesizer builds the two product URL forms under a base URL.
type Synthesizer struct {
	baseURL string
}

func NewSynthesizer(baseURL string) *Synthesizer {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Synthesizer{baseURL: baseURL}
}

// Short keeps the title up to and including the card-number segment.
func (s *Synthesizer) Short(title string) (string, bool) {
	title = cardtitle.Normalize(title)
	if afterCardNumber.MatchString(title) {
		title = afterCardNumber.ReplaceAllString(title, "$1")
	} else {
		title = printRunClause.ReplaceAllString(title, "")
	}
	return s.build(title)
}

// Long keeps the full listing text, promotional suffixes included, and drops
// only the print-run clause.
func (s *Synthesizer) Long(sourceTitle string) (string, bool) {
	title := cardtitle.JoinLines(sourceTitle)
	title = printRunClause.ReplaceAllString(title, "")
	return s.build(title)
}

// Both returns the short and long forms. The long form falls back to the
// short one when the sources are identical.
func (s *Synthesizer) Both(title, sourceTitle string) (short, long string, ok bool) {
	short, ok = s.Short(title)
	if !ok {
		return "", "", false
	}
	if strings.TrimSpace(sourceTitle) == "" {
		sourceTitle = title
	}
	long, longOK := s.Long(sourceTitle)
	if !longOK {
		long = short
	}
	return short, long, true
}

func (s *Synthesizer) build(text string) (string, bool) {
	slug := Slug(text)
	if slug == "" {
		return "", false
	}
	return s.baseURL + url.PathEscape(slug), true
}

// Slug lowercases, strips diacritics and punctuation, and joins words with
// single hyphens.
func Slug(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err == nil {
		text = folded
	}
	text = slashSeparator.ReplaceAllString(text, "-")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	slug := hyphenRun.ReplaceAllString(b.String(), "-")
	return strings.Trim(slug, "-")
}
