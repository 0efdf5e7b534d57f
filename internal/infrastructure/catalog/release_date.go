package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

// Patterns seen on product pages, tried in order against the body text.
var releaseDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Product\s+is\s+)?available\s+(?:from\s+)?(\w{3,9}\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)(?:Available|Release(?:d)?(?:\s+Date)?)\s*[:\-]?\s*(\w+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)Ships?\s+(?:from\s+)?(\w{3,9}\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)(?:Available|Release(?:d)?(?:\s+Date)?)\s*[:\-]?\s*(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(?i)(?:Available|Release(?:d)?(?:\s+Date)?)\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`),
}

var releaseDateSelectors = []string{
	`meta[property="product:release_date"]`,
	`meta[name="release_date"]`,
	`[itemprop="releaseDate"]`,
	`[itemprop="datePublished"]`,
	".product-release-date",
	".release-date",
	".product__release-date",
	".availability-date",
}

var jsonLDDateFields = []string{"releaseDate", "datePublished", "availabilityStarts", "validFrom"}

// Month-first layouts are tried before day-first ones, so 03/04/2025 reads
// as March 4.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"2/1/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ExtractReleaseDate looks for the release date in the body text, then in
// known metadata elements, then in JSON-LD blocks.
func (e *Extractor) ExtractReleaseDate(page usecase.RenderedPage) (time.Time, bool) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		e.logger.Warn("parse product page failed", "url", page.URL, "error", err)
		return time.Time{}, false
	}

	body := renderedText(doc.Find("body"))
	for _, pattern := range releaseDatePatterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			if d, ok := ParseDate(m[1]); ok {
				return d, true
			}
		}
	}

	for _, selector := range releaseDateSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if goquery.NodeName(el) == "meta" {
			text = strings.TrimSpace(el.AttrOr("content", ""))
		}
		if d, ok := ParseDate(text); ok {
			return d, true
		}
	}

	var found time.Time
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		d, ok := jsonLDDate(s.Text())
		if ok {
			found = d
		}
		return !ok
	})
	return found, !found.IsZero()
}

func jsonLDDate(raw string) (time.Time, bool) {
	objects := jsonLDObjects(raw)
	for _, field := range jsonLDDateFields {
		for _, obj := range objects {
			if text, ok := obj[field].(string); ok {
				if d, ok := ParseDate(text); ok {
					return d, true
				}
			}
		}
	}
	return time.Time{}, false
}

// jsonLDObjects decodes a JSON-LD block holding one object or a list of them.
func jsonLDObjects(raw string) []map[string]any {
	var payload any
	if err := sonic.UnmarshalString(strings.TrimSpace(raw), &payload); err != nil {
		return nil
	}

	var objects []map[string]any
	switch v := payload.(type) {
	case map[string]any:
		objects = append(objects, v)
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				objects = append(objects, obj)
			}
		}
	}
	return objects
}

// ParseDate reads a calendar date in any layout seen on product pages. The
// result is midnight UTC.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
