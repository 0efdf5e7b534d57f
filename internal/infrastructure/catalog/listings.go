package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/cardtitle"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

// ListingSelectors locate listing containers, most specific first. The first
// selector that matches anything on the page wins.
var ListingSelectors = []string{
	`div[class*="product-item"]`,
	`article[class*="product"]`,
	`div[class*="card"]`,
	`div[data-product-id]`,
	`a[href*="/products/"]`,
	`div[class*="grid-item"]`,
}

var (
	titleSelectors = []string{
		"h3",
		"h4",
		"h2",
		`[class*="title"]`,
		`[class*="name"]`,
		`a[href*="/products/"]`,
	}
	printRunSelectors = []string{
		`:containsOwn("PR:")`,
		`:containsOwn("Print Run")`,
		`:containsOwn("Edition")`,
		`[class*="print"]`,
	}

	hashNumber = regexp.MustCompile(`(?i)(?:Card\s*)?#(\d+[A-Z]*)`)
	digits     = regexp.MustCompile(`\d`)
)

// Extractor implements usecase.CatalogExtractor on goquery.
type Extractor struct {
	logger *logging.Logger
}

var _ usecase.CatalogExtractor = (*Extractor)(nil)

func NewExtractor(logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractListings returns one RawExtract per listing container, in page
// order. Containers without a title are returned with an empty Title so the
// caller can count them.
func (e *Extractor) ExtractListings(page usecase.RenderedPage) []card.RawExtract {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		e.logger.Warn("parse catalog page failed", "url", page.URL, "error", err)
		return nil
	}

	containers, selector := findContainers(doc)
	if containers == nil {
		e.logger.Warn("no listing containers found", "url", page.URL, "html_bytes", len(page.HTML))
		return nil
	}
	e.logger.Debug("listing containers found", "url", page.URL, "selector", selector, "count", containers.Length())

	base, _ := url.Parse(page.URL)
	out := make([]card.RawExtract, 0, containers.Length())
	containers.Each(func(_ int, s *goquery.Selection) {
		out = append(out, extractListing(s, base))
	})
	return out
}

// CountListings reports how many listing containers the page holds.
func CountListings(rawHTML string) int {
	doc, err := parseDocument(rawHTML)
	if err != nil {
		return 0
	}
	containers, _ := findContainers(doc)
	if containers == nil {
		return 0
	}
	return containers.Length()
}

func findContainers(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range ListingSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			return found, selector
		}
	}
	return nil, ""
}

func extractListing(s *goquery.Selection, base *url.URL) card.RawExtract {
	raw := card.RawExtract{
		Title:     listingTitle(s),
		ImageURL:  imageURL(s, base),
		DetailURL: detailURL(s, base),
	}
	if m := hashNumber.FindStringSubmatch(raw.Title); m != nil {
		raw.CardNumberHint = strings.ToUpper(m[1])
	}
	raw.PrintRunText = printRunText(s)
	return raw
}

func listingTitle(s *goquery.Selection) string {
	for _, selector := range titleSelectors {
		if text := firstText(s, selector); text != "" {
			return text
		}
	}
	text := renderedText(s)
	if s.Is(`a[href*="/products/"]`) || cardtitle.HasBrandMarker(text) {
		return text
	}
	return ""
}

func printRunText(s *goquery.Selection) string {
	for _, selector := range printRunSelectors {
		found := ""
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if text := renderedText(el); digits.MatchString(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func imageURL(s *goquery.Selection, base *url.URL) string {
	img := s.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "data-src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return resolve(base, v)
		}
	}
	return ""
}

func detailURL(s *goquery.Selection, base *url.URL) string {
	link := s
	if !s.Is(`a[href*="/products/"]`) {
		link = s.Find(`a[href*="/products/"]`).First()
	}
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	return resolve(base, href)
}

func firstText(s *goquery.Selection, selector string) string {
	text := ""
	s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text = renderedText(el)
		return text == ""
	})
	return text
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
