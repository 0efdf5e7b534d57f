package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

// Product gallery images, most specific first.
var galleryImageSelectors = []string{
	"img.product-gallery__image",
	"img[data-zoom]",
	".product-gallery img",
	".product__main-photos img",
	"img.photoswipe__image",
	".product-single__photo img",
	`img[itemprop="image"]`,
	".product-featured-media img",
}

var (
	shopifySizeBeforeExt   = regexp.MustCompile(`_\d+x\d*\.`)
	shopifySizeBeforeQuery = regexp.MustCompile(`_\d+x\d*\?`)
)

type imageStrategy func(doc *goquery.Document, base *url.URL) string

// Tried in order; the first strategy that yields a catalog-hosted image wins.
var imageStrategies = []imageStrategy{
	openGraphImage,
	galleryImage,
	jsonLDImage,
	anyProductImage,
}

// ExtractImageURL finds the main product image on a rendered product page.
// Shopify CDN links are rewritten to the 500px rendition.
func (e *Extractor) ExtractImageURL(page usecase.RenderedPage) (string, bool) {
	doc, err := parseDocument(page.HTML)
	if err != nil {
		e.logger.Warn("parse product page failed", "url", page.URL, "error", err)
		return "", false
	}

	base, _ := url.Parse(page.URL)
	for _, strategy := range imageStrategies {
		if src := strategy(doc, base); src != "" {
			return ResizeImageURL(src), true
		}
	}
	return "", false
}

func openGraphImage(doc *goquery.Document, base *url.URL) string {
	for _, selector := range []string{`meta[property="og:image:secure_url"]`, `meta[property="og:image"]`} {
		if src := imageCandidate(base, doc.Find(selector).First().AttrOr("content", "")); src != "" {
			return src
		}
	}
	return ""
}

func galleryImage(doc *goquery.Document, base *url.URL) string {
	for _, selector := range galleryImageSelectors {
		img := doc.Find(selector).First()
		if img.Length() == 0 {
			continue
		}
		for _, attr := range []string{"src", "data-src", "data-zoom"} {
			if src := imageCandidate(base, img.AttrOr(attr, "")); src != "" {
				return src
			}
		}
	}
	return ""
}

func jsonLDImage(doc *goquery.Document, base *url.URL) string {
	found := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, obj := range jsonLDObjects(s.Text()) {
			if src := imageCandidate(base, imageField(obj["image"])); src != "" {
				found = src
				return false
			}
		}
		return true
	})
	return found
}

// imageField reads a schema.org image value: a URL, a list of URLs or an
// ImageObject.
func imageField(v any) string {
	switch image := v.(type) {
	case string:
		return image
	case []any:
		for _, item := range image {
			if src := imageField(item); src != "" {
				return src
			}
		}
	case map[string]any:
		if src, ok := image["url"].(string); ok {
			return src
		}
		if src, ok := image["contentUrl"].(string); ok {
			return src
		}
	}
	return ""
}

func anyProductImage(doc *goquery.Document, base *url.URL) string {
	found := ""
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := imageCandidate(base, img.AttrOr("src", ""))
		lower := strings.ToLower(src)
		if strings.Contains(lower, "cdn.shopify") && (strings.Contains(lower, "product") || strings.Contains(lower, "topps")) {
			found = src
			return false
		}
		return true
	})
	return found
}

// imageCandidate resolves a reference and keeps it only when it is served
// by the catalog or its CDN.
func imageCandidate(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}
	src := resolve(base, ref)
	if !strings.Contains(src, "cdn.shopify") && !strings.Contains(src, "topps.com") {
		return ""
	}
	return src
}

// ResizeImageURL asks the Shopify CDN for the 500px wide rendition.
func ResizeImageURL(src string) string {
	if !strings.Contains(src, "cdn.shopify") {
		return src
	}
	src = shopifySizeBeforeExt.ReplaceAllString(src, "_500x.")
	return shopifySizeBeforeQuery.ReplaceAllString(src, "_500x?")
}
