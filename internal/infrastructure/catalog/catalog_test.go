package catalog

import (
	"testing"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const archivePage = `<html><body>
<div class="collection-grid">
  <div class="product-item">
    <a href="/products/2025-mlb-topps-now-card-os-14">
      <img data-src="//cdn.topps.com/os-14.jpg">
      <h3>Alex Bregman - 2025 MLB Topps NOW® - Card OS-14 - PR: 2,176</h3>
    </a>
  </div>
  <div class="product-item">
    <a href="/products/2025-houston-astros-team-set">
      <img src="https://cdn.topps.com/hou.jpg">
      <h3>2025 Houston Astros MLB Topps NOW® Road To Opening Day 11-Card Team Set<br>LOOK FOR IT ON SHELVES</h3>
    </a>
    <span class="print-run">Print Run: 1,204</span>
  </div>
  <div class="product-item">
    <p>Topps NOW® Card #123 Shohei Ohtani</p>
  </div>
  <div class="product-item"><p>Gift card</p></div>
</div>
</body></html>`

func TestExtractListingsAppliesStrategiesInOrder(t *testing.T) {
	t.Parallel()

	e := NewExtractor(logging.NewNop())
	got := e.ExtractListings(usecase.RenderedPage{URL: "https://www.topps.com/collections/topps-now-archive", HTML: archivePage})
	if len(got) != 4 {
		t.Fatalf("expected 4 listings, got %d", len(got))
	}

	first := got[0]
	if first.Title != "Alex Bregman - 2025 MLB Topps NOW® - Card OS-14 - PR: 2,176" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.DetailURL != "https://www.topps.com/products/2025-mlb-topps-now-card-os-14" {
		t.Fatalf("detail url should resolve against the page: %q", first.DetailURL)
	}
	if first.ImageURL != "https://cdn.topps.com/os-14.jpg" {
		t.Fatalf("image should fall back to data-src: %q", first.ImageURL)
	}

	teamSet := got[1]
	if teamSet.Title != "2025 Houston Astros MLB Topps NOW® Road To Opening Day 11-Card Team Set\nLOOK FOR IT ON SHELVES" {
		t.Fatalf("line breaks should survive extraction: %q", teamSet.Title)
	}
	if teamSet.PrintRunText != "Print Run: 1,204" {
		t.Fatalf("unexpected print run text: %q", teamSet.PrintRunText)
	}

	if got[2].Title != "Topps NOW® Card #123 Shohei Ohtani" || got[2].CardNumberHint != "123" {
		t.Fatalf("whole element text should be used when the brand is present: %+v", got[2])
	}
	if got[3].Title != "" {
		t.Fatalf("listing without brand or title element should have no title: %q", got[3].Title)
	}
}

func TestExtractListingsFallsBackToProductLinks(t *testing.T) {
	t.Parallel()

	page := `<ul><li><a href="https://www.topps.com/products/x">Juan Soto - 2025 MLB Topps NOW® - Card 7</a></li></ul>`
	got := NewExtractor(nil).ExtractListings(usecase.RenderedPage{HTML: page})
	if len(got) != 1 || got[0].Title != "Juan Soto - 2025 MLB Topps NOW® - Card 7" {
		t.Fatalf("unexpected listings: %+v", got)
	}
	if CountListings(page) != 1 {
		t.Fatalf("expected one container")
	}
	if CountListings("<p>empty</p>") != 0 {
		t.Fatalf("expected no containers")
	}
}

func TestExtractReleaseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		html string
	}{
		{name: "body text", html: `<body><div>Product is available from Mar 28, 2025</div></body>`},
		{name: "ships from", html: `<body><p>Ships from March 28, 2025</p></body>`},
		{name: "meta tag", html: `<head><meta property="product:release_date" content="2025-03-28"></head><body>Card</body>`},
		{name: "itemprop", html: `<body><span itemprop="releaseDate">03/28/2025</span></body>`},
		{name: "json-ld list", html: `<body><script type="application/ld+json">[{"@type":"Product","releaseDate":"2025-03-28"}]</script></body>`},
		{name: "json-ld offer", html: `<body><script type="application/ld+json">{"validFrom":"2025-03-28T10:00:00Z"}</script></body>`},
	}

	e := NewExtractor(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := e.ExtractReleaseDate(usecase.RenderedPage{HTML: tc.html})
			if !ok {
				t.Fatalf("expected a release date")
			}
			if !got.Equal(want) {
				t.Fatalf("got %s want %s", got, want)
			}
		})
	}
}

func TestExtractReleaseDateMiss(t *testing.T) {
	t.Parallel()

	if _, ok := NewExtractor(nil).ExtractReleaseDate(usecase.RenderedPage{HTML: `<body>Sold out</body>`}); ok {
		t.Fatalf("expected no date")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2025-01-22":      time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC),
		"1/22/2025":       time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC),
		"22/01/2025":      time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC),
		"January 22 2025": time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC),
		"22 Jan 2025":     time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %s, %v", in, got, ok)
		}
	}
	if _, ok := ParseDate("soon"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestExtractImageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "open graph wins over gallery",
			html: `<head><meta property="og:image" content="https://cdn.shopify.com/s/files/os-14_1200x1200.jpg?v=1"></head>
<body><img class="product-gallery__image" src="https://cdn.shopify.com/s/files/gallery.jpg"></body>`,
			want: "https://cdn.shopify.com/s/files/os-14_500x.jpg?v=1",
		},
		{
			name: "gallery data-src",
			html: `<body><div class="product-gallery"><img data-src="//cdn.shopify.com/s/files/os-14_300x.jpg"></div></body>`,
			want: "https://cdn.shopify.com/s/files/os-14_500x.jpg",
		},
		{
			name: "json-ld image object",
			html: `<body><script type="application/ld+json">{"@type":"Product","image":{"url":"https://www.topps.com/media/os-14.png"}}</script></body>`,
			want: "https://www.topps.com/media/os-14.png",
		},
		{
			name: "json-ld image list",
			html: `<body><script type="application/ld+json">[{"@type":"Product","image":["https://cdn.shopify.com/s/files/os-14.jpg"]}]</script></body>`,
			want: "https://cdn.shopify.com/s/files/os-14.jpg",
		},
		{
			name: "any product image",
			html: `<body><img src="https://example.com/logo.png"><img src="https://cdn.shopify.com/s/files/products/os-14_200x200.webp"></body>`,
			want: "https://cdn.shopify.com/s/files/products/os-14_500x.webp",
		},
	}

	e := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := e.ExtractImageURL(usecase.RenderedPage{URL: "https://www.topps.com/products/os-14", HTML: tt.html})
			if !ok {
				t.Fatalf("expected an image")
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestExtractImageURLIgnoresForeignHosts(t *testing.T) {
	t.Parallel()

	html := `<head><meta property="og:image" content="https://tracker.example.com/pixel.gif"></head>
<body><img class="product-gallery__image" src="data:image/gif;base64,R0lGOD"></body>`
	if got, ok := NewExtractor(nil).ExtractImageURL(usecase.RenderedPage{HTML: html}); ok {
		t.Fatalf("expected no image, got %q", got)
	}
}
