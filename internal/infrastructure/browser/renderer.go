// Package browser renders storefront pages in a headless Chromium driven
// over the DevTools protocol.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const (
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultPageTimeout    = 30 * time.Second
	defaultSettleDelay    = 5 * time.Second
	defaultScrollDelay    = 3 * time.Second
	defaultScrollAttempts = 5
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

type Config struct {
	// Bin is the browser executable. Empty means look it up on the host.
	Bin            string
	Headless       bool
	UserAgent      string
	PageTimeout    time.Duration
	SettleDelay    time.Duration
	ScrollDelay    time.Duration
	ScrollAttempts int
	// DebugDir receives a screenshot whenever a scrolled page shows no
	// listing. Empty disables screenshots.
	DebugDir string
	// CountListings counts listing containers in rendered markup. It is only
	// consulted when DebugDir is set.
	CountListings func(html string) int
}

// Renderer launches a fresh browser for every page. Per-page sessions keep
// bot-detection cookies from accumulating across cards.
type Renderer struct {
	cfg    Config
	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ usecase.PageRenderer = (*Renderer)(nil)

func NewRenderer(cfg Config, logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = defaultPageTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = defaultScrollDelay
	}
	if cfg.ScrollAttempts <= 0 {
		cfg.ScrollAttempts = defaultScrollAttempts
	}

	return &Renderer{cfg: cfg, logger: logger.Named("browser"), sleep: sleepContext}
}

// DefaultConfig is the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Headless:       true,
		UserAgent:      defaultUserAgent,
		PageTimeout:    defaultPageTimeout,
		SettleDelay:    defaultSettleDelay,
		ScrollDelay:    defaultScrollDelay,
		ScrollAttempts: defaultScrollAttempts,
	}
}

// Available reports whether a browser executable can be found.
func (r *Renderer) Available() error {
	_, err := r.binary()
	return err
}

func (r *Renderer) binary() (string, error) {
	if bin := strings.TrimSpace(r.cfg.Bin); bin != "" {
		info, err := os.Stat(bin)
		if err != nil {
			return "", fmt.Errorf("browser binary %s: %w", bin, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("browser binary %s is a directory", bin)
		}
		return bin, nil
	}
	if path, ok := launcher.LookPath(); ok {
		return path, nil
	}
	return "", errors.New("no chromium or chrome executable found")
}

// Render loads url, waits for the settle delay and optionally scrolls until
// the page stops growing. The browser is closed before Render returns.
// Failing to start the browser is reported as usecase.ErrFatalSession; a
// failure to load the page is a plain error.
func (r *Renderer) Render(ctx context.Context, url string, opts usecase.RenderOptions) (usecase.RenderedPage, error) {
	bin, err := r.binary()
	if err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("%w: %v", usecase.ErrCapabilityUnavailable, err)
	}

	l := launcher.New().
		Bin(bin).
		Headless(r.cfg.Headless).
		Leakless(false).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1920,1080")
	defer l.Cleanup()

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("%w: launch browser: %v", usecase.ErrFatalSession, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("%w: connect browser: %v", usecase.ErrFatalSession, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Debug("close browser failed", "error", err)
		}
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("%w: open page: %v", usecase.ErrFatalSession, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}); err != nil {
		r.logger.WarnContext(ctx, "set user agent failed", "error", err)
	}

	started := time.Now()
	loading := page.Timeout(r.cfg.PageTimeout)
	if err := loading.Navigate(url); err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := loading.WaitLoad(); err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("wait load %s: %w", url, err)
	}

	if err := r.sleep(ctx, r.cfg.SettleDelay); err != nil {
		return usecase.RenderedPage{}, err
	}
	if opts.Scroll {
		if err := r.scroll(ctx, page); err != nil {
			return usecase.RenderedPage{}, err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return usecase.RenderedPage{}, fmt.Errorf("read page html %s: %w", url, err)
	}
	r.logger.DebugContext(ctx, "page rendered", "url", url, "html_bytes", len(html), "elapsed_ms", time.Since(started).Milliseconds())

	if opts.Scroll && r.cfg.DebugDir != "" && r.cfg.CountListings != nil && r.cfg.CountListings(html) == 0 {
		r.screenshot(ctx, page, opts.DebugName)
	}

	return usecase.RenderedPage{URL: url, HTML: html}, nil
}

// scroll jumps to the bottom until the document height stops changing or the
// attempt ceiling is reached.
func (r *Renderer) scroll(ctx context.Context, page *rod.Page) error {
	last, err := scrollHeight(page)
	if err != nil {
		return fmt.Errorf("read scroll height: %w", err)
	}

	for attempt := 1; attempt <= r.cfg.ScrollAttempts; attempt++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if err := r.sleep(ctx, r.cfg.ScrollDelay); err != nil {
			return err
		}

		height, err := scrollHeight(page)
		if err != nil {
			return fmt.Errorf("read scroll height: %w", err)
		}
		if height == last {
			break
		}
		last = height
		r.logger.DebugContext(ctx, "scrolled", "attempt", attempt, "height", height)
	}
	return nil
}

func scrollHeight(page *rod.Page) (int, error) {
	res, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (r *Renderer) screenshot(ctx context.Context, page *rod.Page, name string) {
	path := ScreenshotPath(r.cfg.DebugDir, name, time.Now())
	shot, err := page.Screenshot(true, nil)
	if err != nil {
		r.logger.WarnContext(ctx, "debug screenshot failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.logger.WarnContext(ctx, "debug screenshot failed", "error", err)
		return
	}
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		r.logger.WarnContext(ctx, "debug screenshot failed", "error", err)
		return
	}
	r.logger.WarnContext(ctx, "page had no listings, screenshot saved", "path", path)
}

// ScreenshotPath builds a file name that is safe on every filesystem.
func ScreenshotPath(dir, name string, at time.Time) string {
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "-"), "-")
	if name == "" {
		name = "page"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.png", name, at.UTC().Format("20060102T150405")))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
