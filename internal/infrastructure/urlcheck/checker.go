package urlcheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 5
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
}

// Checker sends HEAD requests and follows redirects. A final 200 or 403
// counts as an existing page; the storefront answers 403 to clients it does
// not trust.
type Checker struct {
	client       *fasthttp.Client
	maxRedirects int
	userAgent    string
	logger       *logging.Logger
}

var _ usecase.URLValidator = (*Checker)(nil)

func NewChecker(cfg Config, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Checker{
		client: &fasthttp.Client{
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			MaxConnWaitTimeout:       cfg.Timeout,
			NoDefaultUserAgentHeader: true,
		},
		maxRedirects: cfg.MaxRedirects,
		userAgent:    cfg.UserAgent,
		logger:       logger,
	}
}

// Exists reports whether url resolves to a page. The returned status is the
// final status after redirects. An error means no status was obtained.
func (c *Checker) Exists(ctx context.Context, url string) (bool, int, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return false, 0, fmt.Errorf("url is required")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodHead)
	req.Header.SetUserAgent(c.userAgent)

	if err := c.client.DoRedirects(req, resp, c.maxRedirects); err != nil {
		c.logger.DebugContext(ctx, "url check failed", "url", url, "error", err)
		return false, 0, fmt.Errorf("head %s: %w", url, err)
	}

	status := resp.StatusCode()
	ok := IsValidStatus(status)
	c.logger.DebugContext(ctx, "url checked", "url", url, "status", status, "valid", ok)
	return ok, status, nil
}

func IsValidStatus(status int) bool {
	return status == http.StatusOK || status == http.StatusForbidden
}
