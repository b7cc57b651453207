package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	apperrors "pivotcli/internal/errors"
)

// LinkResolver finds the download link on an export page
type LinkResolver interface {
	ResolveLink(ctx context.Context, pageURL, selector string) (string, error)
}

// BrowserOptions configures BrowserResolver
type BrowserOptions struct {
	Headless  bool
	UserAgent string
	Attribute string
	// ExecPath overrides Chrome discovery when set
	ExecPath string
}

// BrowserResolver renders the page in headless Chrome
type BrowserResolver struct {
	opts   BrowserOptions
	logger *slog.Logger
}

// NewBrowserResolver creates a chromedp backed resolver
func NewBrowserResolver(opts BrowserOptions, logger *slog.Logger) *BrowserResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Attribute == "" {
		opts.Attribute = "href"
	}
	return &BrowserResolver{opts: opts, logger: logger}
}

// ResolveLink navigates to pageURL and returns the absolute link held by the
// first element matching selector. The browser process is torn down before
// returning on every path.
func (r *BrowserResolver) ResolveLink(ctx context.Context, pageURL, selector string) (string, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", r.opts.Headless))
	if r.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.opts.UserAgent))
	}
	if r.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(pageURL))
	if err != nil {
		return "", apperrors.NewNetworkError("page load failed", err).WithContext("page_url", pageURL)
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return "", apperrors.NewNetworkError("page load failed",
			fmt.Errorf("bad status %d %s", resp.Status, resp.StatusText)).WithContext("page_url", pageURL)
	}

	r.logger.DebugContext(ctx, "Page rendered",
		slog.String("page_url", pageURL),
		slog.Duration("duration", time.Since(start)))

	var nodes []*cdp.Node
	err = chromedp.Run(browserCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		notFound := apperrors.NewElementNotFoundError(selector, pageURL)
		notFound.Cause = err
		return "", notFound
	}
	if len(nodes) == 0 {
		return "", apperrors.NewElementNotFoundError(selector, pageURL)
	}

	href, ok := nodes[0].Attribute(r.opts.Attribute)
	if !ok || strings.TrimSpace(href) == "" {
		return "", apperrors.NewElementNotFoundError(selector, pageURL).
			WithContext("attribute", r.opts.Attribute)
	}

	return resolveHref(documentURL(pageURL, resp), href)
}

// documentURL is the address the browser ended up on after redirects.
func documentURL(pageURL string, resp *network.Response) string {
	if resp == nil || resp.URL == "" {
		return pageURL
	}
	return resp.URL
}

// resolveHref makes href absolute against base
func resolveHref(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", apperrors.NewNetworkError("invalid page url", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", apperrors.NewNetworkError("invalid download link", err).WithContext("href", href)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
