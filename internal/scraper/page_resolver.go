package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/go-resty/resty/v2"

	apperrors "pivotcli/internal/errors"
)

// PageResolver finds the link in the server-rendered HTML, without a browser
type PageResolver struct {
	client    *resty.Client
	attribute string
	logger    *slog.Logger
}

// NewPageResolver creates an HTTP resolver
func NewPageResolver(client *resty.Client, attribute string, logger *slog.Logger) *PageResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if attribute == "" {
		attribute = "href"
	}
	return &PageResolver{client: client, attribute: attribute, logger: logger}
}

// ResolveLink fetches pageURL and returns the absolute link held by the first
// element matching selector. A selector that does not compile matches nothing.
func (r *PageResolver) ResolveLink(ctx context.Context, pageURL, selector string) (string, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		notFound := apperrors.NewElementNotFoundError(selector, pageURL)
		notFound.Cause = err
		return "", notFound
	}

	res, err := r.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", apperrors.NewNetworkError("page load failed", err).WithContext("page_url", pageURL)
	}
	if !res.IsSuccess() {
		return "", apperrors.NewNetworkError("page load failed",
			fmt.Errorf("bad status %s", res.Status())).
			WithContext("page_url", pageURL).
			WithContext("status_code", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return "", apperrors.NewParsingError("failed to parse page html", err)
	}

	selection := doc.FindMatcher(matcher).First()
	if selection.Length() == 0 {
		return "", apperrors.NewElementNotFoundError(selector, pageURL)
	}

	href, ok := selection.Attr(r.attribute)
	if !ok || strings.TrimSpace(href) == "" {
		return "", apperrors.NewElementNotFoundError(selector, pageURL).
			WithContext("attribute", r.attribute)
	}

	base := pageURL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		base = res.RawResponse.Request.URL.String()
	}

	r.logger.DebugContext(ctx, "Download link located",
		slog.String("page_url", pageURL),
		slog.String("selector", selector),
		slog.String("href", href))

	return resolveHref(base, href)
}
