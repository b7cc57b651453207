package scraper

import (
	"context"
	"log/slog"
)

// FetchResult describes a completed fetch. Path is the resolved local path.
type FetchResult struct {
	Link  string
	Path  string
	Bytes int64
}

// Fetcher resolves the export link and downloads it
type Fetcher struct {
	resolver   LinkResolver
	downloader *Downloader
	logger     *slog.Logger
}

// NewFetcher creates a fetcher
func NewFetcher(resolver LinkResolver, downloader *Downloader, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{resolver: resolver, downloader: downloader, logger: logger}
}

// Fetch writes the export linked from pageURL to dest. When the link cannot
// be resolved nothing is written.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, selector, dest string) (*FetchResult, error) {
	f.logger.InfoContext(ctx, "Resolving export link",
		slog.String("page_url", pageURL),
		slog.String("selector", selector))

	link, err := f.resolver.ResolveLink(ctx, pageURL, selector)
	if err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Export link resolved", slog.String("link", link))

	n, err := f.downloader.Download(ctx, link, dest)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Link: link, Path: f.downloader.files.Path(dest), Bytes: n}, nil
}
