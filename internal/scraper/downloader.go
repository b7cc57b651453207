package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"

	apperrors "pivotcli/internal/errors"
	"pivotcli/internal/files"
)

// Downloader retrieves a link and stores the body
type Downloader struct {
	client *resty.Client
	files  *files.Manager
	logger *slog.Logger
}

// NewDownloader creates a downloader writing through fm
func NewDownloader(client *resty.Client, fm *files.Manager, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{client: client, files: fm, logger: logger}
}

// Download GETs link and replaces dest with the response body. dest is left
// untouched on any failure.
func (d *Downloader) Download(ctx context.Context, link, dest string) (int64, error) {
	d.logger.DebugContext(ctx, "Starting file download",
		slog.String("url", link),
		slog.String("destination", dest))

	res, err := d.client.R().SetContext(ctx).Get(link)
	if err != nil {
		d.logger.ErrorContext(ctx, "HTTP GET failed",
			slog.String("url", link),
			slog.String("error", err.Error()))
		return 0, apperrors.NewNetworkError("download failed", err).WithContext("url", link)
	}

	if !res.IsSuccess() {
		d.logger.ErrorContext(ctx, "Bad HTTP status",
			slog.String("url", link),
			slog.Int("status_code", res.StatusCode()))
		return 0, apperrors.NewNetworkError("download failed",
			fmt.Errorf("bad status for %s: %s", link, res.Status())).
			WithContext("url", link).
			WithContext("status_code", res.StatusCode())
	}

	body := res.Body()
	if err := d.files.WriteAtomic(dest, body); err != nil {
		return 0, apperrors.NewStorageError("failed to write export", err).WithContext("path", dest)
	}

	written := int64(len(body))
	d.logger.InfoContext(ctx, "File downloaded successfully",
		slog.String("file", filepath.Base(dest)),
		slog.Int64("size_bytes", written),
		slog.String("size", humanize.Bytes(uint64(written))))

	return written, nil
}
