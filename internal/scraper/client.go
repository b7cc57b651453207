package scraper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewHTTPClient builds the resty client shared by PageResolver and
// Downloader. Retries stay disabled.
func NewHTTPClient(timeout time.Duration, userAgent string, logger *slog.Logger) *resty.Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: logger.With(slog.String("component", "http_client"))})
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return client
}

// restyLogger adapts slog to resty.Logger
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}
