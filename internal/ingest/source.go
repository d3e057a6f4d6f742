package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/vvka-141/pgrows/internal/logging"
	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// Download retry settings for http(s) sources.
const (
	DefaultDownloadRetries = 3
	DefaultDownloadTimeout = 30 * time.Second
)

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open returns a reader for a local CSV path or an http(s) URL.
// A missing file or a 404 response wraps pgrows.ErrNotFound.
func Open(ctx context.Context, location string, logger pgrows.Logger) (io.ReadCloser, error) {
	if !IsRemote(location) {
		f, err := os.Open(location)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("CSV file %s: %w", location, pgrows.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("open CSV file: %w", err)
		}
		return f, nil
	}
	return download(ctx, newHTTPClient(logger), location)
}

func newHTTPClient(logger pgrows.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = DefaultDownloadRetries
	client.HTTPClient.Timeout = DefaultDownloadTimeout
	client.Logger = leveledLogger{logger}
	return client
}

func download(ctx context.Context, client *retryablehttp.Client, url string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: %w", url, pgrows.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}

// leveledLogger adapts pgrows.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger pgrows.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.logger.Error("%s%s", msg, formatKV(kv)) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn("%s%s", msg, formatKV(kv)) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.logger.Verbose("%s%s", msg, formatKV(kv)) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.logger.Verbose("%s%s", msg, formatKV(kv)) }

func formatKV(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

var _ retryablehttp.LeveledLogger = leveledLogger{}
