package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"framegrab/internal/models"

	"go.uber.org/zap"
)

// chunkSize bounds each read from the response body.
const chunkSize = 8192

// HTTPFetcher streams remote videos to local files.
type HTTPFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// New creates an HTTPFetcher whose requests are bounded by timeout. Zero means no limit.
func New(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch downloads url into dest, truncating any existing file, and returns the number
// of bytes written. On failure dest may hold a partial download.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &models.DownloadError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &models.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &models.DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, &models.DownloadError{URL: url, Err: fmt.Errorf("create %s: %w", dest, err)}
	}

	n, err := io.CopyBuffer(out, resp.Body, make([]byte, chunkSize))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, &models.DownloadError{URL: url, Err: fmt.Errorf("transfer interrupted after %d bytes: %w", n, err)}
	}

	f.logger.Debug("download finished",
		zap.String("url", url),
		zap.String("video_path", dest),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)))
	return n, nil
}
