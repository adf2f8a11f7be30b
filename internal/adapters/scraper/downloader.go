package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

const (
	defaultDownloadTimeout = 5 * time.Minute
	defaultMaxBytes        = 200 << 20
	defaultContentType     = "video/mp4"
)

// ErrTooLarge is returned when a download exceeds the configured byte limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// DownloaderConfig holds the settings of an HTTPDownloader.
type DownloaderConfig struct {
	Timeout    time.Duration
	MaxBytes   int64
	HTTPClient *http.Client
}

// HTTPDownloader implements core.VideoDownloader using plain HTTP GET.
type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

var _ core.VideoDownloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader creates an HTTPDownloader.
func NewHTTPDownloader(cfg DownloaderConfig) *HTTPDownloader {
	d := &HTTPDownloader{client: cfg.HTTPClient, maxBytes: cfg.MaxBytes}
	if d.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultDownloadTimeout
		}
		d.client = &http.Client{Timeout: timeout}
	}
	if d.maxBytes <= 0 {
		d.maxBytes = defaultMaxBytes
	}
	return d
}

// Download fetches the hit's media, preferring the direct download URL over the page URL.
func (d *HTTPDownloader) Download(ctx context.Context, hit model.SearchHit) (*core.Media, error) {
	target := strings.TrimSpace(hit.DownloadURL)
	if target == "" {
		target = strings.TrimSpace(hit.URL)
	}
	if target == "" {
		return nil, errors.New("video has no download url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download video: unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read video body: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("download video: empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = defaultContentType
	}
	return &core.Media{Data: data, ContentType: contentType}, nil
}
