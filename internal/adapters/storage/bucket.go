// Package storage stores transient video media in an object storage bucket exposed over
// an HTTP storage API (Supabase Storage compatible).
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/trendscout/internal/core"
)

const (
	defaultHTTPTimeout = 2 * time.Minute
	maxErrorBody       = 4 << 10
)

// Config holds the immutable settings of a Bucket.
type Config struct {
	BaseURL    string
	APIKey     string
	Bucket     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Bucket implements core.MediaStore.
type Bucket struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

var _ core.MediaStore = (*Bucket)(nil)

// NewBucket creates a Bucket. BaseURL is the storage API root, e.g. https://x.supabase.co/storage/v1.
func NewBucket(cfg Config) (*Bucket, error) {
	b := &Bucket{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		bucket:  strings.TrimSpace(cfg.Bucket),
		client:  cfg.HTTPClient,
	}
	if b.baseURL == "" {
		return nil, errors.New("storage base url is required")
	}
	if b.bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if b.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		b.client = &http.Client{Timeout: timeout}
	}
	return b, nil
}

// PublicURL returns the public download URL of an object.
func (b *Bucket) PublicURL(name string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.baseURL, url.PathEscape(b.bucket), url.PathEscape(name))
}

// Upload stores the media under name, replacing any existing object, and returns its public URL.
func (b *Bucket) Upload(ctx context.Context, params core.UploadParams) (string, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return "", errors.New("object name is required")
	}
	if params.Media == nil || len(params.Media.Data) == 0 {
		return "", errors.New("media is empty")
	}

	endpoint := fmt.Sprintf("%s/object/%s/%s", b.baseURL, url.PathEscape(b.bucket), url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(params.Media.Data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	b.authorize(req)
	req.Header.Set("Content-Type", params.Media.ContentType)
	req.Header.Set("x-upsert", "true")

	if err = b.do(req, nil); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return b.PublicURL(name), nil
}

// Delete removes the named objects in a single request. The storage API only reports the
// objects it actually removed, so names that no longer exist are counted as zero.
func (b *Bucket) Delete(ctx context.Context, names []string) (int, error) {
	prefixes := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			prefixes = append(prefixes, n)
		}
	}
	if len(prefixes) == 0 {
		return 0, nil
	}

	body, err := json.Marshal(map[string][]string{"prefixes": prefixes})
	if err != nil {
		return 0, err
	}
	endpoint := fmt.Sprintf("%s/object/%s", b.baseURL, url.PathEscape(b.bucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create delete request: %w", err)
	}
	b.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	var deleted []struct {
		Name string `json:"name"`
	}
	if err = b.do(req, &deleted); err != nil {
		return 0, fmt.Errorf("delete objects: %w", err)
	}
	return len(deleted), nil
}

func (b *Bucket) authorize(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
		req.Header.Set("apikey", b.apiKey)
	}
}

func (b *Bucket) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
