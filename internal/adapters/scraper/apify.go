// Package scraper searches short-video platforms through an Apify actor and downloads
// the resulting media over plain HTTP.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

const (
	defaultBaseURL      = "https://api.apify.com/v2"
	defaultActorID      = "clockworks~tiktok-scraper"
	defaultPollInterval = 3 * time.Second
	defaultHTTPTimeout  = 2 * time.Minute
	maxErrorBody        = 4 << 10
)

// ErrRunFailed is returned when the actor run ends in a terminal non-success state.
var ErrRunFailed = errors.New("actor run failed")

// Config holds the immutable settings of an ApifySearcher.
type Config struct {
	BaseURL      string
	Token        string
	ActorID      string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// ApifySearcher implements core.VideoSearcher using the Apify actor REST API.
type ApifySearcher struct {
	baseURL      string
	token        string
	actorID      string
	pollInterval time.Duration
	client       *http.Client
}

var _ core.VideoSearcher = (*ApifySearcher)(nil)

// NewApifySearcher creates an ApifySearcher.
func NewApifySearcher(cfg Config) (*ApifySearcher, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("apify token is required")
	}
	s := &ApifySearcher{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:        token,
		actorID:      strings.TrimSpace(cfg.ActorID),
		pollInterval: cfg.PollInterval,
		client:       cfg.HTTPClient,
	}
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}
	if s.actorID == "" {
		s.actorID = defaultActorID
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		s.client = &http.Client{Timeout: timeout}
	}
	return s, nil
}

// Search starts an actor run for the query, waits for it to finish and maps its dataset items.
func (s *ApifySearcher) Search(ctx context.Context, params core.SearchParams) ([]model.SearchHit, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = model.DefaultVideosPerQuery
	}

	runID, err := s.startRun(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("start actor run: %w", err)
	}
	datasetID, err := s.waitForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	items, err := s.datasetItems(ctx, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset items: %w", err)
	}

	hits := make([]model.SearchHit, 0, len(items))
	for _, it := range items {
		if hit, ok := it.toHit(); ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (s *ApifySearcher) startRun(ctx context.Context, query string, limit int) (string, error) {
	input := map[string]any{
		"searchQueries":            []string{query},
		"resultsPerPage":           limit,
		"shouldDownloadVideos":     true,
		"shouldDownloadCovers":     false,
		"shouldDownloadSubtitles":  false,
		"shouldDownloadSlideshows": false,
	}
	body, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/acts/%s/runs", s.baseURL, url.PathEscape(s.actorID))
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err = s.doJSON(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", errors.New("actor run id missing from response")
	}
	return out.Data.ID, nil
}

func (s *ApifySearcher) waitForRun(ctx context.Context, runID string) (string, error) {
	endpoint := fmt.Sprintf("%s/actor-runs/%s", s.baseURL, url.PathEscape(runID))
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var status struct {
			Data struct {
				Status           string `json:"status"`
				DefaultDatasetID string `json:"defaultDatasetId"`
			} `json:"data"`
		}
		if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &status); err != nil {
			return "", fmt.Errorf("poll actor run: %w", err)
		}

		switch status.Data.Status {
		case "SUCCEEDED":
			return status.Data.DefaultDatasetID, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("%w: %s", ErrRunFailed, status.Data.Status)
		}
	}
}

func (s *ApifySearcher) datasetItems(ctx context.Context, datasetID string, limit int) ([]datasetItem, error) {
	q := url.Values{}
	q.Set("clean", "true")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/datasets/%s/items?%s", s.baseURL, url.PathEscape(datasetID), q.Encode())

	var items []datasetItem
	if err := s.doJSON(ctx, http.MethodGet, endpoint, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ApifySearcher) doJSON(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// datasetItem is the subset of the TikTok scraper output the pipeline uses.
type datasetItem struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	WebVideoURL   string   `json:"webVideoUrl"`
	MediaURLs     []string `json:"mediaUrls"`
	CreateTimeISO string   `json:"createTimeISO"`
	PlayCount     int64    `json:"playCount"`
	DiggCount     int64    `json:"diggCount"`
	CommentCount  int64    `json:"commentCount"`
	ShareCount    int64    `json:"shareCount"`
	AuthorMeta    struct {
		Name string `json:"name"`
	} `json:"authorMeta"`
	Hashtags []struct {
		Name string `json:"name"`
	} `json:"hashtags"`
	VideoMeta struct {
		DownloadAddr string `json:"downloadAddr"`
	} `json:"videoMeta"`
}

func (it datasetItem) toHit() (model.SearchHit, bool) {
	if it.ID == "" || it.WebVideoURL == "" {
		return model.SearchHit{}, false
	}
	hit := model.SearchHit{
		ID:          it.ID,
		URL:         it.WebVideoURL,
		Description: it.Text,
		Author:      it.AuthorMeta.Name,
		Metrics: model.EngagementMetrics{
			Views:    it.PlayCount,
			Likes:    it.DiggCount,
			Comments: it.CommentCount,
			Shares:   it.ShareCount,
		},
	}
	if len(it.MediaURLs) > 0 {
		hit.DownloadURL = it.MediaURLs[0]
	} else {
		hit.DownloadURL = it.VideoMeta.DownloadAddr
	}
	for _, h := range it.Hashtags {
		if name := strings.TrimSpace(h.Name); name != "" {
			hit.Hashtags = append(hit.Hashtags, name)
		}
	}
	if ts, err := time.Parse(time.RFC3339, it.CreateTimeISO); err == nil {
		hit.CreatedAt = ts
	}
	return hit, true
}
