// Package analyzer calls a multimodal generative model (Gemini API compatible) to analyze
// one stored video, either as a single blocking call or as a server-sent event stream.
package analyzer

import (
	"bufio"
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
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel       = "gemini-2.0-flash"
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBody       = 4 << 10
	maxFrameBytes      = 1 << 20
)

// Config holds the immutable settings of a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements core.VideoAnalyzer.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	// streamClient has no overall timeout; streams are bounded by the request context.
	streamClient *http.Client
}

var _ core.VideoAnalyzer = (*Client)(nil)

// NewClient creates an analyzer client.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		client:  cfg.HTTPClient,
	}
	if c.apiKey == "" {
		return nil, errors.New("analyzer api key is required")
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		c.client = &http.Client{Timeout: timeout}
		c.streamClient = &http.Client{}
	} else {
		c.streamClient = c.client
	}
	return c, nil
}

// Analyze runs a blocking analysis and returns the concatenated response text.
func (c *Client) Analyze(ctx context.Context, req core.AnalyzeRequest) (string, error) {
	resp, err := c.post(ctx, c.client, "generateContent", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read analysis response: %w", err)
	}
	text, err := DecodeText(body)
	if err != nil {
		return "", fmt.Errorf("decode analysis response: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("analysis returned no text")
	}
	return text, nil
}

// AnalyzeStream opens a streaming analysis. The returned stream yields raw SSE lines and
// must be closed by the caller. Cancelling ctx aborts the upstream request.
func (c *Client) AnalyzeStream(ctx context.Context, req core.AnalyzeRequest) (core.FrameStream, error) {
	resp, err := c.post(ctx, c.streamClient, "streamGenerateContent", req)
	if err != nil {
		return nil, err
	}
	return newLineStream(resp.Body), nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, method string, req core.AnalyzeRequest) (*http.Response, error) {
	if err := req.Video.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s", c.baseURL, url.PathEscape(c.model), method)
	if method == "streamGenerateContent" {
		endpoint += "?alt=sse"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("analysis request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// lineStream adapts an SSE response body to core.FrameStream.
type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newLineStream(body io.ReadCloser) *lineStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrameBytes)
	return &lineStream{body: body, scanner: sc}
}

// Next returns the next line without its trailing newline, or io.EOF at the end of the body.
func (s *lineStream) Next() ([]byte, error) {
	if s.scanner.Scan() {
		return s.scanner.Bytes(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *lineStream) Close() error {
	return s.body.Close()
}
