// Package mailer renders the daily strategy digest and delivers it through a
// transactional email HTTP API (Resend compatible).
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/target/trendscout/internal/core"
)

const (
	defaultBaseURL     = "https://api.resend.com"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4 << 10
)

// Config holds the immutable settings of a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	From       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements core.EmailSender.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

var _ core.EmailSender = (*Client)(nil)

// NewClient creates a mailer client.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		from:    strings.TrimSpace(cfg.From),
		client:  cfg.HTTPClient,
	}
	if c.apiKey == "" {
		return nil, errors.New("mailer api key is required")
	}
	if c.from == "" {
		return nil, errors.New("mailer from address is required")
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		c.client = &http.Client{Timeout: timeout}
	}
	return c, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send delivers one email. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, email core.Email) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("recipient is required")
	}
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
