// Package slack delivers run failure notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/target/trendscout/internal/observability/notify"
)

const defaultUsername = "trendscout runs"

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// RunURLPrefix, when set, turns run ids into links (e.g. "https://ops.example.com/runs").
	RunURLPrefix string
}

// Client delivers run failure notifications to a Slack webhook.
type Client struct {
	webhookURL   string
	channel      string
	username     string
	retryLimit   int
	runURLPrefix string
	client       *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL:   webhookURL,
		channel:      strings.TrimSpace(cfg.Channel),
		username:     notify.Fallback(strings.TrimSpace(cfg.Username), defaultUsername),
		retryLimit:   max(cfg.RetryLimit, 0),
		runURLPrefix: strings.TrimSpace(cfg.RunURLPrefix),
		client:       hc,
	}, nil
}

// SendRunFailure posts a formatted message to Slack.
func (c *Client) SendRunFailure(ctx context.Context, payload notify.RunFailurePayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return notify.PostJSON(ctx, notify.PostParams{
		Client:     c.client,
		URL:        c.webhookURL,
		Body:       body,
		RetryLimit: c.retryLimit,
		Name:       "slack",
	})
}

func (c *Client) formatMessage(payload notify.RunFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var text strings.Builder
	text.WriteString("*Workflow failure*")
	if run := c.formatRun(payload.RunID); run != "" {
		text.WriteString(" ")
		text.WriteString(run)
	}
	text.WriteByte('\n')

	fields := []struct{ label, value string }{
		{"Severity", notify.Fallback(payload.Severity, notify.SeverityCritical)},
		{"User", escape(payload.UserID)},
		{"Stage", payload.Stage},
		{"Error class", payload.ErrorClass},
		{"Error", escape(payload.Error)},
	}
	for _, f := range fields {
		appendField(&text, f.label, f.value)
	}
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func (c *Client) formatRun(runID string) string {
	id := strings.TrimSpace(runID)
	if id == "" {
		return ""
	}
	if c.runURLPrefix == "" {
		return "`" + escape(id) + "`"
	}
	u, err := url.Parse(c.runURLPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "`" + escape(id) + "`"
	}
	link, err := url.JoinPath(u.String(), id)
	if err != nil {
		return "`" + escape(id) + "`"
	}
	return fmt.Sprintf("<%s|%s>", link, escape(id))
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(value string) string {
	return slackEscaper.Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(text, "• %s: %s\n", label, value)
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(text, "    • %s: %s\n", k, escape(metadata[k]))
	}
}
