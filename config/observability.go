package config

import (
	"net/url"
	"os"
	"strings"
	"time"
)

// runsAPIPath is where a single run record is served; failure alerts link here.
const runsAPIPath = "/api/workflows/runs"

// ObservabilityConfig groups logging, metrics and run failure alerts.
type ObservabilityConfig struct {
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls StatsD emission of stage and adapter metrics.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"trendscout"`
}

// Sanitize turns metrics off when there is nowhere to send them.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled reports whether metrics are emitted.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls alerts raised when a scheduled user's workflow
// run fails.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                        `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration               `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                         `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig     `envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty  PagerDutyNotificationConfig `envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
}

// Sanitize keeps only the sinks that can deliver. The master switch overrides both.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	c.RetryLimit = max(c.RetryLimit, 0)

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	c.Slack.Enabled = c.Enabled && c.Slack.Enabled && c.Slack.WebhookURL != ""
	c.PagerDuty.Enabled = c.Enabled && c.PagerDuty.Enabled && c.PagerDuty.RoutingKey != ""
}

// LinkRuns points Slack run links at this deployment's run lookup endpoint unless an
// explicit prefix was configured.
func (c *ObservabilityNotificationsConfig) LinkRuns(publicURL string) {
	if c.Slack.RunURLPrefix != "" {
		return
	}
	base, ok := absoluteHTTPURL(publicURL)
	if !ok {
		return
	}
	c.Slack.RunURLPrefix = base + runsAPIPath
}

// SlackNotificationConfig controls the Slack webhook that receives run failures.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"trendscout runs"`
	// RunURLPrefix turns run ids into links. The run id is appended as a path segment,
	// so it must be an absolute http(s) URL; anything else is dropped.
	RunURLPrefix string `env:"RUN_URL_PREFIX"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Channel != "" && !strings.HasPrefix(c.Channel, "#") && !strings.HasPrefix(c.Channel, "@") {
		c.Channel = "#" + c.Channel
	}
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = "trendscout runs"
	}
	c.RunURLPrefix, _ = absoluteHTTPURL(c.RunURLPrefix)
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 incidents for run failures.
// Source names the host that ran the workflow; Component names the pipeline.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"`
	Component  string `env:"COMPONENT"   envDefault:"workflow-pipeline"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = hostSource()
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = "workflow-pipeline"
	}
}

func hostSource() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "trendscout@" + host
	}
	return "trendscout"
}

// absoluteHTTPURL trims s and its trailing slashes, reporting whether the result is an
// absolute http(s) URL. An invalid value comes back empty.
func absoluteHTTPURL(s string) (string, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return s, true
}
