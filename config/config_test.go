package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "both services with spaces",
			input:    " http , scheduler ",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeScheduler: true},
		},
		{
			name:     "trailing comma",
			input:    "scheduler,",
			expected: map[ServiceMode]bool{ServiceModeScheduler: true},
		},
		{
			name:        "empty",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,",
			expectError: true,
		},
		{
			name:        "unknown service",
			input:       "http,reaper",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsHTTPServerEnabled() || !cfg.IsSchedulerEnabled() {
		t.Fatalf("expected http and scheduler enabled by default, got %q", cfg.Services)
	}
	if cfg.Scheduler.Cron != "0 * * * *" {
		t.Fatalf("unexpected cron default %q", cfg.Scheduler.Cron)
	}
	if cfg.Scheduler.LeaseTTL != 55*time.Minute {
		t.Fatalf("unexpected lease ttl %v", cfg.Scheduler.LeaseTTL)
	}
	if cfg.Pipeline.MaxVideosPerQuery != 20 {
		t.Fatalf("unexpected max videos per query %d", cfg.Pipeline.MaxVideosPerQuery)
	}
	if cfg.Postgres.Port != 5432 || cfg.Redis.URI != "localhost:6379" {
		t.Fatalf("unexpected store defaults: %+v %+v", cfg.Postgres, cfg.Redis)
	}
	if cfg.Adapters.Analyzer.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected analyzer model %q", cfg.Adapters.Analyzer.Model)
	}
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICES", "scheduler")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("SCHEDULER_CRON", "not a cron")
	t.Setenv("SCHEDULER_LEASE_TTL", "-1s")
	t.Setenv("PIPELINE_MAX_VIDEOS_PER_QUERY", "0")
	t.Setenv("LLM_API_KEY", "  sk-test  ")
	t.Setenv("APIFY_TOKEN", "apify-token")
	t.Setenv("STORAGE_BUCKET", "media")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.IsHTTPServerEnabled() {
		t.Fatal("http should be disabled")
	}
	if cfg.Postgres.Host != "db.internal" || !cfg.Redis.Disabled {
		t.Fatalf("unexpected store config: %+v %+v", cfg.Postgres, cfg.Redis)
	}
	if cfg.Scheduler.Cron != "0 * * * *" {
		t.Fatalf("invalid cron should fall back to hourly, got %q", cfg.Scheduler.Cron)
	}
	if cfg.Scheduler.LeaseTTL != 55*time.Minute {
		t.Fatalf("negative ttl should fall back, got %v", cfg.Scheduler.LeaseTTL)
	}
	if cfg.Pipeline.MaxVideosPerQuery != 20 {
		t.Fatalf("zero max should fall back, got %d", cfg.Pipeline.MaxVideosPerQuery)
	}
	if cfg.Adapters.LLM.APIKey != "sk-test" {
		t.Fatalf("api key not trimmed: %q", cfg.Adapters.LLM.APIKey)
	}
	if cfg.Adapters.Scraper.Token != "apify-token" || cfg.Adapters.Storage.Bucket != "media" {
		t.Fatalf("adapter prefixes not applied: %+v %+v", cfg.Adapters.Scraper, cfg.Adapters.Storage)
	}
}

func TestNotificationsSanitize(t *testing.T) {
	c := ObservabilityNotificationsConfig{
		Enabled:   true,
		Slack:     SlackNotificationConfig{Enabled: true},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: " key "},
	}
	c.Sanitize()

	if c.Slack.Enabled {
		t.Fatal("slack without webhook should be disabled")
	}
	if !c.PagerDuty.Enabled || c.PagerDuty.RoutingKey != "key" {
		t.Fatalf("pagerduty should stay enabled with trimmed key: %+v", c.PagerDuty)
	}
	if c.Slack.Username != "trendscout runs" || c.PagerDuty.Component != "workflow-pipeline" {
		t.Fatalf("defaults not applied: %+v %+v", c.Slack, c.PagerDuty)
	}
	if !strings.HasPrefix(c.PagerDuty.Source, "trendscout") {
		t.Fatalf("source should name the host running the workflow, got %q", c.PagerDuty.Source)
	}
	if c.Timeout != 5*time.Second {
		t.Fatalf("timeout default not applied: %v", c.Timeout)
	}

	disabled := ObservabilityNotificationsConfig{Slack: SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks"}}
	disabled.Sanitize()
	if disabled.Slack.Enabled {
		t.Fatal("master switch off should disable slack")
	}
}

func TestSlackRunLinks(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		publicURL string
		want      string
	}{
		{name: "derived from public url", publicURL: "https://trends.example.com/", want: "https://trends.example.com/api/workflows/runs"},
		{name: "explicit prefix wins", prefix: "https://ops.example.com/runs/", publicURL: "https://trends.example.com", want: "https://ops.example.com/runs"},
		{name: "relative prefix dropped", prefix: "/runs", want: ""},
		{name: "non-http public url ignored", publicURL: "trends.example.com", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ObservabilityNotificationsConfig{Slack: SlackNotificationConfig{RunURLPrefix: tt.prefix}}
			c.Sanitize()
			c.LinkRuns(tt.publicURL)
			if c.Slack.RunURLPrefix != tt.want {
				t.Fatalf("RunURLPrefix = %q, want %q", c.Slack.RunURLPrefix, tt.want)
			}
		})
	}
}

func TestAppConfigSanitizeLinksRunsToPublicURL(t *testing.T) {
	t.Setenv("HTTP_PUBLIC_URL", " https://trends.example.com ")
	t.Setenv("OBSERVABILITY_NOTIFICATIONS_SLACK_CHANNEL", "trend-alerts")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	slack := cfg.Observability.Notifications.Slack
	if slack.RunURLPrefix != "https://trends.example.com/api/workflows/runs" {
		t.Fatalf("run links not derived: %q", slack.RunURLPrefix)
	}
	if slack.Channel != "#trend-alerts" {
		t.Fatalf("channel should be normalised, got %q", slack.Channel)
	}
}
