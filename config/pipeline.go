package config

import (
	"strings"
	"time"
)

// PipelineConfig bounds one workflow run.
type PipelineConfig struct {
	// MaxVideosPerQuery clamps the videosPerQuery request field.
	MaxVideosPerQuery int `env:"PIPELINE_MAX_VIDEOS_PER_QUERY" envDefault:"20"`

	// AnalysisTimeout bounds one video analysis call; 0 disables the bound.
	AnalysisTimeout time.Duration `env:"PIPELINE_ANALYSIS_TIMEOUT" envDefault:"5m"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.MaxVideosPerQuery < 1 {
		p.MaxVideosPerQuery = 20
	}
	if p.AnalysisTimeout < 0 {
		p.AnalysisTimeout = 0
	}
}

// AdaptersConfig groups per-adapter connection settings. Each adapter gets its own
// base URL, key and timeout; nothing is shared between them.
type AdaptersConfig struct {
	LLM      LLMConfig      `envPrefix:"LLM_"`
	Scraper  ScraperConfig  `envPrefix:"APIFY_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Analyzer AnalyzerConfig `envPrefix:"ANALYZER_"`
	Mailer   MailerConfig   `envPrefix:"MAILER_"`
}

// Sanitize trims secrets and URLs.
func (a *AdaptersConfig) Sanitize() {
	for _, s := range []*string{
		&a.LLM.APIKey, &a.LLM.BaseURL, &a.LLM.Model,
		&a.Scraper.Token, &a.Scraper.BaseURL, &a.Scraper.ActorID,
		&a.Storage.BaseURL, &a.Storage.APIKey, &a.Storage.Bucket,
		&a.Analyzer.APIKey, &a.Analyzer.BaseURL, &a.Analyzer.Model,
		&a.Mailer.APIKey, &a.Mailer.BaseURL, &a.Mailer.From,
	} {
		*s = strings.TrimSpace(*s)
	}
	if a.Scraper.MaxDownloadBytes <= 0 {
		a.Scraper.MaxDownloadBytes = 200 << 20
	}
}

// LLMConfig configures the chat-completions client used for queries and summaries.
type LLMConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	Model   string        `env:"MODEL"    envDefault:"openai/gpt-4o-mini"`
	Referer string        `env:"REFERER"`
	Title   string        `env:"TITLE"    envDefault:"trendscout"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"60s"`
}

// ScraperConfig configures video search and download.
type ScraperConfig struct {
	Token            string        `env:"TOKEN"`
	BaseURL          string        `env:"BASE_URL"           envDefault:"https://api.apify.com/v2"`
	ActorID          string        `env:"ACTOR_ID"           envDefault:"clockworks~tiktok-scraper"`
	PollInterval     time.Duration `env:"POLL_INTERVAL"      envDefault:"3s"`
	Timeout          time.Duration `env:"TIMEOUT"            envDefault:"2m"`
	DownloadTimeout  time.Duration `env:"DOWNLOAD_TIMEOUT"   envDefault:"2m"`
	MaxDownloadBytes int64         `env:"MAX_DOWNLOAD_BYTES" envDefault:"209715200"`
}

// StorageConfig configures the media bucket.
type StorageConfig struct {
	BaseURL string        `env:"BASE_URL"`
	APIKey  string        `env:"API_KEY"`
	Bucket  string        `env:"BUCKET"   envDefault:"videos"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"2m"`
}

// AnalyzerConfig configures the multimodal analysis client.
type AnalyzerConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	Model   string        `env:"MODEL"    envDefault:"gemini-2.0-flash"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"5m"`
}

// MailerConfig configures transactional email.
type MailerConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.resend.com"`
	From    string        `env:"FROM"     envDefault:"trendscout <reports@trendscout.local>"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"30s"`
}
