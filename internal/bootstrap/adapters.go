package bootstrap

import (
	"fmt"
	"time"

	"github.com/target/trendscout/config"
	"github.com/target/trendscout/internal/adapters/analyzer"
	"github.com/target/trendscout/internal/adapters/llm"
	"github.com/target/trendscout/internal/adapters/mailer"
	"github.com/target/trendscout/internal/adapters/scraper"
	"github.com/target/trendscout/internal/adapters/storage"
	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/service"
)

// AdapterContainer holds the remote collaborators built from config.
type AdapterContainer struct {
	LLM        *llm.Client
	Searcher   *scraper.ApifySearcher
	Downloader *scraper.HTTPDownloader
	Store      *storage.Bucket
	Analyzer   *analyzer.Client
	Mailer     *mailer.Client
}

// BuildAdapters constructs every remote adapter. Missing credentials fail here rather than
// on the first pipeline run.
func BuildAdapters(cfg config.AdaptersConfig) (AdapterContainer, error) {
	searcher, err := scraper.NewApifySearcher(scraper.Config{
		BaseURL:      cfg.Scraper.BaseURL,
		Token:        cfg.Scraper.Token,
		ActorID:      cfg.Scraper.ActorID,
		PollInterval: cfg.Scraper.PollInterval,
		Timeout:      cfg.Scraper.Timeout,
	})
	if err != nil {
		return AdapterContainer{}, fmt.Errorf("create scraper: %w", err)
	}

	store, err := storage.NewBucket(storage.Config{
		BaseURL: cfg.Storage.BaseURL,
		APIKey:  cfg.Storage.APIKey,
		Bucket:  cfg.Storage.Bucket,
		Timeout: cfg.Storage.Timeout,
	})
	if err != nil {
		return AdapterContainer{}, fmt.Errorf("create storage: %w", err)
	}

	analyzerClient, err := analyzer.NewClient(analyzer.Config{
		BaseURL: cfg.Analyzer.BaseURL,
		APIKey:  cfg.Analyzer.APIKey,
		Model:   cfg.Analyzer.Model,
		Timeout: cfg.Analyzer.Timeout,
	})
	if err != nil {
		return AdapterContainer{}, fmt.Errorf("create analyzer: %w", err)
	}

	mailClient, err := mailer.NewClient(mailer.Config{
		BaseURL: cfg.Mailer.BaseURL,
		APIKey:  cfg.Mailer.APIKey,
		From:    cfg.Mailer.From,
		Timeout: cfg.Mailer.Timeout,
	})
	if err != nil {
		return AdapterContainer{}, fmt.Errorf("create mailer: %w", err)
	}

	return AdapterContainer{
		LLM: llm.NewClient(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Referer: cfg.LLM.Referer,
			Title:   cfg.LLM.Title,
			Timeout: cfg.LLM.Timeout,
		}),
		Searcher: searcher,
		Downloader: scraper.NewHTTPDownloader(scraper.DownloaderConfig{
			Timeout:  cfg.Scraper.DownloadTimeout,
			MaxBytes: cfg.Scraper.MaxDownloadBytes,
		}),
		Store:    store,
		Analyzer: analyzerClient,
		Mailer:   mailClient,
	}, nil
}

// digestRenderer adapts the mailer's digest template to the dispatcher.
func digestRenderer() service.DigestRenderer {
	return func(u model.ScheduledUser, at time.Time) (core.Email, error) {
		return mailer.RenderDigest(mailer.DigestParams{
			To:                  u.Preference.Email,
			BusinessDescription: u.Preference.BusinessDescription,
			Snapshot:            u.State.LastResultsSnapshot,
			GeneratedAt:         at,
		})
	}
}
