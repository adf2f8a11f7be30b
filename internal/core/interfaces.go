// Package core defines the ports between the trendscout services and their adapters.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/target/trendscout/internal/domain/model"
)

// This file contains the outbound port definitions (hexagonal architecture).
// Services depend on these interfaces; adapters and repositories implement them.

// QueryGenerator asks a text model for search phrases. The response is free text.
type QueryGenerator interface {
	GenerateQueries(ctx context.Context, businessDescription string) (string, error)
}

// SearchParams groups parameters for VideoSearcher.Search.
type SearchParams struct {
	Query string
	Limit int
}

// VideoSearcher finds short videos matching a query.
type VideoSearcher interface {
	Search(ctx context.Context, params SearchParams) ([]model.SearchHit, error)
}

// Media is a downloaded binary plus its content type.
type Media struct {
	Data        []byte
	ContentType string
}

// VideoDownloader fetches the binary for a search hit.
type VideoDownloader interface {
	Download(ctx context.Context, hit model.SearchHit) (*Media, error)
}

// UploadParams groups parameters for MediaStore.Upload.
type UploadParams struct {
	Name  string
	Media *Media
}

// MediaStore stores transient media in object storage.
type MediaStore interface {
	// Upload stores the object and returns its public URL.
	Upload(ctx context.Context, params UploadParams) (string, error)
	// Delete removes the named objects in one call and returns how many were actually deleted.
	// Names that do not exist are not an error.
	Delete(ctx context.Context, names []string) (int, error)
}

// AnalyzeRequest is the input to a single video analysis.
type AnalyzeRequest struct {
	Video               model.VideoRecord
	BusinessDescription string
}

// FrameStream yields raw newline-delimited frames from a streaming upstream.
// Next returns io.EOF once the upstream ends cleanly.
type FrameStream interface {
	Next() ([]byte, error)
	Close() error
}

// VideoAnalyzer runs multimodal analysis over one stored video.
type VideoAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (string, error)
	AnalyzeStream(ctx context.Context, req AnalyzeRequest) (FrameStream, error)
}

// SummarizeRequest is the input to strategy reconstruction.
type SummarizeRequest struct {
	BusinessDescription string
	Analyses            []model.AnalysisResult
}

// Summarizer aggregates analyses into free-text strategy advice.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)
}

// WorkflowRunner executes the full pipeline for one user.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, req model.RunWorkflowRequest) (*model.WorkflowRun, error)
}

// Email is a rendered notification message.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers rendered email.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// VideoRepository persists scraped video metadata and analyses.
type VideoRepository interface {
	Create(ctx context.Context, video *model.VideoRecord) (string, error)
	SaveAnalysis(ctx context.Context, id string, analysis model.VideoAnalysis) error
	// ClearMedia drops the storage reference of the given rows and returns their ids.
	ClearMedia(ctx context.Context, ids []string) ([]string, error)
}

// TrendQueryRepository persists generated search queries.
type TrendQueryRepository interface {
	Create(ctx context.Context, userID, query string) (*model.TrendQuery, error)
}

// WorkflowRunRepository persists run records.
type WorkflowRunRepository interface {
	Save(ctx context.Context, run *model.WorkflowRun) error
	GetByID(ctx context.Context, id string) (*model.WorkflowRun, error)
}

// SaveRunSnapshotParams groups parameters for UserScheduleRepository.SaveRunSnapshot.
type SaveRunSnapshotParams struct {
	UserID   string
	Snapshot json.RawMessage
	At       time.Time
}

// MarkEmailSentParams groups parameters for UserScheduleRepository.MarkEmailSent.
type MarkEmailSentParams struct {
	UserID string
	At     time.Time
}

// UserScheduleRepository reads schedule preferences and mutates schedule state.
type UserScheduleRepository interface {
	// ListSubscribed returns every user with email notifications enabled.
	ListSubscribed(ctx context.Context) ([]model.ScheduledUser, error)

	// SaveRunSnapshot stores the latest run output, sets the pending flag and stamps the run time.
	SaveRunSnapshot(ctx context.Context, params SaveRunSnapshotParams) error

	// MarkEmailSent clears the pending flag only if it is still set and stamps the send time.
	// Return semantics:
	//   - (true, nil): flag was set and has been cleared
	//   - (false, nil): flag was already clear; another writer won the swap
	//   - (false, err): update failed
	MarkEmailSent(ctx context.Context, params MarkEmailSentParams) (bool, error)
}

// TickLease serializes dispatcher ticks with a TTL-bound lease.
type TickLease interface {
	// TryAcquire returns a token and true when the lease was free.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Release frees the lease only if it is still held by token.
	Release(ctx context.Context, key, token string) error
}

// Dispatcher runs one scheduling tick.
type Dispatcher interface {
	Tick(ctx context.Context, now time.Time) (model.TickResult, error)
}

// StreamSink receives relay events in order. A returned error stops the relay.
type StreamSink func(event model.StreamEvent) error

// StreamAnalyzer relays one streaming analysis to a sink.
type StreamAnalyzer interface {
	StreamAnalyze(ctx context.Context, req model.StreamAnalyzeRequest, sink StreamSink) (model.AnalysisResult, error)
}

// MediaCleaner deletes transient media and clears the matching video references.
type MediaCleaner interface {
	Cleanup(ctx context.Context, req model.CleanupRequest) (model.CleanupResult, error)
}
