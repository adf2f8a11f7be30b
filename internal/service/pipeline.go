package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/extract"
	"github.com/target/trendscout/internal/domain/model"
	apperrors "github.com/target/trendscout/internal/errors"
	"github.com/target/trendscout/internal/observability/metrics"
	"github.com/target/trendscout/internal/observability/statsd"
)

// DefaultMaxVideosPerQuery bounds VideosPerQuery when no limit is configured.
const DefaultMaxVideosPerQuery = 20

// PipelineAdapters groups the remote collaborators used by the pipeline.
type PipelineAdapters struct {
	Queries    core.QueryGenerator
	Searcher   core.VideoSearcher
	Downloader core.VideoDownloader
	Store      core.MediaStore
	Analyzer   core.VideoAnalyzer
	Summarizer core.Summarizer
}

// PipelineRepos groups the persistence ports used by the pipeline.
type PipelineRepos struct {
	Videos  core.VideoRepository
	Queries core.TrendQueryRepository // Optional: query rows are skipped when nil
	Runs    core.WorkflowRunRepository // Optional: runs are not persisted when nil
}

// PipelineServiceOptions groups dependencies for PipelineService.
type PipelineServiceOptions struct {
	Adapters          PipelineAdapters
	Repos             PipelineRepos
	MaxVideosPerQuery int           // Optional: defaults to DefaultMaxVideosPerQuery
	AnalysisTimeout   time.Duration // Optional: per-video bound on Analyze
	TimeProvider      data.TimeProvider
	Metrics           statsd.Sink
	Logger            *slog.Logger
}

// PipelineService runs the five ordered stages of a trend analysis.
type PipelineService struct {
	adapters        PipelineAdapters
	repos           PipelineRepos
	maxPerQuery     int
	analysisTimeout time.Duration
	clock           data.TimeProvider
	metrics         statsd.Sink
	logger          *slog.Logger
}

var _ core.WorkflowRunner = (*PipelineService)(nil)

// NewPipelineService constructs a PipelineService. It panics when a required adapter is missing.
func NewPipelineService(opts PipelineServiceOptions) *PipelineService {
	a := opts.Adapters
	switch {
	case a.Queries == nil:
		panic("QueryGenerator is required")
	case a.Searcher == nil:
		panic("VideoSearcher is required")
	case a.Downloader == nil:
		panic("VideoDownloader is required")
	case a.Store == nil:
		panic("MediaStore is required")
	case a.Analyzer == nil:
		panic("VideoAnalyzer is required")
	case a.Summarizer == nil:
		panic("Summarizer is required")
	case opts.Repos.Videos == nil:
		panic("VideoRepository is required")
	}

	maxPerQuery := opts.MaxVideosPerQuery
	if maxPerQuery <= 0 {
		maxPerQuery = DefaultMaxVideosPerQuery
	}
	clock := opts.TimeProvider
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PipelineService{
		adapters:        a,
		repos:           opts.Repos,
		maxPerQuery:     maxPerQuery,
		analysisTimeout: opts.AnalysisTimeout,
		clock:           clock,
		metrics:         opts.Metrics,
		logger:          logger.With("component", "pipeline"),
	}
}

// RunWorkflow executes every stage in order for one request. The run always reaches Done;
// an error is returned only when reconstruction fails, and only after cleanup has run.
func (s *PipelineService) RunWorkflow(ctx context.Context, req model.RunWorkflowRequest) (*model.WorkflowRun, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Normalize(s.maxPerQuery)

	run := model.NewWorkflowRun(uuid.NewString(), req.UserID, req.BusinessDescription, s.clock.Now())
	log := s.logger.With("run_id", run.ID, "user_id", run.UserID)
	log.InfoContext(ctx, "workflow started", "videos_per_query", req.VideosPerQuery)

	queryIDs := s.generateQueries(ctx, run, log)
	s.scrape(ctx, run, scrapePlan{queryIDs: queryIDs, perQuery: req.VideosPerQuery}, log)
	s.analyze(ctx, run, log)
	stageErr := s.reconstruct(ctx, run, log)
	s.cleanup(ctx, run, log)

	if stageErr != nil {
		run.Error = stageErr.Error()
	}
	run.Complete(s.clock.Now())
	s.saveRun(ctx, run, log)

	log.InfoContext(ctx, "workflow finished",
		"queries", len(run.SearchQueries),
		"videos", len(run.Videos),
		"analyzed", run.AnalyzedCount(),
		"deleted_media", run.DeletedMediaCount,
		"failed", stageErr != nil)

	if stageErr != nil {
		return run, fmt.Errorf("%w: %w", ErrStageFailed, stageErr)
	}
	return run, nil
}

func (s *PipelineService) generateQueries(ctx context.Context, run *model.WorkflowRun, log *slog.Logger) []string {
	run.Enter(model.StageQueryGeneration)
	start := time.Now()

	raw, err := s.adapters.Queries.GenerateQueries(ctx, run.BusinessDescription)
	s.observeCall("llm", "generate_queries", start, err)

	status := model.StageStatusSucceeded
	if err != nil {
		status = model.StageStatusFailed
		log.WarnContext(ctx, "query generation failed; using fallback query", "error", err)
		run.SearchQueries = []string{extract.DefaultQuery(run.BusinessDescription)}
	} else {
		res := extract.Queries(raw, run.BusinessDescription)
		run.SearchQueries = res.Queries
		log.DebugContext(ctx, "queries extracted", "method", res.Method, "count", len(res.Queries))
	}
	run.Finish(model.StageQueryGeneration, status)

	ids := make([]string, len(run.SearchQueries))
	for i, q := range run.SearchQueries {
		ids[i] = s.persistQuery(ctx, run.UserID, q, log)
	}

	s.emitStage(model.StageQueryGeneration, stageOutcome{status: status, items: len(run.SearchQueries), start: start, err: err})
	return ids
}

// persistQuery stores one query row. On failure a detached id is used so storage names stay unique.
func (s *PipelineService) persistQuery(ctx context.Context, userID, query string, log *slog.Logger) string {
	if s.repos.Queries == nil {
		return uuid.NewString()
	}
	tq, err := s.repos.Queries.Create(ctx, userID, query)
	if err != nil {
		log.WarnContext(ctx, "persist trend query failed", "query", query, "error", err)
		return uuid.NewString()
	}
	return tq.ID
}

type scrapePlan struct {
	queryIDs []string
	perQuery int
}

func (s *PipelineService) scrape(ctx context.Context, run *model.WorkflowRun, plan scrapePlan, log *slog.Logger) {
	run.Enter(model.StageScraping)
	start := time.Now()
	failed := 0

	for i, query := range run.SearchQueries {
		if ctx.Err() != nil {
			break
		}
		qlog := log.With("query", query)

		callStart := time.Now()
		hits, err := s.adapters.Searcher.Search(ctx, core.SearchParams{Query: query, Limit: plan.perQuery})
		s.observeCall("scraper", "search", callStart, err)
		if err != nil {
			failed++
			qlog.WarnContext(ctx, "video search failed", "error", err)
			continue
		}
		if len(hits) > plan.perQuery {
			hits = hits[:plan.perQuery]
		}

		for _, hit := range hits {
			video, err := s.collect(ctx, plan.queryIDs[i], hit)
			if err != nil {
				failed++
				qlog.WarnContext(ctx, "video collection failed", "video_id", hit.ID, "error", err)
				continue
			}
			run.Videos = append(run.Videos, *video)
		}
	}

	run.Finish(model.StageScraping, model.StageStatusSucceeded)
	s.emitStage(model.StageScraping, stageOutcome{
		status: model.StageStatusSucceeded, items: len(run.Videos), failed: failed, start: start,
	})
}

// collect downloads, uploads and records one search hit.
func (s *PipelineService) collect(ctx context.Context, trendQueryID string, hit model.SearchHit) (*model.VideoRecord, error) {
	start := time.Now()
	media, err := s.adapters.Downloader.Download(ctx, hit)
	s.observeCall("downloader", "download", start, err)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%d.mp4", trendQueryID, hit.ID, s.clock.Now().Unix())
	start = time.Now()
	publicURL, err := s.adapters.Store.Upload(ctx, core.UploadParams{Name: name, Media: media})
	s.observeCall("storage", "upload", start, err)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	video := &model.VideoRecord{
		ID:             hit.ID,
		TrendQueryID:   trendQueryID,
		URL:            hit.URL,
		Description:    hit.Description,
		Author:         hit.Author,
		RemoteMediaURL: publicURL,
		StorageName:    name,
		Metrics:        hit.Metrics,
		Hashtags:       hit.Hashtags,
		CreatedAt:      hit.CreatedAt,
	}
	if dbID, err := s.persistVideo(ctx, video); err != nil {
		// The media is uploaded, so keep the video for analysis and cleanup.
		s.logger.WarnContext(ctx, "persist video failed", "video_id", hit.ID, "error", err)
	} else {
		video.DBID = &dbID
	}
	return video, nil
}

// persistVideo inserts the video row. A query id that was never persisted (the query
// insert failed and a local id stood in) is dropped and the insert retried once.
func (s *PipelineService) persistVideo(ctx context.Context, video *model.VideoRecord) (string, error) {
	dbID, err := s.repos.Videos.Create(ctx, video)
	if apperrors.GetCode(err) != apperrors.ErrCodeForeignKey || video.TrendQueryID == "" {
		return dbID, err
	}
	s.logger.WarnContext(ctx, "trend query missing, storing video unlinked",
		"video_id", video.ID, "trend_query_id", video.TrendQueryID)
	unlinked := *video
	unlinked.TrendQueryID = ""
	return s.repos.Videos.Create(ctx, &unlinked)
}

func (s *PipelineService) analyze(ctx context.Context, run *model.WorkflowRun, log *slog.Logger) {
	run.Enter(model.StageAnalysis)
	start := time.Now()
	run.Analyses = make([]model.AnalysisResult, 0, len(run.Videos))

	for _, video := range run.Videos {
		result := s.analyzeOne(ctx, video, run.BusinessDescription)
		if !result.OK() {
			log.WarnContext(ctx, "video analysis failed", "video_id", video.ID, "error", result.Error)
		} else if video.DBID != nil {
			analysis := extract.Analysis(result.Text)
			analysis.AnalyzedAt = s.clock.Now()
			err := s.repos.Videos.SaveAnalysis(ctx, *video.DBID, analysis)
			if err != nil {
				log.WarnContext(ctx, "persist video analysis failed", "video_id", video.ID, "error", err)
			}
		}
		run.Analyses = append(run.Analyses, result)
	}

	run.Finish(model.StageAnalysis, model.StageStatusSucceeded)
	s.emitStage(model.StageAnalysis, stageOutcome{
		status: model.StageStatusSucceeded,
		items:  run.AnalyzedCount(),
		failed: len(run.Analyses) - run.AnalyzedCount(),
		start:  start,
	})
}

func (s *PipelineService) analyzeOne(ctx context.Context, video model.VideoRecord, desc string) model.AnalysisResult {
	if err := video.Validate(); err != nil {
		return model.AnalysisResult{VideoID: video.ID, Error: err.Error()}
	}
	if s.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analysisTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.adapters.Analyzer.Analyze(ctx, core.AnalyzeRequest{Video: video, BusinessDescription: desc})
	s.observeCall("analyzer", "analyze", start, err)
	if err != nil {
		return model.AnalysisResult{VideoID: video.ID, Error: err.Error()}
	}
	return model.AnalysisResult{VideoID: video.ID, Text: text}
}

func (s *PipelineService) reconstruct(ctx context.Context, run *model.WorkflowRun, log *slog.Logger) error {
	run.Enter(model.StageReconstruction)
	start := time.Now()

	ok := run.SuccessfulAnalyses()
	if len(ok) == 0 {
		log.InfoContext(ctx, "no successful analyses; skipping reconstruction")
		run.Finish(model.StageReconstruction, model.StageStatusSucceeded)
		s.emitStage(model.StageReconstruction, stageOutcome{status: model.StageStatusSucceeded, start: start})
		return nil
	}

	raw, err := s.adapters.Summarizer.Summarize(ctx, core.SummarizeRequest{
		BusinessDescription: run.BusinessDescription,
		Analyses:            ok,
	})
	s.observeCall("llm", "summarize", start, err)
	if err != nil {
		log.ErrorContext(ctx, "strategy reconstruction failed", "error", err)
		run.Finish(model.StageReconstruction, model.StageStatusFailed)
		s.emitStage(model.StageReconstruction, stageOutcome{status: model.StageStatusFailed, start: start, err: err})
		return fmt.Errorf("reconstruction: %w", err)
	}

	run.Strategy = extract.Strategy(raw)
	run.Finish(model.StageReconstruction, model.StageStatusSucceeded)
	s.emitStage(model.StageReconstruction, stageOutcome{status: model.StageStatusSucceeded, items: 1, start: start})
	return nil
}

func (s *PipelineService) cleanup(ctx context.Context, run *model.WorkflowRun, log *slog.Logger) {
	run.Enter(model.StageCleanup)
	start := time.Now()

	urls := make([]string, 0, len(run.Videos))
	for _, v := range run.Videos {
		urls = append(urls, v.RemoteMediaURL)
	}
	names := extract.StorageNames(urls)
	if len(names) == 0 {
		run.Finish(model.StageCleanup, model.StageStatusSucceeded)
		s.emitStage(model.StageCleanup, stageOutcome{status: model.StageStatusSucceeded, start: start})
		return
	}

	// Uploaded media is deleted even when the caller has gone away.
	deleted, err := s.adapters.Store.Delete(context.WithoutCancel(ctx), names)
	s.observeCall("storage", "delete", start, err)
	if err != nil {
		log.WarnContext(ctx, "media cleanup failed", "names", len(names), "error", err)
		run.DeletedMediaCount = 0
		run.Finish(model.StageCleanup, model.StageStatusFailed)
		s.emitStage(model.StageCleanup, stageOutcome{status: model.StageStatusFailed, start: start, err: err})
		return
	}

	run.DeletedMediaCount = deleted
	run.Finish(model.StageCleanup, model.StageStatusSucceeded)
	s.emitStage(model.StageCleanup, stageOutcome{status: model.StageStatusSucceeded, items: deleted, start: start})
}

func (s *PipelineService) saveRun(ctx context.Context, run *model.WorkflowRun, log *slog.Logger) {
	if s.repos.Runs == nil {
		return
	}
	if err := s.repos.Runs.Save(context.WithoutCancel(ctx), run); err != nil {
		log.WarnContext(ctx, "persist workflow run failed", "error", err)
	}
}

type stageOutcome struct {
	status model.StageStatus
	items  int
	failed int
	start  time.Time
	err    error
}

func (s *PipelineService) emitStage(stage model.Stage, out stageOutcome) {
	result := metrics.ResultSuccess
	if out.status == model.StageStatusFailed {
		result = metrics.ResultError
	}
	metrics.EmitStage(s.metrics, metrics.StageMetric{
		Stage:    string(stage),
		Result:   result,
		Items:    out.items,
		Failed:   out.failed,
		Duration: time.Since(out.start),
		Err:      out.err,
	})
}

func (s *PipelineService) observeCall(adapter, op string, start time.Time, err error) {
	metrics.EmitCall(s.metrics, metrics.CallMetric{
		Adapter:  adapter,
		Op:       op,
		Duration: time.Since(start),
		Err:      err,
	})
}

