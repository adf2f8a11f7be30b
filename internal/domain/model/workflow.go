// Package model defines the core data types used throughout the trendscout pipeline.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Stage names one ordered step of a workflow run.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Stage string

const (
	// StageQueryGeneration turns a business description into search queries.
	StageQueryGeneration Stage = "query_generation"
	// StageScraping searches, downloads and uploads videos for each query.
	StageScraping Stage = "scraping"
	// StageAnalysis runs multimodal analysis over every scraped video.
	StageAnalysis Stage = "analysis"
	// StageReconstruction summarizes analyses into a strategy document.
	StageReconstruction Stage = "reconstruction"
	// StageCleanup deletes transient media uploaded during the run.
	StageCleanup Stage = "cleanup"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageQueryGeneration,
	StageScraping,
	StageAnalysis,
	StageReconstruction,
	StageCleanup,
}

// Valid returns true if the Stage is one of the known pipeline stages.
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler so stage names can be used as map keys in JSON.
func (s *Stage) UnmarshalText(text []byte) error {
	v := Stage(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid Stage: %q", v)
	}
	*s = v
	return nil
}

// StageStatus tracks the outcome of a single stage.
type StageStatus string

const (
	// StageStatusPending indicates the stage has not completed yet.
	StageStatusPending StageStatus = "pending"
	// StageStatusSucceeded indicates the stage completed, possibly with item-level failures.
	StageStatusSucceeded StageStatus = "succeeded"
	// StageStatusFailed indicates the stage call itself failed.
	StageStatusFailed StageStatus = "failed"
)

// RunState is the lifecycle position of a workflow run.
type RunState string

const (
	RunStateIdle              RunState = "idle"
	RunStateGeneratingQueries RunState = "generating_queries"
	RunStateScraping          RunState = "scraping"
	RunStateAnalyzing         RunState = "analyzing"
	RunStateReconstructing    RunState = "reconstructing"
	RunStateCleaningUp        RunState = "cleaning_up"
	RunStateDone              RunState = "done"
)

// stateForStage maps each stage to the run state entered when it starts.
var stateForStage = map[Stage]RunState{
	StageQueryGeneration: RunStateGeneratingQueries,
	StageScraping:        RunStateScraping,
	StageAnalysis:        RunStateAnalyzing,
	StageReconstruction:  RunStateReconstructing,
	StageCleanup:         RunStateCleaningUp,
}

// MaxSearchQueries caps the number of queries produced for one run.
const MaxSearchQueries = 5

// DefaultVideosPerQuery is used when a trigger omits videosPerQuery.
const DefaultVideosPerQuery = 5

// WorkflowRun is one execution of the pipeline for one user.
type WorkflowRun struct {
	ID                  string                `json:"id"`
	UserID              string                `json:"user_id"`
	BusinessDescription string                `json:"business_description"`
	SearchQueries       []string              `json:"search_queries"`
	Videos              []VideoRecord         `json:"videos"`
	Analyses            []AnalysisResult      `json:"analyses"`
	Strategy            StrategyDocument      `json:"strategy"`
	DeletedMediaCount   int                   `json:"deleted_media_count"`
	StageStatus         map[Stage]StageStatus `json:"stage_status"`
	State               RunState              `json:"state"`
	Error               string                `json:"error,omitempty"`
	StartedAt           time.Time             `json:"started_at"`
	CompletedAt         *time.Time            `json:"completed_at,omitempty"`
}

// NewWorkflowRun creates a run in the Idle state with every stage pending.
func NewWorkflowRun(id, userID, businessDescription string, startedAt time.Time) *WorkflowRun {
	status := make(map[Stage]StageStatus, len(Stages))
	for _, s := range Stages {
		status[s] = StageStatusPending
	}
	return &WorkflowRun{
		ID:                  id,
		UserID:              userID,
		BusinessDescription: businessDescription,
		StageStatus:         status,
		State:               RunStateIdle,
		StartedAt:           startedAt,
	}
}

// Enter moves the run into the state associated with the given stage.
func (r *WorkflowRun) Enter(stage Stage) {
	if st, ok := stateForStage[stage]; ok {
		r.State = st
	}
}

// Finish records a stage outcome.
func (r *WorkflowRun) Finish(stage Stage, status StageStatus) {
	if r.StageStatus == nil {
		r.StageStatus = make(map[Stage]StageStatus, len(Stages))
	}
	r.StageStatus[stage] = status
}

// Complete marks the run Done. A run always reaches Done regardless of item failures.
func (r *WorkflowRun) Complete(at time.Time) {
	r.State = RunStateDone
	r.CompletedAt = &at
}

// AnalyzedCount returns the number of analyses that produced text.
func (r *WorkflowRun) AnalyzedCount() int {
	n := 0
	for _, a := range r.Analyses {
		if a.OK() {
			n++
		}
	}
	return n
}

// SuccessfulAnalyses returns the analyses without an error.
func (r *WorkflowRun) SuccessfulAnalyses() []AnalysisResult {
	out := make([]AnalysisResult, 0, len(r.Analyses))
	for _, a := range r.Analyses {
		if a.OK() {
			out = append(out, a)
		}
	}
	return out
}

// Summary returns the aggregate counts reported to callers of the pipeline trigger.
func (r *WorkflowRun) Summary() RunSummary {
	queries := r.SearchQueries
	if queries == nil {
		queries = []string{}
	}
	return RunSummary{
		SearchQueries:       queries,
		VideosCount:         len(r.Videos),
		AnalyzedVideosCount: r.AnalyzedCount(),
		MarketingStrategy:   r.Strategy,
		DeletedVideosCount:  r.DeletedMediaCount,
	}
}

// RunSummary is the externally visible result of a run and the snapshot emailed to users.
type RunSummary struct {
	SearchQueries       []string         `json:"searchQueries"`
	VideosCount         int              `json:"videosCount"`
	AnalyzedVideosCount int              `json:"analyzedVideosCount"`
	MarketingStrategy   StrategyDocument `json:"marketingStrategy"`
	DeletedVideosCount  int              `json:"deletedVideosCount"`
}

// RunWorkflowRequest is the input to a pipeline run.
type RunWorkflowRequest struct {
	BusinessDescription string `json:"businessDescription"`
	UserID              string `json:"userId"`
	VideosPerQuery      int    `json:"videosPerQuery,omitempty"`
}

// Validate checks required fields.
func (r *RunWorkflowRequest) Validate() error {
	if strings.TrimSpace(r.BusinessDescription) == "" {
		return fmt.Errorf("businessDescription is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	if r.VideosPerQuery < 0 {
		return fmt.Errorf("videosPerQuery must be non-negative")
	}
	return nil
}

// Normalize applies the default and upper bound to VideosPerQuery.
func (r *RunWorkflowRequest) Normalize(maxPerQuery int) {
	r.BusinessDescription = strings.TrimSpace(r.BusinessDescription)
	r.UserID = strings.TrimSpace(r.UserID)
	if r.VideosPerQuery <= 0 {
		r.VideosPerQuery = DefaultVideosPerQuery
	}
	if maxPerQuery > 0 && r.VideosPerQuery > maxPerQuery {
		r.VideosPerQuery = maxPerQuery
	}
}
