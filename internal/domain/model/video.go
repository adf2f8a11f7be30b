package model

import (
	"errors"
	"strings"
	"time"
)

// EngagementMetrics holds the public counters scraped with a video.
type EngagementMetrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// VideoRecord is a scraped video plus its transient storage location.
type VideoRecord struct {
	ID             string            `json:"id"`
	DBID           *string           `json:"dbId,omitempty"`
	TrendQueryID   string            `json:"trendQueryId,omitempty"`
	URL            string            `json:"url"`
	Description    string            `json:"description,omitempty"`
	Author         string            `json:"author,omitempty"`
	RemoteMediaURL string            `json:"remoteMediaUrl,omitempty"`
	StorageName    string            `json:"storageName,omitempty"`
	Metrics        EngagementMetrics `json:"metrics"`
	Hashtags       []string          `json:"hashtags,omitempty"`
	CreatedAt      time.Time         `json:"createdAt,omitzero"`
}

// Validate checks that a video can be sent for analysis.
func (v *VideoRecord) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("video id is required")
	}
	if strings.TrimSpace(v.RemoteMediaURL) == "" {
		return errors.New("video remoteMediaUrl is required")
	}
	return nil
}

// SearchHit is one result returned by the video search adapter.
type SearchHit struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	DownloadURL string            `json:"downloadUrl,omitempty"`
	Description string            `json:"description,omitempty"`
	Author      string            `json:"author,omitempty"`
	Metrics     EngagementMetrics `json:"metrics"`
	Hashtags    []string          `json:"hashtags,omitempty"`
	CreatedAt   time.Time         `json:"createdAt,omitzero"`
}

// AnalysisResult is the outcome of analyzing one video. Failures are recorded as data.
type AnalysisResult struct {
	VideoID string `json:"videoId"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the analysis produced text without an error.
func (a AnalysisResult) OK() bool {
	return a.Error == ""
}

// VideoAnalysis is the persisted form of an analysis on a video row.
type VideoAnalysis struct {
	Summary       string
	Transcript    string
	FrameAnalysis string
	AnalyzedAt    time.Time
}

// TrendQuery is a persisted search query produced for a user.
type TrendQuery struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
}

// StrategyDocument is the semi-structured summary derived from free-text model output.
type StrategyDocument struct {
	ContentThemes    string `json:"contentThemes"`
	PostingFrequency string `json:"postingFrequency"`
	Hashtags         string `json:"hashtags"`
	Engagement       string `json:"engagement"`
	Recommendations  string `json:"recommendations"`
	RawText          string `json:"rawText"`
}

// Empty reports whether no text was produced.
func (d StrategyDocument) Empty() bool {
	return strings.TrimSpace(d.RawText) == ""
}
