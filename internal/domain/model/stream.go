package model

import "strings"

// StreamEvent is one Server-Sent Event frame sent to a streaming analysis client.
// Exactly one of Chunk, Complete or Error is set.
type StreamEvent struct {
	Chunk         string       `json:"chunk,omitempty"`
	Complete      bool         `json:"complete,omitempty"`
	AnalyzedVideo *VideoRecord `json:"analyzedVideo,omitempty"`
	Analysis      string       `json:"analysis,omitempty"`
	Error         bool         `json:"error,omitempty"`
	Message       string       `json:"message,omitempty"`
}

// ChunkEvent builds an incremental text event.
func ChunkEvent(text string) StreamEvent {
	return StreamEvent{Chunk: text}
}

// CompleteEvent builds the final success event.
func CompleteEvent(video VideoRecord, text string) StreamEvent {
	return StreamEvent{Complete: true, AnalyzedVideo: &video, Analysis: text}
}

// ErrorEvent builds the final failure event.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Error: true, Message: msg}
}

// StreamAnalyzeRequest is the input to the streaming relay.
type StreamAnalyzeRequest struct {
	Video               VideoRecord `json:"video"`
	BusinessDescription string      `json:"businessDescription"`
}

// StreamSession accumulates text for the lifetime of one streaming response.
type StreamSession struct {
	VideoID string
	text    strings.Builder
	chunks  int
}

// NewStreamSession creates a session for the given video.
func NewStreamSession(videoID string) *StreamSession {
	return &StreamSession{VideoID: videoID}
}

// Append adds a delta to the accumulator.
func (s *StreamSession) Append(delta string) {
	s.text.WriteString(delta)
	s.chunks++
}

// Text returns the accumulated text.
func (s *StreamSession) Text() string { return s.text.String() }

// Chunks returns the number of deltas appended.
func (s *StreamSession) Chunks() int { return s.chunks }

// CleanupRequest is the input to the media cleanup endpoint.
type CleanupRequest struct {
	FileNames []string `json:"fileNames"`
	VideoIDs  []string `json:"videoIds,omitempty"`
}

// CleanupResult reports the outcome of a cleanup.
type CleanupResult struct {
	DeletedCount int      `json:"deletedCount"`
	VideoIDs     []string `json:"videoIds"`
}
