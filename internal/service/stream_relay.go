package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/extract"
	"github.com/target/trendscout/internal/domain/model"
)

// FrameDecoder extracts the text delta carried by one upstream data frame.
type FrameDecoder func(body []byte) (string, error)

// StreamRelayServiceOptions groups dependencies for StreamRelayService.
type StreamRelayServiceOptions struct {
	Analyzer     core.VideoAnalyzer   // Required
	Decode       FrameDecoder         // Required: matches the analyzer's frame format
	Videos       core.VideoRepository // Optional: analyses are not persisted when nil
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// StreamRelayService forwards one streaming analysis to a live client.
type StreamRelayService struct {
	analyzer core.VideoAnalyzer
	decode   FrameDecoder
	videos   core.VideoRepository
	clock    data.TimeProvider
	logger   *slog.Logger
}

var _ core.StreamAnalyzer = (*StreamRelayService)(nil)

var dataPrefix = []byte("data:")

// NewStreamRelayService constructs a StreamRelayService.
func NewStreamRelayService(opts StreamRelayServiceOptions) *StreamRelayService {
	if opts.Analyzer == nil {
		panic("VideoAnalyzer is required")
	}
	if opts.Decode == nil {
		panic("FrameDecoder is required")
	}
	clock := opts.TimeProvider
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamRelayService{
		analyzer: opts.Analyzer,
		decode:   opts.Decode,
		videos:   opts.Videos,
		clock:    clock,
		logger:   logger.With("component", "stream_relay"),
	}
}

// StreamAnalyze opens one upstream stream and relays text deltas to sink in arrival order.
//
// The relay ends with exactly one terminal event: complete on a clean upstream end, error on
// an upstream failure. Nothing is sent or persisted once ctx is cancelled, and a sink error
// stops the relay and cancels the upstream request.
func (s *StreamRelayService) StreamAnalyze(
	ctx context.Context,
	req model.StreamAnalyzeRequest,
	sink core.StreamSink,
) (model.AnalysisResult, error) {
	if err := req.Video.Validate(); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	video := req.Video
	log := s.logger.With("video_id", video.ID)
	session := model.NewStreamSession(video.ID)

	stream, err := s.analyzer.AnalyzeStream(ctx, core.AnalyzeRequest{
		Video:               video,
		BusinessDescription: req.BusinessDescription,
	})
	if err != nil {
		return s.fail(ctx, failure{session: session, sink: sink, err: fmt.Errorf("open analysis stream: %w", err)})
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			log.DebugContext(ctx, "close analysis stream", "error", cerr)
		}
	}()

	for {
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.fail(ctx, failure{session: session, sink: sink, err: fmt.Errorf("read analysis stream: %w", err)})
		}

		delta, ok := s.decodeFrame(ctx, frame, log)
		if !ok {
			continue
		}
		session.Append(delta)
		if err := sink(model.ChunkEvent(delta)); err != nil {
			cancel()
			log.InfoContext(ctx, "stream client gone; stopping relay", "chunks", session.Chunks(), "error", err)
			return model.AnalysisResult{VideoID: video.ID, Text: session.Text(), Error: err.Error()},
				fmt.Errorf("write chunk: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return model.AnalysisResult{VideoID: video.ID, Text: session.Text(), Error: err.Error()}, err
	}

	s.persist(ctx, video, session.Text(), log)

	result := model.AnalysisResult{VideoID: video.ID, Text: session.Text()}
	if err := sink(model.CompleteEvent(video, result.Text)); err != nil {
		return result, fmt.Errorf("write complete: %w", err)
	}
	log.InfoContext(ctx, "stream analysis complete", "chunks", session.Chunks(), "chars", len(result.Text))
	return result, nil
}

// decodeFrame returns the text delta of a data frame. Non-data lines, undecodable frames and
// empty deltas are dropped.
func (s *StreamRelayService) decodeFrame(ctx context.Context, frame []byte, log *slog.Logger) (string, bool) {
	line := bytes.TrimSpace(frame)
	if !bytes.HasPrefix(line, dataPrefix) {
		return "", false
	}
	body := bytes.TrimSpace(line[len(dataPrefix):])

	delta, err := s.decode(body)
	if err != nil {
		if len(body) > 2 && string(body) != "[DONE]" {
			log.WarnContext(ctx, "dropping undecodable stream frame", "bytes", len(body), "error", err)
		}
		return "", false
	}
	if delta == "" {
		return "", false
	}
	return delta, true
}

func (s *StreamRelayService) persist(ctx context.Context, video model.VideoRecord, text string, log *slog.Logger) {
	if s.videos == nil || video.DBID == nil {
		return
	}
	analysis := extract.Analysis(text)
	analysis.AnalyzedAt = s.clock.Now()
	if err := s.videos.SaveAnalysis(ctx, *video.DBID, analysis); err != nil {
		log.WarnContext(ctx, "persist streamed analysis failed", "db_id", *video.DBID, "error", err)
	}
}

type failure struct {
	session *model.StreamSession
	sink    core.StreamSink
	err     error
}

// fail sends the single terminal error event unless the client is already gone.
func (s *StreamRelayService) fail(ctx context.Context, f failure) (model.AnalysisResult, error) {
	result := model.AnalysisResult{VideoID: f.session.VideoID, Text: f.session.Text(), Error: f.err.Error()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	s.logger.WarnContext(ctx, "stream analysis failed", "video_id", f.session.VideoID, "error", f.err)
	if err := f.sink(model.ErrorEvent(f.err.Error())); err != nil {
		s.logger.DebugContext(ctx, "write error event", "error", err)
	}
	return result, f.err
}
