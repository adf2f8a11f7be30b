package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

// MediaCleanupServiceOptions groups dependencies for MediaCleanupService.
type MediaCleanupServiceOptions struct {
	Store  core.MediaStore       // Required
	Videos core.VideoRepository  // Optional: video references are kept when nil
	Logger *slog.Logger
}

// MediaCleanupService deletes transient media on request.
type MediaCleanupService struct {
	store  core.MediaStore
	videos core.VideoRepository
	logger *slog.Logger
}

var _ core.MediaCleaner = (*MediaCleanupService)(nil)

// NewMediaCleanupService constructs a MediaCleanupService.
func NewMediaCleanupService(opts MediaCleanupServiceOptions) *MediaCleanupService {
	if opts.Store == nil {
		panic("MediaStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaCleanupService{
		store:  opts.Store,
		videos: opts.Videos,
		logger: logger.With("component", "media_cleanup"),
	}
}

// Cleanup deletes the named objects and clears the storage reference of the given videos.
// Repeating a cleanup is safe: names already gone count as zero deleted.
func (s *MediaCleanupService) Cleanup(ctx context.Context, req model.CleanupRequest) (model.CleanupResult, error) {
	names := make([]string, 0, len(req.FileNames))
	for _, n := range req.FileNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 && len(req.VideoIDs) == 0 {
		return model.CleanupResult{}, fmt.Errorf("%w: fileNames is required", ErrInvalidRequest)
	}

	result := model.CleanupResult{VideoIDs: []string{}}
	if len(names) > 0 {
		deleted, err := s.store.Delete(ctx, names)
		if err != nil {
			return model.CleanupResult{}, fmt.Errorf("delete media: %w", err)
		}
		result.DeletedCount = deleted
	}

	if s.videos != nil && len(req.VideoIDs) > 0 {
		cleared, err := s.videos.ClearMedia(ctx, req.VideoIDs)
		if err != nil {
			return result, fmt.Errorf("clear video media: %w", err)
		}
		result.VideoIDs = cleared
	}

	s.logger.InfoContext(ctx, "media cleanup",
		"requested", len(names),
		"deleted", result.DeletedCount,
		"videos_cleared", len(result.VideoIDs))
	return result, nil
}
