package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/domain/model"
)

func TestMediaCleanupService_Cleanup(t *testing.T) {
	store := &mockStore{}
	videos := &mockVideoRepo{}
	svc := NewMediaCleanupService(MediaCleanupServiceOptions{Store: store, Videos: videos})
	ctx := context.Background()

	names := []string{"tq_v1_1.mp4", "tq_v2_1.mp4"}
	ids := []string{"11111111-1111-1111-1111-111111111111"}

	store.On("Delete", mock.Anything, names).Return(2, nil).Once()
	videos.On("ClearMedia", mock.Anything, ids).Return(ids, nil).Once()
	res, err := svc.Cleanup(ctx, model.CleanupRequest{FileNames: names, VideoIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, model.CleanupResult{DeletedCount: 2, VideoIDs: ids}, res)

	// Deleting the same names again is not an error.
	store.On("Delete", mock.Anything, names).Return(0, nil).Once()
	res, err = svc.Cleanup(ctx, model.CleanupRequest{FileNames: names})
	require.NoError(t, err)
	assert.Equal(t, 0, res.DeletedCount)
	assert.Empty(t, res.VideoIDs)

	store.AssertExpectations(t)
	videos.AssertExpectations(t)
}

func TestMediaCleanupService_Cleanup_Errors(t *testing.T) {
	store := &mockStore{}
	svc := NewMediaCleanupService(MediaCleanupServiceOptions{Store: store})

	_, err := svc.Cleanup(context.Background(), model.CleanupRequest{FileNames: []string{"  "}})
	require.ErrorIs(t, err, ErrInvalidRequest)

	store.On("Delete", mock.Anything, []string{"a.mp4"}).Return(0, errors.New("503")).Once()
	_, err = svc.Cleanup(context.Background(), model.CleanupRequest{FileNames: []string{"a.mp4"}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
	store.AssertExpectations(t)
}
