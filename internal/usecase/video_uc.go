package usecase

import (
	"context"
	"time"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ VideoUseCase = (*videoUC)(nil)

// VideoUseCase covers the thin owner-scoped record operations.
type VideoUseCase interface {
	Get(ctx context.Context, ownerID, id string) (*model.VideoRecord, error)
	List(ctx context.Context, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type videoUC struct {
	videos repository.VideoRepository
}

func NewVideoUseCase(videos repository.VideoRepository) *videoUC {
	return &videoUC{videos: videos}
}

func (v *videoUC) Get(ctx context.Context, ownerID, id string) (*model.VideoRecord, error) {
	rec, err := v.videos.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	// Ownership is part of the lookup contract; leak nothing about foreign records.
	if rec.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (v *videoUC) List(ctx context.Context, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return v.videos.ListByOwner(ctx, nil, ownerID, since, until, limit)
}

func (v *videoUC) Delete(ctx context.Context, ownerID, id string) error {
	return v.videos.Delete(ctx, nil, ownerID, id)
}
