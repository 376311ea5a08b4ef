package repository

import (
	"context"
	"time"

	"avatar-video-platform/internal/domain/model"
)

// VideoRepository persists one record per completed generation.
type VideoRepository interface {
	Save(ctx context.Context, tx Tx, v *model.VideoRecord) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.VideoRecord, error)

	// ListByOwner returns the owner's records created in [since, until),
	// newest first. Zero bounds mean unbounded.
	ListByOwner(ctx context.Context, tx Tx, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error)

	// Delete removes a record iff it belongs to ownerID.
	Delete(ctx context.Context, tx Tx, ownerID, id string) error
}
