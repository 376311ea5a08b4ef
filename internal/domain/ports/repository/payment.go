package repository

import (
	"context"

	"avatar-video-platform/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByAuthority(ctx context.Context, tx Tx, authority string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, refID *string) error
}
