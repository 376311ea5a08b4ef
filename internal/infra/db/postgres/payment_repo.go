package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, user_id, option_id, credits, amount, authority, ref_id, status, created_at, updated_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.OptionID, p.Credits, p.Amount, p.Authority, p.RefID, p.Status, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// duplicate authority from a gateway retry
			return domain.ErrInvalidArgument
		}
		return err
	}
	return nil
}

func (r *paymentRepo) FindByAuthority(ctx context.Context, tx repository.Tx, authority string) (*model.Payment, error) {
	const q = `
SELECT id, user_id, option_id, credits, amount, authority, ref_id, status, created_at, updated_at, paid_at
  FROM payments
 WHERE authority = $1
 LIMIT 1;`
	p := &model.Payment{}
	err := queryRow(ctx, r.pool, tx, q, authority).
		Scan(&p.ID, &p.UserID, &p.OptionID, &p.Credits, &p.Amount, &p.Authority, &p.RefID, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID *string) error {
	const q = `
UPDATE payments
   SET status = $2,
       ref_id = COALESCE($3, ref_id),
       paid_at = CASE WHEN $2 = 'succeeded' THEN NOW() ELSE paid_at END,
       updated_at = NOW()
 WHERE id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, status, refID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
