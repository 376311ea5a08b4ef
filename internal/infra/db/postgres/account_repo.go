package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/repository"
)

var _ repository.CreditAccountRepository = (*accountRepo)(nil)

type accountRepo struct{ pool *pgxpool.Pool }

func NewAccountRepo(pool *pgxpool.Pool) *accountRepo {
	return &accountRepo{pool: pool}
}

func (r *accountRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CreditAccount, error) {
	const q = `
SELECT user_id, credits, credits_used, videos_generated, updated_at
  FROM credit_accounts
 WHERE user_id = $1;`
	a := &model.CreditAccount{}
	err := queryRow(ctx, r.pool, tx, q, userID).
		Scan(&a.UserID, &a.Credits, &a.CreditsUsed, &a.VideosGenerated, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *accountRepo) Save(ctx context.Context, tx repository.Tx, a *model.CreditAccount) error {
	const q = `
INSERT INTO credit_accounts (user_id, credits, credits_used, videos_generated, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  credits = EXCLUDED.credits,
  credits_used = EXCLUDED.credits_used,
  videos_generated = EXCLUDED.videos_generated,
  updated_at = NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, a.UserID, a.Credits, a.CreditsUsed, a.VideosGenerated)
	return err
}

// AddCredits tops up the balance server-side, creating the account row on
// first purchase.
func (r *accountRepo) AddCredits(ctx context.Context, tx repository.Tx, userID string, delta int) error {
	const q = `
INSERT INTO credit_accounts (user_id, credits, credits_used, videos_generated, updated_at)
VALUES ($1, $2, 0, 0, NOW())
ON CONFLICT (user_id) DO UPDATE SET
  credits = credit_accounts.credits + EXCLUDED.credits,
  updated_at = NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, userID, delta)
	return err
}

// ApplyUsage is the ledger commit: one statement, so concurrent spends by the
// same user never see a torn update.
func (r *accountRepo) ApplyUsage(ctx context.Context, tx repository.Tx, userID string, spent int) error {
	const q = `
UPDATE credit_accounts
   SET credits = credits - $2,
       credits_used = credits_used + $2,
       videos_generated = videos_generated + 1,
       updated_at = NOW()
 WHERE user_id = $1;`
	ct, err := execSQL(ctx, r.pool, tx, q, userID, spent)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
