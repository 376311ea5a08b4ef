package repository

import (
	"context"

	"avatar-video-platform/internal/domain/model"
)

// CreditAccountRepository persists per-user prepaid balances. Counter
// mutations are atomic increments server-side; callers must never
// read-then-write the counters.
type CreditAccountRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.CreditAccount, error)
	Save(ctx context.Context, tx Tx, a *model.CreditAccount) error

	// AddCredits increments credits by delta (purchase top-up).
	AddCredits(ctx context.Context, tx Tx, userID string, delta int) error

	// ApplyUsage atomically spends credits for one completed video:
	// credits -= spent, credits_used += spent, videos_generated += 1.
	ApplyUsage(ctx context.Context, tx Tx, userID string, spent int) error
}
