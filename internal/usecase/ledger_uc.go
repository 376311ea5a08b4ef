package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/repository"
	derror "avatar-video-platform/internal/error"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase guards the prepaid balance. Preflight is advisory only: the
// balance can change between Preflight and Commit under concurrent spending
// by the same user, and two concurrent runs can both pass the check. Commit
// is the single atomic spend and must run exactly once per successful
// pipeline, never on a failed one.
type LedgerUseCase interface {
	Preflight(ctx context.Context, userID string, required int) (model.CreditCheck, error)
	Commit(ctx context.Context, userID string, spent int) error
	Account(ctx context.Context, userID string) (*model.CreditAccount, error)
}

type ledgerUC struct {
	accounts repository.CreditAccountRepository
	options  []model.PurchaseOption
	log      *zerolog.Logger
}

func NewLedgerUseCase(accounts repository.CreditAccountRepository, options []model.PurchaseOption, logger *zerolog.Logger) *ledgerUC {
	l := logger.With().Str("component", "LedgerUC").Logger()
	return &ledgerUC{accounts: accounts, options: options, log: &l}
}

func (l *ledgerUC) Preflight(ctx context.Context, userID string, required int) (model.CreditCheck, error) {
	available := 0
	a, err := l.accounts.FindByUserID(ctx, nil, userID)
	switch {
	case err == nil:
		available = a.Credits
	case errors.Is(err, domain.ErrNotFound):
		// no account yet means zero balance, not a hard failure
	default:
		return model.CreditCheck{}, err
	}

	if available < required {
		return model.CreditCheck{Required: required, Available: available},
			&derror.InsufficientCreditsError{Required: required, Available: available, Options: l.options}
	}
	return model.CreditCheck{OK: true, Required: required, Available: available}, nil
}

func (l *ledgerUC) Commit(ctx context.Context, userID string, spent int) error {
	if err := l.accounts.ApplyUsage(ctx, nil, userID, spent); err != nil {
		return err
	}
	l.log.Info().Str("user_id", userID).Int("credits", spent).Msg("usage committed")
	return nil
}

func (l *ledgerUC) Account(ctx context.Context, userID string) (*model.CreditAccount, error) {
	return l.accounts.FindByUserID(ctx, nil, userID)
}
