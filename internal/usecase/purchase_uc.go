package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/adapter"
	"avatar-video-platform/internal/domain/ports/repository"
	"avatar-video-platform/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseUseCase is the thin credit top-up flow around the payment gateway.
type PurchaseUseCase interface {
	Options() []model.PurchaseOption
	// Initiate returns the created payment and a redirect URL to the provider.
	Initiate(ctx context.Context, userID, optionID string) (*model.Payment, string, error)
	// Confirm verifies a payment by gateway authority and applies the top-up.
	Confirm(ctx context.Context, authority string) (*model.Payment, error)
}

type purchaseUC struct {
	payments    repository.PaymentRepository
	accounts    repository.CreditAccountRepository
	gateway     adapter.PaymentGateway
	options     []model.PurchaseOption
	callbackURL string
	log         *zerolog.Logger
}

func NewPurchaseUseCase(
	payments repository.PaymentRepository,
	accounts repository.CreditAccountRepository,
	gateway adapter.PaymentGateway,
	options []model.PurchaseOption,
	callbackURL string,
	logger *zerolog.Logger,
) *purchaseUC {
	l := logger.With().Str("component", "PurchaseUC").Logger()
	return &purchaseUC{
		payments:    payments,
		accounts:    accounts,
		gateway:     gateway,
		options:     options,
		callbackURL: callbackURL,
		log:         &l,
	}
}

func (u *purchaseUC) Options() []model.PurchaseOption { return u.options }

func (u *purchaseUC) Initiate(ctx context.Context, userID, optionID string) (*model.Payment, string, error) {
	var opt *model.PurchaseOption
	for i := range u.options {
		if u.options[i].ID == optionID {
			opt = &u.options[i]
			break
		}
	}
	if opt == nil {
		return nil, "", domain.ErrNotFound
	}

	desc := fmt.Sprintf("%d video credits (%s)", opt.Credits, opt.Label)
	authority, payURL, err := u.gateway.RequestPayment(ctx, opt.Price, desc, u.callbackURL)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	p := &model.Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		OptionID:  opt.ID,
		Credits:   opt.Credits,
		Amount:    opt.Price,
		Authority: authority,
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, "", err
	}
	metrics.IncPayments("initiated")
	return p, payURL, nil
}

func (u *purchaseUC) Confirm(ctx context.Context, authority string) (*model.Payment, error) {
	p, err := u.payments.FindByAuthority(ctx, nil, authority)
	if err != nil {
		return nil, err
	}
	// Gateways re-deliver callbacks; a settled payment must not top up twice.
	if p.Status == model.PaymentStatusSucceeded {
		return p, nil
	}

	refID, verifyErr := u.gateway.VerifyPayment(ctx, authority, p.Amount)
	now := time.Now()
	if verifyErr != nil {
		_ = u.payments.UpdateStatus(ctx, nil, p.ID, model.PaymentStatusFailed, nil)
		p.Status = model.PaymentStatusFailed
		p.UpdatedAt = now
		metrics.IncPayments("failed")
		return p, verifyErr
	}

	if err := u.payments.UpdateStatus(ctx, nil, p.ID, model.PaymentStatusSucceeded, &refID); err != nil {
		return nil, err
	}
	if err := u.accounts.AddCredits(ctx, nil, p.UserID, p.Credits); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatusSucceeded
	p.RefID = &refID
	p.PaidAt = &now
	p.UpdatedAt = now
	metrics.IncPayments("succeeded")
	u.log.Info().Str("user_id", p.UserID).Int("credits", p.Credits).Msg("credits purchased")
	return p, nil
}
