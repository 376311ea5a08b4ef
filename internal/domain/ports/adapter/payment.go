package adapter

import "context"

// PaymentGateway is the port for the credit-purchase payment provider.
type PaymentGateway interface {
	Name() string

	// RequestPayment initiates a payment intent and returns the provider
	// authority plus a redirect URL for the user.
	RequestPayment(ctx context.Context, amount int64, description, callbackURL string) (authority string, payURL string, err error)

	// VerifyPayment verifies a payment by authority and expected amount;
	// returns the provider refID on success.
	VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (refID string, err error)
}
