package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is one credit-package purchase attempt against the gateway.
type Payment struct {
	ID        string
	UserID    string
	OptionID  string
	Credits   int
	Amount    int64
	Authority string
	RefID     *string
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}
