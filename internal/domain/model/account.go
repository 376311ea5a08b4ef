package model

import "time"

// CreditAccount mirrors the per-user prepaid balance record. The orchestrator
// never read-modify-writes these counters; all spend goes through the ledger's
// atomic increments.
type CreditAccount struct {
	UserID          string
	Credits         int
	CreditsUsed     int
	VideosGenerated int
	UpdatedAt       time.Time
}

// PurchaseOption is one credit package offered when a balance check fails.
type PurchaseOption struct {
	ID      string `json:"id" yaml:"id"`
	Credits int    `json:"credits" yaml:"credits"`
	Price   int64  `json:"price" yaml:"price"`
	Label   string `json:"label" yaml:"label"`
}

// CreditCheck is the structured result of a ledger preflight.
type CreditCheck struct {
	OK        bool
	Required  int
	Available int
}

func (c CreditCheck) Shortfall() int {
	if c.Available >= c.Required {
		return 0
	}
	return c.Required - c.Available
}
