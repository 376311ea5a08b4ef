package model

// Credential is one provider API key with its in-memory usage budget.
// Counters are owned by the pool and approximate only: they reset on process
// restart and on full-pool rollover, they do not track real billing windows.
type Credential struct {
	APIKey     string
	UsageCount int
	Quota      int
}

func (c *Credential) Exhausted() bool { return c.UsageCount >= c.Quota }
