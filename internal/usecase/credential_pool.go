package usecase

import (
	"sync"

	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/infra/metrics"
)

// CredentialPool multiplexes a fixed set of provider API keys across
// concurrent generation runs. Selection is first-fit in configuration order;
// when every key has hit its quota the pool resets all counters and starts a
// fresh allocation round from the first key. Acquire never fails for a
// non-empty pool.
type CredentialPool struct {
	mu    sync.Mutex
	creds []*model.Credential
}

func NewCredentialPool(keys []string, quota int) *CredentialPool {
	creds := make([]*model.Credential, 0, len(keys))
	for _, k := range keys {
		creds = append(creds, &model.Credential{APIKey: k, Quota: quota})
	}
	return &CredentialPool{creds: creds}
}

// Acquire returns a usable credential, incrementing its usage count in the
// same critical section as the quota check. Returns nil only for an empty
// pool. Callers receive a copy; pool counters stay pool-owned.
func (p *CredentialPool) Acquire() *model.Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.creds) == 0 {
		return nil
	}
	for _, c := range p.creds {
		if !c.Exhausted() {
			c.UsageCount++
			cp := *c
			return &cp
		}
	}
	// Whole pool exhausted: reset and hand out the first key again.
	for _, c := range p.creds {
		c.UsageCount = 0
	}
	p.creds[0].UsageCount = 1
	metrics.IncPoolResets()
	cp := *p.creds[0]
	return &cp
}

// Size returns the number of configured keys.
func (p *CredentialPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Snapshot copies the current counters, for inspection and tests.
func (p *CredentialPool) Snapshot() []model.Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Credential, len(p.creds))
	for i, c := range p.creds {
		out[i] = *c
	}
	return out
}
