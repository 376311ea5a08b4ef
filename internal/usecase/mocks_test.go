//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/adapter"
	"avatar-video-platform/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// MockAccountRepo is an in-memory CreditAccountRepository. Behavior is
// overridable per test via the XxxFunc fields.
type MockAccountRepo struct {
	mu    sync.RWMutex
	store map[string]*model.CreditAccount

	FindByUserIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.CreditAccount, error)
	ApplyUsageFunc   func(ctx context.Context, tx repository.Tx, userID string, spent int) error
	AddCreditsFunc   func(ctx context.Context, tx repository.Tx, userID string, delta int) error
}

var _ repository.CreditAccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{store: make(map[string]*model.CreditAccount)}
}

func (m *MockAccountRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CreditAccount, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, tx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.CreditAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.UserID] = &cp
	return nil
}

func (m *MockAccountRepo) AddCredits(ctx context.Context, tx repository.Tx, userID string, delta int) error {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, tx, userID, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[userID]
	if !ok {
		a = &model.CreditAccount{UserID: userID}
		m.store[userID] = a
	}
	a.Credits += delta
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MockAccountRepo) ApplyUsage(ctx context.Context, tx repository.Tx, userID string, spent int) error {
	if m.ApplyUsageFunc != nil {
		return m.ApplyUsageFunc(ctx, tx, userID, spent)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Credits -= spent
	a.CreditsUsed += spent
	a.VideosGenerated++
	a.UpdatedAt = time.Now()
	return nil
}

// MockVideoRepo is an in-memory VideoRepository.
type MockVideoRepo struct {
	mu    sync.RWMutex
	store map[string]*model.VideoRecord

	SaveFunc func(ctx context.Context, tx repository.Tx, v *model.VideoRecord) error
}

var _ repository.VideoRepository = (*MockVideoRepo)(nil)

func NewMockVideoRepo() *MockVideoRepo {
	return &MockVideoRepo{store: make(map[string]*model.VideoRecord)}
}

func (m *MockVideoRepo) Save(ctx context.Context, tx repository.Tx, v *model.VideoRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *MockVideoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.VideoRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MockVideoRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.VideoRecord
	for _, v := range m.store {
		if v.OwnerID != ownerID {
			continue
		}
		if !since.IsZero() && v.CreatedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !v.CreatedAt.Before(until) {
			continue
		}
		cp := *v
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockVideoRepo) Delete(ctx context.Context, tx repository.Tx, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok || v.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockVideoRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// MockPaymentRepo is an in-memory PaymentRepository keyed by authority.
type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByAuthority(ctx context.Context, tx repository.Tx, authority string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Authority == authority {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, refID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if refID != nil {
		p.RefID = refID
	}
	p.UpdatedAt = time.Now()
	return nil
}

// =============================
// Adapters
// =============================

// MockProvider implements SynthesisProvider with call tracing.
type MockProvider struct {
	mu sync.Mutex

	SubmitFunc func(ctx context.Context, cred *model.Credential, req adapter.SynthesisRequest) (string, error)
	StatusFunc func(ctx context.Context, cred *model.Credential, jobID string) (adapter.JobStatus, error)

	Calls struct {
		Submit []adapter.SynthesisRequest
		Status int
	}
}

var _ adapter.SynthesisProvider = (*MockProvider)(nil)

func (m *MockProvider) Submit(ctx context.Context, cred *model.Credential, req adapter.SynthesisRequest) (string, error) {
	m.mu.Lock()
	m.Calls.Submit = append(m.Calls.Submit, req)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, cred, req)
	}
	return "job-1", nil
}

func (m *MockProvider) Status(ctx context.Context, cred *model.Credential, jobID string) (adapter.JobStatus, error) {
	m.mu.Lock()
	m.Calls.Status++
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, cred, jobID)
	}
	return adapter.JobStatus{State: adapter.ProviderStateCompleted, RawURL: "https://provider/raw.mp4"}, nil
}

// MockPostProcessor implements PostProcessor.
type MockPostProcessor struct {
	CleanFunc func(ctx context.Context, rawURL string) (string, error)
	Calls     int
}

var _ adapter.PostProcessor = (*MockPostProcessor)(nil)

func (m *MockPostProcessor) Clean(ctx context.Context, rawURL string) (string, error) {
	m.Calls++
	if m.CleanFunc != nil {
		return m.CleanFunc(ctx, rawURL)
	}
	return "/tmp/avatar-clean-test.mp4", nil
}

// MockFileHost implements FileHost.
type MockFileHost struct {
	UploadFunc func(ctx context.Context, localPath string) (string, error)
	Uploaded   []string
}

var _ adapter.FileHost = (*MockFileHost)(nil)

func (m *MockFileHost) Upload(ctx context.Context, localPath string) (string, error) {
	m.Uploaded = append(m.Uploaded, localPath)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, localPath)
	}
	return "https://files.example.com/v/abc123", nil
}

// MockPaymentGateway implements PaymentGateway.
type MockPaymentGateway struct {
	RequestPaymentFunc func(ctx context.Context, amount int64, description, callbackURL string) (string, string, error)
	VerifyPaymentFunc  func(ctx context.Context, authority string, expectedAmount int64) (string, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) RequestPayment(ctx context.Context, amount int64, description, callbackURL string) (string, string, error) {
	if m.RequestPaymentFunc != nil {
		return m.RequestPaymentFunc(ctx, amount, description, callbackURL)
	}
	return "auth-1", "https://gateway.example.com/pay/auth-1", nil
}

func (m *MockPaymentGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, authority, expectedAmount)
	}
	return "ref-1", nil
}

// MockScriptGenerator implements ScriptGenerator.
type MockScriptGenerator struct {
	GenerateScriptFunc func(ctx context.Context, topic string, maxTokens int) (string, error)
}

var _ adapter.ScriptGenerator = (*MockScriptGenerator)(nil)

func (m *MockScriptGenerator) GenerateScript(ctx context.Context, topic string, maxTokens int) (string, error) {
	if m.GenerateScriptFunc != nil {
		return m.GenerateScriptFunc(ctx, topic, maxTokens)
	}
	return "generated script about " + topic, nil
}

// =============================
// Clock
// =============================

// fakeClock advances instantly on Sleep so poll-loop tests run without
// wall-clock delay.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	Sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.Sleeps = append(c.Sleeps, d)
	return nil
}
