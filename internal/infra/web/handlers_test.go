//go:build !integration

package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	derror "avatar-video-platform/internal/error"
	"avatar-video-platform/internal/infra/web"
	"avatar-video-platform/internal/usecase"
)

const testSecret = "test-secret"

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- usecase stubs ----

type stubGenerationUC struct {
	GenerateFunc func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error)
}

func (s *stubGenerationUC) Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
	return s.GenerateFunc(ctx, in)
}

type stubVideoUC struct {
	GetFunc    func(ctx context.Context, ownerID, id string) (*model.VideoRecord, error)
	ListFunc   func(ctx context.Context, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error)
	DeleteFunc func(ctx context.Context, ownerID, id string) error
}

func (s *stubVideoUC) Get(ctx context.Context, ownerID, id string) (*model.VideoRecord, error) {
	return s.GetFunc(ctx, ownerID, id)
}

func (s *stubVideoUC) List(ctx context.Context, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error) {
	if s.ListFunc != nil {
		return s.ListFunc(ctx, ownerID, since, until, limit)
	}
	return nil, nil
}

func (s *stubVideoUC) Delete(ctx context.Context, ownerID, id string) error {
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

type stubLedgerUC struct {
	AccountFunc func(ctx context.Context, userID string) (*model.CreditAccount, error)
}

func (s *stubLedgerUC) Preflight(ctx context.Context, userID string, required int) (model.CreditCheck, error) {
	return model.CreditCheck{OK: true}, nil
}

func (s *stubLedgerUC) Commit(ctx context.Context, userID string, spent int) error { return nil }

func (s *stubLedgerUC) Account(ctx context.Context, userID string) (*model.CreditAccount, error) {
	if s.AccountFunc != nil {
		return s.AccountFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

type stubPurchaseUC struct {
	options []model.PurchaseOption
}

func (s *stubPurchaseUC) Options() []model.PurchaseOption { return s.options }

func (s *stubPurchaseUC) Initiate(ctx context.Context, userID, optionID string) (*model.Payment, string, error) {
	return &model.Payment{ID: "pay-1"}, "https://gateway/pay-1", nil
}

func (s *stubPurchaseUC) Confirm(ctx context.Context, authority string) (*model.Payment, error) {
	return &model.Payment{ID: "pay-1", Status: model.PaymentStatusSucceeded, Credits: 100}, nil
}

// ---- helpers ----

type serverOpts struct {
	gen    *stubGenerationUC
	videos *stubVideoUC
	ledger *stubLedgerUC
}

func newTestServer(t *testing.T, opts serverOpts) http.Handler {
	t.Helper()
	if opts.gen == nil {
		opts.gen = &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			return &usecase.GenerateResult{VideoID: "vid-1", PublicURL: "https://files/abc"}, nil
		}}
	}
	if opts.videos == nil {
		opts.videos = &stubVideoUC{GetFunc: func(ctx context.Context, ownerID, id string) (*model.VideoRecord, error) {
			return nil, domain.ErrNotFound
		}}
	}
	if opts.ledger == nil {
		opts.ledger = &stubLedgerUC{}
	}
	purchase := &stubPurchaseUC{options: []model.PurchaseOption{{ID: "starter", Credits: 100, Price: 50000, Label: "Starter"}}}
	srv := web.NewServer(opts.gen, opts.videos, opts.ledger, purchase, nil, nil, 10, testSecret, newTestLogger())
	return srv.Router()
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + signed
}

func doRequest(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, serverOpts{})

	t.Run("should reject requests without a token", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/account", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should reject a token signed with the wrong key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
		signed, _ := token.SignedString([]byte("other-secret"))
		rec := doRequest(t, h, http.MethodGet, "/api/v1/account", "Bearer "+signed, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("should let a valid token through", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/account", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestHandleGenerate(t *testing.T) {
	body := `{"script":"hello","avatar_id":"a1","voice_id":"v1","orientation":"landscape"}`

	t.Run("should answer 201 with the published video", func(t *testing.T) {
		// --- Arrange ---
		var gotOwner string
		gen := &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			gotOwner = in.OwnerID
			return &usecase.GenerateResult{VideoID: "vid-1", PublicURL: "https://files/abc"}, nil
		}}
		h := newTestServer(t, serverOpts{gen: gen})

		// --- Act ---
		rec := doRequest(t, h, http.MethodPost, "/api/v1/videos", bearerToken(t, "user-1"), body)

		// --- Assert ---
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotOwner != "user-1" {
			t.Errorf("expected owner from token, got %q", gotOwner)
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["video_id"] != "vid-1" || resp["public_url"] != "https://files/abc" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("should answer 402 with shortfall and options on insufficient credits", func(t *testing.T) {
		// --- Arrange ---
		gen := &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			return nil, &derror.InsufficientCreditsError{
				Required:  20,
				Available: 10,
				Options:   []model.PurchaseOption{{ID: "starter", Credits: 100, Price: 50000, Label: "Starter"}},
			}
		}}
		h := newTestServer(t, serverOpts{gen: gen})

		// --- Act ---
		rec := doRequest(t, h, http.MethodPost, "/api/v1/videos", bearerToken(t, "user-1"), body)

		// --- Assert ---
		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
		var resp struct {
			Shortfall int                    `json:"shortfall"`
			Options   []model.PurchaseOption `json:"options"`
			Retryable bool                   `json:"retryable"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Shortfall != 10 {
			t.Errorf("expected shortfall 10, got %d", resp.Shortfall)
		}
		if len(resp.Options) != 1 {
			t.Errorf("expected purchase options in the body, got %s", rec.Body.String())
		}
		if resp.Retryable {
			t.Error("insufficient credits must not be flagged retryable")
		}
	})

	t.Run("should answer 504 retryable on a poll timeout", func(t *testing.T) {
		gen := &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			return nil, derror.ErrGenerationTimeout
		}}
		h := newTestServer(t, serverOpts{gen: gen})

		rec := doRequest(t, h, http.MethodPost, "/api/v1/videos", bearerToken(t, "user-1"), body)
		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("expected 504, got %d", rec.Code)
		}
		var resp struct {
			Retryable bool `json:"retryable"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.Retryable {
			t.Error("timeouts should be flagged retryable")
		}
	})

	t.Run("should answer 400 on invalid parameters", func(t *testing.T) {
		gen := &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			return nil, domain.ErrInvalidArgument
		}}
		h := newTestServer(t, serverOpts{gen: gen})

		rec := doRequest(t, h, http.MethodPost, "/api/v1/videos", bearerToken(t, "user-1"), body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("should answer 502 non-retryable on a provider-terminal failure", func(t *testing.T) {
		gen := &stubGenerationUC{GenerateFunc: func(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateResult, error) {
			return nil, derror.ErrGenerationFailed
		}}
		h := newTestServer(t, serverOpts{gen: gen})

		rec := doRequest(t, h, http.MethodPost, "/api/v1/videos", bearerToken(t, "user-1"), body)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		var resp struct {
			Retryable bool `json:"retryable"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Retryable {
			t.Error("provider-terminal failures must not be flagged retryable")
		}
	})
}

func TestHandleVideos(t *testing.T) {
	t.Run("should answer 404 for an unknown or foreign record", func(t *testing.T) {
		h := newTestServer(t, serverOpts{})
		rec := doRequest(t, h, http.MethodGet, "/api/v1/videos/vid-9", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("should list the caller's records", func(t *testing.T) {
		videos := &stubVideoUC{
			GetFunc: func(ctx context.Context, ownerID, id string) (*model.VideoRecord, error) {
				return nil, domain.ErrNotFound
			},
			ListFunc: func(ctx context.Context, ownerID string, since, until time.Time, limit int) ([]*model.VideoRecord, error) {
				return []*model.VideoRecord{{ID: "vid-1", OwnerID: ownerID, PublicURL: "https://files/abc", Status: model.VideoStatusCompleted}}, nil
			},
		}
		h := newTestServer(t, serverOpts{videos: videos})

		rec := doRequest(t, h, http.MethodGet, "/api/v1/videos", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Videos []struct {
				ID string `json:"id"`
			} `json:"videos"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.Videos) != 1 || resp.Videos[0].ID != "vid-1" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("should reject a malformed time bound", func(t *testing.T) {
		h := newTestServer(t, serverOpts{})
		rec := doRequest(t, h, http.MethodGet, "/api/v1/videos?since=yesterday", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleAccount(t *testing.T) {
	t.Run("should report an empty account for a user with no history", func(t *testing.T) {
		h := newTestServer(t, serverOpts{})
		rec := doRequest(t, h, http.MethodGet, "/api/v1/account", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			UserID  string `json:"user_id"`
			Credits int    `json:"credits"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.UserID != "user-1" || resp.Credits != 0 {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("should report the stored balance", func(t *testing.T) {
		ledger := &stubLedgerUC{AccountFunc: func(ctx context.Context, userID string) (*model.CreditAccount, error) {
			return &model.CreditAccount{UserID: userID, Credits: 80, CreditsUsed: 20, VideosGenerated: 1}, nil
		}}
		h := newTestServer(t, serverOpts{ledger: ledger})

		rec := doRequest(t, h, http.MethodGet, "/api/v1/account", bearerToken(t, "user-1"), "")
		var resp struct {
			Credits         int `json:"credits"`
			VideosGenerated int `json:"videos_generated"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Credits != 80 || resp.VideosGenerated != 1 {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestHandlePurchase(t *testing.T) {
	h := newTestServer(t, serverOpts{})

	t.Run("should list the configured options", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/purchase/options", bearerToken(t, "user-1"), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Options []model.PurchaseOption `json:"options"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if len(resp.Options) != 1 || resp.Options[0].ID != "starter" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("should return the redirect URL on initiation", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/v1/purchase", bearerToken(t, "user-1"), `{"option_id":"starter"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["pay_url"] == "" {
			t.Errorf("expected a pay_url, got %s", rec.Body.String())
		}
	})

	t.Run("should confirm a gateway callback without authentication", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/purchase/callback?Authority=auth-1&Status=OK", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["status"] != "succeeded" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestHandleDraftScript(t *testing.T) {
	t.Run("should answer 503 when no generator is configured", func(t *testing.T) {
		h := newTestServer(t, serverOpts{})
		rec := doRequest(t, h, http.MethodPost, "/api/v1/scripts", bearerToken(t, "user-1"), `{"topic":"coffee"}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}
