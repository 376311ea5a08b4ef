package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	derror "avatar-video-platform/internal/error"
	"avatar-video-platform/internal/infra/metrics"
	"avatar-video-platform/internal/usecase"
)

type generateRequest struct {
	Script      string `json:"script"`
	AvatarID    string `json:"avatar_id"`
	VoiceID     string `json:"voice_id"`
	Orientation string `json:"orientation"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

type generateResponse struct {
	VideoID   string `json:"video_id"`
	PublicURL string `json:"public_url"`
}

type videoResponse struct {
	ID          string    `json:"id"`
	Script      string    `json:"script"`
	AvatarID    string    `json:"avatar_id"`
	VoiceID     string    `json:"voice_id"`
	Orientation string    `json:"orientation"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	PublicURL   string    `json:"public_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toVideoResponse(v *model.VideoRecord) videoResponse {
	return videoResponse{
		ID:          v.ID,
		Script:      v.Script,
		AvatarID:    v.AvatarID,
		VoiceID:     v.VoiceID,
		Orientation: string(v.Orientation),
		Width:       v.Dims.Width,
		Height:      v.Dims.Height,
		PublicURL:   v.PublicURL,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt,
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if !s.rateLimitGenerate(r, userID) {
		metrics.IncRateLimited()
		writeError(w, http.StatusTooManyRequests, "generation rate limit reached")
		return
	}

	// A started run must finish even if the client disconnects: provider
	// credits are consumed at submit time, so abandoning the pipeline midway
	// would lose the video the user already paid for.
	ctx := context.WithoutCancel(r.Context())
	res, err := s.genUC.Generate(ctx, usecaseGenerateInput(userID, req))
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, generateResponse{VideoID: res.VideoID, PublicURL: res.PublicURL})
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var ice *derror.InsufficientCreditsError
	var pre *derror.ProviderRequestError

	switch {
	case errors.As(err, &ice):
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":     "insufficient credits",
			"required":  ice.Required,
			"available": ice.Available,
			"shortfall": ice.Shortfall(),
			"options":   ice.Options,
			"retryable": false,
		})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid generation parameters")
	case errors.Is(err, derror.ErrProviderUnavailable):
		s.writeRetryable(w, http.StatusServiceUnavailable, err)
	case errors.As(err, &pre):
		s.writeRetryable(w, http.StatusBadGateway, err)
	case errors.Is(err, derror.ErrGenerationFailed):
		s.writeRetryable(w, http.StatusBadGateway, err)
	case errors.Is(err, derror.ErrGenerationTimeout):
		s.writeRetryable(w, http.StatusGatewayTimeout, err)
	default:
		s.log.Error().Err(err).Msg("generation pipeline failed")
		s.writeRetryable(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeRetryable(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error":     err.Error(),
		"retryable": derror.Retryable(err),
	})
}

func usecaseGenerateInput(userID string, req generateRequest) usecase.GenerateInput {
	return usecase.GenerateInput{
		OwnerID:     userID,
		Script:      req.Script,
		AvatarID:    req.AvatarID,
		VoiceID:     req.VoiceID,
		Orientation: model.Orientation(req.Orientation),
		Custom:      model.Dimensions{Width: req.Width, Height: req.Height},
	}
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	var since, until time.Time
	q := r.URL.Query()
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		until = t
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	recs, err := s.videoUC.List(r.Context(), userID, since, until, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("video list failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]videoResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toVideoResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": out})
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	rec, err := s.videoUC.Get(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		s.log.Error().Err(err).Msg("video lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(rec))
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	err := s.videoUC.Delete(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		s.log.Error().Err(err).Msg("video delete failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	a, err := s.ledger.Account(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No spend or purchase yet; report an empty account, not a 404.
			a = &model.CreditAccount{UserID: userID}
		} else {
			s.log.Error().Err(err).Msg("account lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          a.UserID,
		"credits":          a.Credits,
		"credits_used":     a.CreditsUsed,
		"videos_generated": a.VideosGenerated,
	})
}

func (s *Server) handlePurchaseOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"options": s.purchaseUC.Options()})
}

func (s *Server) handlePurchaseInitiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionID string `json:"option_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionID == "" {
		writeError(w, http.StatusBadRequest, "option_id is required")
		return
	}

	p, payURL, err := s.purchaseUC.Initiate(r.Context(), userIDFrom(r.Context()), req.OptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown purchase option")
			return
		}
		s.log.Error().Err(err).Msg("purchase initiation failed")
		writeError(w, http.StatusBadGateway, "payment gateway unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment_id": p.ID,
		"pay_url":    payURL,
	})
}

func (s *Server) handlePurchaseCallback(w http.ResponseWriter, r *http.Request) {
	authority := r.URL.Query().Get("Authority")
	if authority == "" {
		writeError(w, http.StatusBadRequest, "missing authority")
		return
	}

	p, err := s.purchaseUC.Confirm(r.Context(), authority)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown payment")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  string(p.Status),
		"credits": p.Credits,
	})
}

func (s *Server) handleDraftScript(w http.ResponseWriter, r *http.Request) {
	if s.scriptUC == nil {
		writeError(w, http.StatusServiceUnavailable, "script drafting is not configured")
		return
	}
	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	script, err := s.scriptUC.Draft(r.Context(), req.Topic)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		s.log.Error().Err(err).Msg("script drafting failed")
		writeError(w, http.StatusBadGateway, "script provider unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"script": script})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
