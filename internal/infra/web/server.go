package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"avatar-video-platform/internal/infra/redis"
	"avatar-video-platform/internal/usecase"
)

// Server is the HTTP surface of the orchestrator.
type Server struct {
	genUC      usecase.GenerationUseCase
	videoUC    usecase.VideoUseCase
	ledger     usecase.LedgerUseCase
	purchaseUC usecase.PurchaseUseCase
	scriptUC   usecase.ScriptUseCase // nil when no AI provider is configured
	limiter    *redis.RateLimiter
	genPerHour int
	jwtSecret  []byte
	log        *zerolog.Logger
}

func NewServer(
	genUC usecase.GenerationUseCase,
	videoUC usecase.VideoUseCase,
	ledger usecase.LedgerUseCase,
	purchaseUC usecase.PurchaseUseCase,
	scriptUC usecase.ScriptUseCase,
	limiter *redis.RateLimiter,
	genPerHour int,
	jwtSecret string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		genUC:      genUC,
		videoUC:    videoUC,
		ledger:     ledger,
		purchaseUC: purchaseUC,
		scriptUC:   scriptUC,
		limiter:    limiter,
		genPerHour: genPerHour,
		jwtSecret:  []byte(jwtSecret),
		log:        &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The payment gateway redirects the user's browser here; no JWT present.
	r.Get("/api/v1/purchase/callback", s.handlePurchaseCallback)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/videos", s.handleGenerate)
		r.Get("/videos", s.handleListVideos)
		r.Get("/videos/{id}", s.handleGetVideo)
		r.Delete("/videos/{id}", s.handleDeleteVideo)

		r.Get("/account", s.handleAccount)
		r.Get("/purchase/options", s.handlePurchaseOptions)
		r.Post("/purchase", s.handlePurchaseInitiate)

		r.Post("/scripts", s.handleDraftScript)
	})
	return r
}

// rateLimitGenerate enforces the per-user generation ceiling. A redis outage
// fails open: generation availability beats strict limiting.
func (s *Server) rateLimitGenerate(r *http.Request, userID string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(r.Context(), redis.UserActionKey(userID, "generate"), s.genPerHour, time.Hour)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		return true
	}
	return ok
}
