package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avatar-video-platform/internal/config"
	"avatar-video-platform/internal/domain/ports/adapter"
	aiAdapters "avatar-video-platform/internal/infra/adapters/ai"
	payAdapters "avatar-video-platform/internal/infra/adapters/payment"
	"avatar-video-platform/internal/infra/adapters/publish"
	"avatar-video-platform/internal/infra/adapters/synthesis"
	pg "avatar-video-platform/internal/infra/db/postgres"
	"avatar-video-platform/internal/infra/logging"
	"avatar-video-platform/internal/infra/media"
	"avatar-video-platform/internal/infra/metrics"
	red "avatar-video-platform/internal/infra/redis"
	"avatar-video-platform/internal/infra/sched"
	"avatar-video-platform/internal/infra/web"
	"avatar-video-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop payment gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}
	metrics.Register()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.MaxConns))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (rate limiting only; optional) ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; generation rate limiting disabled")
	}

	// ---- Repositories ----
	accountRepo := pg.NewAccountRepo(pool)
	videoRepo := pg.NewVideoRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)

	// ---- Synthesis pipeline collaborators ----
	credPool := usecase.NewCredentialPool(cfg.Provider.APIKeys, cfg.Provider.KeyQuota)
	provider := synthesis.NewHeyGenProvider(cfg.Provider.BaseURL)
	cleaner := media.NewWatermarkCleaner(cfg.Media.ScratchDir, cfg.Media.FFmpegPath, logger)
	host := publish.NewAnonHost(cfg.Publish.UploadURL, cfg.Publish.Timeout)

	// ---- Payment gateway (ZarinPal, or noop in dev) ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.ZarinPal.MerchantID != "" {
		gateway, err = payAdapters.NewZarinPalGateway(cfg.Payment.ZarinPal.MerchantID, cfg.Payment.ZarinPal.CallbackURL, cfg.Payment.ZarinPal.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("zarinpal gateway")
		}
	} else if cfg.Runtime.Dev {
		logger.Warn().Msg("no payment merchant configured; using noop gateway")
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		logger.Fatal().Msg("payment.zarinpal.merchant_id is required outside dev mode")
	}

	// ---- Script generator (OpenAI -> Gemini; optional) ----
	var scriptGen adapter.ScriptGenerator
	if cfg.AI.OpenAIKey != "" {
		scriptGen, err = aiAdapters.NewOpenAIScriptGenerator(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("script generator: OpenAI")
	} else if cfg.AI.GeminiKey != "" {
		scriptGen, err = aiAdapters.NewGeminiScriptGenerator(ctx, cfg.AI.GeminiKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("script generator: Gemini")
	} else {
		logger.Warn().Msg("no AI key configured; script drafting disabled")
	}

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, cfg.Credits.Packages, logger)
	genUC := usecase.NewGenerationUseCase(
		ledgerUC, credPool, provider, cleaner, host, videoRepo,
		usecase.NewRealClock(),
		cfg.Provider.PollInterval, cfg.Provider.PollAttempts, cfg.Credits.CostPerVideo,
		logger,
	)
	videoUC := usecase.NewVideoUseCase(videoRepo)
	purchaseUC := usecase.NewPurchaseUseCase(paymentRepo, accountRepo, gateway, cfg.Credits.Packages, cfg.Payment.ZarinPal.CallbackURL, logger)
	var scriptUC usecase.ScriptUseCase
	if scriptGen != nil {
		scriptUC = usecase.NewScriptUseCase(scriptGen, cfg.AI.ScriptTokens)
	}

	// ---- Scratch sweeper ----
	sweeper := sched.NewScratchSweeper(cfg.Media.ScratchDir, cfg.Media.SweepEvery, cfg.Media.SweepTTL, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- HTTP server ----
	srv := web.NewServer(genUC, videoUC, ledgerUC, purchaseUC, scriptUC, rateLimiter, cfg.RateLimit.GeneratePerHour, cfg.Security.JWTSecret, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
