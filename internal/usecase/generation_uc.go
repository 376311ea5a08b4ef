package usecase

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/adapter"
	"avatar-video-platform/internal/domain/ports/repository"
	derror "avatar-video-platform/internal/error"
	"avatar-video-platform/internal/infra/metrics"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

type GenerateInput struct {
	OwnerID     string
	Script      string
	AvatarID    string
	VoiceID     string
	Orientation model.Orientation
	Custom      model.Dimensions
}

type GenerateResult struct {
	VideoID   string
	PublicURL string
}

// GenerationUseCase runs the whole pipeline synchronously:
// preflight -> acquire credential -> submit -> poll to terminal ->
// watermark clean -> publish -> record write -> ledger commit.
// Scratch files are removed on every exit path. Once started, a run is not
// cancellable by the caller going away; pass a context detached from the
// request to get that behavior.
type GenerationUseCase interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error)
}

type generationUC struct {
	ledger   LedgerUseCase
	pool     *CredentialPool
	provider adapter.SynthesisProvider
	post     adapter.PostProcessor
	host     adapter.FileHost
	videos   repository.VideoRepository
	clock    Clock

	pollInterval time.Duration
	pollAttempts int
	costPerVideo int

	log *zerolog.Logger
}

func NewGenerationUseCase(
	ledger LedgerUseCase,
	pool *CredentialPool,
	provider adapter.SynthesisProvider,
	post adapter.PostProcessor,
	host adapter.FileHost,
	videos repository.VideoRepository,
	clock Clock,
	pollInterval time.Duration,
	pollAttempts int,
	costPerVideo int,
	logger *zerolog.Logger,
) *generationUC {
	l := logger.With().Str("component", "GenerationUC").Logger()
	return &generationUC{
		ledger:       ledger,
		pool:         pool,
		provider:     provider,
		post:         post,
		host:         host,
		videos:       videos,
		clock:        clock,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		costPerVideo: costPerVideo,
		log:          &l,
	}
}

func (g *generationUC) Generate(ctx context.Context, in GenerateInput) (result *GenerateResult, err error) {
	start := g.clock.Now()
	defer func() {
		outcome := "completed"
		if err != nil {
			outcome = outcomeLabel(err)
		}
		metrics.IncGenerations(outcome)
		metrics.ObserveGenerationSeconds(outcome, g.clock.Now().Sub(start).Seconds())
	}()

	if strings.TrimSpace(in.Script) == "" || in.AvatarID == "" || in.VoiceID == "" {
		return nil, domain.ErrInvalidArgument
	}
	dims, err := model.ResolveDimensions(in.Orientation, in.Custom)
	if err != nil {
		return nil, err
	}

	// Advisory balance check; the actual debit happens in Commit after the
	// pipeline fully succeeds.
	if _, err = g.ledger.Preflight(ctx, in.OwnerID, g.costPerVideo); err != nil {
		return nil, err
	}

	cred := g.pool.Acquire()
	if cred == nil {
		return nil, derror.ErrProviderUnavailable
	}

	job := &model.GenerationJob{
		OwnerID:     in.OwnerID,
		Script:      in.Script,
		AvatarID:    in.AvatarID,
		VoiceID:     in.VoiceID,
		Orientation: in.Orientation,
		Dims:        dims,
		State:       model.JobSubmitted,
	}

	job.ProviderJobID, err = g.provider.Submit(ctx, cred, adapter.SynthesisRequest{
		AvatarID: in.AvatarID,
		VoiceID:  in.VoiceID,
		Script:   in.Script,
		Dims:     dims,
	})
	if err != nil {
		return nil, err
	}
	g.log.Info().Str("provider_job_id", job.ProviderJobID).Str("owner_id", in.OwnerID).Msg("job submitted")

	job.RawURL, err = g.awaitTerminal(ctx, cred, job)
	if err != nil {
		return nil, err
	}

	processedPath, err := g.post.Clean(ctx, job.RawURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(processedPath); rmErr != nil && !os.IsNotExist(rmErr) {
			g.log.Warn().Err(rmErr).Str("path", processedPath).Msg("failed to remove processed scratch file")
		}
	}()

	job.PublicURL, err = g.host.Upload(ctx, processedPath)
	if err != nil {
		return nil, err
	}

	rec := model.NewVideoRecord(job)
	if err = g.videos.Save(ctx, nil, rec); err != nil {
		return nil, err
	}

	// Exactly once, and only on this fully-successful path.
	if err = g.ledger.Commit(ctx, in.OwnerID, g.costPerVideo); err != nil {
		return nil, err
	}
	metrics.AddCreditsSpent(g.costPerVideo)

	g.log.Info().Str("video_id", rec.ID).Str("public_url", job.PublicURL).Msg("generation completed")
	return &GenerateResult{VideoID: rec.ID, PublicURL: job.PublicURL}, nil
}

// awaitTerminal drives SUBMITTED -> PENDING -> {COMPLETED|FAILED|TIMED_OUT}.
// A failed status query is swallowed and still consumes an attempt, so the
// ceiling bounds wall-clock time even against a flaky provider. On timeout
// the provider-side job keeps running; there is no cancellation call.
func (g *generationUC) awaitTerminal(ctx context.Context, cred *model.Credential, job *model.GenerationJob) (string, error) {
	job.State = model.JobPending
	for attempt := 1; attempt <= g.pollAttempts; attempt++ {
		if err := g.clock.Sleep(ctx, g.pollInterval); err != nil {
			return "", err
		}
		st, err := g.provider.Status(ctx, cred, job.ProviderJobID)
		if err != nil {
			metrics.IncProviderPolls("error")
			g.log.Debug().Err(err).Int("attempt", attempt).Msg("status query failed; job stays pending")
			continue
		}
		switch st.State {
		case adapter.ProviderStateCompleted:
			metrics.IncProviderPolls("completed")
			job.State = model.JobCompleted
			return st.RawURL, nil
		case adapter.ProviderStateFailed:
			metrics.IncProviderPolls("failed")
			job.State = model.JobFailed
			return "", derror.ErrGenerationFailed
		default:
			metrics.IncProviderPolls("pending")
		}
	}
	job.State = model.JobTimedOut
	return "", derror.ErrGenerationTimeout
}

func outcomeLabel(err error) string {
	var ice *derror.InsufficientCreditsError
	switch {
	case err == nil:
		return "completed"
	case errors.As(err, &ice):
		return "insufficient_credits"
	case errors.Is(err, derror.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, derror.ErrGenerationFailed):
		return "failed"
	case errors.Is(err, derror.ErrGenerationTimeout):
		return "timed_out"
	default:
		return "error"
	}
}
