package adapter

import (
	"context"

	"avatar-video-platform/internal/domain/model"
)

// SynthesisRequest is what one submit call carries to the provider.
type SynthesisRequest struct {
	AvatarID string
	VoiceID  string
	Script   string
	Dims     model.Dimensions
}

// JobStatus is one poll answer. RawURL is only set for a completed job and
// points at provider-hosted, time-limited storage.
type JobStatus struct {
	State  string // provider vocabulary: "completed", "failed", "processing", ...
	RawURL string
}

const (
	ProviderStateCompleted = "completed"
	ProviderStateFailed    = "failed"
)

// SynthesisProvider is the port for the external avatar-video service.
// Authentication is per call: the caller supplies a pool-selected credential.
// There is deliberately no cancel operation; abandoned jobs run out on the
// provider side.
type SynthesisProvider interface {
	Submit(ctx context.Context, cred *model.Credential, req SynthesisRequest) (jobID string, err error)
	Status(ctx context.Context, cred *model.Credential, jobID string) (JobStatus, error)
}
