package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"avatar-video-platform/internal/domain/model"
	"avatar-video-platform/internal/domain/ports/adapter"
	derror "avatar-video-platform/internal/error"
)

var _ adapter.SynthesisProvider = (*HeyGenProvider)(nil)

// HeyGenProvider implements adapter.SynthesisProvider against the HeyGen-style
// REST API: one submit call returning a video id, one status call per poll.
// The API key travels per call in a header, supplied by the credential pool.
type HeyGenProvider struct {
	baseURL string
	client  *http.Client
}

func NewHeyGenProvider(baseURL string) *HeyGenProvider {
	return &HeyGenProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type submitPayload struct {
	AvatarID  string           `json:"avatar_id"`
	VoiceID   string           `json:"voice_id"`
	InputText string           `json:"input_text"`
	Dimension model.Dimensions `json:"dimension"`
	Test      bool             `json:"test"`
}

type submitResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

func (p *HeyGenProvider) Submit(ctx context.Context, cred *model.Credential, req adapter.SynthesisRequest) (string, error) {
	if cred == nil {
		return "", derror.ErrProviderUnavailable
	}
	body, err := json.Marshal(submitPayload{
		AvatarID:  req.AvatarID,
		VoiceID:   req.VoiceID,
		InputText: req.Script,
		Dimension: req.Dims,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/video.generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", cred.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit synthesis job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &derror.ProviderRequestError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.Data.VideoID == "" {
		return "", errors.New("provider returned no video id")
	}
	return out.Data.VideoID, nil
}

type statusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
	} `json:"data"`
}

func (p *HeyGenProvider) Status(ctx context.Context, cred *model.Credential, jobID string) (adapter.JobStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/video_status.get?video_id="+jobID, nil)
	if err != nil {
		return adapter.JobStatus{}, err
	}
	httpReq.Header.Set("X-Api-Key", cred.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return adapter.JobStatus{}, fmt.Errorf("query job status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return adapter.JobStatus{}, &derror.ProviderRequestError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.JobStatus{}, fmt.Errorf("decode status response: %w", err)
	}
	return adapter.JobStatus{State: out.Data.Status, RawURL: out.Data.VideoURL}, nil
}
