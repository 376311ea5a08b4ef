package derror

import (
	"errors"
	"fmt"

	"avatar-video-platform/internal/domain/model"
)

var (
	// ErrProviderUnavailable means no usable synthesis credential exists.
	// Structural; retrying within the same request cannot help.
	ErrProviderUnavailable = errors.New("no synthesis credential available")

	// ErrGenerationFailed is the provider's terminal failure status.
	ErrGenerationFailed = errors.New("provider reported generation failed")

	// ErrGenerationTimeout means the poll ceiling was reached without a
	// terminal status. The provider-side job is abandoned, not cancelled.
	ErrGenerationTimeout = errors.New("generation timed out waiting for provider")
)

// InsufficientCreditsError is returned by the ledger preflight so callers can
// render an upgrade prompt instead of a bare failure.
type InsufficientCreditsError struct {
	Required  int
	Available int
	Options   []model.PurchaseOption
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Shortfall() int { return e.Required - e.Available }

// ProviderRequestError carries the provider's rejection verbatim.
type ProviderRequestError struct {
	StatusCode int
	Body       string
}

func (e *ProviderRequestError) Error() string {
	return fmt.Sprintf("provider rejected request: status %d: %s", e.StatusCode, e.Body)
}

// PostProcessingError wraps a local download/decode/crop failure.
type PostProcessingError struct {
	Stage string // "download" | "crop"
	Err   error
}

func (e *PostProcessingError) Error() string {
	return fmt.Sprintf("post-processing %s failed: %v", e.Stage, e.Err)
}

func (e *PostProcessingError) Unwrap() error { return e.Err }

// PublishError wraps a failed upload to the public file host.
type PublishError struct {
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish failed: %v", e.Err)
	}
	return fmt.Sprintf("publish failed: host returned status %d", e.StatusCode)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the whole pipeline can plausibly
// succeed. Insufficient credits and a provider-terminal failure are not worth
// resubmitting unchanged; timeouts and transient infrastructure errors are.
func Retryable(err error) bool {
	var ice *InsufficientCreditsError
	if errors.As(err, &ice) {
		return false
	}
	var pre *ProviderRequestError
	if errors.As(err, &pre) {
		return false
	}
	if errors.Is(err, ErrGenerationFailed) {
		return false
	}
	return true
}
