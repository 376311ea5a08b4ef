package usecase

import (
	"context"
	"strings"

	"avatar-video-platform/internal/domain"
	"avatar-video-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ ScriptUseCase = (*scriptUC)(nil)

// ScriptUseCase drafts teleprompter script text via the configured LLM.
type ScriptUseCase interface {
	Draft(ctx context.Context, topic string) (string, error)
}

type scriptUC struct {
	gen       adapter.ScriptGenerator
	maxTokens int
}

func NewScriptUseCase(gen adapter.ScriptGenerator, maxTokens int) *scriptUC {
	return &scriptUC{gen: gen, maxTokens: maxTokens}
}

func (s *scriptUC) Draft(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", domain.ErrInvalidArgument
	}
	return s.gen.GenerateScript(ctx, topic, s.maxTokens)
}
