package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"avatar-video-platform/internal/domain/ports/adapter"
)

var _ adapter.ScriptGenerator = (*GeminiScriptGenerator)(nil)

// GeminiScriptGenerator is the fallback script drafter using the official
// Gemini SDK.
type GeminiScriptGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiScriptGenerator(ctx context.Context, apiKey, model string) (*GeminiScriptGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiScriptGenerator{client: c, model: model}, nil
}

func (g *GeminiScriptGenerator) GenerateScript(ctx context.Context, topic string, maxTokens int) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(topic),
		&genai.GenerateContentConfig{
			MaxOutputTokens:   int32(maxTokens),
			SystemInstruction: genai.NewContentFromText(scriptSystemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty completion")
	}
	return text, nil
}
