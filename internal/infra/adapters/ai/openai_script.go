package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"avatar-video-platform/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ScriptGenerator = (*OpenAIScriptGenerator)(nil)

const scriptSystemPrompt = "You write short spoken-word scripts for avatar presenter videos. " +
	"Plain conversational sentences, no stage directions, no markdown, no emoji."

// OpenAIScriptGenerator drafts teleprompter scripts via the Chat Completions API.
type OpenAIScriptGenerator struct {
	client openai.Client
	model  string
}

func NewOpenAIScriptGenerator(apiKey, model string) (*OpenAIScriptGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	return &OpenAIScriptGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (g *OpenAIScriptGenerator) GenerateScript(ctx context.Context, topic string, maxTokens int) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(g.model),
		MaxTokens: openai.Int(int64(maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(scriptSystemPrompt),
			openai.UserMessage(topic),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	script := strings.TrimSpace(resp.Choices[0].Message.Content)
	// The provider bills by script length; the cap must hold even when the
	// model overruns it.
	return capTokens(script, g.model, maxTokens), nil
}

func capTokens(text, model string, maxTokens int) string {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if enc, err = tiktoken.GetEncoding("cl100k_base"); err != nil {
			return text
		}
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.TrimSpace(enc.Decode(tokens[:maxTokens]))
}
