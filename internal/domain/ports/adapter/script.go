package adapter

import "context"

// ScriptGenerator is the port for LLM-backed teleprompter script drafting.
type ScriptGenerator interface {
	// GenerateScript turns a topic prompt into spoken-word script text no
	// longer than maxTokens.
	GenerateScript(ctx context.Context, topic string, maxTokens int) (string, error)
}
