// Package ai defines the interface for model providers and the prompt
// builders used by the report pipeline.
//
// Design decisions:
//   - Provider is an interface so we can swap backends (Ollama, Gemini)
//     without changing pipeline code. The backend is selected once at
//     startup from configuration.
//   - All methods accept context for cancellation.
//   - Chat options are a typed struct with an Extra map for
//     provider-specific keys; connectors silently ignore what they do
//     not understand.
package ai

import "context"

// ChatOptions carries optional generation parameters. Zero values mean
// "use the provider default". Extra is forwarded verbatim into the
// request body for provider-specific knobs.
type ChatOptions struct {
	NumCtx      int
	MaxTokens   int
	Temperature float64
	Extra       map[string]interface{}
}

// Provider is the interface all model backends must implement.
type Provider interface {
	// EmbedText returns a fixed-length embedding vector for the text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Chat sends a system/user conversation and returns the reply text.
	Chat(ctx context.Context, systemPrompt, userPrompt string, opts *ChatOptions) (string, error)

	// Name returns the provider name for logging.
	Name() string
}
