package driven

import "context"

// LLMService provides text generation for answer composition.
// The service is opaque, remote, and may be slow or rate limited;
// callers bound calls with context deadlines.
//
// Implementations may include:
//   - Google Gemini
//   - OpenAI-compatible chat completion APIs
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// JSONOnly asks the provider for a JSON-typed response where the
	// API supports it. Composition still parses defensively.
	JSONOnly bool
}
