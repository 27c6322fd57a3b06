package driven

import "context"

// LLMService is the text-completion collaborator. The retrieval engine
// only supplies the grounded-context portion of the prompt; generation
// quality is the provider's concern.
//
// This is an optional service - when nil, the ask flow is disabled and
// retrieval results are returned directly.
type LLMService interface {
	// Generate produces a completion for the assembled prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces a completion as a sequence of text
	// fragments delivered to emit. Returns after the final fragment.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions, emit func(fragment string) error) error

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
