package port

import "context"

// LLM represents a language model for text generation. No structured
// output is assumed from the provider; callers parse defensively.
type LLM interface {
	// Generate invokes the model synchronously with the prompt and
	// returns its raw text output.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
