package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ragcheck/internal/domain"
)

// Gemini is a language-model client for the Google Generative AI API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini client. The API key is read from the
// environment variable named by apiKeyEnv.
func NewGemini(ctx context.Context, apiKeyEnv, model string, temperature float32) (*Gemini, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Generate invokes the model synchronously and returns the raw text of
// the first candidate. Failures wrap domain.ErrModelInvocation; the
// call is not retried here.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelInvocation, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrModelInvocation, g.model)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (g *Gemini) ModelName() string {
	return g.model
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
