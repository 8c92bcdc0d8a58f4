package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/kairosci/ai-crm/internal/config"
)

// GeminiBackend runs the reasoning loop against the Gemini API. Used
// when no local model artifact is deployed.
type GeminiBackend struct {
	client *genai.Client
	model  string
	cfg    config.AgentConfig
}

// NewGeminiBackend builds the Gemini client. Returns ErrModelNotFound
// when no API key is configured, so the assistant degrades the same way
// it does for a missing GGUF artifact.
func NewGeminiBackend(ctx context.Context, cfg config.AgentConfig) (*GeminiBackend, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrModelNotFound)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiBackend{client: client, model: cfg.GeminiModel, cfg: cfg}, nil
}

// Name identifies the backend in logs and health output.
func (b *GeminiBackend) Name() string { return "gemini" }

// Complete sends the prompt and returns the generated continuation.
func (b *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := b.client.Models.GenerateContent(ctx, b.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(b.cfg.Temperature)),
			TopP:            genai.Ptr(float32(b.cfg.TopP)),
			MaxOutputTokens: int32(b.cfg.MaxTokens),
			StopSequences:   []string{"Observation:"},
		})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return result.Text(), nil
}
