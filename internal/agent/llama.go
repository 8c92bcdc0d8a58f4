package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kairosci/ai-crm/internal/config"
)

// LlamaBackend talks to a llama.cpp server's /completion endpoint.
// Availability is gated on the configured GGUF artifact existing on
// disk, so a deployment without the model degrades instead of failing.
type LlamaBackend struct {
	serverURL   string
	client      *http.Client
	maxTokens   int
	temperature float64
	topP        float64
	stop        []string
}

// NewLlamaBackend verifies the model artifact exists and builds the
// completion client. Returns ErrModelNotFound when the artifact is
// absent.
func NewLlamaBackend(cfg config.AgentConfig) (*LlamaBackend, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}
	return &LlamaBackend{
		serverURL:   cfg.ServerURL,
		client:      &http.Client{Timeout: 120 * time.Second},
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		stop:        []string{"\nObservation:", "Observation:"},
	}, nil
}

// Name identifies the backend in logs and health output.
func (b *LlamaBackend) Name() string { return "llama" }

type llamaCompletionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
	CachePrompt bool     `json:"cache_prompt"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
}

// Complete sends the prompt to the llama.cpp server and returns the
// generated continuation.
func (b *LlamaBackend) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(llamaCompletionRequest{
		Prompt:      prompt,
		NPredict:    b.maxTokens,
		Temperature: b.temperature,
		TopP:        b.topP,
		Stop:        b.stop,
		CachePrompt: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.serverURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned %s: %s", resp.Status, data)
	}

	var out llamaCompletionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	return out.Content, nil
}
