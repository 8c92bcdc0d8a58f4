package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Contains(t, cfg.Server.CORSOrigins, "http://localhost:3000")
	assert.Equal(t, "crm.db", cfg.Database.Path)
	assert.Equal(t, "llama", cfg.Agent.Backend)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, 20, cfg.Agent.MemoryWindow)
	assert.Equal(t, 512, cfg.Agent.MaxTokens)
	assert.Equal(t, 0.7, cfg.Agent.Temperature)
	assert.Equal(t, 0.95, cfg.Agent.TopP)
	assert.Equal(t, 2*time.Minute, cfg.Agent.ChatTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
database:
  path: /tmp/test.db
agent:
  backend: gemini
  gemini_api_key: test-key
  max_iterations: 5
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "gemini", cfg.Agent.Backend)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 20, cfg.Agent.MemoryWindow)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRM_ADDR", ":7777")
	t.Setenv("MODEL_PATH", "/models/other.gguf")
	t.Setenv("MODEL_N_CTX", "4096")
	t.Setenv("LLAMA_SERVER_URL", "http://llama:8080")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("CRM_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/models/other.gguf", cfg.Agent.ModelPath)
	assert.Equal(t, 4096, cfg.Agent.ContextWindow)
	assert.Equal(t, "http://llama:8080", cfg.Agent.ServerURL)
	assert.Equal(t, "secret", cfg.Agent.GeminiAPIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrideBadContextWindowIgnored(t *testing.T) {
	t.Setenv("MODEL_N_CTX", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Agent.ContextWindow, cfg.Agent.ContextWindow)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"unknown backend", func(c *Config) { c.Agent.Backend = "gpt4" }},
		{"zero iterations", func(c *Config) { c.Agent.MaxIterations = 0 }},
		{"zero memory window", func(c *Config) { c.Agent.MemoryWindow = 0 }},
		{"temperature too high", func(c *Config) { c.Agent.Temperature = 3 }},
		{"top_p out of range", func(c *Config) { c.Agent.TopP = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
