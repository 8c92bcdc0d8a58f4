// Package config loads the CRM service configuration from an optional
// YAML file with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Agent    AgentConfig    `yaml:"agent"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AgentConfig configures the reasoning backend and loop.
type AgentConfig struct {
	// Backend selects the reasoning backend: "llama" or "gemini".
	Backend string `yaml:"backend"`

	// Llama backend: the GGUF artifact gating availability and the
	// llama.cpp server expected to be serving it.
	ModelPath string `yaml:"model_path"`
	ServerURL string `yaml:"server_url"`

	// Gemini backend.
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	// Sampling parameters.
	ContextWindow int     `yaml:"context_window"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	TopP          float64 `yaml:"top_p"`

	// Loop bounds.
	MaxIterations int           `yaml:"max_iterations"`
	MemoryWindow  int           `yaml:"memory_window"`
	ChatTimeout   time.Duration `yaml:"chat_timeout"`

	// WatchModel re-arms the llama backend when the artifact appears
	// after startup.
	WatchModel bool `yaml:"watch_model"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file or overrides are
// present. The agent values mirror the reference deployment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "crm.db",
		},
		Agent: AgentConfig{
			Backend:       "llama",
			ModelPath:     "./models/model.gguf",
			ServerURL:     "http://127.0.0.1:8080",
			GeminiModel:   "gemini-2.0-flash",
			ContextWindow: 2048,
			MaxTokens:     512,
			Temperature:   0.7,
			TopP:          0.95,
			MaxIterations: 3,
			MemoryWindow:  20,
			ChatTimeout:   2 * time.Minute,
			WatchModel:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (when it exists), applies
// environment overrides, and validates the result. An empty path skips
// the file and uses defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CRM_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("CRM_DB"); path != "" {
		c.Database.Path = path
	}
	if path := os.Getenv("MODEL_PATH"); path != "" {
		c.Agent.ModelPath = path
	}
	if v := os.Getenv("MODEL_N_CTX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.ContextWindow = n
		}
	}
	if url := os.Getenv("LLAMA_SERVER_URL"); url != "" {
		c.Agent.ServerURL = url
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Agent.GeminiAPIKey = key
	}
	if level := os.Getenv("CRM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Agent.Backend {
	case "llama", "gemini":
	default:
		return fmt.Errorf("agent.backend must be \"llama\" or \"gemini\", got %q", c.Agent.Backend)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive")
	}
	if c.Agent.MemoryWindow <= 0 {
		return fmt.Errorf("agent.memory_window must be positive")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature must be between 0 and 2")
	}
	if c.Agent.TopP <= 0 || c.Agent.TopP > 1 {
		return fmt.Errorf("agent.top_p must be in (0, 1]")
	}
	return nil
}
