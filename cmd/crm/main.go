// Command crm runs the CRM API server and a terminal chat client for it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kairosci/ai-crm/internal/agent"
	"github.com/kairosci/ai-crm/internal/config"
	"github.com/kairosci/ai-crm/internal/server"
	"github.com/kairosci/ai-crm/internal/store"
	"github.com/kairosci/ai-crm/internal/tools"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Enterprise CRM API with an AI assistant",
	Long: `crm serves CRUD endpoints for contacts, pipelines, deals and tasks,
plus a conversational assistant that can perform those operations
through a local LLM.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the CRM API server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("crm", server.Version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !verbose {
		if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(level)
			if rebuilt, err := zcfg.Build(); err == nil {
				_ = logger.Sync()
				logger = rebuilt
			}
		}
	}

	st, err := store.Open(cfg.Database.Path, logger.Named("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	registry := tools.NewRegistry()
	tools.RegisterCRM(registry, st)

	backend := initBackend(cmd.Context(), cfg)
	ag := agent.New(registry, backend, cfg.Agent, logger.Named("agent"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, st, ag, logger.Named("server"))
	return srv.Run(ctx)
}

// initBackend builds the configured reasoning backend. A missing model
// artifact or API key is recoverable: the assistant degrades to a fixed
// message and, for the llama backend, the watcher re-arms it when the
// artifact appears.
func initBackend(ctx context.Context, cfg *config.Config) agent.Backend {
	var (
		backend agent.Backend
		err     error
	)
	switch cfg.Agent.Backend {
	case "gemini":
		backend, err = agent.NewGeminiBackend(ctx, cfg.Agent)
	default:
		backend, err = agent.NewLlamaBackend(cfg.Agent)
	}
	if err != nil {
		if errors.Is(err, agent.ErrModelNotFound) {
			logger.Warn("assistant unavailable", zap.Error(err))
			return nil
		}
		logger.Error("failed to initialize reasoning backend", zap.Error(err))
		return nil
	}
	logger.Info("reasoning backend ready", zap.String("backend", backend.Name()))
	return backend
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "crm.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	chatCmd.Flags().StringVar(&chatServerURL, "server", "http://localhost:8000", "CRM server base URL")
	chatCmd.Flags().StringVar(&chatContext, "context", "", "conversation id to thread messages under")

	rootCmd.AddCommand(serveCmd, chatCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
