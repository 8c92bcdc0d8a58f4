package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/config"
)

// Watcher re-arms the llama backend when the model artifact appears
// after startup, so a deployment that boots without the GGUF file
// recovers without a restart.
type Watcher struct {
	agent *Agent
	cfg   config.AgentConfig
	log   *zap.Logger
}

// NewWatcher creates a watcher for the agent's configured model path.
func NewWatcher(a *Agent, cfg config.AgentConfig, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{agent: a, cfg: cfg, log: log}
}

// Run watches the model directory until ctx is cancelled. The directory
// must exist; watching a missing directory is reported as an error so
// the caller can decide whether that matters.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create model watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.cfg.ModelPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.log.Info("watching for model artifact", zap.String("path", w.cfg.ModelPath))

	target, err := filepath.Abs(w.cfg.ModelPath)
	if err != nil {
		target = w.cfg.ModelPath
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || path != target {
				continue
			}
			if w.agent.Available() {
				continue
			}
			backend, err := NewLlamaBackend(w.cfg)
			if err != nil {
				w.log.Warn("model artifact appeared but backend init failed", zap.Error(err))
				continue
			}
			w.agent.SetBackend(backend)
			w.log.Info("model artifact found, assistant enabled", zap.String("path", w.cfg.ModelPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("model watcher error", zap.Error(err))
		}
	}
}
