// Package server exposes the CRM over HTTP: CRUD endpoints per entity
// under /api/v1 plus the assistant chat endpoint. Routing uses the
// standard library mux with method patterns.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kairosci/ai-crm/internal/agent"
	"github.com/kairosci/ai-crm/internal/config"
	"github.com/kairosci/ai-crm/internal/store"
)

// Version is reported by the banner and health endpoints.
const Version = "1.0.0"

// Server wires the store and agent behind the HTTP API.
type Server struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	agent *agent.Agent
	convs *agent.Conversations
	http  *http.Server
}

// New builds the server and its route table.
func New(cfg *config.Config, st *store.Store, ag *agent.Agent, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:   cfg,
		log:   log,
		store: st,
		agent: ag,
		convs: agent.NewConversations(cfg.Agent.MemoryWindow),
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/contacts", s.createContact)
	mux.HandleFunc("GET /api/v1/contacts", s.listContacts)
	mux.HandleFunc("GET /api/v1/contacts/{id}", s.getContact)
	mux.HandleFunc("PUT /api/v1/contacts/{id}", s.updateContact)
	mux.HandleFunc("DELETE /api/v1/contacts/{id}", s.deleteContact)

	mux.HandleFunc("POST /api/v1/pipelines", s.createPipeline)
	mux.HandleFunc("GET /api/v1/pipelines", s.listPipelines)
	mux.HandleFunc("GET /api/v1/pipelines/{id}", s.getPipeline)
	mux.HandleFunc("PUT /api/v1/pipelines/{id}", s.updatePipeline)
	mux.HandleFunc("DELETE /api/v1/pipelines/{id}", s.deletePipeline)

	mux.HandleFunc("POST /api/v1/deals", s.createDeal)
	mux.HandleFunc("GET /api/v1/deals", s.listDeals)
	mux.HandleFunc("GET /api/v1/deals/{id}", s.getDeal)
	mux.HandleFunc("PUT /api/v1/deals/{id}", s.updateDeal)
	mux.HandleFunc("DELETE /api/v1/deals/{id}", s.deleteDeal)

	mux.HandleFunc("POST /api/v1/tasks", s.createTask)
	mux.HandleFunc("GET /api/v1/tasks", s.listTasks)
	mux.HandleFunc("GET /api/v1/tasks/{id}", s.getTask)
	mux.HandleFunc("PUT /api/v1/tasks/{id}", s.updateTask)
	mux.HandleFunc("DELETE /api/v1/tasks/{id}", s.deleteTask)

	mux.HandleFunc("POST /api/v1/chat", s.handleChat)

	var handler http.Handler = mux
	handler = s.withCORS(handler)
	handler = s.withLogging(handler)
	handler = s.withRecovery(handler)
	return handler
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully. When
// model watching is enabled the artifact watcher runs alongside the
// listener.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http server listening", zap.String("addr", s.cfg.Server.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.cfg.Agent.WatchModel && s.cfg.Agent.Backend == "llama" && !s.agent.Available() {
		watcher := agent.NewWatcher(s.agent, s.cfg.Agent, s.log)
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil {
				// The watcher is best-effort; a missing model directory
				// should not take the API down.
				s.log.Warn("model watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Enterprise CRM API",
		"version": Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "healthy", "agent_available": s.agent.Available()}
	if b := s.agent.Backend(); b != nil {
		status["agent_backend"] = b.Name()
	}
	writeJSON(w, http.StatusOK, status)
}
