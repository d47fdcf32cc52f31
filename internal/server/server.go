package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"movne-gateway/internal/backend"
	"movne-gateway/internal/config"
	"movne-gateway/internal/diagnostics"
	"movne-gateway/internal/relay"
	"movne-gateway/internal/types"
)

// Relayer handles one inbound chat body.
type Relayer interface {
	Relay(ctx context.Context, body io.Reader) (*types.ChatResponse, error)
}

// Checker runs the system diagnostic.
type Checker interface {
	CheckSystem(ctx context.Context) types.SystemStatus
}

type Server struct {
	router  *chi.Mux
	cfg     config.Config
	gateway Relayer
	diag    Checker
}

// NewServer wires the backend client, gateway and diagnostics from cfg.
func NewServer(cfg config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	probes := diagnostics.BackendProbes(backend.NewClient(cfg.BackendBaseURL, cfg.ProbeTimeout), cfg.Provider, cfg.Messages)
	if cfg.OpenAIAPIKey != "" {
		probes = append(probes, diagnostics.OpenAIProbe(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
	}
	diag := diagnostics.NewOrchestrator(probes, cfg.ProbeTimeout, cfg.Messages)

	log.Info().Str("backend", cfg.BackendBaseURL).Str("provider", cfg.Provider).Int("probes", len(probes)).Msg("gateway configured")
	return New(cfg, relay.NewGateway(client), diag), nil
}

// New assembles a Server from already-built parts.
func New(cfg config.Config, gateway Relayer, diag Checker) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	// Longer than the backend timeout so the gateway can still answer 503.
	r.Use(middleware.Timeout(cfg.BackendTimeout + 5*time.Second))

	s := &Server{router: r, cfg: cfg, gateway: gateway, diag: diag}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)
	s.router.NotFound(s.handleNotFound)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/system/check", s.handleSystemCheck)
}

func (s *Server) Router() http.Handler { return s.router }

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting gateway server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gateway server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	log.Info().Msg("gateway server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Relay(r.Context(), r.Body)
	if err != nil {
		s.writeRelayError(w, relay.AsError(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSystemCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.diag.CheckSystem(r.Context()))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{
		Error:   "method not allowed",
		Details: "unsupported method " + r.Method,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "not found"})
}

func (s *Server) writeRelayError(w http.ResponseWriter, e *relay.Error) {
	writeJSON(w, e.StatusCode(), e.Response())
}

// writeJSON encodes without HTML escaping so relayed text is written as-is.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
