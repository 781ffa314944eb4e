package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/chat"
	"github.com/flexonb/mindhack/internal/config"
	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/memory"
	"github.com/flexonb/mindhack/internal/observability"
	"github.com/flexonb/mindhack/internal/session"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Engine       *chat.Engine
	Sessions     *session.Manager
	Store        memory.Store
	StoreBackend string
	ProviderName string
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

type Server struct {
	cfg          config.Config
	engine       *chat.Engine
	sessions     *session.Manager
	store        memory.Store
	storeBackend string
	providerName string
	metrics      *observability.Metrics
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, deps Deps) *Server {
	if deps.Store == nil {
		deps.Store = memory.NewInMemoryStore()
		deps.StoreBackend = "memory"
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewManager(cfg.SessionInactivityTimeout)
	}
	if deps.Engine == nil {
		deps.Engine = chat.New(nil, nil, nil, deps.Logger, deps.Metrics)
	}
	return &Server{
		cfg:          cfg,
		engine:       deps.Engine,
		sessions:     deps.Sessions,
		store:        deps.Store,
		storeBackend: deps.StoreBackend,
		providerName: deps.ProviderName,
		metrics:      deps.Metrics,
		logger:       logging.OrNop(deps.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metricsHandler())

	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Get("/v1/personas", s.handleListPersonas)
	r.Get("/v1/personas/{id}", s.handleGetPersona)
	r.Get("/v1/companions", s.handleListCompanions)
	r.Get("/v1/companions/{id}", s.handleGetCompanion)

	r.Post("/v1/crisis/detect", s.handleDetectCrisis)
	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/score", s.handleScore)

	r.Post("/v1/sessions", s.handleCreateSession)
	r.Get("/v1/sessions/{id}", s.handleGetSession)
	r.Post("/v1/sessions/{id}/messages", s.handleSessionMessage)
	r.Get("/v1/sessions/{id}/transcript", s.handleTranscript)
	r.Delete("/v1/sessions/{id}/transcript", s.handleDeleteTranscript)
	r.Post("/v1/sessions/{id}/end", s.handleEndSession)
	r.Post("/v1/sessions/{id}/cancel", s.handleCancelSession)
	r.Get("/v1/sessions/{id}/ws", s.handleSessionWS)

	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.metrics == nil {
		return http.NotFoundHandler()
	}
	return s.metrics.Handler()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"llm_provider":    s.providerName,
		"store_backend":   s.storeBackend,
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"store_backend": s.storeBackend,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
