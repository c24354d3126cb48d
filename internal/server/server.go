// Package server exposes the HTTP API: account management, task CRUD and the
// conversational endpoint.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/metalagman/donna/internal/auth"
	"github.com/metalagman/donna/internal/chat"
	"github.com/metalagman/donna/internal/task"
)

// Options configures the server beyond its dependencies.
type Options struct {
	// JWTSecret signs and verifies bearer tokens.
	JWTSecret []byte
	// CORSOrigins lists allowed origins. Empty means same-origin only.
	CORSOrigins []string
	// RateLimit and RateWindow bound chat requests per user.
	RateLimit  int
	RateWindow time.Duration
}

// Server provides the HTTP API handlers and state.
type Server struct {
	accounts  *auth.Service
	tasks     task.Store
	chat      *chat.Service
	chatStore *chat.Store
	opts      Options
	limiter   *rateLimiter
}

// NewServer creates an API server over the given services.
func NewServer(accounts *auth.Service, tasks task.Store, chatSvc *chat.Service, chatStore *chat.Store, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &Server{
		accounts:  accounts,
		tasks:     tasks,
		chat:      chatSvc,
		chatStore: chatStore,
		opts:      opts,
		limiter:   newRateLimiter(opts.RateLimit, opts.RateWindow),
	}
}

// Routes returns the router for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/auth/me", s.handleMe)
	protected.HandleFunc("GET /api/tasks", s.handleListTasks)
	protected.HandleFunc("POST /api/tasks", s.handleCreateTask)
	protected.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	protected.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	protected.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	protected.HandleFunc("POST /api/tasks/{id}/complete", s.handleCompleteTask)
	protected.HandleFunc("POST /api/chat", s.handleChat)
	protected.HandleFunc("GET /api/chat/conversations", s.handleListConversations)
	protected.HandleFunc("GET /api/chat/conversations/{id}", s.handleGetConversation)
	mux.Handle("/api/", auth.Middleware(s.opts.JWTSecret)(protected))

	var handler http.Handler = mux
	if len(s.opts.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler(mux)
	}
	return handler
}

func (s *Server) internalError(w http.ResponseWriter, err error, op string) {
	log.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return false
	}
	return true
}
