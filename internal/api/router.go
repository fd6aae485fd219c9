package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"chat-clone/internal/agent"
	"chat-clone/internal/config"
	"chat-clone/internal/history"
	"chat-clone/internal/upload"
	"chat-clone/internal/web"
)

// Server holds all dependencies for the HTTP server.
type Server struct {
	config  *config.Config
	store   history.Store
	agent   *agent.Service
	uploads *upload.Service
}

// NewServer creates a new server with all dependencies.
func NewServer(cfg *config.Config, store history.Store, agentSvc *agent.Service, uploads *upload.Service) *Server {
	return &Server{
		config:  cfg,
		store:   store,
		agent:   agentSvc,
		uploads: uploads,
	}
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(srv *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(RecovererMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", sessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(AuthMiddleware(srv.config.ChatToken))

	// Page
	r.Get("/", srv.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))
	r.Get("/api/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(srv.config.SessionID))

		// Chat routes
		r.Post("/api/chat", srv.handleChat)
		r.Post("/api/chat-stream", srv.handleChatStream)
		r.Post("/api/chat/stop", srv.handleStopRun)

		// Session routes
		r.Get("/api/history", srv.handleHistory)
		r.Post("/api/reset", srv.handleReset)
		r.Get("/api/sessions", srv.handleSessions)
		r.Get("/api/export", srv.handleExport)

		// Attachments
		r.Post("/api/upload", srv.handleUpload)
	})

	return r
}
