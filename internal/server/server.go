package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/config"
	"github.com/realcredplus/credito/internal/database"
	"github.com/realcredplus/credito/internal/modules/chat"
	"github.com/realcredplus/credito/internal/modules/leads"
	"github.com/realcredplus/credito/internal/modules/simulation"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger
	Config  *config.Config

	LeadsDB   *database.DB
	MetricsDB *database.DB

	SimulationHandler *simulation.Handler
	LeadsHandler      *leads.Handler
	ChatHandler       *chat.Handler

	// Requests per minute per IP on the chat endpoint, 0 disables
	ChatRateLimit int
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	cfg         *config.Config
	leadsDB     *database.DB
	metricsDB   *database.DB
	rateLimiter *RateLimiter
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		leadsDB:   cfg.LeadsDB,
		metricsDB: cfg.MetricsDB,
	}

	if cfg.ChatRateLimit > 0 {
		s.rateLimiter = NewRateLimiter(cfg.ChatRateLimit, time.Minute)
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// The streaming chat path holds the response open while the
		// upstream generates tokens
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Simulation math is quick; a shared timeout keeps it honest
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))

			r.Post("/simulation", cfg.SimulationHandler.HandleSimulate)
			r.Post("/portability", cfg.SimulationHandler.HandlePortability)
			r.Get("/rates", cfg.SimulationHandler.HandleGetRates)

			r.Post("/lead", cfg.LeadsHandler.HandleLead)
			r.Post("/contact", cfg.LeadsHandler.HandleContact)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/health", cfg.ChatHandler.HandleHealth)

			r.Group(func(r chi.Router) {
				if s.rateLimiter != nil {
					r.Use(s.rateLimiter.Middleware)
				}
				r.Post("/", cfg.ChatHandler.HandleChat)
			})
		})
	})

	s.router.Route("/admin", func(r chi.Router) {
		// Chat metrics carries its own BasicAuth check
		r.Get("/chat-metrics", cfg.ChatHandler.HandleMetrics)

		if s.cfg.AdminUser != "" && s.cfg.AdminPass != "" {
			r.Group(func(r chi.Router) {
				r.Use(middleware.BasicAuth("admin", map[string]string{
					s.cfg.AdminUser: s.cfg.AdminPass,
				}))
				r.Get("/leads", cfg.LeadsHandler.HandleListLeads)
				r.Get("/leads/summary", cfg.LeadsHandler.HandleLeadSummary)
			})
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the mux for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
