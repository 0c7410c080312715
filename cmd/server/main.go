package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/tendant/content-repository/pkg/contentrepo"
	"github.com/tendant/content-repository/pkg/contentrepo/api"
	"github.com/tendant/content-repository/pkg/contentrepo/config"
	"github.com/tendant/content-repository/pkg/contentrepo/imaging"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println("Content repository server. Environment variables:")
		fmt.Println(config.Usage())
		return
	}

	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	logger := newLogger(serverConfig.Environment)
	slog.SetDefault(logger)

	repo, err := serverConfig.BuildRepository(context.Background(), logger)
	if err != nil {
		log.Fatalf("Failed to build repository: %v", err)
	}

	server := NewHTTPServer(repo, serverConfig, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	go func() {
		logger.Info("Content repository server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"storage", serverConfig.StorageType,
			"max_file_size", serverConfig.MaxFileSize,
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// HTTPServer wires the content repository into an HTTP router
type HTTPServer struct {
	repo   *contentrepo.Repository
	config *config.ServerConfig
	logger *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(repo *contentrepo.Repository, serverConfig *config.ServerConfig, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		repo:   repo,
		config: serverConfig,
		logger: logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.TenantMiddleware(s.config.DefaultTenant))
	r.Use(api.LoggingMiddleware(s.logger))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+api.TenantHeader)

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)

	handler := api.NewHandler(s.repo, imaging.NewResizer(s.logger),
		api.WithLogger(s.logger),
		api.WithMaxFileSize(s.config.MaxFileSize),
	)
	r.Mount("/", handler.Routes())

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":       "healthy",
		"environment":  s.config.Environment,
		"storage":      s.config.StorageType,
		"storage_type": s.repo.StorageType().String(),
	})
}
