// Intake assistant server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/scopetalk/scopetalk/internal/api"
	"github.com/scopetalk/scopetalk/internal/config"
	"github.com/scopetalk/scopetalk/internal/genai"
	"github.com/scopetalk/scopetalk/internal/interview"
	"github.com/scopetalk/scopetalk/internal/middleware"
	"github.com/scopetalk/scopetalk/internal/store"
	"github.com/scopetalk/scopetalk/internal/summary"
	"github.com/scopetalk/scopetalk/internal/transcript"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "model", cfg.Engine.Model)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	durable, err := transcript.NewSupabaseStore(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)
	if err != nil {
		slog.Error("Failed to initialize durable transcript store", "error", err)
		os.Exit(1)
	}
	live := transcript.NewMemoryStore()

	engine, err := genai.NewClient(cfg.Engine.APIKey, cfg.Engine.Model, cfg.Engine.Temperature)
	if err != nil {
		slog.Error("Failed to initialize generation engine client", "error", err)
		os.Exit(1)
	}

	processor := interview.NewProcessor(live, durable, engine)
	summaries := summary.NewService(engine)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, live, durable, processor, summaries)
	chatHandler := api.NewChatHandler(baseHandler)
	sessionHandler := api.NewSessionHandler(baseHandler)
	uploadHandler := api.NewUploadHandler(baseHandler)
	summarizeHandler := api.NewSummarizeHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	corsOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	chatHandler.RegisterRoutes(r)
	sessionHandler.RegisterRoutes(r)
	uploadHandler.RegisterRoutes(r)
	summarizeHandler.RegisterRoutes(r)

	// Create server. Generation engine calls ride on the request, so the
	// write timeout doubles as the engine timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
