package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"chatbot/internal/config"
	"chatbot/internal/handler"
	"chatbot/internal/metrics"
	"chatbot/internal/middleware"
	"chatbot/internal/repository/postgres"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"flags", cfg.Flags,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := postgres.Migrate(ctx, pool, postgres.NewTableNames(cfg.TablePrefix)); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	services, err := setupServices(ctx, cfg, pool, logger)
	if err != nil {
		log.Fatalf("Failed to set up services: %v", err)
	}
	defer services.Close()

	metrics.Register(prometheus.DefaultRegisterer)

	// Background jobs
	go services.Janitor.Run(ctx)
	if services.MailWorker != nil {
		go func() {
			if err := services.MailWorker.Run(ctx); err != nil {
				logger.Error("mail worker stopped", "error", err)
			}
		}()
	}

	limiter := middleware.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()

	// Handlers
	chatHandler := handler.NewChatHandler(services.Chat, services.Streaming, nil, logger)
	documentHandler := handler.NewDocumentHandler(services.Documents, logger)
	fileHandler := handler.NewFileHandler(services.Files, cfg.MaxUploadSize, logger)
	authHandler := handler.NewAuthHandler(services.Accounts, cfg.Environment == "prod", logger)
	newsletterHandler := handler.NewNewsletterHandler(services.Newsletter, logger)
	modelsHandler := handler.NewModelsHandler(cfg, services.Providers.Models(), services.Catalog, logger)
	systemHandler := handler.NewSystemHandler(pool, cfg.Flags, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Each route records its own metrics under its pattern
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern)(h))
	}

	route("GET /health", systemHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	route("GET /api/feature-flags", systemHandler.FeatureFlags)
	route("GET /api/models", modelsHandler.GetModels)

	// Chat routes
	route("POST /api/chat", chatHandler.PostChat)
	route("DELETE /api/chat", chatHandler.DeleteChat)
	route("GET /api/chat/{id}", chatHandler.GetChat)
	route("PATCH /api/chat/{id}/visibility", chatHandler.UpdateVisibility)
	route("GET /api/chat/{id}/stream", chatHandler.ResumeStream)
	route("DELETE /api/chat/{id}/stream", chatHandler.StopStream)
	route("DELETE /api/messages/{id}/trailing", chatHandler.DeleteTrailingMessages)
	route("GET /api/history", chatHandler.GetHistory)
	route("GET /api/vote", chatHandler.GetVotes)
	route("POST /api/vote", chatHandler.Vote)
	route("PATCH /api/vote", chatHandler.Vote)

	// Document routes
	route("GET /api/document", documentHandler.GetDocument)
	route("POST /api/document", documentHandler.SaveDocument)
	route("DELETE /api/document", documentHandler.DeleteDocument)
	route("GET /api/suggestions", documentHandler.GetSuggestions)

	// File routes
	route("POST /api/files/upload", fileHandler.Upload)
	route("GET /api/files/{storageId}", fileHandler.Download)

	// Auth routes
	route("GET /api/auth/guest", authHandler.Guest)
	route("POST /api/auth/register", authHandler.Register)
	route("POST /api/auth/login", authHandler.Login)
	route("POST /api/auth/logout", authHandler.Logout)
	route("GET /api/auth/session", authHandler.Session)

	// Newsletter routes
	route("POST /api/newsletter/subscribe", newsletterHandler.Subscribe)
	route("GET /api/newsletter/confirm", newsletterHandler.Confirm)
	route("GET /api/newsletter/unsubscribe", newsletterHandler.Unsubscribe)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestID → RateLimit → Auth → Routes
	var ensure middleware.EnsureUserFunc
	if cfg.AuthJWKSURL != "" {
		ensure = services.Accounts.EnsureUser
	}
	h = middleware.Auth(services.Verifier, ensure, logger)(h)
	h = middleware.RateLimit(limiter)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
