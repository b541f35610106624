package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"sliptrack/internal/config"
	"sliptrack/internal/database"
	"sliptrack/internal/handlers"
	"sliptrack/internal/live"
	"sliptrack/internal/repository"
	"sliptrack/internal/security"
	"sliptrack/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Change notification: in-process hub, optionally mirrored over
	// Redis when several replicas run against the same database
	hub := live.NewHub()
	var publisher live.Publisher = hub
	if cfg.RedisAddr != "" {
		relay, err := live.NewRelay(hub, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect relay: %v", err)
		}
		defer relay.Close()
		relay.Start(ctx)
		publisher = relay
		log.Printf("Change relay connected (redis: %s)", cfg.RedisAddr)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	rosterService := service.NewRosterService(receiptRepo, studentRepo, publisher)
	statsService := service.NewStatsService(userRepo, statsRepo, publisher)

	// Security helpers
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	loginLimiter := security.NewRateLimiter(10, time.Minute)

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, csrf, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, csrf, googleOAuth, cfg.OAuthRedirectBaseURL)
	rosterHandler := handlers.NewRosterHandler(rosterService, cfg.UploadMaxSize)
	reportHandler := handlers.NewReportHandler(rosterService)
	statsHandler := handlers.NewStatsHandler(statsService)
	viewHandler := handlers.NewViewHandler(rosterService, hub)

	// Set up routes
	mux := http.NewServeMux()

	// Authentication
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)

	// Profile and onboarding
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(authHandler.GetProfile))
	mux.HandleFunc("PUT /api/profile", middleware.RequireAuth(middleware.CSRFProtect(authHandler.SaveProfile)))

	// Receipts and rosters
	mux.HandleFunc("POST /api/receipts/import", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.Import)))
	mux.HandleFunc("GET /api/receipts", middleware.RequireAuth(rosterHandler.List))
	mux.HandleFunc("PUT /api/receipts/{id}/name", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.Rename)))
	mux.HandleFunc("DELETE /api/receipts/{id}", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.Delete)))
	mux.HandleFunc("GET /api/receipts/{id}/students", middleware.RequireAuth(rosterHandler.Students))
	mux.HandleFunc("PUT /api/students/{id}/done", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.SetDone)))
	mux.HandleFunc("PUT /api/students/{id}/note", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.SetNote)))
	mux.HandleFunc("POST /api/receipts/{id}/bulk-done", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.BulkSetDone)))

	// Reports
	mux.HandleFunc("GET /api/receipts/{id}/report", middleware.RequireAuth(reportHandler.Get))
	mux.HandleFunc("GET /report/{id}", middleware.RequireAuth(reportHandler.Page))

	// Live view stream and stats
	mux.HandleFunc("GET /api/view/events", middleware.RequireAuth(viewHandler.Events))
	mux.HandleFunc("GET /api/stats", middleware.RequireAuth(statsHandler.Get))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		// Long-lived SSE connections keep their own heartbeat; the
		// write timeout would cut them off
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}
	}
}
