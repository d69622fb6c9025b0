// Package marketplace wires the configuration, database, GitHub client,
// service and HTTP server into a running application.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenthub-dev/agenthub/internal/marketplace/api"
	v0 "github.com/agenthub-dev/agenthub/internal/marketplace/api/handlers/v0"
	"github.com/agenthub-dev/agenthub/internal/marketplace/auth"
	"github.com/agenthub-dev/agenthub/internal/marketplace/config"
	"github.com/agenthub-dev/agenthub/internal/marketplace/database"
	"github.com/agenthub-dev/agenthub/internal/marketplace/github"
	"github.com/agenthub-dev/agenthub/internal/marketplace/service"
	"github.com/agenthub-dev/agenthub/internal/marketplace/telemetry"
	"github.com/agenthub-dev/agenthub/internal/version"
)

// App runs the marketplace API server until it receives SIGINT or SIGTERM.
func App(_ context.Context) error {
	cfg := config.NewConfig()

	// Create a context with timeout for PostgreSQL connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Only create the JWT authn provider if a signing key is configured
	var authnProvider auth.AuthnProvider
	if cfg.JWTPrivateKey != "" {
		jwtManager, err := auth.NewJWTManager(cfg.JWTPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to initialize JWT manager: %w", err)
		}
		authnProvider = jwtManager
	} else {
		log.Println("Warning: no JWT private key configured; publish and flag endpoints will reject all requests")
	}

	// Database selection: DATABASE_URL="memory" runs against the in-memory
	// store, for local development without Postgres.
	var db database.Database
	if cfg.DatabaseURL == "memory" {
		log.Println("using in-memory database (no persistence)")
		db = database.NewMemory()
	} else {
		pg, err := database.NewPostgreSQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db = pg
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("Database connection closed successfully")
		}
	}()

	gh := github.NewClient(cfg.GithubAPIBaseURL, cfg.GithubAccessToken)
	marketplaceService := service.NewMarketplaceService(db, gh)

	log.Printf("Starting agenthub %s (commit: %s)", version.Version, version.GitCommit)

	versionInfo := v0.VersionBody{
		Version:   version.Version,
		GitCommit: version.GitCommit,
		BuildDate: version.BuildDate,
	}

	shutdownTelemetry, metrics, err := telemetry.InitMetrics(cfg.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %v", err)
	}

	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("Failed to shutdown telemetry: %v", err)
		}
	}()

	server := api.NewServer(cfg, marketplaceService, metrics, versionInfo, authnProvider)

	// Start server in a goroutine so it doesn't block signal handling
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()

	if err := server.Shutdown(sctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
	return nil
}
