/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the banking ledger service. Handles configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Open SQLite store
  3. Wire registries and the Movement Engine
  4. Optionally seed demo data
  5. Start server with graceful shutdown

ENVIRONMENT:
  PORT                HTTP server port (default: 8080)
  DB_PATH             SQLite database path (default: ./data/bank.db)
                      Use ":memory:" for an in-memory database
  SEED_DEMO_DATA      Load demo clients on an empty database (default: false)
  CORS_ORIGINS        Comma-separated allowed origins (default: *)
  SHUTDOWN_TIMEOUT_S  Graceful shutdown window in seconds (default: 10)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment parsing
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian/banking-ledger/api"
	"github.com/meridian/banking-ledger/config"
	"github.com/meridian/banking-ledger/domain"
	"github.com/meridian/banking-ledger/ledger"
	"github.com/meridian/banking-ledger/registry"
	"github.com/meridian/banking-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	clock := domain.SystemClock{}
	clients := registry.NewClientRegistry(store, clock)
	accounts := registry.NewAccountRegistry(store, clock)
	engine := ledger.New(store, clock)

	if cfg.Seed {
		if err := api.Seed(context.Background(), clients, accounts, engine); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("Demo data seeded")
	}

	handler := api.NewHandler(clients, accounts, engine)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutS)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
