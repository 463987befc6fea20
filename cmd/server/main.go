package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/threadwise/threadwise/internal/config"
	"github.com/threadwise/threadwise/internal/handlers"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Threadwise Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  OPENROUTER_API_KEY     LLM provider API key (required)\n")
		fmt.Printf("  TWITTER_BEARER_TOKEN   X API read-access bearer token (required)\n")
		fmt.Printf("  GOOGLE_CLIENT_EMAIL    Service account email for Sheets analytics\n")
		fmt.Printf("  GOOGLE_PRIVATE_KEY     Service account private key for Sheets analytics\n")
		fmt.Printf("  SPREADSHEET_ID         Analytics spreadsheet id\n")
		fmt.Printf("  PORT                   Server port (default: 8080)\n")
		fmt.Printf("  HOST                   Server host (default: 0.0.0.0)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Threadwise Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create server
	server, err := handlers.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup routes
	router := server.SetupRoutes()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Schedule periodic analytics flushes to Sheets
	c := cron.New()
	_, err = c.AddFunc(cfg.FlushSchedule, func() {
		flushCtx, flushCancel := context.WithTimeout(ctx, 30*time.Second)
		defer flushCancel()
		if err := server.FlushAnalytics(flushCtx); err != nil {
			log.Printf("Analytics flush failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule analytics flush: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down server...")

	// Cancel background tasks and stop the scheduler
	cancel()
	c.Stop()

	// Push out anything still buffered before exit
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := server.FlushAnalytics(flushCtx); err != nil {
		log.Printf("Final analytics flush failed: %v", err)
	}
	flushCancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
