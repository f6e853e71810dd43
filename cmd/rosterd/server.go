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

	"github.com/gin-gonic/gin"
	"github.com/rosterforge/roster-core/internal/api"
	"github.com/rosterforge/roster-core/internal/auth"
	"github.com/rosterforge/roster-core/internal/storage"
	"github.com/rosterforge/roster-core/pkg/roster"
)

// runServe brings up the HTTP front door, generalized from the
// teacher's executeServe in cmd/hereandnow/server.go: load config, open
// the database, run migrations, wire the service, serve, and shut down
// gracefully on SIGINT/SIGTERM.
func runServe(devMode bool) {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := ValidateConfig(config); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if devMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := storage.NewDB(storage.Config{Path: config.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	migrator := storage.NewMigrator(db, migrationsDir())
	if err := migrator.Up(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	repo := storage.NewRepo(db)
	service := roster.NewService(repo)
	verifier := auth.NewVerifier(config.Auth.TokenSecret)

	api.Version = Version
	router := api.NewRouter(service, repo.Bus(), verifier)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("rosterd listening on %s:%d", config.Server.Host, config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("rosterd shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("rosterd shutdown complete")
}

func migrationsDir() string {
	if dir := os.Getenv("ROSTERD_MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "internal/storage/migrations"
}
