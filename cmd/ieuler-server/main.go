// Package main initializes and starts the ieuler companion server,
// setting up configuration, logging, the database connection,
// repositories, services, handlers and the HTTP listener.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/config"
	"github.com/liamcryan/ieuler/internal/db"
	"github.com/liamcryan/ieuler/internal/logger"
	"github.com/liamcryan/ieuler/internal/repository"
	"github.com/liamcryan/ieuler/internal/server/handler/http"
	"github.com/liamcryan/ieuler/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Pick up a local .env before reading configuration.
	_ = godotenv.Load()

	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Prune users that never synced anything.
	db.StartStaleUserCleaner(context.Background(), postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize repositories and the business-logic service.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	recordRepo := repository.NewPostgresRecordRepository(postgresDB)
	problemService := service.NewProblemService(userRepo, recordRepo)

	// Create the HTTP handler and build the router.
	problemsHandler := &http.ProblemsHandler{ProblemService: problemService}
	router := http.NewRouter(problemsHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting companion server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start companion server", zap.Error(err))
	}
}
