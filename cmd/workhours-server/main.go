// Package main implements the workhours web server: work-hour evaluation
// with holiday-aware calendars, backed by the OpenHolidays API and a local
// SQLite fallback store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmodolix/workhours/pkg/holidaycache"
	"github.com/fmodolix/workhours/pkg/holidaystore"
	"github.com/fmodolix/workhours/pkg/httpapi"
	"github.com/fmodolix/workhours/pkg/openholidays"
)

var (
	port    = flag.String("port", "8080", "Port for web server (or set PORT)")
	dbPath  = flag.String("db", "workhours.db", "SQLite database location (or set DATABASE_LOCATION)")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	version = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("workhours server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if env := os.Getenv("PORT"); env != "" && *port == "8080" {
		*port = env
	}
	if env := os.Getenv("DATABASE_LOCATION"); env != "" && *dbPath == "workhours.db" {
		*dbPath = env
	}

	logger.Info("Server configuration", "port", *port, "db", *dbPath, "verbose", *verbose)

	store, err := holidaystore.Open(*dbPath)
	if err != nil {
		logger.Error("Failed to open holiday store", "db", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close holiday store", "error", err)
		}
	}()

	source := openholidays.NewClient("", &http.Client{Timeout: 15 * time.Second}, logger)
	cache := holidaycache.New(source, store, logger)
	api := httpapi.New(store, cache, logger)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
