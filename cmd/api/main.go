// Package main runs the EatRite API server: authentication, dietary
// preferences and the scan/analyze endpoints for the mobile app.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eatrite/backend/internal/app"
	"github.com/eatrite/backend/internal/app/httpapi"
	"github.com/eatrite/backend/internal/config"
	"github.com/eatrite/backend/internal/logging"
	"github.com/eatrite/backend/internal/metrics"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env file")
	configFile := flag.String("config", "config/app.yaml", "Path to optional YAML config override")
	flag.Parse()

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadWithFile(*configFile)
	if err != nil {
		logging.NewDefault("api").WithError(err).Fatal("load configuration")
	}

	log := logging.New("api", cfg.LogLevel, cfg.LogFormat)

	application, err := app.New(cfg, app.Stores{}, log)
	if err != nil {
		log.WithError(err).Fatal("initialise application")
	}

	m := metrics.New()
	handler := httpapi.New(cfg, application, log, m)
	handler.StartCleanup(time.Minute)
	defer handler.Stop()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.HTTPHandler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":    cfg.ListenAddr,
			"prefix":  cfg.APIPrefix,
			"version": cfg.Version,
		}).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}
