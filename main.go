package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/config"
	"tbpedia-dashboard/internal/db"
	"tbpedia-dashboard/internal/logger"
	"tbpedia-dashboard/internal/router"
	"tbpedia-dashboard/internal/services"
	"tbpedia-dashboard/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	log := logger.InitLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("api", cfg.APIBaseURL).Msg("Dashboard starting")
	for _, w := range cfg.Insecure() {
		log.Warn().Msg(w)
	}

	client, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(log.With().Str("component", "apiclient").Logger()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid API base URL")
	}

	var database *sql.DB
	if cfg.DBUrl != "" {
		database, err = db.Open(cfg.DBUrl, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Audit database unavailable")
		}
		defer database.Close()
	} else {
		log.Info().Msg("DB_URL not set, mutation audit is log-only")
	}

	secret, err := sessionSecret(cfg.SessionSecret, rand.Reader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate session secret")
	}

	r := router.SetupRouter(router.Deps{
		Config:       cfg,
		Client:       client,
		AuditService: services.NewAuditService(database, log),
		Navigator:    session.NewNavigator(secret, cfg.CookieSecure, log),
		Logger:       log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// sessionSecret keeps a configured secret of at least 32 bytes and otherwise
// draws a fresh one from src.
func sessionSecret(configured string, src io.Reader) ([]byte, error) {
	if len(configured) >= 32 {
		return []byte(configured), nil
	}
	secret := make([]byte, 32)
	if _, err := io.ReadFull(src, secret); err != nil {
		return nil, fmt.Errorf("read random secret: %w", err)
	}
	return secret, nil
}
