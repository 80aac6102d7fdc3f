package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dsmelov/fitpro/internal/config"
	"github.com/dsmelov/fitpro/internal/server"
	"github.com/dsmelov/fitpro/internal/server/handlers"
	"github.com/dsmelov/fitpro/internal/server/jwt"
	"github.com/dsmelov/fitpro/internal/server/mailer"
	"github.com/dsmelov/fitpro/internal/server/middleware"
	"github.com/dsmelov/fitpro/internal/server/storage/sqlite"
)

const (
	envLocal = "local"
	envProd  = "prod"

	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Hour
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional, env-only otherwise)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg := config.MustLoad(*configPath)

	logger := setupLogger(cfg.Env)
	logger.Info("starting fitpro identity service",
		slog.String("env", cfg.Env),
		slog.String("version", Version))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	jwtSvc := jwt.NewService(jwt.Config{
		AccessSecret:    []byte(cfg.Auth.AccessSecret),
		RefreshSecret:   []byte(cfg.Auth.RefreshSecret),
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})

	var mail mailer.Mailer
	if cfg.IsLocal() || cfg.SMTP.Host == "" {
		mail = mailer.NewLogMailer(logger)
	} else {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
	}

	authHandler := handlers.NewAuthHandler(handlers.AuthHandlerConfig{
		Logger:        logger,
		Users:         store,
		Devices:       store,
		Tokens:        store,
		JWT:           jwtSvc,
		Mailer:        mail,
		AppURL:        cfg.AppURL,
		SecureCookies: !cfg.IsLocal(),
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		EphemeralTTL:  cfg.Auth.EphemeralTokenTTL,
	})

	userHandler := handlers.NewUserHandler(logger, store, store)
	healthHandler := handlers.NewHealthHandler(logger, store)

	resetLimiter := middleware.NewRateLimiter(cfg.RateLimit.ResetRequests, cfg.RateLimit.ResetWindow, logger)
	defer resetLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Logger:       logger,
		Auth:         authHandler,
		Users:        userHandler,
		Health:       healthHandler,
		JWT:          jwtSvc,
		Devices:      store,
		ResetLimiter: resetLimiter,
	})

	// Фоновая уборка просроченных одноразовых токенов
	go sweepExpiredTokens(ctx, logger, store)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// sweepExpiredTokens периодически удаляет просроченные одноразовые токены
func sweepExpiredTokens(ctx context.Context, logger *slog.Logger, store *sqlite.Storage) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx, time.Now())
			if err != nil {
				logger.Error("failed to sweep expired tokens", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				logger.Info("swept expired ephemeral tokens", slog.Int("deleted", deleted))
			}
		case <-ctx.Done():
			return
		}
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}

func printVersion() {
	fmt.Printf("fitpro identity service\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
