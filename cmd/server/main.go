package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/gobank/internal/config"
	"github.com/me/gobank/internal/logging"
	"github.com/me/gobank/internal/server"
	"github.com/me/gobank/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.DefaultServerConfig()

	flag.StringVar(&cfg.AuthAddr, "auth-addr", cfg.AuthAddr, "Auth service listen address")
	flag.StringVar(&cfg.BankAddr, "bank-addr", cfg.BankAddr, "Banking service listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (\":memory:\" for a throwaway ledger)")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", envOr("GOBANK_JWT_SECRET", cfg.JWTSecret), "HMAC key for bearer tokens (or GOBANK_JWT_SECRET env)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Lifetime of issued tokens")
	flag.IntVar(&cfg.MaxUsers, "max-users", cfg.MaxUsers, "Registrations allowed (0 = unlimited)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	logger := logging.FromFlags(cfg.LogLevel, cfg.LogFormat, *debug)
	logger.Debug("config", "auth_addr", cfg.AuthAddr, "bank_addr", cfg.BankAddr, logging.Redacted("jwt_secret", cfg.JWTSecret))

	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.DBPath)

	srv := server.New(cfg, st, logger)
	servers := []*http.Server{
		{Addr: cfg.AuthAddr, Handler: srv.AuthHandler()},
		{Addr: cfg.BankAddr, Handler: srv.BankHandler()},
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, hs := range servers {
		g.Go(func() error {
			logger.Info("server starting", "addr", hs.Addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", hs.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		for _, hs := range servers {
			errs = append(errs, hs.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
