// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gigdir/gigdir/internal/access"
	"github.com/gigdir/gigdir/internal/auth"
	authpg "github.com/gigdir/gigdir/internal/auth/postgres"
	"github.com/gigdir/gigdir/internal/config"
	"github.com/gigdir/gigdir/internal/email"
	"github.com/gigdir/gigdir/internal/httpapi"
	"github.com/gigdir/gigdir/internal/logging"
	"github.com/gigdir/gigdir/internal/observability"
	"github.com/gigdir/gigdir/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server, the metrics endpoint, and the
background password hashing pool.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	// Flag names mirror config file keys so either source can set them.
	// Flag defaults match config.Default; explicitly set flags win over
	// the file, unchanged ones do not.
	defaults := config.Default()
	cmd.Flags().String("server.addr", defaults.Server.Addr, "HTTP listen address")
	cmd.Flags().String("server.base_url", defaults.Server.BaseURL, "external base URL for reset links")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("metrics.addr", defaults.Metrics.Addr, "metrics listen address")
	cmd.Flags().String("log.format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("log.level", defaults.Log.Level, "log level (debug, info, warn, error)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.SetDefault(logging.Options{
		Service: "gigdir",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Metrics.Addr,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	users := authpg.NewUserRepository(pool)
	tokens := authpg.NewResetTokenRepository(pool)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsServer := observability.NewServer(cfg.Metrics.Addr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	}, logger)

	hasher, err := auth.NewPooledHasherWithObserver(auth.NewArgon2idHasher(),
		int64(cfg.Auth.HashWorkers), obsServer.Metrics().RecordHashDuration)
	if err != nil {
		return err
	}

	svc, err := auth.NewServiceWithLogger(users, hasher, logger)
	if err != nil {
		return err
	}
	resets, err := auth.NewResetServiceWithLogger(users, tokens, hasher, logger)
	if err != nil {
		return err
	}
	codec, err := auth.NewTokenCodec(cfg.Auth.TokenSecret)
	if err != nil {
		return err
	}

	postmark, err := email.NewClient(cfg.Email.Endpoint, cfg.Email.From, cfg.Email.ServerToken, email.DefaultTimeout)
	if err != nil {
		return err
	}
	mailer, err := email.NewResetMailer(postmark, cfg.Server.BaseURL)
	if err != nil {
		return err
	}

	obsErrChan, err := obsServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
	logger.Info("observability server started", "addr", obsServer.Addr())

	handlers, err := httpapi.NewHandlers(httpapi.HandlersConfig{
		Validator: svc,
		Changer:   svc,
		Resets:    resets,
		Mailer:    mailer,
		Issuer:    codec,
		Gate:      access.NewGate(),
		Metrics:   obsServer.Metrics(),
		TokenTTL:  cfg.Auth.TokenTTL,
		Logger:    logger,
	})
	if err != nil {
		stopServer(obsServer.Stop, "observability", logger)
		return err
	}

	authn := httpapi.NewAuthenticator(codec, logger)
	router := httpapi.NewRouter(handlers, authn, logger)
	apiServer := httpapi.NewServer(cfg.Server.Addr, router, logger)

	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopServer(obsServer.Stop, "observability", logger)
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "http-api", logger)

	logger.Info("server ready", "addr", apiServer.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down")
	stopServer(apiServer.Stop, "http-api", logger)
	stopServer(obsServer.Stop, "observability", logger)
	logger.Info("shutdown complete")
	return nil
}

// stopServer stops a server with a bounded timeout, logging any error.
func stopServer(stop func(context.Context) error, name string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors watches a server's error channel and cancels the
// process context on failure so the other server shuts down too. It
// exits when an error arrives, the channel closes, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
