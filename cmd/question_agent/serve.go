package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/config"
	"github.com/jonathan/sop-question-agent/internal/db"
	"github.com/jonathan/sop-question-agent/internal/logging"
	"github.com/jonathan/sop-question-agent/internal/server"
	"github.com/jonathan/sop-question-agent/internal/server/ratelimit"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the question pipeline over REST.

Runs are persisted when DATABASE_URL is set. Client credentials (AUTH_CLIENTS)
together with JWT_SECRET enable bearer-token authentication.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides SERVICE_PORT)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	var runStore server.RunStore
	if store != nil {
		defer store.Close()
		runStore = store
	}

	opts, err := serverOptions(cfg, reg)
	if err != nil {
		return err
	}

	srv, err := server.New(a.pipeline, runStore, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("redaction_backend", cfg.RedactionBackend),
		zap.Bool("persistence", store != nil),
		zap.Bool("auth", cfg.AuthEnabled()),
	)
	return srv.Start(ctx)
}

// openStore connects to the run store when a database URL is configured.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; runs will not be persisted")
		return nil, nil
	}
	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return store, nil
}

// serverOptions maps the loaded configuration onto server options.
func serverOptions(cfg *config.Config, reg *prometheus.Registry) (server.Options, error) {
	jwtCfg, err := cfg.JWT()
	if err != nil {
		return server.Options{}, err
	}
	opts := server.Options{
		Port:               cfg.Port,
		RunTimeout:         cfg.RunTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:          ratelimit.NewConfig(cfg.RateLimitEnabled, cfg.RateLimitRunPerHour, cfg.RateLimitRunBurst),
		JWT:                jwtCfg,
		Clients:            cfg.AuthClients,
		Registry:           reg,
	}
	if len(cfg.AuthClients) > 0 {
		secrets, err := cfg.Secrets()
		if err != nil {
			return server.Options{}, err
		}
		opts.Secrets = secrets
	}
	return opts, nil
}
