package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/showcase-forge/internal/config"
	"github.com/jonathan/showcase-forge/internal/db"
	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/server"
)

var (
	servePort          int
	serveConfigPath    string
	serveMaxRuns       int
	serveRenderScreens bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the showcase pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT env var or 8080)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().IntVar(&serveMaxRuns, "max-runs", server.DefaultMaxConcurrentRuns, "Maximum concurrent pipeline runs")
	serveCmd.Flags().BoolVar(&serveRenderScreens, "render-screens", false, "Render per-screen images unless a request opts out")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfigPath, func(c *config.Config) {
		if cmd.Flags().Changed("port") {
			c.Port = servePort
		}
		if cmd.Flags().Changed("render-screens") {
			c.RenderScreens = serveRenderScreens
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(cfg.AppEnv)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		MaxConcurrentRuns: serveMaxRuns,
		RenderScreens:     cfg.RenderScreens,
	}, server.Dependencies{
		Pipeline: a.pipeline,
		DB:       database,
		Cache:    a.cache,
		Metrics:  a.metrics,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
