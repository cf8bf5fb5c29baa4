package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/datacurio/schemactl/internal/app"
	"github.com/datacurio/schemactl/internal/schema"
	"github.com/datacurio/schemactl/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API exposing manifest generation, validation,
submission, schema queries, and the storage surface.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	serveCmd.Flags().Bool("no-metrics", false, "Disable the /metrics endpoint")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if noMetrics, _ := cmd.Flags().GetBool("no-metrics"); noMetrics {
		cfg.Server.Metrics = false
	}

	engine, closeCache, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("generator service: %w", err)
	}
	meta, err := buildMetadata(cfg)
	if err != nil {
		return fmt.Errorf("metadata service: %w", err)
	}
	store, err := buildStorage(cfg)
	if err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}

	expander := schema.NewExpander(engine)
	resolver := schema.NewResolver(engine)

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Expander:  expander,
		Generator: gen,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	pipeline, err := app.NewPipeline(app.PipelineOptions{
		Engine:  meta,
		TempDir: cfg.Generation.TempDir,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Config:       cfg.Server,
		Orchestrator: orchestrator,
		Pipeline:     pipeline,
		Resolver:     resolver,
		Expander:     expander,
		Storage:      store,
		Logger:       log,
	})

	// Handle graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
