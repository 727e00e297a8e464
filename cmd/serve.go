package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/waterprint/waterprint/internal/api"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the waterprint server",
	Long:  `Start the waterprint HTTP API and the scheduled footprint recompute.`,
	Example: `waterprint serve --config config.yml
waterprint serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, _, engine, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	server, err := api.New(cfg, engine)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	log.Info("waterprint started successfully")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	log.Info("shut down gracefully")
	return nil
}
