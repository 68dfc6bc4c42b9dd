package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qwed-ai/responseguard/internal/config"
	"github.com/qwed-ai/responseguard/internal/httpadapter"
	"github.com/qwed-ai/responseguard/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification service",
	Long: `Start the HTTP verification service. Clients POST agent responses or
proposed tool calls and receive the full verification result:

  POST /v1/verify            {"response": ..., "context": {...}}
  POST /v1/verify/tool-call  {"name": "...", "arguments": {...}}
  GET  /v1/summary
  GET  /metrics`,
	RunE: serveCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if policyPath != "" {
		cfg.Verify.PolicyPath = policyPath
	}
	if packsDir != "" {
		cfg.Verify.PacksDir = packsDir
	}
	if verbose {
		cfg.Verify.Verbose = true
	}

	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	verifier, err := buildVerifier(cfg.Verify.PolicyPath, cfg.Verify.PacksDir)
	if err != nil {
		return fmt.Errorf("failed to load guard set: %w", err)
	}

	reg := prometheus.NewRegistry()
	server := httpadapter.NewServer(verifier, reg, httpadapter.Options{
		BlockOnFailure: cfg.Verify.BlockOnFailure,
		SkipPaths:      cfg.Verify.SkipPaths,
		Verbose:        cfg.Verify.Verbose,
		Logger:         log,
		History:        httpadapter.NewHistory(cfg.Verify.HistorySize),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("verification service listening",
			zap.String("addr", cfg.Server.Addr()),
			zap.Int("guards", len(verifier.Guards())))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
