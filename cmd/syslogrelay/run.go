package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunseba/syslog-forwarder/internal/config"
	"github.com/brunseba/syslog-forwarder/internal/metrics"
	"github.com/brunseba/syslog-forwarder/internal/pipeline"
)

// exitError carries the process exit code a failure should produce (spec
// §6): 2 for pipeline construction errors, 1 for any other runtime failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCodeFor(err error) (int, bool) {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code, true
	}
	return 0, false
}

func newRunCommand(logger *slog.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the syslog relay pipeline until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd.Context(), logger, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the relay configuration file (YAML)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runRelay(ctx context.Context, logger *slog.Logger, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := config.Load(configPath)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("load configuration: %w", err)}
	}

	metricsRegistry := metrics.New()

	p, err := pipeline.Build(snap, metricsRegistry, logger)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("construct pipeline: %w", err)}
	}

	supervisor, err := pipeline.NewSupervisor(p, logger)
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("construct supervisor: %w", err)}
	}

	logger.Info("starting syslog relay",
		"inputs", len(snap.Inputs),
		"destinations", len(snap.Destinations),
		"filters", len(snap.Filters))

	supervisor.Start(ctx)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")
	supervisor.Stop()
	logger.Info("shutdown complete")

	return nil
}
