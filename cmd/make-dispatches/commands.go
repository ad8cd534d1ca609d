package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/platform/config"
	"github.com/nathantilsley/state-dispatcher/internal/platform/logger"
	"github.com/nathantilsley/state-dispatcher/internal/platform/telemetry"
)

const (
	flagConfig       = "config"
	telemetryTimeout = 5 * time.Second
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "make-dispatches",
		Short: "Dispatch built images to the state repositories named in a deployments manifest.",
		Long: `make-dispatches reads the deployments manifest of the calling repository,
expands it against the application, cluster and registry configuration,
resolves each version to an image from the build summary and sends one
repository_dispatch event per state repository and event type.

Inputs are read from INPUT_<NAME> environment variables, as set by the
GitHub Actions runner, and from the optional config files.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	root.PersistentFlags().StringSlice(flagConfig, nil, "YAML or .env files with inputs; environment variables take precedence")

	root.AddCommand(
		newDispatchCmd("run", "Resolve images and send dispatch events.", modeRun),
		newDispatchCmd("plan", "Resolve images and log the dispatch events without sending them.", modePlan),
		newValidateCmd(),
	)
	return root
}

func newDispatchCmd(use, short string, m mode) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, m, func(ctx context.Context, c *Container) error {
				results, err := c.Service.Execute(ctx, c.Request)
				if err != nil {
					return err
				}
				for _, r := range results {
					c.Logger.Info("dispatched", "stateRepo", r.StateRepo, "eventType", r.EventType, "images", r.Images)
				}
				return nil
			})
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest and configuration without resolving versions or dispatching.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, modeValidate, func(ctx context.Context, c *Container) error {
				candidates, err := c.Service.Validate(ctx, c.Request)
				if err != nil {
					return err
				}

				rows := make([]domain.SummaryRow, 0, len(candidates))
				for _, cand := range candidates {
					rows = append(rows, domain.NewSummaryRow(cand, "valid"))
				}
				c.Reporter.Summary(ctx, "Planned dispatches", rows)
				c.Logger.Info("manifest is valid", "candidates", len(candidates))
				return nil
			})
		},
	}
}

// withContainer loads configuration, builds the container for m and runs fn.
func withContainer(cmd *cobra.Command, m mode, fn func(context.Context, *Container) error) error {
	ctx := cmd.Context()

	files, err := cmd.Flags().GetStringSlice(flagConfig)
	if err != nil {
		return err
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.LogLevel)

	tel, err := telemetry.New(ctx, cfg.OTelEnabled, version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdownTelemetry(tel, log)

	container, err := NewContainer(ctx, cfg, m, log, tel)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}
	defer container.Close()

	return fn(ctx, container)
}

func shutdownTelemetry(tel *telemetry.Telemetry, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		log.Warn("flushing telemetry", "error", err)
	}
}
