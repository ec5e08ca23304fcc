package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"PageDrift/internal/app"
	"PageDrift/internal/config"
	"PageDrift/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pagedrift",
		Short: "Count vocabulary terms and diff outbound links across archived page snapshots",
		Long: `pagedrift resolves Wayback Machine snapshots of a fixed URL list inside
two date windows, counts vocabulary terms in the boilerplate-free text and
diffs the outbound-link structure between the windows.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML config (defaults to $PAGEDRIFT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(newCountCmd(opts), newDiffCmd(opts))
	return rootCmd
}

func newCountCmd(root *rootOptions) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Build the URL x term count matrix for one period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := root.build(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.RunCount(cmd.Context(), period); err != nil {
				logger.Error("count failed", "period", period, "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "a", "period to count (a or b)")
	return cmd
}

func newDiffCmd(root *rootOptions) *cobra.Command {
	var opts app.DiffOptions

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff the outbound-link structure of period A against period B",
		Long: `diff builds one adjacency matrix per period and writes the categorical
edge list. Snapshots come from --resolved-a/--resolved-b CSV files written by
"count", from the run store with --from-store, or are resolved from the archive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := root.build(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.RunDiff(cmd.Context(), opts); err != nil {
				logger.Error("diff failed", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ResolvedA, "resolved-a", "", "CSV of resolved snapshots for period A")
	cmd.Flags().StringVar(&opts.ResolvedB, "resolved-b", "", "CSV of resolved snapshots for period B")
	cmd.Flags().BoolVar(&opts.FromStore, "from-store", false, "load resolved snapshots from the run store")
	return cmd
}

func (o *rootOptions) build(cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return nil, nil, err
	}
	return application, logger, nil
}
