package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkraft/archverify/internal/adapters/inbound/watch"
	"github.com/openkraft/archverify/internal/adapters/outbound/archive"
	"github.com/openkraft/archverify/internal/adapters/outbound/cache"
	"github.com/openkraft/archverify/internal/adapters/outbound/classparser"
	"github.com/openkraft/archverify/internal/adapters/outbound/design"
	"github.com/openkraft/archverify/internal/adapters/outbound/gitinfo"
	"github.com/openkraft/archverify/internal/adapters/outbound/history"
	"github.com/openkraft/archverify/internal/adapters/outbound/metrics"
	"github.com/openkraft/archverify/internal/adapters/outbound/tui"
	"github.com/openkraft/archverify/internal/application"
	"github.com/openkraft/archverify/internal/domain"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		df          designFlags
		roots       []string
		exclude     []string
		deleteFiles bool
		failFast    bool
		noDebugInfo bool
		noHistory   bool
		noCache     bool
		jsonOutput  bool
		watchMode   bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "verify [path]",
		Short: "Verify compiled classes against the design",
		Long: "Walk the class roots (directories, jars, wars, or single class files), check every class " +
			"reference against the design, and report undeclared packages, architecture violations, " +
			"and unused declarations. Exits non-zero when the design is violated.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := projectDir(args)
			if err != nil {
				return err
			}

			opts, cfg, err := df.loadOptions(cmd, absPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("root") {
				opts.Roots = roots
			}
			if flags.Changed("exclude") {
				opts.Exclude = exclude
			}
			if flags.Changed("delete-files") {
				opts.DeleteFiles = deleteFiles
			}
			if flags.Changed("fail-fast") {
				opts.CollectAll = !failFast
			}
			if flags.Changed("no-debug-info") {
				opts.RequireDebugInfo = !noDebugInfo
			}
			if flags.Changed("no-history") {
				opts.RecordHistory = !noHistory
			}
			if flags.Changed("no-cache") {
				opts.UseCache = !noCache
			}
			if !flags.Changed("metrics-file") {
				metricsFile = cfg.MetricsFile
			}

			logger := a.log()
			svcOpts := []application.VerifyOption{
				application.WithHistory(history.New()),
				application.WithGitInfo(gitinfo.New()),
				application.WithCache(cache.New(), classparser.Version),
				application.WithLogger(logger),
			}
			var rec *metrics.Recorder
			if metricsFile != "" {
				rec = metrics.New()
				svcOpts = append(svcOpts, application.WithMetrics(rec))
				if !filepath.IsAbs(metricsFile) {
					metricsFile = filepath.Join(absPath, metricsFile)
				}
			}
			svc := application.NewVerifyService(
				design.New(),
				archive.New(archive.WithLogger(logger)),
				classparser.New(),
				svcOpts...,
			)

			run := func(ctx context.Context) error {
				report, err := svc.Verify(ctx, opts)
				if err != nil {
					return fmt.Errorf("verification failed: %w", err)
				}
				if rec != nil {
					if err := rec.WriteTextfile(metricsFile); err != nil {
						logger.Warn("writing metrics", zap.String("file", metricsFile), zap.Error(err))
					}
				}
				if jsonOutput {
					if err := renderJSON(cmd, report); err != nil {
						return err
					}
				} else {
					fmt.Fprint(cmd.OutOrStdout(), tui.RenderVerifyReport(report))
				}
				return report.Err()
			}

			if !watchMode {
				return run(cmd.Context())
			}
			return runWatch(cmd, logger, opts, run)
		},
	}

	df.register(cmd)
	cmd.Flags().StringSliceVar(&roots, "root", nil, "Class root: directory, jar, war, or class file (repeatable)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Doublestar pattern of files or archive entries to skip (repeatable)")
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Delete class files and archives that produced violations")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first violation instead of collecting all")
	cmd.Flags().BoolVar(&noDebugInfo, "no-debug-info", false, "Accept classes compiled without line numbers")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in .archverify/history")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Parse every class even if an earlier run analyzed it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Re-verify whenever classes or the design change")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each run")

	return cmd
}

// runWatch verifies once, then again after every burst of changes to the
// class roots or the design, until interrupted.
func runWatch(cmd *cobra.Command, logger *zap.Logger, opts domain.VerifyOptions, run func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report := func(ctx context.Context) error {
		if err := run(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return nil
	}
	_ = report(ctx)

	paths := []string{projectPath(opts, opts.DesignFile)}
	for _, r := range opts.Roots {
		paths = append(paths, projectPath(opts, r))
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes (Ctrl+C to stop)...")
	return watch.New(paths, watch.WithLogger(logger)).Run(ctx, report)
}

func projectPath(opts domain.VerifyOptions, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(opts.ProjectPath, p)
}
