// Command reportgen generates an executive report for one tenant and date
// range from the command line, without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/posture-report/internal/bootstrap"
	"github.com/jonesrussell/posture-report/internal/config"
	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/report"
	"github.com/jonesrussell/posture-report/internal/stats"
)

const generateArgCount = 3

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "reportgen",
		Short:        "Generate executive security-posture reports",
		SilenceUsage: true,
	}

	root.AddCommand(newGenerateCommand())
	root.AddCommand(newRenderCommand())
	return root
}

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <tenant> <start_date> <end_date>",
		Short: "Query the platform and write the report artifacts",
		Long: "Aggregates statistics for the tenant over the inclusive date range " +
			"(YYYY-MM-DD) and writes the HTML report, PDF summary, critical-case " +
			"CSV and JSON snapshot. Use an empty tenant (\"\") to report across " +
			"all tenants.",
		Args: cobra.ExactArgs(generateArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], args[1], args[2])
		},
	}
}

func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render <tenant> <start_date> <end_date>",
		Short: "Re-render the report from a saved snapshot without re-querying",
		Args:  cobra.ExactArgs(generateArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], args[1], args[2])
		},
	}
}

func runGenerate(ctx context.Context, tenant, startDate, endDate string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	platform, err := bootstrap.SetupPlatformClient(cfg)
	if err != nil {
		return err
	}
	usageClient, err := bootstrap.SetupUsageClient(cfg)
	if err != nil {
		return err
	}

	var usageReader stats.UsageReader
	var resolver stats.TenantResolver = platform
	if usageClient != nil {
		usageReader = usageClient
		resolver = usageClient
	}

	service := stats.NewService(platform, platform, resolver, usageReader, cfg.Platform.OrgID, log)

	log.Info("building report",
		logger.String("tenant", tenant),
		logger.String("start_date", startDate),
		logger.String("end_date", endDate),
	)

	snap, err := service.Build(ctx, tenant, startDate, endDate)
	if err != nil {
		return err
	}

	artifacts, err := report.NewStore(cfg.Reports.Dir).Write(snap)
	if err != nil {
		return err
	}

	fmt.Println(artifacts.PDFPath)
	return nil
}

func runRender(tenant, startDate, endDate string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store := report.NewStore(cfg.Reports.Dir)
	snap, err := store.LoadSnapshot(tenant, startDate, endDate)
	if err != nil {
		return err
	}

	artifacts, err := store.Write(snap)
	if err != nil {
		return err
	}

	fmt.Println(artifacts.PDFPath)
	return nil
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
