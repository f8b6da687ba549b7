package main

import (
	"fmt"
	"net/http"

	"dka-report/internal/analytics"
	"dka-report/internal/chaos"
	"dka-report/internal/config"
	"dka-report/internal/event"
	"dka-report/internal/logging"
	"dka-report/internal/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	variant string
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "dka-report <from> <to> <output.csv>",
		Short: "Write a CSV usage report of assets published on danskkulturarv.dk.",
		Long: `Fetch every object published between <from> and <to> from CHAOS, join
it with play and completion counts from Google Analytics and write one CSV row
per object with descriptive metadata.`,
		Example: `  dka-report 2015-01-01T12:00:00Z 2015-12-30T12:00:00Z output.csv
  dka-report --variant catalog 2015-01-01T12:00:00Z 2015-12-30T12:00:00Z catalog.csv`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd, opts, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVar(&opts.variant, "variant", string(report.VariantUsage), "report variant: usage or catalog")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "optional file with environment overrides")
	return cmd
}

func run(cmd *cobra.Command, opts *options, from, to, output string) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	variant, err := report.ParseVariant(opts.variant)
	if err != nil {
		return err
	}

	logger := logging.New(cmd.OutOrStdout(), cfg.LogLevel)
	runID := uuid.NewString()

	httpClient := &http.Client{Timeout: cfg.Timeout}

	aggregator := analytics.NewAggregator(
		analytics.NewGAClient(cfg.GABaseURL, cfg.GAAccessToken, httpClient),
		cfg.GAPageSize,
		logger,
	)
	fetcher := chaos.NewFetcher(
		chaos.NewClient(cfg.ChaosBaseURL, cfg.ChaosAccessPointGUID, httpClient),
		cfg.ChaosPageSize,
		chaos.Credentials{Email: cfg.ChaosEmail, Password: cfg.ChaosPassword},
		logger,
	)
	builder := report.NewBuilder(report.Settings{
		PrimarySchemaGUID: cfg.PrimarySchemaGUID,
		CrowdSchemaGUID:   cfg.CrowdSchemaGUID,
		DKANamespace:      cfg.DKANamespace,
		CrowdNamespace:    cfg.CrowdNamespace,
		SiteBaseURL:       cfg.SiteBaseURL,
		SlugPathPrefix:    cfg.SlugPathPrefix,
	}, variant, logger)

	// Event publisher (RabbitMQ), only when configured
	var publisher report.Publisher
	if cfg.RabbitURI != "" {
		p, err := event.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, cfg.RabbitRoutingKey, logger)
		if err != nil {
			return fmt.Errorf("failed to init rabbit publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	svc := report.NewService(aggregator, fetcher, builder, publisher, logger)

	eventsQuery := func(action string) analytics.Query {
		return analytics.Query{
			IDs:       cfg.GAIDs,
			Category:  cfg.GAEventCategory,
			Action:    action,
			StartDate: cfg.GAStartDate,
			EndDate:   cfg.GAEndDate,
			Dimension: cfg.GADimension,
			// Labels hold escaped URLs, page paths do not.
			UnescapeKeys: cfg.GADimension == analytics.LabelDimension,
		}
	}

	stats, err := svc.Run(cmd.Context(), report.Params{
		RunID:     runID,
		From:      from,
		To:        to,
		Output:    output,
		Query:     chaos.PublishedBetweenQuery(cfg.Organization, cfg.PublishAccessPoint, from, to),
		Sort:      chaos.PublishedSort(cfg.PublishAccessPoint),
		Plays:     eventsQuery(cfg.GAPlayAction),
		Completes: eventsQuery(cfg.GACompleteAction),
	})
	if err != nil {
		logger.Error().Str("run_id", runID).Err(err).Msg("report failed")
		return err
	}

	return report.PrintSummary(cmd.OutOrStdout(), stats)
}
