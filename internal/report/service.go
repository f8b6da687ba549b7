// Package report joins CHAOS objects with analytics counts into a CSV report.
package report

import (
	"context"
	"fmt"

	"dka-report/internal/analytics"
	"dka-report/internal/chaos"
	"dka-report/internal/event"

	"github.com/rs/zerolog"
)

type EventAggregator interface {
	AggregateEvents(ctx context.Context, q analytics.Query) (map[string]int, error)
}

type ObjectFetcher interface {
	FetchAll(ctx context.Context, query, sort string) ([]chaos.Object, error)
}

type Publisher interface {
	PublishReportGenerated(ctx context.Context, msg event.ReportGenerated) error
}

// Params describe one report run.
type Params struct {
	RunID     string
	From      string
	To        string
	Output    string
	Query     string
	Sort      string
	Plays     analytics.Query
	Completes analytics.Query
}

type Service struct {
	events    EventAggregator
	objects   ObjectFetcher
	builder   *Builder
	variant   Variant
	publisher Publisher
	logger    zerolog.Logger
}

// NewService wires a report run. publisher may be nil.
func NewService(events EventAggregator, objects ObjectFetcher, builder *Builder, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		events:    events,
		objects:   objects,
		builder:   builder,
		variant:   builder.variant,
		publisher: publisher,
		logger:    logger,
	}
}

// Run collects analytics and objects, then writes the report to p.Output.
// Any fatal error leaves no file at p.Output.
func (s *Service) Run(ctx context.Context, p Params) (Stats, error) {
	logger := s.logger.With().Str("run_id", p.RunID).Logger()

	var counts Counts
	if s.variant.NeedsAnalytics() {
		var err error
		if counts.Plays, err = s.events.AggregateEvents(ctx, p.Plays); err != nil {
			return Stats{}, fmt.Errorf("aggregate plays: %w", err)
		}
		if counts.Completes, err = s.events.AggregateEvents(ctx, p.Completes); err != nil {
			return Stats{}, fmt.Errorf("aggregate completes: %w", err)
		}
		logger.Info().
			Int("play_keys", len(counts.Plays)).
			Int("complete_keys", len(counts.Completes)).
			Msg("analytics aggregated")
	}

	logger.Info().Str("query", p.Query).Msg("Requesting objects")
	objects, err := s.objects.FetchAll(ctx, p.Query, p.Sort)
	if err != nil {
		return Stats{}, fmt.Errorf("fetch objects: %w", err)
	}

	sink, err := CreateFileSink(p.Output)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = sink.Abort() }()

	stats, err := s.builder.Build(ctx, objects, counts, sink)
	if err != nil {
		return stats, fmt.Errorf("build report: %w", err)
	}
	if err := sink.Commit(); err != nil {
		return stats, err
	}

	logger.Info().
		Str("output", p.Output).
		Int("fetched", stats.Fetched).
		Int("written", stats.Written).
		Int("skipped", stats.Skipped).
		Msg("report written")

	s.announce(ctx, logger, p, stats)
	return stats, nil
}

// announce publishes the completion event. The report is already in place,
// so a failure is only logged.
func (s *Service) announce(ctx context.Context, logger zerolog.Logger, p Params, stats Stats) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishReportGenerated(ctx, event.ReportGenerated{
		RunID:   p.RunID,
		Variant: string(s.variant),
		From:    p.From,
		To:      p.To,
		Output:  p.Output,
		Fetched: stats.Fetched,
		Written: stats.Written,
		Skipped: stats.Skipped,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed publishing report event")
	}
}
