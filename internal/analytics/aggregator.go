// Package analytics counts web-analytics events per page.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const DefaultPageSize = 1000

// ErrMalformedCount marks an event count that is not an integer.
var ErrMalformedCount = errors.New("malformed event count")

type Aggregator struct {
	client   Client
	pageSize int
	logger   zerolog.Logger
}

func NewAggregator(client Client, pageSize int, logger zerolog.Logger) *Aggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Aggregator{
		client:   client,
		pageSize: pageSize,
		logger:   logger,
	}
}

// AggregateEvents pages through q and sums the counts of every key across
// pages. Paging starts at index 1 and ends once the next start index passes
// the total reported by the latest page.
func (a *Aggregator) AggregateEvents(ctx context.Context, q Query) (map[string]int, error) {
	events := make(map[string]int)

	startIndex := 1
	total := a.pageSize + 1 // assume more than one page until told otherwise
	for startIndex <= total {
		page, err := a.client.FetchEvents(ctx, q, startIndex, a.pageSize)
		if err != nil {
			return nil, err
		}

		a.logger.Info().
			Str("category", q.Category).
			Str("action", q.Action).
			Int("start_index", startIndex).
			Int("rows", len(page.Rows)).
			Int("total", page.TotalResults).
			Msg("analytics page fetched")

		startIndex += a.pageSize
		total = page.TotalResults

		for _, row := range page.Rows {
			count, err := strconv.Atoi(strings.TrimSpace(row.Count))
			if err != nil {
				return nil, fmt.Errorf("%w: %q for key %q", ErrMalformedCount, row.Count, row.Key)
			}
			events[a.key(q, row.Key)] += count
		}
	}

	return events, nil
}

func (a *Aggregator) key(q Query, raw string) string {
	if !q.UnescapeKeys {
		return raw
	}
	k, err := url.PathUnescape(raw)
	if err != nil {
		a.logger.Warn().Str("key", raw).Err(err).Msg("keeping undecodable analytics key")
		return raw
	}
	return k
}
