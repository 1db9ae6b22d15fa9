package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news_digest/internal/domain"
)

// IngestService orchestrates one scrape-and-dedup pass: fetch the listing,
// keep candidates dated today or yesterday, fetch and persist bodies for
// unseen titles, and return the relevant set in document order.
type IngestService struct {
	source      Source
	articles    ArticleStore
	ingestState IngestStateStore
	txManager   TransactionManager
	publisher   Publisher
	logger      *slog.Logger
}

func NewIngestService(
	source Source,
	articles ArticleStore,
	ingestState IngestStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		source:      source,
		articles:    articles,
		ingestState: ingestState,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger.With("source", source.ID()),
	}
}

// Ingest runs the pipeline against the given reference day. The day is an
// explicit parameter so long-running processes never operate on a stale
// notion of "today" across midnight.
//
// Any listing fetch, body fetch, or store failure aborts the whole run; only
// per-candidate structural misses are absorbed upstream in the source.
func (s *IngestService) Ingest(ctx context.Context, today time.Time) ([]domain.Article, *domain.IngestStats, error) {
	startTime := time.Now()
	today = domain.Day(today)
	yesterday := today.AddDate(0, 0, -1)

	s.logger.Info("starting ingest", "day", today.Format("2006-01-02"))

	candidates, err := s.source.FetchListing(ctx, today)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch listing: %w", err)
	}

	stats := &domain.IngestStats{
		SourceID: s.source.ID(),
		Fetched:  len(candidates),
	}

	// Recency window. Unparseable dates are zero and never match.
	var windowed []domain.Article
	for _, c := range candidates {
		if c.Date.Equal(today) || c.Date.Equal(yesterday) {
			windowed = append(windowed, c)
		}
	}
	stats.Dropped = len(candidates) - len(windowed)

	stored, err := s.articles.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list stored articles: %w", err)
	}
	knownTitles := make(map[string]struct{}, len(stored))
	for _, a := range stored {
		knownTitles[a.Title] = struct{}{}
	}

	relevant := make([]domain.Article, 0, len(windowed))
	for _, candidate := range windowed {
		if _, seen := knownTitles[candidate.Title]; seen {
			// Already ingested on an earlier run: no body re-fetch, the
			// candidate is returned with listing metadata only.
			stats.Known++
			relevant = append(relevant, candidate)
			continue
		}

		body, err := s.source.FetchBody(ctx, candidate.Link)
		if err != nil {
			return nil, stats, fmt.Errorf("fetch body for %q: %w", candidate.Title, err)
		}
		candidate.Text = body

		var (
			row     domain.Article
			created bool
		)
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			var txErr error
			row, created, txErr = s.articles.GetOrCreate(txCtx, &candidate)
			return txErr
		})
		if err != nil {
			return nil, stats, fmt.Errorf("store article %q: %w", candidate.Title, err)
		}

		if created {
			stats.New++
			if s.publisher != nil {
				if pubErr := s.publisher.Publish(ctx, &row); pubErr != nil {
					stats.Errors++
					s.logger.Error("publish ingested article",
						"title", row.Title,
						"error", pubErr,
					)
				}
			}
		} else {
			// Lost a race with a concurrent run; the store kept the first row.
			stats.Known++
		}

		relevant = append(relevant, row)
	}
	stats.Relevant = len(relevant)

	if err := s.updateIngestState(ctx, stats); err != nil {
		return relevant, stats, fmt.Errorf("update ingest state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("ingest completed",
		"fetched", stats.Fetched,
		"relevant", stats.Relevant,
		"new", stats.New,
		"known", stats.Known,
		"dropped", stats.Dropped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return relevant, stats, nil
}

func (s *IngestService) updateIngestState(ctx context.Context, stats *domain.IngestStats) error {
	state, err := s.ingestState.Get(ctx, s.source.ID())
	if err != nil {
		return err
	}

	state.SourceID = s.source.ID()
	state.LastRunAt = time.Now()
	state.TotalIngested += int64(stats.New)

	return s.ingestState.Update(ctx, state)
}
