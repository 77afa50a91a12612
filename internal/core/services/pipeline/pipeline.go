package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
	"github.com/shelldog/twitter-crawler/internal/core/ports"
	"github.com/shelldog/twitter-crawler/internal/core/services/extract"
	"github.com/shelldog/twitter-crawler/internal/telemetry"
)

// Pipeline consumes a post feed, extracts CVE identifiers, enriches
// them against the vulnerability database and persists the results.
// Posts are processed strictly sequentially: the feed is sequential and
// the upstream database rate-limits lookups anyway.
type Pipeline struct {
	extractor *extract.Extractor
	enricher  ports.Enricher
	store     ports.VulnStore
	log       *slog.Logger
}

// New wires a Pipeline from its collaborators.
func New(extractor *extract.Extractor, enricher ports.Enricher, store ports.VulnStore, log *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		enricher:  enricher,
		store:     store,
		log:       log.With("component", "pipeline"),
	}
}

// Run pulls posts until the feed is exhausted, then commits and closes
// the store. Per-post failures (no identifier, failed lookup) are
// logged and skipped; only store write failures and a broken feed abort
// the run. A run whose every lookup was refused by the upstream rate
// limiter reports domain.ErrRateLimited.
func (p *Pipeline) Run(ctx context.Context, feed ports.Feed, keyword string) (domain.RunStats, error) {
	stats := domain.RunStats{
		RunID:     uuid.New().String(),
		Keyword:   keyword,
		StartedAt: time.Now().UTC(),
	}
	defer func() { stats.Duration = time.Since(stats.StartedAt) }()

	ctx, span := otel.Tracer("pipeline").Start(ctx, "crawl.run")
	span.SetAttributes(attribute.String("run.id", stats.RunID), attribute.String("run.keyword", keyword))
	defer span.End()

	p.log.Info("run started", "run_id", stats.RunID, "keyword", keyword)

	rateLimited := 0

	for {
		post, err := feed.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if stats.PostsSeen == 0 {
				return stats, errors.Join(domain.ErrFeedUnavailable, err)
			}
			return stats, fmt.Errorf("feed broke mid-run: %w", err)
		}

		stats.PostsSeen++
		telemetry.PostsProcessed.WithLabelValues(keyword).Inc()

		if err := p.processPost(ctx, post, keyword, &stats, &rateLimited); err != nil {
			return stats, err
		}
	}

	if err := p.store.CommitAndClose(); err != nil {
		return stats, errors.Join(domain.ErrStoreUnopenable, err)
	}

	if stats.IdentifiersFound > 0 && rateLimited == stats.IdentifiersFound {
		return stats, domain.ErrRateLimited
	}

	p.log.Info("run finished",
		"run_id", stats.RunID,
		"posts", stats.PostsSeen,
		"identifiers", stats.IdentifiersFound,
		"failures", stats.EnrichmentFailures,
		"rows", stats.RowsWritten,
	)
	return stats, nil
}

// processPost handles one post end to end. Both inserts for a post run
// inside the store's single live transaction, so a cancellation before
// the final commit leaves neither row behind.
func (p *Pipeline) processPost(ctx context.Context, post domain.Post, keyword string, stats *domain.RunStats, rateLimited *int) error {
	id := p.extractor.Extract(post.FullText)
	if !extract.Usable(id) {
		p.log.Debug("no identifier in post", "post_id", post.ID)
		return nil
	}

	stats.IdentifiersFound++
	telemetry.IdentifiersExtracted.WithLabelValues(keyword).Inc()

	rec, err := p.enricher.Lookup(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		reason := "lookup"
		var rl interface{ RateLimited() bool }
		if errors.As(err, &rl) && rl.RateLimited() {
			reason = "rate_limited"
			*rateLimited++
		}

		stats.EnrichmentFailures++
		telemetry.EnrichmentFailures.WithLabelValues(reason).Inc()
		p.log.Warn("enrichment failed, skipping post", "cve_id", id, "post_id", post.ID, "error", err)
		return nil
	}

	if err := p.store.InsertCVE(ctx, rec, post.ID); err != nil {
		return errors.Join(domain.ErrStoreUnopenable, err)
	}
	if err := p.store.InsertTweet(ctx, domain.TweetRow{
		CVEID:     rec.ID,
		TweetID:   post.ID,
		Link:      post.Link,
		Author:    post.Author,
		Content:   post.FullText,
		Retweets:  post.Retweets,
		Likes:     post.Likes,
		CreatedAt: post.CreatedAt,
		Keyword:   keyword,
	}); err != nil {
		return errors.Join(domain.ErrStoreUnopenable, err)
	}

	stats.RowsWritten += 2
	telemetry.RowsInserted.WithLabelValues("cve").Inc()
	telemetry.RowsInserted.WithLabelValues("tweet").Inc()
	return nil
}
