package ports

import (
	"context"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// VulnStore owns the durable cve/tweet schema. Implementations hold at
// most one live connection; EnsureSchema and CommitAndClose both leave
// the handle disconnected, and inserts lazily open a transaction that
// stays live until CommitAndClose.
type VulnStore interface {
	// EnsureSchema creates both tables if absent. Safe to call at any
	// point; never leaks a connection across calls.
	EnsureSchema(ctx context.Context) error

	// InsertCVE appends one enrichment record, back-referencing the
	// post it was extracted from.
	InsertCVE(ctx context.Context, rec domain.EnrichmentRecord, tweetID string) error

	// InsertTweet appends the originating post row. Must be called
	// after InsertCVE for the same post so the cve_id reference exists.
	InsertTweet(ctx context.Context, row domain.TweetRow) error

	// CommitAndClose commits the live transaction and releases the
	// connection. The store can be reused; the next insert reconnects.
	CommitAndClose() error
}
