package ports

import (
	"context"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// Enricher resolves a normalized CVE identifier to a full record via an
// external vulnerability database. Lookup failures are per-identifier
// and recoverable; callers skip the post and continue the run.
type Enricher interface {
	Lookup(ctx context.Context, cveID string) (domain.EnrichmentRecord, error)
}
