package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PostsProcessed counts posts pulled from the feed, by keyword.
	PostsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "posts_processed_total",
			Help:      "Total number of posts pulled from the feed",
		},
		[]string{"keyword"},
	)

	// IdentifiersExtracted counts posts that yielded a usable CVE identifier.
	IdentifiersExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "identifiers_extracted_total",
			Help:      "Total number of usable CVE identifiers extracted from posts",
		},
		[]string{"keyword"},
	)

	// EnrichmentFailures counts recoverable per-post lookup failures.
	EnrichmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "enrichment_failures_total",
			Help:      "Total number of failed vulnerability database lookups",
		},
		[]string{"reason"},
	)

	// RowsInserted counts rows written to the store, per table.
	RowsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "rows_inserted_total",
			Help:      "Total number of rows written to the store",
		},
		[]string{"table"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the default Prometheus
// registry. Idempotent; safe to call from multiple entry points.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(PostsProcessed)
		prometheus.DefaultRegisterer.Register(IdentifiersExtracted)
		prometheus.DefaultRegisterer.Register(EnrichmentFailures)
		prometheus.DefaultRegisterer.Register(RowsInserted)
	})
}
