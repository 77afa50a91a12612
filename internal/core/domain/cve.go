package domain

import "time"

// Unknown is the sentinel stored for any scoring field the upstream
// vulnerability database did not provide.
const Unknown = "unknown"

// EnrichmentRecord is the normalized result of resolving one CVE
// identifier against the vulnerability database. Score is carried as a
// string so that numeric values and the Unknown sentinel share a single
// column representation.
type EnrichmentRecord struct {
	ID          string `json:"cve_id"`
	Description string `json:"description"`
	Score       string `json:"score"`
	CVSSVersion string `json:"cvss_version"`
	CVSSVector  string `json:"cvss_vector"`
}

// NewEnrichmentRecord returns a record for id with every scoring field
// initialized to the Unknown sentinel.
func NewEnrichmentRecord(id string) EnrichmentRecord {
	return EnrichmentRecord{
		ID:          id,
		Score:       Unknown,
		CVSSVersion: Unknown,
		CVSSVector:  Unknown,
	}
}

// RunStats aggregates the outcome of one crawl run.
type RunStats struct {
	RunID              string        `json:"run_id"`
	Keyword            string        `json:"keyword"`
	PostsSeen          int           `json:"posts_seen"`
	IdentifiersFound   int           `json:"identifiers_found"`
	EnrichmentFailures int           `json:"enrichment_failures"`
	RowsWritten        int           `json:"rows_written"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
}
