package domain

import "errors"

// Run-fatal error kinds. Per-post failures (extraction misses, single
// enrichment errors) are not part of this taxonomy; they are logged and
// swallowed inside the pipeline.
var (
	// ErrStoreUnopenable means the database file could not be opened at all.
	ErrStoreUnopenable = errors.New("store unopenable")

	// ErrSchema means the schema could not be created or migrated.
	ErrSchema = errors.New("schema failure")

	// ErrFeedUnavailable means the post feed could not be constructed or
	// failed before yielding its first post.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrRateLimited means every enrichment lookup in the run was refused
	// by the upstream rate limiter; the run produced nothing actionable.
	ErrRateLimited = errors.New("vulnerability database rate limit")
)
