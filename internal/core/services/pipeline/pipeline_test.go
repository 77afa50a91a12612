package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelldog/twitter-crawler/internal/adapters/storage"
	"github.com/shelldog/twitter-crawler/internal/core/domain"
	"github.com/shelldog/twitter-crawler/internal/core/services/extract"
	"github.com/shelldog/twitter-crawler/internal/telemetry"
)

func init() {
	telemetry.InitMetrics()
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// sliceFeed yields a fixed set of posts then io.EOF.
type sliceFeed struct {
	posts []domain.Post
	i     int
}

func (f *sliceFeed) Next(ctx context.Context) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	if f.i >= len(f.posts) {
		return domain.Post{}, io.EOF
	}
	p := f.posts[f.i]
	f.i++
	return p, nil
}

func (f *sliceFeed) Close() error { return nil }

// brokenFeed fails immediately.
type brokenFeed struct{}

func (brokenFeed) Next(ctx context.Context) (domain.Post, error) {
	return domain.Post{}, errors.New("connection refused")
}
func (brokenFeed) Close() error { return nil }

// stubEnricher returns a canned record per identifier, or a canned error.
type stubEnricher struct {
	err     error
	lookups []string
}

func (s *stubEnricher) Lookup(ctx context.Context, cveID string) (domain.EnrichmentRecord, error) {
	s.lookups = append(s.lookups, cveID)
	if s.err != nil {
		return domain.NewEnrichmentRecord(cveID), s.err
	}
	rec := domain.NewEnrichmentRecord(cveID)
	rec.Description = "stubbed description"
	rec.Score = "9.8"
	rec.CVSSVersion = "3.1"
	return rec, nil
}

type rateLimitErr struct{}

func (rateLimitErr) Error() string     { return "status 403" }
func (rateLimitErr) RateLimited() bool { return true }

// countingStore records calls without persisting anything.
type countingStore struct {
	cveInserts, tweetInserts, commits int
}

func (c *countingStore) EnsureSchema(ctx context.Context) error { return nil }
func (c *countingStore) InsertCVE(ctx context.Context, rec domain.EnrichmentRecord, tweetID string) error {
	c.cveInserts++
	return nil
}
func (c *countingStore) InsertTweet(ctx context.Context, row domain.TweetRow) error {
	c.tweetInserts++
	return nil
}
func (c *countingStore) CommitAndClose() error {
	c.commits++
	return nil
}

func newSQLiteStore(t *testing.T) *storage.Store {
	t.Helper()
	root := t.TempDir()
	store, err := storage.New(storage.Config{
		DataDir:   filepath.Join(root, "data"),
		BackupDir: filepath.Join(root, "backup"),
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestRun_EndToEndSinglePost(t *testing.T) {
	store := newSQLiteStore(t)
	enricher := &stubEnricher{}
	p := New(extract.New(), enricher, store, testLogger())

	feed := &sliceFeed{posts: []domain.Post{{
		ID:        "1468745261742551043",
		Kind:      domain.PostOriginal,
		Link:      "https://twitter.com/tweet/status/1468745261742551043",
		Author:    "sec_research",
		FullText:  "Patch now: CVE-2021-44228 is critical",
		Retweets:  10,
		Likes:     42,
		CreatedAt: time.Date(2021, 12, 9, 4, 20, 0, 0, time.UTC),
	}}}

	stats, err := p.Run(context.Background(), feed, "CVE-")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PostsSeen)
	assert.Equal(t, 1, stats.IdentifiersFound)
	assert.Equal(t, 0, stats.EnrichmentFailures)
	assert.Equal(t, 2, stats.RowsWritten)
	assert.Equal(t, []string{"CVE-2021-44228"}, enricher.lookups)

	cves, tweets, err := store.CountRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cves)
	assert.Equal(t, 1, tweets)
}

func TestRun_PostsWithoutIdentifiersSkipStore(t *testing.T) {
	store := &countingStore{}
	enricher := &stubEnricher{}
	p := New(extract.New(), enricher, store, testLogger())

	feed := &sliceFeed{posts: []domain.Post{
		{ID: "1", FullText: "no identifiers here"},
		{ID: "2", FullText: "bare prefix CVE- only"},
		{ID: "3", FullText: "lowercase cve-2022-1 ignored"},
	}}

	stats, err := p.Run(context.Background(), feed, "CVE-")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.PostsSeen)
	assert.Equal(t, 0, stats.IdentifiersFound)
	assert.Empty(t, enricher.lookups, "degenerate identifiers must not reach enrichment")
	assert.Zero(t, store.cveInserts)
	assert.Zero(t, store.tweetInserts)
	assert.Equal(t, 1, store.commits, "store still commits and closes at run end")
}

func TestRun_EnrichmentFailureSkipsPost(t *testing.T) {
	store := &countingStore{}
	enricher := &stubEnricher{err: errors.New("status 500")}
	p := New(extract.New(), enricher, store, testLogger())

	feed := &sliceFeed{posts: []domain.Post{
		{ID: "1", FullText: "look CVE-2022-1"},
		{ID: "2", FullText: "and CVE-2022-2"},
	}}

	stats, err := p.Run(context.Background(), feed, "CVE-")
	require.NoError(t, err, "per-post lookup failures never abort the run")

	assert.Equal(t, 2, stats.EnrichmentFailures)
	assert.Zero(t, store.cveInserts)
	assert.Zero(t, stats.RowsWritten)
}

func TestRun_AllLookupsRateLimited(t *testing.T) {
	store := &countingStore{}
	enricher := &stubEnricher{err: rateLimitErr{}}
	p := New(extract.New(), enricher, store, testLogger())

	feed := &sliceFeed{posts: []domain.Post{
		{ID: "1", FullText: "look CVE-2022-1"},
		{ID: "2", FullText: "and CVE-2022-2"},
	}}

	_, err := p.Run(context.Background(), feed, "CVE-")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestRun_FeedUnavailable(t *testing.T) {
	p := New(extract.New(), &stubEnricher{}, &countingStore{}, testLogger())

	_, err := p.Run(context.Background(), brokenFeed{}, "CVE-")
	assert.ErrorIs(t, err, domain.ErrFeedUnavailable)
}

func TestRun_CancelledBetweenPosts(t *testing.T) {
	store := &countingStore{}
	p := New(extract.New(), &stubEnricher{}, store, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := &sliceFeed{posts: []domain.Post{{ID: "1", FullText: "CVE-2022-1"}}}
	_, err := p.Run(ctx, feed, "CVE-")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.commits, "aborted run must not commit")
}
