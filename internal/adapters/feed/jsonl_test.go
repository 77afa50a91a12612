package feed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

func writeFeedFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNext_OriginalPost(t *testing.T) {
	path := writeFeedFile(t, `{"id_str":"100","full_text":"Patch now: CVE-2021-44228","retweet_count":3,"favorite_count":7,"created_at":"Thu Dec 09 04:20:00 +0000 2021","user":{"screen_name":"sec_research"}}
`)

	f, err := Open(path, testLogger())
	require.NoError(t, err)
	defer f.Close()

	post, err := f.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "100", post.ID)
	assert.Equal(t, domain.PostOriginal, post.Kind)
	assert.Equal(t, "sec_research", post.Author)
	assert.Equal(t, "https://twitter.com/tweet/status/100", post.Link)
	assert.Equal(t, 3, post.Retweets)
	assert.Equal(t, 7, post.Likes)
	assert.Equal(t, 2021, post.CreatedAt.Year())

	_, err = f.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNext_RetweetWrapperResolvesToOriginal(t *testing.T) {
	path := writeFeedFile(t, `{"id_str":"200","full_text":"RT @orig: truncated…","user":{"screen_name":"amplifier"},"retweeted_status":{"id_str":"150","full_text":"full text with CVE-2022-0778","retweet_count":11,"favorite_count":40,"created_at":"Tue Mar 15 10:00:00 +0000 2022","user":{"screen_name":"orig"}}}
`)

	f, err := Open(path, testLogger())
	require.NoError(t, err)
	defer f.Close()

	post, err := f.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.PostRetweet, post.Kind)
	assert.Equal(t, "150", post.ID, "content must come from the original, not the wrapper")
	assert.Equal(t, "orig", post.Author)
	assert.Equal(t, "full text with CVE-2022-0778", post.FullText)
	assert.Equal(t, 11, post.Retweets)
}

func TestNext_SkipsMalformedAndBlankLines(t *testing.T) {
	path := writeFeedFile(t, `not json at all

{"id_str":"300","full_text":"ok","user":{"screen_name":"a"}}
`)

	f, err := Open(path, testLogger())
	require.NoError(t, err)
	defer f.Close()

	post, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "300", post.ID)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.jsonl"), testLogger())
	assert.Error(t, err)
}
