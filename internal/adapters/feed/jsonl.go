package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// twitterTime is the created_at layout of the Twitter v1.1 API.
const twitterTime = "Mon Jan 02 15:04:05 -0700 2006"

// rawTweet mirrors the slice of the Twitter search payload this crawler
// reads. A populated retweeted_status marks a retweet wrapper whose
// text is truncated; the original is the canonical source.
type rawTweet struct {
	IDStr         string    `json:"id_str"`
	FullText      string    `json:"full_text"`
	RetweetCount  int       `json:"retweet_count"`
	FavoriteCount int       `json:"favorite_count"`
	CreatedAt     string    `json:"created_at"`
	User          rawUser   `json:"user"`
	Retweeted     *rawTweet `json:"retweeted_status"`
}

type rawUser struct {
	ScreenName string `json:"screen_name"`
}

// resolve collapses a wrapper into a single canonical Post. The tag
// records how the post arrived; all content fields come from the
// original tweet.
func (t *rawTweet) resolve() domain.Post {
	kind := domain.PostOriginal
	src := t
	if t.Retweeted != nil {
		kind = domain.PostRetweet
		src = t.Retweeted
	}

	created, err := time.Parse(twitterTime, src.CreatedAt)
	if err != nil {
		created = time.Time{}
	}

	return domain.Post{
		ID:        src.IDStr,
		Kind:      kind,
		Link:      fmt.Sprintf("https://twitter.com/tweet/status/%s", src.IDStr),
		Author:    src.User.ScreenName,
		FullText:  src.FullText,
		Retweets:  src.RetweetCount,
		Likes:     src.FavoriteCount,
		CreatedAt: created,
	}
}

// JSONLFeed reads one raw tweet JSON document per line from a file.
// It stands in for the live search client behind the same port;
// malformed lines are logged and skipped rather than breaking the run.
type JSONLFeed struct {
	f       *os.File
	scanner *bufio.Scanner
	log     *slog.Logger
}

// Open creates a JSONLFeed over path.
func Open(path string, log *slog.Logger) (*JSONLFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	return &JSONLFeed{
		f:       f,
		scanner: bufio.NewScanner(f),
		log:     log.With("component", "feed"),
	}, nil
}

// Next returns the next resolved post, or io.EOF when the file is
// exhausted.
func (j *JSONLFeed) Next(ctx context.Context) (domain.Post, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Post{}, err
		}

		if !j.scanner.Scan() {
			if err := j.scanner.Err(); err != nil {
				return domain.Post{}, fmt.Errorf("read feed: %w", err)
			}
			return domain.Post{}, io.EOF
		}

		line := j.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawTweet
		if err := json.Unmarshal(line, &raw); err != nil {
			j.log.Warn("skipping malformed feed line", "error", err)
			continue
		}
		return raw.resolve(), nil
	}
}

// Close releases the underlying file.
func (j *JSONLFeed) Close() error {
	return j.f.Close()
}
