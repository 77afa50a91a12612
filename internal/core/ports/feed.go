package ports

import (
	"context"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// Feed is a pull-based iterator over social-media posts. Next blocks
// until a post is available, the feed is exhausted, or ctx is done.
// Exhaustion is signaled with io.EOF; any other error means the feed
// broke and the run should stop.
//
// Adapters resolve retweet wrappers to their original post before
// returning, so the pipeline never sees a wrapper.
type Feed interface {
	Next(ctx context.Context) (domain.Post, error)
	Close() error
}
