package domain

import "time"

// PostKind tags how a post arrived from the feed. Retweet wrappers are
// resolved to the original text/metadata by the feed adapter before the
// post enters the pipeline.
type PostKind string

const (
	PostOriginal PostKind = "original"
	PostRetweet  PostKind = "retweet"
)

// Post is one canonical social-media post as produced by a feed adapter.
// For retweets, FullText and the engagement counters belong to the
// retweeted original, not the wrapper.
type Post struct {
	ID        string    `json:"id"`
	Kind      PostKind  `json:"kind"`
	Link      string    `json:"link"`
	Author    string    `json:"author"`
	FullText  string    `json:"full_text"`
	Retweets  int       `json:"retweets"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// TweetRow is the persisted form of a Post that yielded an identifier.
// It carries the search keyword that produced the match so later
// aggregation can slice by query.
type TweetRow struct {
	CVEID     string
	TweetID   string
	Link      string
	Author    string
	Content   string
	Retweets  int
	Likes     int
	CreatedAt time.Time
	Keyword   string
}
