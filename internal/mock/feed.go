package mock

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// Templates mentioning real, enrichable identifiers. Roughly a third of
// generated posts carry no identifier so the extraction-miss path gets
// exercised too.
var postTemplates = []string{
	"Patch now: %s is critical, exploitation observed in the wild",
	"PoC for %s just dropped, patch your servers",
	"Heads up - %s affects every version since 2019",
	"Our honeypots are seeing mass scanning for %s",
	"%s writeup: how a one-line fix took three weeks",
	"If you run nginx in front of it you are still vulnerable to %s",
}

var noisePosts = []string{
	"conference talk accepted, see you all in vegas",
	"ransomware group leaked another batch of data today",
	"reminder: rotate your api keys",
	"we are hiring a detection engineer, dms open",
	"hot take: sboms will not save you",
}

var cveIDs = []string{
	"CVE-2021-44228",
	"CVE-2022-0778",
	"CVE-2021-34527",
	"CVE-2022-22965",
	"CVE-2021-26855",
	"CVE-2020-1472",
	"CVE-2023-4863",
	"CVE-2019-0708",
}

var authors = []string{
	"sec_research", "threatintel_eu", "patch_tuesday", "0xdeadbeef",
	"vulnwatcher", "blue_team_anna", "exploit_digest", "cve_trends_bot",
}

// Feed generates a fixed number of synthetic posts so the crawler runs
// end to end without Twitter credentials.
type Feed struct {
	rng       *rand.Rand
	remaining int
}

// NewFeed creates a mock feed yielding n posts.
func NewFeed(n int, seed int64) *Feed {
	return &Feed{
		rng:       rand.New(rand.NewSource(seed)),
		remaining: n,
	}
}

// Next returns the next generated post, or io.EOF once n posts have
// been produced.
func (f *Feed) Next(ctx context.Context) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	if f.remaining <= 0 {
		return domain.Post{}, io.EOF
	}
	f.remaining--

	text := noisePosts[f.rng.Intn(len(noisePosts))]
	if f.rng.Intn(3) != 0 {
		tmpl := postTemplates[f.rng.Intn(len(postTemplates))]
		text = fmt.Sprintf(tmpl, cveIDs[f.rng.Intn(len(cveIDs))])
	}

	id := uuid.New().String()
	kind := domain.PostOriginal
	if f.rng.Intn(4) == 0 {
		kind = domain.PostRetweet
	}

	return domain.Post{
		ID:        id,
		Kind:      kind,
		Link:      fmt.Sprintf("https://twitter.com/tweet/status/%s", id),
		Author:    authors[f.rng.Intn(len(authors))],
		FullText:  text,
		Retweets:  f.rng.Intn(5000),
		Likes:     f.rng.Intn(20000),
		CreatedAt: time.Now().UTC().Add(-time.Duration(f.rng.Intn(86400)) * time.Second),
	}, nil
}

// Close implements ports.Feed.
func (f *Feed) Close() error { return nil }
