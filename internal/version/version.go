package version

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"
)

// Version is the running release. Overridden at build time via
// -ldflags "-X .../internal/version.Version=...".
var Version = "1.0.0"

// DefaultIndexURL serves the latest published release as JSON.
const DefaultIndexURL = "https://api.github.com/repos/shelldog/twitter-crawler/releases/latest"

type releaseInfo struct {
	TagName string `json:"tag_name"`
}

// CheckLatest compares the running version with the latest published
// release and logs a warning when running behind. Any failure here is
// informational only; the crawl proceeds regardless.
func CheckLatest(ctx context.Context, indexURL string, log *slog.Logger) {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}

	latest, err := fetchLatest(ctx, indexURL)
	if err != nil {
		log.Debug("release check failed", "error", err)
		return
	}

	current, err := goversion.NewVersion(Version)
	if err != nil {
		log.Debug("unparseable running version", "version", Version, "error", err)
		return
	}
	published, err := goversion.NewVersion(latest)
	if err != nil {
		log.Debug("unparseable published version", "version", latest, "error", err)
		return
	}

	if current.LessThan(published) {
		log.Warn("a newer release is available",
			"running", current.String(), "latest", published.String())
	}
}

func fetchLatest(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release index status %d", res.StatusCode)
	}

	var info releaseInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.TagName, nil
}
