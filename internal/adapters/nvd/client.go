package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// DefaultBaseURL is the NVD 1.0 CVE endpoint. The identifier is appended
// as a path segment.
const DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cve/1.0"

const defaultTimeout = 15 * time.Second

// LookupError is a recoverable per-identifier lookup failure: transport
// error, non-2xx status, or malformed body. It never aborts a run.
type LookupError struct {
	CVEID  string
	Status int
	Err    error
}

func (e *LookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("nvd lookup %s: status %d", e.CVEID, e.Status)
	}
	return fmt.Sprintf("nvd lookup %s: %v", e.CVEID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// RateLimited reports whether the upstream refused the request for quota
// reasons. NVD answers 403 for unauthenticated over-quota callers.
func (e *LookupError) RateLimited() bool {
	return e.Status == http.StatusForbidden || e.Status == http.StatusTooManyRequests
}

// response mirrors the slice of the NVD 1.0 schema this client reads.
// Both CVSS metric blocks are optional.
type response struct {
	Result struct {
		CVEItems []struct {
			CVE struct {
				Description struct {
					DescriptionData []struct {
						Value string `json:"value"`
					} `json:"description_data"`
				} `json:"description"`
			} `json:"cve"`
			Impact struct {
				BaseMetricV3 *struct {
					CVSSV3 cvssData `json:"cvssV3"`
				} `json:"baseMetricV3"`
				BaseMetricV2 *struct {
					CVSSV2 cvssData `json:"cvssV2"`
				} `json:"baseMetricV2"`
			} `json:"impact"`
		} `json:"CVE_Items"`
	} `json:"result"`
}

type cvssData struct {
	Version      string   `json:"version"`
	VectorString string   `json:"vectorString"`
	BaseScore    *float64 `json:"baseScore"`
}

// Client resolves CVE identifiers against the NVD REST API. One request
// per lookup, no retries; rate limiting is handled by the caller pacing
// the feed.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a Client. baseURL falls back to DefaultBaseURL when
// empty; timeout falls back to 15s when zero. The transport is wrapped
// for trace propagation.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// Lookup fetches the record for cveID and normalizes it. Scoring fields
// keep the "unknown" sentinel unless a CVSS metric block provides them:
// a v3 block populates them first, and a v2 block, when also present,
// overwrites them. v2-over-v3 is the documented contract of this
// crawler's data and is preserved deliberately.
func (c *Client) Lookup(ctx context.Context, cveID string) (domain.EnrichmentRecord, error) {
	rec := domain.NewEnrichmentRecord(cveID)

	url := fmt.Sprintf("%s/%s?addOns=dictionaryCpes", c.baseURL, cveID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rec, &LookupError{CVEID: cveID, Err: err}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return rec, &LookupError{CVEID: cveID, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return rec, &LookupError{CVEID: cveID, Status: res.StatusCode}
	}

	var body response
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return rec, &LookupError{CVEID: cveID, Err: fmt.Errorf("decode: %w", err)}
	}

	if len(body.Result.CVEItems) == 0 {
		return rec, &LookupError{CVEID: cveID, Err: fmt.Errorf("empty CVE_Items")}
	}

	item := body.Result.CVEItems[0]
	if dd := item.CVE.Description.DescriptionData; len(dd) > 0 {
		rec.Description = dd[0].Value
	}

	if v3 := item.Impact.BaseMetricV3; v3 != nil {
		applyCVSS(&rec, v3.CVSSV3)
	}
	if v2 := item.Impact.BaseMetricV2; v2 != nil {
		applyCVSS(&rec, v2.CVSSV2)
	}

	c.log.Debug("enriched identifier", "cve_id", cveID, "cvss_version", rec.CVSSVersion)
	return rec, nil
}

func applyCVSS(rec *domain.EnrichmentRecord, data cvssData) {
	if data.BaseScore != nil {
		rec.Score = strconv.FormatFloat(*data.BaseScore, 'f', -1, 64)
	}
	if data.Version != "" {
		rec.CVSSVersion = data.Version
	}
	if data.VectorString != "" {
		rec.CVSSVector = data.VectorString
	}
}
