package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_WellFormedIdentifier(t *testing.T) {
	e := New()

	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Patch now: CVE-2021-44228 is critical", "CVE-2021-44228"},
		{"start of text", "CVE-2022-12345 dropped today", "CVE-2022-12345"},
		{"trailing punctuation", "look at CVE-2022-12345! wild", "CVE-2022-12345"},
		{"wrapped in parens", "exploit for (CVE-2020-0601) released", "CVE-2020-0601"},
		{"url suffix", "https://nvd.nist.gov/vuln/detail/CVE-2019-0708", "CVE-2019-0708"},
		{"noise before prefix", "RT @sec: urgent #CVE-2023-4863 in libwebp", "CVE-2023-4863"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.text)
			assert.Equal(t, tc.want, got)
			assert.True(t, Usable(got))
		})
	}
}

func TestExtract_NoIdentifier(t *testing.T) {
	e := New()

	for _, text := range []string{
		"nothing to see here",
		"critical vulnerability in openssl",
		"",
		"   \t\n  ",
	} {
		assert.Equal(t, "", e.Extract(text), "text: %q", text)
	}
}

func TestExtract_CaseSensitivePrefix(t *testing.T) {
	e := New()
	assert.Equal(t, "", e.Extract("cve-2022-1"))
}

func TestExtract_DegeneratePrefixOnly(t *testing.T) {
	e := New()

	got := e.Extract("CVE-")
	assert.Equal(t, "CVE-", got)
	assert.False(t, Usable(got), "bare prefix must not be usable")

	// Prefix followed by non-digit garbage degrades the same way.
	got = e.Extract("CVE-abc")
	assert.Equal(t, "CVE-", got)
	assert.False(t, Usable(got))
}

func TestExtract_Idempotent(t *testing.T) {
	e := New()

	first := e.Extract("heads up, CVE-2022-12345 affects prod")
	second := e.Extract(first)
	assert.Equal(t, first, second)
}

func TestExtract_CursorResetRecoversPrefix(t *testing.T) {
	e := New()

	// A false start forces a cursor reset mid-match; the scan recovers
	// on the complete literal that follows.
	assert.Equal(t, "CVE-2022-1", e.Extract("CVxCVE-2022-1"))

	// A token without the full literal never reaches reconstruction:
	// the candidate filter rejects it and the extraction is null.
	assert.Equal(t, "", e.Extract("CVEX2022"))
}

func TestExtract_LowRankedTokenStillFound(t *testing.T) {
	e := New()

	// Six bare "CVE" tokens outrank the long URL token on similarity,
	// but only the URL carries the literal. The scan must not stop
	// after the top ranks.
	text := "CVE CVE CVE CVE CVE CVE https://nvd.nist.gov/vuln/detail/CVE-2021-44228"
	assert.Equal(t, "CVE-2021-44228", e.Extract(text))
}

func TestExtract_FirstCompletePrefixWins(t *testing.T) {
	e := New()

	// Within one token only the first completed prefix contributes.
	assert.Equal(t, "CVE-1-", e.Extract("CVE-1-CVE-2"))
}

func TestReconstruct_StopsAtFirstNonBodyChar(t *testing.T) {
	assert.Equal(t, "CVE-2022-12345", reconstruct("CVE-2022-12345,"))
	assert.Equal(t, "CVE-2022", reconstruct("CVE-2022)x999"))
}

func TestReconstruct_IncompleteLiteralYieldsBarePrefix(t *testing.T) {
	// Garbage between prefix letters never completes the literal, so
	// the body scan never starts and only the seed remains.
	assert.Equal(t, "CVE-", reconstruct("CVEX2022"))
	assert.Equal(t, "CVE-", reconstruct("CxVxEx-2022"))
}
