package extract

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Prefix is the literal anchor of the identifier grammar. Matching is
// case-sensitive: "cve-2022-1" is not an identifier.
const Prefix = "CVE-"

// Extractor locates CVE identifiers in free text. Candidate tokens are
// ranked by Levenshtein similarity against the literal prefix, then the
// best candidate containing the prefix is reduced to a normalized
// identifier by a character-level scan.
type Extractor struct {
	params *levenshtein.Params
}

// New creates an Extractor with default similarity parameters.
func New() *Extractor {
	return &Extractor{params: levenshtein.NewParams()}
}

// Extract returns the normalized identifier found in text, or "" when no
// token resembles one. The degenerate result Prefix (no digits) is
// possible when a token contains the literal but no identifier body;
// callers must check Usable before acting on the result.
func (e *Extractor) Extract(text string) string {
	candidate := e.bestCandidate(strings.Fields(text))
	if candidate == "" {
		return ""
	}
	return reconstruct(candidate)
}

// Usable reports whether id is a non-degenerate identifier: the literal
// prefix followed by at least one body character.
func Usable(id string) bool {
	return len(id) > len(Prefix)
}

// bestCandidate ranks tokens by similarity to the prefix literal and
// returns the highest-ranked one that contains the literal verbatim.
// Every token is considered, not just the top few ranks, so a literal
// match buried in a long post is still found.
func (e *Extractor) bestCandidate(tokens []string) string {
	ranked := make([]string, len(tokens))
	copy(ranked, tokens)

	sort.SliceStable(ranked, func(i, j int) bool {
		return levenshtein.Match(Prefix, ranked[i], e.params) >
			levenshtein.Match(Prefix, ranked[j], e.params)
	})

	for _, tok := range ranked {
		if strings.Contains(tok, Prefix) {
			return tok
		}
	}
	return ""
}

// reconstruct scans a raw candidate and rebuilds the identifier under a
// two-state machine. In the prefix state a cursor walks the literal
// "CVE-", resetting to zero on any mismatch without abandoning the scan.
// Once the full literal has been consumed the scan switches to the body
// state, accepting digits and '-' until the first other character, which
// finalizes the accumulator. The accumulator is pre-seeded with the
// literal, so the degenerate result of a candidate that never completes
// the prefix is exactly "CVE-".
func reconstruct(raw string) string {
	var b strings.Builder
	b.WriteString(Prefix)

	cursor := 0
	body := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if body {
			if (c >= '0' && c <= '9') || c == '-' {
				b.WriteByte(c)
				continue
			}
			break
		}

		if c == Prefix[cursor] {
			cursor++
			if cursor == len(Prefix) {
				body = true
			}
		} else {
			cursor = 0
		}
	}

	return b.String()
}
