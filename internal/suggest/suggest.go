// Package suggest turns a caller's unresolved name (a file path, a class
// name, a function name) into a ranked list of similarly-spelled
// candidates that actually are indexed, so an "argument error" can carry
// a suggestion instead of leaving the caller to guess a typo.
package suggest

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultLimit caps how many suggestions Suggest returns absent an
// explicit limit.
const DefaultLimit = 3

// Match pairs a candidate with its similarity score to the query.
type Match struct {
	Candidate  string
	Similarity float64
}

// Suggest ranks candidates by Jaro-Winkler similarity to query and
// returns the top limit (DefaultLimit if limit <= 0). Candidates that
// fail to score (go-edlib rejects empty input) are skipped rather than
// surfaced as an error, since a suggestion list is best-effort.
func Suggest(candidates []string, query string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if query == "" {
		return nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		score, err := edlib.StringsSimilarity(strings.ToLower(query), strings.ToLower(c), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Candidate: c, Similarity: float64(score)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Names extracts the Candidate field from a Match slice, the shape a
// caller embeds directly into a structured error.
func Names(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Candidate
	}
	return out
}
