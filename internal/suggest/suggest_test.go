package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestRanksClosestSpellingFirst(t *testing.T) {
	candidates := []string{"widget.cpp", "gadget.cpp", "wdiget.cpp", "engine.cpp"}
	matches := Suggest(candidates, "widget.cpp", 2)

	require.Len(t, matches, 2)
	assert.Equal(t, "widget.cpp", matches[0].Candidate)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

func TestSuggestDefaultsLimitWhenNotPositive(t *testing.T) {
	candidates := []string{"a", "b", "c", "d", "e"}
	matches := Suggest(candidates, "a", 0)
	assert.Len(t, matches, DefaultLimit)
}

func TestSuggestEmptyQueryYieldsNoMatches(t *testing.T) {
	assert.Nil(t, Suggest([]string{"a", "b"}, "", 3))
}

func TestNamesExtractsCandidateStrings(t *testing.T) {
	matches := []Match{{Candidate: "a.cpp", Similarity: 0.9}, {Candidate: "b.cpp", Similarity: 0.5}}
	assert.Equal(t, []string{"a.cpp", "b.cpp"}, Names(matches))
}
