// Package regexvalidate rejects regex patterns shaped for catastrophic
// backtracking before they reach any matching engine, per the
// boundary-check contract.
package regexvalidate

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// MaxPatternLength is the default cap on pattern length.
const MaxPatternLength = 1000

// MaxComplexityScore is the heuristic score above which a pattern is
// rejected as too dangerous to compile.
const MaxComplexityScore = 10

// ErrUnsafePattern is returned when a pattern fails validation.
var ErrUnsafePattern = errors.New("unsafe regex pattern")

var (
	nestedQuantifier     = regexp.MustCompile(`\([^()]*[+*]\)[+*]`)
	quantifiedAlternation = regexp.MustCompile(`\([^()]*\|[^()]*\)[+*]`)
)

// Validate reports whether pattern is safe to compile and match, and if
// not, a human-readable reason.
func Validate(pattern string) (bool, string) {
	return ValidateWithMaxLength(pattern, MaxPatternLength)
}

// ValidateWithMaxLength is Validate with an explicit length cap.
func ValidateWithMaxLength(pattern string, maxLength int) (bool, string) {
	if len(pattern) > maxLength {
		return false, "pattern too long"
	}

	if nestedQuantifier.MatchString(pattern) {
		return false, "nested quantifiers can cause exponential backtracking"
	}
	if quantifiedAlternation.MatchString(pattern) {
		return false, "alternation with quantifiers can cause backtracking"
	}

	score := AnalyzeComplexity(pattern)
	if score > MaxComplexityScore {
		return false, "pattern too complex"
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return false, "invalid regex pattern: " + err.Error()
	}

	return true, ""
}

// AnalyzeComplexity computes the heuristic complexity score described in
//: 2*max_nesting + count(+*{) + count(|), plus penalties when
// the dangerous shapes are detected.
func AnalyzeComplexity(pattern string) int {
	score := 0

	maxNesting, nesting := 0, 0
	for _, c := range pattern {
		switch c {
		case '(':
			nesting++
			if nesting > maxNesting {
				maxNesting = nesting
			}
		case ')':
			nesting--
		}
	}
	score += maxNesting * 2

	score += strings.Count(pattern, "+") + strings.Count(pattern, "*") + strings.Count(pattern, "{")
	score += strings.Count(pattern, "|")

	if nestedQuantifier.MatchString(pattern) {
		score += 50
	}
	if quantifiedAlternation.MatchString(pattern) {
		score += 30
	}

	return score
}

// ValidateOrError validates pattern and returns ErrUnsafePattern (wrapped
// with the reason) when it is not safe.
func ValidateOrError(pattern string) error {
	ok, reason := Validate(pattern)
	if !ok {
		return errors.Wrap(ErrUnsafePattern, reason)
	}
	return nil
}

// Sanitize returns pattern unchanged if it is already safe, or its
// literal-escaped form (turning it into a plain substring search) if not.
func Sanitize(pattern string) string {
	if ok, _ := Validate(pattern); ok {
		return pattern
	}
	return regexp.QuoteMeta(pattern)
}
