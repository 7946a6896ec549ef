package argsnorm

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/cppindex/cppindex/internal/diagnostics"
	"github.com/pkg/errors"
)

// RuleType is the kind of sanitization rule's rule table.
type RuleType string

const (
	ExactMatch                RuleType = "exact_match"
	PrefixMatch                RuleType = "prefix_match"
	FlagWithOptionalValue      RuleType = "flag_with_optional_value"
	XclangSequence             RuleType = "xclang_sequence"
	XclangConditionalSequence RuleType = "xclang_conditional_sequence"
	XclangOptionWithValue      RuleType = "xclang_option_with_value"
)

// Condition gates an xclang_conditional_sequence rule on a substring test
// against one of the sequence's captured wildcard arguments.
type Condition struct {
	ArgIndex int      `json:"arg_index"`
	Contains []string `json:"contains"`
}

// Rule is one entry of a sanitization rules file. Only the fields relevant
// to its Type are populated.
type Rule struct {
	ID          string     `json:"id"`
	Type        RuleType   `json:"type"`
	Description string     `json:"description"`
	Patterns    []string   `json:"patterns,omitempty"`
	Pattern     string     `json:"pattern,omitempty"`
	Sequence    []string   `json:"sequence,omitempty"`
	Condition   *Condition `json:"condition,omitempty"`
}

// RuleFile is the on-disk shape of a sanitization rules JSON document.
type RuleFile struct {
	Version string `json:"version"`
	Rules   []Rule `json:"rules"`
}

//go:embed rules_default.json
var defaultRulesJSON []byte

// RuleSet is an ordered collection of sanitization rules; the first
// matching rule wins.
type RuleSet struct {
	Version string
	Rules   []Rule
}

// LoadDefaultRules parses the built-in default rule table.
func LoadDefaultRules() (*RuleSet, error) {
	var rf RuleFile
	if err := json.Unmarshal(defaultRulesJSON, &rf); err != nil {
		return nil, errors.Wrap(err, "parsing built-in sanitization rules")
	}
	return &RuleSet{Version: rf.Version, Rules: rf.Rules}, nil
}

// LoadRules loads the default rules and, if customRulesPath is non-empty,
// appends the rules found there (file order, appended after defaults). A
// malformed custom file is logged and skipped; the defaults are still
// usable.
func LoadRules(customRulesPath string, log *diagnostics.Logger) *RuleSet {
	if log == nil {
		log = diagnostics.Global()
	}

	rs, err := LoadDefaultRules()
	if err != nil {
		log.Warningf("failed to load built-in sanitization rules, falling back to empty rule set: %v", err)
		rs = &RuleSet{Version: "unknown"}
	}

	if customRulesPath == "" {
		return rs
	}

	data, err := os.ReadFile(customRulesPath)
	if err != nil {
		log.Warningf("failed to read custom sanitization rules %q: %v", customRulesPath, err)
		return rs
	}

	var rf RuleFile
	if err := json.Unmarshal(data, &rf); err != nil {
		log.Warningf("failed to parse custom sanitization rules %q: %v", customRulesPath, err)
		return rs
	}

	log.Debugf("loaded %d custom sanitization rules from %q", len(rf.Rules), customRulesPath)
	rs.Rules = append(rs.Rules, rf.Rules...)
	return rs
}

// Info summarizes a loaded rule set for diagnostics/reporting.
type Info struct {
	Version   string
	RuleCount int
	RuleIDs   []string
}

// Describe returns a summary of the loaded rules.
func (rs *RuleSet) Describe() Info {
	ids := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		ids = append(ids, r.ID)
	}
	return Info{Version: rs.Version, RuleCount: len(rs.Rules), RuleIDs: ids}
}
