package argsnorm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultRulesParsesEmbeddedAsset(t *testing.T) {
	rs, err := LoadDefaultRules()
	require.NoError(t, err)
	assert.Equal(t, "1.0", rs.Version)
	assert.NotEmpty(t, rs.Rules)

	info := rs.Describe()
	assert.Equal(t, len(rs.Rules), info.RuleCount)
	assert.Contains(t, info.RuleIDs, "drop-optimization")
}

func TestLoadRulesAppendsCustomRules(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(custom, []byte(`{
		"version": "custom-1",
		"rules": [{"id": "drop-custom-flag", "type": "exact_match", "patterns": ["-fcustom"]}]
	}`), 0644))

	rs := LoadRules(custom, nil)
	ids := rs.Describe().RuleIDs
	assert.Contains(t, ids, "drop-optimization")
	assert.Contains(t, ids, "drop-custom-flag")
}

func TestLoadRulesNoCustomPath(t *testing.T) {
	rs := LoadRules("", nil)
	assert.Equal(t, "1.0", rs.Version)
}

func TestLoadRulesFallsBackOnUnreadableCustomFile(t *testing.T) {
	rs := LoadRules(filepath.Join(t.TempDir(), "missing.json"), nil)
	ids := rs.Describe().RuleIDs
	assert.Contains(t, ids, "drop-optimization")
	assert.NotContains(t, ids, "drop-custom-flag")
}

func TestLoadRulesFallsBackOnMalformedCustomFile(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(custom, []byte(`not json`), 0644))

	rs := LoadRules(custom, nil)
	assert.Equal(t, "1.0", rs.Version)
}
