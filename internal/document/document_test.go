package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stripmark/internal/strip"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const yamlDoc = `
name: example
text: "a @@n1@@ b @@g1@@"
bindings:
  - category: nowiki
    id: n1
    value: "<raw>"
  - category: general
    id: g1
    value: "lazy(@@n1@@)"
    lazy: true
`

const cueDoc = `
name: "example"
text: "a @@n1@@ b @@g1@@"
bindings: [
	{category: "nowiki", id: "n1", value: "<raw>"},
	{category: "general", id: "g1", value: "lazy(@@n1@@)", lazy: true},
]
`

func TestExpand(t *testing.T) {
	assert.Equal(t, "x"+strip.Marker("a")+strip.Marker("b"), Expand("x@@a@@@@b@@"))
	assert.Equal(t, "no sigils", Expand("no sigils"))
	assert.Equal(t, "@@bad id@@", Expand("@@bad id@@"))
	assert.Equal(t, "@@@@", Expand("@@@@"))
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "x@@a@@ y @@b@@", Collapse("x"+strip.Marker("a")+" y "+strip.Marker("b")))
	assert.Equal(t, "plain", Collapse("plain"))
	assert.Equal(t, "a @@n1@@ b @@g1@@", Collapse(Expand("a @@n1@@ b @@g1@@")))
	// Broken tokens are left alone.
	assert.Equal(t, strip.Prefix+"x", Collapse(strip.Prefix+"x"))
}

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := Load(writeFile(t, "doc.yaml", yamlDoc))
	require.NoError(t, err)
	fromCUE, err := Load(writeFile(t, "doc.cue", cueDoc))
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromCUE)
	assert.Equal(t, "example", fromYAML.Name)
	require.Len(t, fromYAML.Bindings, 2)
	assert.True(t, fromYAML.Bindings[1].Lazy)
}

func TestLoad_DefaultsNameToFileName(t *testing.T) {
	doc, err := Load(writeFile(t, "unnamed.yml", "text: hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "unnamed", doc.Name)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{"unknown yaml field", "d.yaml", "text: x\nbindngs: []\n", "field bindngs not found"},
		{"bad yaml category", "d.yaml", "text: x\nbindings:\n  - {category: both, id: a, value: v}\n", "unknown strip category"},
		{"bad yaml id", "d.yaml", "text: x\nbindings:\n  - {category: nowiki, id: 'a<b', value: v}\n", "invalid id"},
		{"unknown cue field", "d.cue", "text: \"x\"\nextra: 1\n", "does not match schema"},
		{"bad cue category", "d.cue", "text: \"x\"\nbindings: [{category: \"both\", id: \"a\", value: \"v\"}]\n", "does not match schema"},
		{"cue syntax", "d.cue", "text: \"x\n", "failed to compile CUE"},
		{"unsupported", "d.json", "{}", "unsupported document format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document file")
}

func TestBuild_ResolvesAndCallsHook(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlDoc))
	require.NoError(t, err)

	var calls []string
	st, text, err := doc.Build(func(cat strip.Category, id string) {
		calls = append(calls, cat.String()+"/"+id)
	})
	require.NoError(t, err)
	assert.Equal(t, "a "+strip.Marker("n1")+" b "+strip.Marker("g1"), text)
	assert.Empty(t, calls, "building must not run producers")

	out, err := st.UnstripBoth(text)
	require.NoError(t, err)
	// g1's value reveals n1 only after the NoWiki pass, so it stays.
	assert.Equal(t, "a <raw> b lazy("+strip.Marker("n1")+")", out)
	assert.Equal(t, []string{"general/g1"}, calls)
}

func TestBuild_PassesOptions(t *testing.T) {
	doc := &Document{Name: "d", Text: "x"}
	st, _, err := doc.Build(nil, strip.WithRecursionLimit(5))
	require.NoError(t, err)
	assert.Equal(t, 5, st.RecursionLimit())
}

func TestBuild_RejectsBadCategory(t *testing.T) {
	doc := &Document{Name: "d", Bindings: []BindingSpec{{Category: "x", ID: "a"}}}
	_, _, err := doc.Build(nil)
	assert.ErrorIs(t, err, strip.ErrUnknownCategory)
}
