package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// newScenario builds a scenario around documents written to a temp dir.
func newScenario(t *testing.T, docs map[string]string, steps ...Step) *Scenario {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(docs))
	for name, content := range docs {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths[name] = path
	}
	return &Scenario{
		Name:        "inline",
		Description: "Inline test scenario",
		Documents:   paths,
		Steps:       steps,
	}
}

const lazyDocument = `
name: lazy
text: "[@@n@@|@@g@@]"
bindings:
  - {category: nowiki, id: n, value: "N"}
  - {category: general, id: g, value: "G", lazy: true}
`

func TestRun_MinimalScenario(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpUnstrip, Document: "doc", Expect: strPtr("[N|G]")},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	event := result.Trace[0]
	assert.Equal(t, int64(1), event.Seq)
	assert.Equal(t, OpUnstrip, event.Op)
	assert.Equal(t, "both", event.Category, "unstrip defaults to both categories")
	assert.Equal(t, "[N|G]", event.Output)
	assert.Equal(t, []string{"general:g"}, event.Calls)
	assert.Equal(t, []string{"general:g"}, result.Calls)
}

func TestRun_SingleCategory(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpUnstrip, Document: "doc", Category: "nowiki", Expect: strPtr("[N|@@g@@]"), ExpectCalls: []string{}},
		Step{Op: OpUnstrip, Document: "doc", Category: "general", Expect: strPtr("[@@n@@|G]"), ExpectCalls: []string{"general:g"}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"general:g"}, result.Calls)
}

func TestRun_TextOverride(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpUnstrip, Document: "doc", Text: "only @@n@@", Expect: strPtr("only N")},
		Step{Op: OpUnstrip, Document: "doc", Expect: strPtr("[N|G]")},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "override applies to one step only: %v", result.Errors)
}

func TestRun_Kill(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpKill, Document: "doc", Expect: strPtr("[|]")},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Calls, "kill never runs producers")
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpUnstrip, Document: "doc", Expect: strPtr("wrong"), ExpectCalls: []string{}},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], `steps[0] (unstrip doc): expected output "wrong", got "[N|G]"`)
	assert.Contains(t, result.Errors[1], "expected calls [], got [general:g]")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpStore, Document: "doc"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Contains(t, result.Trace[0].Error, "deferred values cannot be stored")
	assert.Empty(t, result.Trace[0].Output)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpKill, Document: "doc", ExpectError: "boom"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `expected error containing "boom"`)
}

func TestRun_MergeSharesTagSequence(t *testing.T) {
	scenario := newScenario(t, map[string]string{"a": lazyDocument, "b": lazyDocument},
		Step{Op: OpMerge, Document: "a", With: "b", Expect: strPtr("[@@n@@|@@g@@][@@merge1-n@@|@@merge1-g@@]")},
		Step{Op: OpMerge, Document: "b", With: "a", Expect: strPtr("[@@n@@|@@g@@][@@merge2-n@@|@@merge2-g@@][@@merge2-merge1-n@@|@@merge2-merge1-g@@]")},
		Step{Op: OpUnstrip, Document: "a", Expect: strPtr("[N|G][N|G]")},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{
		"nowiki:merge1-n", "nowiki:n", "general:g", "general:merge1-g",
	}, result.Trace[0].Bindings)
	assert.Equal(t, []string{"general:g", "general:g"}, result.Trace[2].Calls)
}

func TestRun_SubStateReportsBindings(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": lazyDocument},
		Step{Op: OpSubState, Document: "doc", Text: "@@g@@ @@missing@@", ExpectBindings: []string{"general:g"}, Expect: strPtr("G @@missing@@")},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_LimitAndLanguage(t *testing.T) {
	const chain = `
name: chain
text: "@@a@@"
bindings:
  - {category: general, id: a, value: "@@b@@"}
  - {category: general, id: b, value: "end"}
`
	scenario := newScenario(t, map[string]string{"doc": chain},
		Step{Op: OpUnstrip, Document: "doc", Expect: strPtr(`<span class="error">Unstrip-Rekursionsgrenze überschritten (1)</span>`)},
	)
	scenario.Limit = 1
	scenario.Lang = "de-AT"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_BadDocument(t *testing.T) {
	scenario := newScenario(t, map[string]string{"doc": "name: bad\ntext: x\nextra: 1\n"},
		Step{Op: OpKill, Document: "doc"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `document "doc"`)
}
