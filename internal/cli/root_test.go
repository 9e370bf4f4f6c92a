package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeDoc writes a document fixture into a temp dir and returns its path.
func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stripmark", cmd.Use)
	assert.Contains(t, cmd.Long, "marker tokens")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"unstrip", "kill", "substate", "merge", "save", "load", "list", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	langFlag := cmd.PersistentFlags().Lookup("lang")
	require.NotNil(t, langFlag)
	assert.Equal(t, "en", langFlag.DefValue)

	limitFlag := cmd.PersistentFlags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "0", limitFlag.DefValue)
}

func TestUnstripCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	unstripCmd, _, err := cmd.Find([]string{"unstrip"})
	require.NoError(t, err)

	categoryFlag := unstripCmd.Flags().Lookup("category")
	require.NotNil(t, categoryFlag)
	assert.Equal(t, "both", categoryFlag.DefValue)

	require.NotNil(t, unstripCmd.Flags().Lookup("raw"))
}

func TestFragmentCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"save", "load", "list"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := subCmd.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			// --db is required, so default is empty
			assert.Equal(t, "", dbFlag.DefValue)
		})
	}
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "kill", "doc.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGlobalFlagValidation(t *testing.T) {
	_, _, err := execute(t, "--lang", "not a tag!", "kill", "doc.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid language")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "--limit=-3", "kill", "doc.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid limit")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStateOptions(t *testing.T) {
	opts := &RootOptions{Lang: "de", Limit: 1}
	path := writeDoc(t, "chain.yaml", `
name: chain
text: "@@a@@"
bindings:
  - {category: general, id: a, value: "@@b@@"}
  - {category: general, id: b, value: "end"}
`)

	loaded, err := loadDocument(path, opts.Logger(), opts.StateOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.State.RecursionLimit())

	out, err := loaded.State.UnstripBoth(loaded.Text)
	require.NoError(t, err)
	assert.Equal(t, `<span class="error">Unstrip-Rekursionsgrenze überschritten (1)</span>`, out)
}

func TestVerboseLogsToStderr(t *testing.T) {
	path := writeDoc(t, "lazy.yaml", `
name: lazy
text: "@@g@@"
bindings:
  - {category: general, id: g, value: "G", lazy: true}
`)

	stdout, stderr, err := execute(t, "-v", "unstrip", path)
	require.NoError(t, err)
	assert.Equal(t, "G\n", stdout)
	assert.Contains(t, stderr, "producing deferred value")
	assert.Contains(t, stderr, "id=g")
}

func TestExecute(t *testing.T) {
	path := writeDoc(t, "page.yaml", pageDoc)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	code := Execute([]string{"kill", path}, out, errOut)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Intro  and  \n", out.String())
}

func TestExecuteReportsErrors(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out := &bytes.Buffer{}
		errOut := &bytes.Buffer{}
		code := Execute([]string{"kill", "/nonexistent/page.yaml"}, out, errOut)
		assert.Equal(t, ExitCommandError, code)
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "Error [E_COMMAND]: failed to load document")
	})

	t.Run("json", func(t *testing.T) {
		out := &bytes.Buffer{}
		errOut := &bytes.Buffer{}
		code := Execute([]string{"--format", "json", "kill", "/nonexistent/page.yaml"}, out, errOut)
		assert.Equal(t, ExitCommandError, code)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E_COMMAND", resp.Error.Code)
		assert.NotNil(t, resp.Error.Details)
	})

	t.Run("unknown command", func(t *testing.T) {
		errOut := &bytes.Buffer{}
		code := Execute([]string{"render"}, &bytes.Buffer{}, errOut)
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, errOut.String(), "Error [E_COMMAND]: unknown command")
	})
}

func TestExecuteUsageErrorsExitWithCommandError(t *testing.T) {
	path := writeDoc(t, "page.yaml", pageDoc)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad format", []string{"kill", path, "--format", "xml"}, "invalid format"},
		{"bad language", []string{"--lang", "not a tag!", "kill", path}, "invalid language"},
		{"negative limit", []string{"--limit=-1", "kill", path}, "invalid limit"},
		{"missing argument", []string{"kill"}, "accepts 1 arg"},
		{"merge missing argument", []string{"merge", path}, "accepts 2 arg"},
		{"unknown flag", []string{"kill", path, "--bogus"}, "unknown flag"},
		{"missing required flag", []string{"list"}, `required flag(s) "db" not set`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errOut := &bytes.Buffer{}
			code := Execute(tt.args, &bytes.Buffer{}, errOut)
			assert.Equal(t, ExitCommandError, code)
			assert.Contains(t, errOut.String(), "Error [E_COMMAND]")
			assert.Contains(t, errOut.String(), tt.wantErr)
		})
	}
}
