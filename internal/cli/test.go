package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stripmark/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario harness",
		Long: `Run strip scenarios using the harness framework.

Executes scenario files against their documents, validating step outputs,
producer calls and assertions. When a golden file exists next to the
scenarios directory (../golden/<name>.golden) the trace must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  stripmark test ./testdata/scenarios
  stripmark test ./testdata/scenarios --filter "merge*"
  stripmark test ./testdata/scenarios --update
  stripmark test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	if len(files) == 0 && text {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	summary := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		res, note := checkScenario(file, scenariosDir, opts.Update)
		if text {
			reportScenario(w, res, note)
		}
		summary.Scenarios = append(summary.Scenarios, res)
		if res.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if text {
		fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
		if summary.Failed == 0 {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	} else if err := writeTestJSON(w, summary); err != nil {
		return err
	}

	if summary.Failed > 0 {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
		exitErr.Reported = !text
		return exitErr
	}
	return nil
}

// findScenarioFiles finds all YAML scenario files directly in dir.
// Subdirectories are skipped: they hold documents and golden files.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// checkScenario loads and runs one scenario file and settles its trace
// against the golden file. With update the golden file is rewritten
// instead; note then says so.
func checkScenario(file, scenariosDir string, update bool) (res ScenarioResult, note string) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failedScenario(filepath.Base(file), "load error: %v", err), ""
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return failedScenario(scenario.Name, "execution error: %v", err), ""
	}
	trace, err := harness.MarshalTrace(scenario.Name, result)
	if err != nil {
		return failedScenario(scenario.Name, "trace error: %v", err), ""
	}

	errs := slices.Clone(result.Errors)
	golden := goldenFilePath(scenariosDir, scenario.Name)
	if update {
		if err := writeGolden(golden, trace); err != nil {
			errs = append(errs, fmt.Sprintf("golden update error: %v", err))
		} else {
			note = "golden updated"
		}
	} else {
		want, err := os.ReadFile(golden)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// assertions only
		case err != nil:
			errs = append(errs, fmt.Sprintf("golden read error: %v", err))
		case !bytes.Equal(want, trace):
			errs = append(errs, "golden file mismatch (run with --update to regenerate)")
		}
	}

	return ScenarioResult{Name: scenario.Name, Pass: result.Pass && len(errs) == 0, Errors: errs}, note
}

func failedScenario(name, format string, args ...any) ScenarioResult {
	return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
}

// reportScenario prints one line per scenario, followed by its errors.
func reportScenario(w io.Writer, res ScenarioResult, note string) {
	mark := "✓"
	if !res.Pass {
		mark = "✗"
	}
	if note != "" {
		fmt.Fprintf(w, "%s %s (%s)\n", mark, res.Name, note)
	} else {
		fmt.Fprintf(w, "%s %s\n", mark, res.Name)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// goldenFilePath returns the path to the golden file for a scenario.
// Scenarios live in <root>/scenarios and golden files in <root>/golden.
func goldenFilePath(scenariosDir, name string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden", name+".golden")
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, trace, 0644)
}

// writeTestJSON writes the run summary as one response envelope; a failed
// run carries both the summary and an E_FAILED error.
func writeTestJSON(w io.Writer, summary TestResult) error {
	f := &OutputFormatter{Format: "json", Writer: w}
	if summary.Failed == 0 {
		return f.Success(summary)
	}
	return f.Failure(summary, errorCode(ExitFailure), fmt.Sprintf("%d scenario(s) failed", summary.Failed))
}
