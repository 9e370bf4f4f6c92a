package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stripmark/internal/strip"
)

// Scenario defines a strip test scenario.
// Documents are loaded into working states, steps run against them in
// order, and the trace and final states are checked.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents maps a short name to a document file (.yaml, .yml or .cue).
	// Paths are relative to the scenario file location.
	Documents map[string]string `yaml:"documents"`

	// Steps run in order against the working documents.
	Steps []Step `yaml:"steps"`

	// Assertions validate the whole run after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Limit overrides the recursion limit when positive.
	Limit int `yaml:"limit,omitempty"`

	// Lang selects the message language (BCP 47). Defaults to English.
	Lang string `yaml:"lang,omitempty"`
}

// Step is one operation on a working document.
type Step struct {
	// Op is one of unstrip, kill, substate, merge, store.
	Op string `yaml:"op"`

	// Document names the working document the step acts on.
	Document string `yaml:"document"`

	// Category is nowiki, general or both (default) for unstrip.
	Category string `yaml:"category,omitempty"`

	// With names the document absorbed by a merge.
	With string `yaml:"with,omitempty"`

	// Text replaces the document text for this step. @@id@@ sigils are
	// expanded. Merge and store keep their output as the document's text.
	Text string `yaml:"text,omitempty"`

	// Expect is compared with the step output in @@id@@ form.
	Expect *string `yaml:"expect,omitempty"`

	// ExpectCalls lists the producers the step must run, "category:id".
	ExpectCalls []string `yaml:"expect_calls,omitempty"`

	// ExpectBindings lists the bindings reported by the step.
	ExpectBindings []string `yaml:"expect_bindings,omitempty"`

	// ExpectError is a substring the step error must contain.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpUnstrip  = "unstrip"
	OpKill     = "kill"
	OpSubState = "substate"
	OpMerge    = "merge"
	OpStore    = "store"
)

var validOps = []string{OpUnstrip, OpKill, OpSubState, OpMerge, OpStore}

// Assertion validates the run as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "produced_count": Binding ran exactly Count times
	// - "call_order": Producers ran in the order given by Calls
	// - "final_bindings": Document holds exactly Bindings at the end
	// - "stored_count": The fragment store holds Count fragments
	Type string `yaml:"type"`

	// Binding is "category:id" (used by produced_count).
	Binding string `yaml:"binding,omitempty"`

	// Count is the expected number (used by produced_count, stored_count).
	Count int `yaml:"count,omitempty"`

	// Calls is the expected subsequence of producer calls (used by call_order).
	Calls []string `yaml:"calls,omitempty"`

	// Document names a working document (used by final_bindings).
	Document string `yaml:"document,omitempty"`

	// Bindings are the expected "category:id" keys (used by final_bindings).
	Bindings []string `yaml:"bindings,omitempty"`
}

// Assertion type constants.
const (
	AssertProducedCount = "produced_count"
	AssertCallOrder     = "call_order"
	AssertFinalBindings = "final_bindings"
	AssertStoredCount   = "stored_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Document paths are resolved relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expect_call:" vs "expect_calls:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for name, docPath := range scenario.Documents {
		if !filepath.IsAbs(docPath) {
			scenario.Documents[name] = filepath.Join(base, docPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Documents) == 0 {
		return fmt.Errorf("documents map is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	if s.Lang != "" {
		if _, err := language.Parse(s.Lang); err != nil {
			return fmt.Errorf("lang: %w", err)
		}
	}

	for name, docPath := range s.Documents {
		if _, err := os.Stat(docPath); os.IsNotExist(err) {
			return fmt.Errorf("document %q not found: %s", name, docPath)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, s.Documents); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Documents); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step, docs map[string]string) error {
	if !slices.Contains(validOps, step.Op) {
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}
	if _, ok := docs[step.Document]; !ok {
		return fmt.Errorf("steps[%d]: unknown document %q", index, step.Document)
	}

	switch step.Op {
	case OpUnstrip:
		if step.Category != "" && step.Category != "both" {
			if _, err := strip.ParseCategory(step.Category); err != nil {
				return fmt.Errorf("steps[%d]: %w", index, err)
			}
		}
	case OpMerge:
		if _, ok := docs[step.With]; !ok {
			return fmt.Errorf("steps[%d]: merge requires a known with document, got %q", index, step.With)
		}
	}

	if step.Op != OpUnstrip && step.Category != "" {
		return fmt.Errorf("steps[%d]: category is only valid for unstrip", index)
	}
	if step.Op != OpMerge && step.With != "" {
		return fmt.Errorf("steps[%d]: with is only valid for merge", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, docs map[string]string) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertProducedCount:
		if a.Binding == "" {
			return fmt.Errorf("assertions[%d]: binding is required for produced_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for produced_count", index)
		}
	case AssertCallOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for call_order", index)
		}
	case AssertFinalBindings:
		if _, ok := docs[a.Document]; !ok {
			return fmt.Errorf("assertions[%d]: unknown document %q for final_bindings", index, a.Document)
		}
	case AssertStoredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
