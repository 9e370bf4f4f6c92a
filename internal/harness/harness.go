package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/stripmark/internal/document"
	"github.com/roach88/stripmark/internal/store"
	"github.com/roach88/stripmark/internal/strip"
	"github.com/roach88/stripmark/internal/testutil"
)

// Harness is the test execution engine.
type Harness struct {
	store  *store.Store
	docs   map[string]*workingDoc
	logger *slog.Logger
	opts   []strip.Option
	seq    int64

	// calls collects producer invocations; step marks where the current
	// step's calls begin.
	calls []string
	step  int
}

// workingDoc is a document's evolving state during a scenario.
type workingDoc struct {
	name  string
	state *strip.State
	text  string
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Create fresh in-memory fragment store
// 2. Load and build every document
// 3. Execute steps, checking their expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		docs:   make(map[string]*workingDoc, len(scenario.Documents)),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	h.opts = h.options(scenario)
	for name, path := range scenario.Documents {
		doc, err := document.Load(path)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", name, err)
		}
		state, text, err := doc.Build(h.record, h.opts...)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", name, err)
		}
		h.docs[name] = &workingDoc{name: doc.Name, state: state, text: text}
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}
	result.Calls = slices.Clone(h.calls)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		Docs:  h.docs,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) options(scenario *Scenario) []strip.Option {
	opts := []strip.Option{
		strip.WithLogger(h.logger),
		strip.WithTagGenerator(testutil.NewSequenceTagGenerator("merge")),
	}
	if scenario.Limit > 0 {
		opts = append(opts, strip.WithRecursionLimit(scenario.Limit))
	}
	if scenario.Lang != "" {
		// Validated by LoadScenario.
		opts = append(opts, strip.WithMessages(strip.NewMessages(language.Make(scenario.Lang))))
	}
	return opts
}

// record is the produce hook for every lazy binding.
func (h *Harness) record(cat strip.Category, id string) {
	h.calls = append(h.calls, bindingKey(cat, id))
}

func bindingKey(cat strip.Category, id string) string {
	return cat.String() + ":" + id
}

func bindingKeys(st *strip.State) []string {
	keys := []string{}
	for b := range st.Bindings() {
		keys = append(keys, bindingKey(b.Category, b.ID))
	}
	return keys
}

// executeStep runs one step, appends its trace event and checks its
// expectations.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	h.seq++
	h.step = len(h.calls)

	doc := h.docs[step.Document]
	text := doc.text
	if step.Text != "" {
		text = document.Expand(step.Text)
	}

	event := TraceEvent{
		Seq:      h.seq,
		Op:       step.Op,
		Document: step.Document,
		With:     step.With,
	}

	var (
		output string
		err    error
	)
	switch step.Op {
	case OpUnstrip:
		event.Category = step.Category
		if event.Category == "" {
			event.Category = "both"
		}
		output, err = unstrip(doc.state, event.Category, text)
	case OpKill:
		output = strip.KillMarkers(text)
	case OpSubState:
		sub := doc.state.SubState(text)
		event.Bindings = bindingKeys(sub)
		output, err = sub.UnstripBoth(text)
	case OpMerge:
		with := h.docs[step.With]
		var merged []string
		merged, err = doc.state.Merge(with.state, []string{with.text})
		if err == nil {
			doc.text = text + merged[0]
			output = doc.text
			event.Bindings = bindingKeys(doc.state)
		}
	case OpStore:
		output, err = h.roundTrip(ctx, doc, text)
		if err == nil {
			event.Bindings = bindingKeys(doc.state)
		}
	}

	event.Output = document.Collapse(output)
	if err != nil {
		event.Output = ""
		event.Error = err.Error()
	}
	if len(h.calls) > h.step {
		event.Calls = slices.Clone(h.calls[h.step:])
	}
	result.AddTrace(event)

	for _, msg := range checkStep(step, event) {
		result.AddError(fmt.Sprintf("steps[%d] (%s %s): %s", index, step.Op, step.Document, msg))
	}
}

func unstrip(st *strip.State, category, text string) (string, error) {
	if category == "both" {
		return st.UnstripBoth(text)
	}
	cat, err := strip.ParseCategory(category)
	if err != nil {
		return "", err
	}
	return st.Unstrip(cat, text)
}

// roundTrip saves the document to the fragment store and replaces its
// working state with what is loaded back.
func (h *Harness) roundTrip(ctx context.Context, doc *workingDoc, text string) (string, error) {
	id, err := h.store.SaveFragment(ctx, doc.name, text, doc.state)
	if err != nil {
		return "", err
	}
	frag, err := h.store.LoadFragment(ctx, id, h.opts...)
	if err != nil {
		return "", err
	}
	doc.state = frag.State
	doc.text = frag.Text
	return frag.Text, nil
}

// checkStep compares an event with the step's expect clauses.
func checkStep(step Step, event TraceEvent) []string {
	var errs []string

	if event.Error != "" && step.ExpectError == "" {
		errs = append(errs, fmt.Sprintf("unexpected error: %s", event.Error))
	}
	if step.ExpectError != "" && !strings.Contains(event.Error, step.ExpectError) {
		errs = append(errs, fmt.Sprintf("expected error containing %q, got %q", step.ExpectError, event.Error))
	}
	if step.Expect != nil && *step.Expect != event.Output {
		errs = append(errs, fmt.Sprintf("expected output %q, got %q", *step.Expect, event.Output))
	}
	if step.ExpectCalls != nil && !slices.Equal(step.ExpectCalls, nonNil(event.Calls)) {
		errs = append(errs, fmt.Sprintf("expected calls %v, got %v", step.ExpectCalls, event.Calls))
	}
	if step.ExpectBindings != nil && !slices.Equal(step.ExpectBindings, nonNil(event.Bindings)) {
		errs = append(errs, fmt.Sprintf("expected bindings %v, got %v", step.ExpectBindings, event.Bindings))
	}
	return errs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
